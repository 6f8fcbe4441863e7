// Package client drives wallet login against the auth server and owns the
// resulting session for the lifetime of the process.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/universitydao/walletauth/core"
	"github.com/universitydao/walletauth/internal/logging"
)

var (
	// ErrLoginInProgress is returned when Login is called while another login runs
	ErrLoginInProgress = errors.New("login already in progress")
	// ErrLoginAborted is returned by a Login that was overtaken by a logout
	// or a wallet lock/disconnect before it finished
	ErrLoginAborted = errors.New("login aborted")
)

// State of the session manager
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is the credential held after a successful login
type Session struct {
	Address string
	JWT     string
}

// Manager owns the login state machine. Sessions live in memory only and
// are never restored on start.
type Manager struct {
	wallet   Wallet
	api      AuthAPI
	notifier Notifier
	logger   logging.Logger
	appName  string

	mu          sync.Mutex
	state       State
	session     *Session
	generation  uint64 // bumped by every logout
	unsubscribe func()
}

// NewManager creates a manager. wallet may be nil when no provider is installed.
func NewManager(wallet Wallet, api AuthAPI, notifier Notifier, logger logging.Logger, appName string) *Manager {
	return &Manager{
		wallet:   wallet,
		api:      api,
		notifier: notifier,
		logger:   logger,
		appName:  appName,
	}
}

// Start subscribes to wallet events. Call Close to unsubscribe.
func (m *Manager) Start() {
	if m.wallet == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unsubscribe == nil {
		m.unsubscribe = m.wallet.Subscribe(m.handleEvent)
	}
}

// Close unsubscribes from wallet events
func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// State returns the current state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a copy of the current session, if any
func (m *Manager) Session() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// Login runs the full wallet login. On failure the previous session, if
// any, is kept.
func (m *Manager) Login(ctx context.Context) (*Session, error) {
	if m.wallet == nil {
		m.notifier.Notify(Notice{
			Title:       "MetaMask Required",
			Description: "Please install MetaMask to continue.",
			Destructive: true,
		})
		return nil, core.ErrWalletUnavailable
	}

	m.mu.Lock()
	if m.state == StateConnecting {
		m.mu.Unlock()
		return nil, ErrLoginInProgress
	}
	previous := m.state
	generation := m.generation
	m.state = StateConnecting
	m.mu.Unlock()

	session, err := m.connect(ctx)

	m.mu.Lock()
	if m.generation != generation {
		// A logout during the attempt owns the state now
		m.mu.Unlock()
		m.logger.Info(ctx, "login discarded after logout", "error", err)
		return nil, ErrLoginAborted
	}
	if err != nil {
		m.state = previous
		m.mu.Unlock()

		m.logger.Warn(ctx, "login failed", "error", err)
		m.notifier.Notify(Notice{
			Title:       "Connection Failed",
			Description: failureDescription(err),
			Destructive: !errors.Is(err, core.ErrUserRejected),
		})
		return nil, err
	}
	m.session = session
	m.state = StateConnected
	m.mu.Unlock()

	m.logger.Info(ctx, "wallet connected", "address", session.Address)
	m.notifier.Notify(Notice{
		Title:       "Connected Successfully",
		Description: fmt.Sprintf("Welcome %s!", FormatAddress(session.Address)),
	})

	return session, nil
}

// SwitchAccount re-runs the login so the user can pick another account
func (m *Manager) SwitchAccount(ctx context.Context) (*Session, error) {
	return m.Login(ctx)
}

func (m *Manager) connect(ctx context.Context) (*Session, error) {
	if err := m.wallet.RequestPermissions(ctx); err != nil {
		return nil, fmt.Errorf("failed to request permissions: %w", err)
	}

	accounts, err := m.wallet.RequestAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to request accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, core.ErrNoAccounts
	}
	address := accounts[0]

	nonce, err := m.api.Nonce(ctx)
	if err != nil {
		return nil, err
	}

	signature, err := m.wallet.PersonalSign(ctx, core.ChallengeMessage(m.appName, address, nonce), address)
	if err != nil {
		return nil, fmt.Errorf("failed to sign challenge: %w", err)
	}

	result, err := m.api.Verify(ctx, core.SignedAssertion{
		Address:   address,
		Nonce:     nonce,
		Signature: signature,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		Address: core.NormalizeAddress(address),
		JWT:     result.JWT,
	}, nil
}

// Logout forgets the session and asks the wallet to re-request permissions.
// The wallet call is best effort.
func (m *Manager) Logout(ctx context.Context) {
	m.clear()

	if m.wallet != nil {
		if err := m.wallet.RequestPermissions(ctx); err != nil {
			m.logger.Debug(ctx, "wallet lock request completed", "error", err)
		}
	}

	m.notifier.Notify(Notice{
		Title:       "Disconnected",
		Description: "You have been signed out successfully.",
	})
}

// Authorize attaches the session token to req
func (m *Manager) Authorize(req *http.Request) error {
	session, ok := m.Session()
	if !ok {
		return core.ErrNotConnected
	}

	req.Header.Set("Authorization", "Bearer "+session.JWT)
	return nil
}

func (m *Manager) handleEvent(ev WalletEvent) {
	var notice Notice

	switch ev.Kind {
	case EventAccountsChanged:
		if len(ev.Accounts) > 0 {
			return
		}
		notice = Notice{
			Title:       "Wallet Locked",
			Description: "Wallet locked. Please reconnect.",
			Destructive: true,
		}
	case EventDisconnect:
		notice = Notice{
			Title:       "Wallet Disconnected",
			Description: "Wallet disconnected. Please reconnect.",
			Destructive: true,
		}
	default:
		return
	}

	if !m.clear() {
		return
	}

	m.logger.Info(context.Background(), "session ended by wallet", "reason", notice.Title)
	m.notifier.Notify(notice)
}

// clear drops the session, cancels any pending login and reports whether
// there was a session or a login to end
func (m *Manager) clear() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.session != nil || m.state == StateConnecting
	m.generation++
	m.session = nil
	m.state = StateDisconnected
	return active
}

func failureDescription(err error) string {
	var apiErr *APIError
	switch {
	case errors.Is(err, core.ErrUserRejected):
		return "Signature request was rejected."
	case errors.Is(err, core.ErrNoAccounts):
		return "No accounts found"
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	default:
		return "Failed to connect wallet"
	}
}

package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/universitydao/walletauth/core"
	"github.com/universitydao/walletauth/internal/logging"
	"github.com/universitydao/walletauth/ports"
)

const (
	// MinNonceLength is the shortest nonce accepted on verification
	MinNonceLength = 10

	nonceBytes       = 32
	unknownUserAgent = "Unknown"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// AuthService handles authentication business logic
type AuthService struct {
	appName    string
	nonces     ports.NonceStore
	verifier   ports.SignatureVerifier
	tokenizer  ports.Tokenizer
	connection ports.ConnectionRepository
	eventPub   ports.EventPublisher
	logger     logging.Logger

	nonceTTL time.Duration
	now      func() time.Time
}

// Option configures an AuthService
type Option func(*AuthService)

// WithNonceTTL sets how long an issued nonce stays valid
func WithNonceTTL(ttl time.Duration) Option {
	return func(s *AuthService) { s.nonceTTL = ttl }
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// WithAppName sets the name shown in the signed message
func WithAppName(name string) Option {
	return func(s *AuthService) { s.appName = name }
}

// NewAuthService creates a new authentication service
func NewAuthService(
	nonces ports.NonceStore,
	verifier ports.SignatureVerifier,
	tokenizer ports.Tokenizer,
	connection ports.ConnectionRepository,
	eventPub ports.EventPublisher,
	logger logging.Logger,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		appName:    "UniversityDAO",
		nonces:     nonces,
		verifier:   verifier,
		tokenizer:  tokenizer,
		connection: connection,
		eventPub:   eventPub,
		logger:     logger,
		nonceTTL:   5 * time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// AppName returns the application name embedded in challenge messages
func (s *AuthService) AppName() string {
	return s.appName
}

// IssueNonce generates and stores a fresh one-time nonce
func (s *AuthService) IssueNonce(ctx context.Context) (*core.Challenge, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := s.now()
	challenge := &core.Challenge{
		Nonce:     hex.EncodeToString(buf),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.nonceTTL),
	}

	if err := s.nonces.Save(ctx, challenge.Nonce, s.nonceTTL); err != nil {
		return nil, fmt.Errorf("failed to store nonce: %w", err)
	}

	s.logger.Debug(ctx, "nonce issued", "expires_at", challenge.ExpiresAt)

	return challenge, nil
}

// ValidateAssertion checks the shape of an assertion without any crypto work
func ValidateAssertion(a core.SignedAssertion) error {
	if !addressPattern.MatchString(a.Address) {
		return fmt.Errorf("address must be 0x followed by 40 hex characters: %w", core.ErrInvalidInput)
	}
	if len(a.Nonce) < MinNonceLength {
		return fmt.Errorf("nonce must be at least %d characters: %w", MinNonceLength, core.ErrInvalidInput)
	}
	if a.Signature == "" {
		return fmt.Errorf("signature is required: %w", core.ErrInvalidInput)
	}
	return nil
}

// LoginResult is returned by a successful Verify
type LoginResult struct {
	Token      string
	Session    *core.Session
	Connection *core.WalletConnection
}

// Verify authenticates a signed challenge and issues a session token
func (s *AuthService) Verify(ctx context.Context, assertion core.SignedAssertion, client core.ClientInfo) (*LoginResult, error) {
	if err := ValidateAssertion(assertion); err != nil {
		return nil, err
	}

	// The nonce is spent by any verification attempt, successful or not
	if err := s.nonces.Consume(ctx, assertion.Nonce); err != nil {
		if errors.Is(err, core.ErrInvalidNonce) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to consume nonce: %w", err)
	}

	message := core.ChallengeMessage(s.appName, assertion.Address, assertion.Nonce)
	if err := s.verifier.Verify(message, assertion.Signature, assertion.Address); err != nil {
		s.logger.Info(ctx, "signature verification failed", "address", assertion.Address, "error", err)
		return nil, fmt.Errorf("signature verification failed: %w", err)
	}

	now := s.now()
	address := core.NormalizeAddress(assertion.Address)
	session := &core.Session{
		ID:        uuid.New().String(),
		Address:   address,
		Issuer:    s.tokenizer.Issuer(),
		Audience:  s.tokenizer.Audience(),
		Nonce:     assertion.Nonce,
		IssuedAt:  now,
		ExpiresAt: now.Add(core.SessionTTL),
	}

	token, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session token: %w", err)
	}

	if client.UserAgent == "" {
		client.UserAgent = unknownUserAgent
	}

	connection, err := s.connection.RecordConnection(ctx, address, now, client)
	if err != nil {
		return nil, fmt.Errorf("failed to record wallet connection: %w", err)
	}

	if err := s.eventPub.PublishLogin(ctx, session, connection); err != nil {
		// The session is already issued
		s.logger.Warn(ctx, "failed to publish login event", "address", address, "error", err)
	}

	s.logger.Info(ctx, "authentication successful",
		"address", address,
		"session_id", session.ID,
		"connection_count", connection.ConnectionCount,
	)

	return &LoginResult{
		Token:      token,
		Session:    session,
		Connection: connection,
	}, nil
}

// ValidateToken parses a session token and checks it is still valid
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*core.Session, error) {
	session, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		return nil, err
	}

	if session.Expired(s.now()) {
		return nil, core.ErrTokenExpired
	}

	return session, nil
}

// Connection returns the connection record of an address
func (s *AuthService) Connection(ctx context.Context, address string) (*core.WalletConnection, error) {
	return s.connection.Get(ctx, address)
}

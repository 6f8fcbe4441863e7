package client

import "context"

// EventKind identifies a wallet notification
type EventKind int

const (
	// EventAccountsChanged is emitted when the exposed accounts change;
	// zero accounts means the wallet was locked or disconnected.
	EventAccountsChanged EventKind = iota
	// EventDisconnect is emitted when the wallet loses its connection
	EventDisconnect
)

// WalletEvent is delivered to subscribers of a Wallet
type WalletEvent struct {
	Kind     EventKind
	Accounts []string
}

// Wallet is the capability a browser-injected provider (or any signer)
// exposes to the session manager.
type Wallet interface {
	// RequestPermissions forces the account chooser
	RequestPermissions(ctx context.Context) error
	RequestAccounts(ctx context.Context) ([]string, error)
	// PersonalSign asks the user to sign message. It blocks until the user
	// answers or ctx is done and returns core.ErrUserRejected on refusal.
	PersonalSign(ctx context.Context, message, address string) (string, error)
	// Subscribe registers handler for wallet events and returns a function
	// removing it.
	Subscribe(handler func(WalletEvent)) (unsubscribe func())
}

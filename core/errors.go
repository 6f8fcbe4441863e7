package core

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidNonce        = errors.New("invalid or expired nonce")
	ErrNonceExists         = errors.New("nonce already issued")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrServerConfiguration = errors.New("server configuration error")
	ErrTokenExpired        = errors.New("token has expired")
	ErrInvalidToken        = errors.New("invalid token")
	ErrNotFound            = errors.New("not found")

	// Client side
	ErrWalletUnavailable = errors.New("no wallet available")
	ErrUserRejected      = errors.New("user rejected the request")
	ErrNoAccounts        = errors.New("no accounts found")
	ErrNotConnected      = errors.New("not connected")
)

package ports

import (
	"context"
	"time"
)

// NonceStore keeps issued nonces until they are used or expire
type NonceStore interface {
	// Save records a nonce that may be consumed once within ttl
	Save(ctx context.Context, nonce string, ttl time.Duration) error
	// Consume atomically removes the nonce. It returns core.ErrInvalidNonce
	// if the nonce was never issued, has expired or was already consumed.
	Consume(ctx context.Context, nonce string) error
}

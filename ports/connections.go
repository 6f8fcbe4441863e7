package ports

import (
	"context"
	"time"

	"github.com/universitydao/walletauth/core"
)

// ConnectionRepository persists wallet connection analytics
type ConnectionRepository interface {
	// RecordConnection inserts the row with a count of 1 or increments an
	// existing one, in a single atomic step.
	RecordConnection(ctx context.Context, address string, at time.Time, client core.ClientInfo) (*core.WalletConnection, error)
	// Get returns core.ErrNotFound when the address never logged in.
	Get(ctx context.Context, address string) (*core.WalletConnection, error)
}

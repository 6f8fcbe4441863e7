package connections

import (
	"context"
	"sync"
	"time"

	"github.com/universitydao/walletauth/core"
	"github.com/universitydao/walletauth/ports"
)

// MemoryRepository keeps connection rows in a map.
// This is primarily intended for local runs and tests.
type MemoryRepository struct {
	rows map[string]core.WalletConnection
	mu   sync.Mutex
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() ports.ConnectionRepository {
	return &MemoryRepository{
		rows: make(map[string]core.WalletConnection),
	}
}

func (r *MemoryRepository) RecordConnection(ctx context.Context, address string, at time.Time, client core.ClientInfo) (*core.WalletConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := core.NormalizeAddress(address)
	row, exists := r.rows[key]
	if !exists {
		row = core.WalletConnection{
			WalletAddress: key,
			ConnectedAt:   at,
		}
	}
	row.ConnectionCount++
	row.LastConnectedAt = at
	row.UserAgent = client.UserAgent
	row.IPAddress = client.IPAddress
	r.rows[key] = row

	return &row, nil
}

func (r *MemoryRepository) Get(ctx context.Context, address string) (*core.WalletConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, exists := r.rows[core.NormalizeAddress(address)]
	if !exists {
		return nil, core.ErrNotFound
	}

	return &row, nil
}

package store

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/universitydao/walletauth/core"
	"github.com/universitydao/walletauth/ports"
)

const cleanupInterval = 10 * time.Minute

// MemoryNonceStore is an in-memory implementation of the NonceStore interface.
// It is meant for a single instance and for tests.
type MemoryNonceStore struct {
	nonces *cache.Cache
	// go-cache has no atomic get-and-delete
	mu sync.Mutex
}

// NewMemoryNonceStore creates a new in-memory nonce store
func NewMemoryNonceStore() ports.NonceStore {
	return &MemoryNonceStore{
		nonces: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

// Save stores the nonce until ttl elapses
func (s *MemoryNonceStore) Save(ctx context.Context, nonce string, ttl time.Duration) error {
	// Add refuses keys that are already present
	if err := s.nonces.Add(nonce, struct{}{}, ttl); err != nil {
		return core.ErrNonceExists
	}
	return nil
}

// Consume removes the nonce if it is still live
func (s *MemoryNonceStore) Consume(ctx context.Context, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.nonces.Get(nonce); !found {
		return core.ErrInvalidNonce
	}
	s.nonces.Delete(nonce)

	return nil
}

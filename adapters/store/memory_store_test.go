package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/universitydao/walletauth/core"
)

func TestMemoryNonceStore_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryNonceStore()

	require.NoError(t, s.Save(ctx, "nonce-0123456789", time.Minute))
	require.NoError(t, s.Consume(ctx, "nonce-0123456789"))
	assert.ErrorIs(t, s.Consume(ctx, "nonce-0123456789"), core.ErrInvalidNonce)
}

func TestMemoryNonceStore_Unknown(t *testing.T) {
	s := NewMemoryNonceStore()
	assert.ErrorIs(t, s.Consume(context.Background(), "never-issued"), core.ErrInvalidNonce)
}

func TestMemoryNonceStore_Expired(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryNonceStore()

	require.NoError(t, s.Save(ctx, "short-lived-nonce", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	assert.ErrorIs(t, s.Consume(ctx, "short-lived-nonce"), core.ErrInvalidNonce)
}

func TestMemoryNonceStore_DuplicateSave(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryNonceStore()

	require.NoError(t, s.Save(ctx, "dup-nonce-000", time.Minute))
	assert.ErrorIs(t, s.Save(ctx, "dup-nonce-000", time.Minute), core.ErrNonceExists)
}

func TestMemoryNonceStore_ConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryNonceStore()
	require.NoError(t, s.Save(ctx, "contended-nonce", time.Minute))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Consume(ctx, "contended-nonce") == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/universitydao/walletauth/core"
	"github.com/universitydao/walletauth/ports"
)

// RedisNonceStore is a Redis implementation of the NonceStore interface
type RedisNonceStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisNonceStore creates a new Redis nonce store
func NewRedisNonceStore(client redis.UniversalClient) ports.NonceStore {
	return &RedisNonceStore{
		client: client,
		prefix: "unidao:nonce:",
	}
}

// Save stores the nonce with an expiration, refusing duplicates
func (s *RedisNonceStore) Save(ctx context.Context, nonce string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, s.prefix+nonce, "1", ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save nonce: %w", err)
	}
	if !ok {
		return core.ErrNonceExists
	}

	return nil
}

// Consume deletes the nonce with GETDEL so only one caller can win
func (s *RedisNonceStore) Consume(ctx context.Context, nonce string) error {
	_, err := s.client.GetDel(ctx, s.prefix+nonce).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.ErrInvalidNonce
		}
		return fmt.Errorf("failed to consume nonce: %w", err)
	}

	return nil
}

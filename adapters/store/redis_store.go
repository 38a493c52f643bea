package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of the NonceStore and SessionStore
// interfaces. Expiry is delegated to Redis key TTLs.
type RedisStore struct {
	client      *redis.Client
	noncePrefix string
	tokenPrefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:      client,
		noncePrefix: "pitchbase:nonce:",
		tokenPrefix: "pitchbase:invalidated:",
	}
}

// Issue records a freshly generated nonce with its time-to-live
func (s *RedisStore) Issue(ctx context.Context, nonce string, ttl time.Duration) error {
	key := s.noncePrefix + nonce

	if err := s.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store nonce: %w", err)
	}

	return nil
}

// Consume atomically deletes a nonce and reports whether it was live.
// GETDEL makes the single-use guarantee hold across instances.
func (s *RedisStore) Consume(ctx context.Context, nonce string) (bool, error) {
	key := s.noncePrefix + nonce

	_, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume nonce: %w", err)
	}

	return true, nil
}

// InvalidateToken marks a token as invalidated in Redis
func (s *RedisStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	key := s.tokenPrefix + tokenID

	if err := s.client.Set(ctx, key, "1", expiry).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	return nil
}

// IsTokenInvalidated checks if a token is invalidated in Redis
func (s *RedisStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	key := s.tokenPrefix + tokenID

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w", err)
	}

	return val > 0, nil
}

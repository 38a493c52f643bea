package ports

import (
	"context"
	"time"
)

// NonceStore tracks issued sign-in nonces. A nonce is consumed exactly once;
// consuming an unknown, expired or already-used nonce reports false.
type NonceStore interface {
	Issue(ctx context.Context, nonce string, ttl time.Duration) error
	Consume(ctx context.Context, nonce string) (bool, error)
}

// SessionStore tracks invalidated refresh token ids
type SessionStore interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}

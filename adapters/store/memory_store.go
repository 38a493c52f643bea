package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the NonceStore and
// SessionStore interfaces, used in tests and single-instance deployments.
type MemoryStore struct {
	nonces            map[string]time.Time
	invalidatedTokens map[string]time.Time
	mu                sync.Mutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nonces:            make(map[string]time.Time),
		invalidatedTokens: make(map[string]time.Time),
	}
}

// Issue records a freshly generated nonce with its time-to-live
func (s *MemoryStore) Issue(ctx context.Context, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nonces[nonce] = time.Now().Add(ttl)
	return nil
}

// Consume removes a nonce and reports whether it was live. A second call for
// the same nonce returns false, which is what makes replays detectable.
func (s *MemoryStore) Consume(ctx context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, exists := s.nonces[nonce]
	if !exists {
		return false, nil
	}
	delete(s.nonces, nonce)

	if time.Now().After(expiry) {
		return false, nil
	}
	return true, nil
}

// InvalidateToken marks a token as invalidated
func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime := time.Now().Add(expiry)
	s.invalidatedTokens[tokenID] = expiryTime

	// Drop the record once it no longer matters
	go func() {
		time.Sleep(expiry)

		s.mu.Lock()
		defer s.mu.Unlock()

		// Only delete if the expiry time hasn't changed
		if storedExpiry, exists := s.invalidatedTokens[tokenID]; exists && !storedExpiry.After(expiryTime) {
			delete(s.invalidatedTokens, tokenID)
		}
	}()

	return nil
}

// IsTokenInvalidated checks if a token is invalidated
func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime, exists := s.invalidatedTokens[tokenID]
	if !exists {
		return false, nil
	}

	if time.Now().After(expiryTime) {
		return false, nil
	}

	return true, nil
}

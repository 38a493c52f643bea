package content

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pitchbase/pitchbase/core"
	"github.com/pitchbase/pitchbase/ports"
)

// MemoryAccounts is an in-memory AccountStore used in tests and local
// development. It enforces the same one-account-per-address invariant as the
// content backend, keyed by lowercased address.
type MemoryAccounts struct {
	byAddress map[string]*core.Account
	mu        sync.Mutex
}

// NewMemoryAccounts creates an empty in-memory account store.
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{byAddress: make(map[string]*core.Account)}
}

var _ ports.AccountStore = (*MemoryAccounts)(nil)

// FindByWalletAddress returns nil when the address has never been seen.
func (s *MemoryAccounts) FindByWalletAddress(ctx context.Context, address string) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byAddress[strings.ToLower(address)]
	if !ok {
		return nil, nil
	}
	cp := *acc
	return &cp, nil
}

// FindByID fetches an account by id.
func (s *MemoryAccounts) FindByID(ctx context.Context, id string) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.byAddress {
		if acc.ID == id {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, core.ErrAccountNotFound
}

// Create stores a new account, or returns the existing one unmodified when
// the address is already taken. The lock serializes concurrent first logins.
func (s *MemoryAccounts) Create(ctx context.Context, account core.Account) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(account.WalletAddress)
	if existing, ok := s.byAddress[key]; ok {
		cp := *existing
		return &cp, nil
	}

	now := time.Now().UTC()
	account.ID = DocumentID(account.WalletAddress)
	account.CreatedAt = now
	account.UpdatedAt = now
	s.byAddress[key] = &account

	cp := account
	return &cp, nil
}

// Patch applies a partial profile update.
func (s *MemoryAccounts) Patch(ctx context.Context, id string, patch core.ProfilePatch) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.byAddress {
		if acc.ID != id {
			continue
		}
		if patch.Name != nil {
			acc.Name = *patch.Name
		}
		if patch.Username != nil {
			acc.Username = *patch.Username
		}
		if patch.Email != nil {
			acc.Email = *patch.Email
		}
		if patch.Image != nil {
			acc.Image = *patch.Image
		}
		if patch.Bio != nil {
			acc.Bio = *patch.Bio
		}
		acc.UpdatedAt = time.Now().UTC()
		cp := *acc
		return &cp, nil
	}
	return nil, core.ErrAccountNotFound
}

package service

import (
	"context"
	"fmt"

	"github.com/pitchbase/pitchbase/core"
	"github.com/pitchbase/pitchbase/ports"
)

// AccountService exposes profile reads and edits over the account store.
type AccountService struct {
	accounts ports.AccountStore
}

// NewAccountService creates a new account service
func NewAccountService(accounts ports.AccountStore) *AccountService {
	return &AccountService{accounts: accounts}
}

// GetByID fetches an account by its id.
func (s *AccountService) GetByID(ctx context.Context, id string) (*core.Account, error) {
	return s.accounts.FindByID(ctx, id)
}

// GetByWallet fetches an account by wallet address. A never-seen address
// yields nil, not an error, so callers can distinguish "new user" from
// store failures.
func (s *AccountService) GetByWallet(ctx context.Context, address string) (*core.Account, error) {
	return s.accounts.FindByWalletAddress(ctx, address)
}

// UpdateProfile applies a partial profile update to the given account.
// The wallet address is immutable and not part of the patch.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, patch core.ProfilePatch) (*core.Account, error) {
	account, err := s.accounts.Patch(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("profile update failed: %w", err)
	}
	return account, nil
}

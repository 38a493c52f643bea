package ports

import (
	"context"

	"github.com/pitchbase/pitchbase/core"
)

// AccountStore is the external document store holding account records.
// Addresses compare case-insensitively. The store owns the one-account-per-
// address invariant: Create must behave as an upsert-by-unique-key so that
// two concurrent first logins for the same address yield a single account.
type AccountStore interface {
	// FindByWalletAddress returns nil without error when no account exists.
	FindByWalletAddress(ctx context.Context, address string) (*core.Account, error)

	// FindByID returns core.ErrAccountNotFound when the id is unknown.
	FindByID(ctx context.Context, id string) (*core.Account, error)

	// Create persists a new account and returns it with the store-assigned
	// id. If an account for the same address already exists, the existing
	// one is returned unmodified.
	Create(ctx context.Context, account core.Account) (*core.Account, error)

	// Patch applies a partial profile update to the account with the given id.
	Patch(ctx context.Context, id string, patch core.ProfilePatch) (*core.Account, error)
}

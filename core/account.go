package core

import (
	"fmt"
	"strings"
	"time"
)

// Account is the persistent user record keyed by wallet address.
// The store guarantees at most one account per distinct address
// (case-insensitive compare).
type Account struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	Name          string    `json:"name"`
	Username      string    `json:"username"`
	Email         string    `json:"email,omitempty"`
	Image         string    `json:"image,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProfilePatch carries the mutable profile attributes of an account.
// A nil field leaves the stored value untouched. WalletAddress is
// immutable and intentionally absent.
type ProfilePatch struct {
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Image    *string `json:"image,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

// ShortAddress renders an address in the truncated display form used for
// default account names, e.g. "0x1234...abcd".
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return fmt.Sprintf("%s...%s", address[:6], address[len(address)-4:])
}

// NewAccountDefaults builds the profile defaults assigned on first login.
func NewAccountDefaults(address string) Account {
	return Account{
		WalletAddress: address,
		Name:          fmt.Sprintf("User %s", ShortAddress(address)),
		Username:      strings.ToLower(address),
		Image:         fmt.Sprintf("https://avatars.dicebear.com/api/identicon/%s.svg", address),
		Bio:           "Web3 user",
	}
}

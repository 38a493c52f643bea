// Package wallet provides an in-process signing wallet backed by a raw
// secp256k1 key. It stands in for a browser wallet in the Go client and in
// tests; the signatures it produces are indistinguishable from a wallet's
// personal_sign output.
package wallet

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/pitchbase/pitchbase/core"
	"github.com/pitchbase/pitchbase/ports"
)

// LocalWallet signs with a private key held in memory.
type LocalWallet struct {
	key *ecdsa.PrivateKey
}

// NewLocalWallet wraps an existing key. A nil key models the
// no-wallet-connected state.
func NewLocalWallet(key *ecdsa.PrivateKey) *LocalWallet {
	return &LocalWallet{key: key}
}

// Generate creates a wallet with a fresh random key.
func Generate() (*LocalWallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &LocalWallet{key: key}, nil
}

var _ ports.Wallet = (*LocalWallet)(nil)

// Address returns the account derived from the held key.
func (w *LocalWallet) Address() (common.Address, error) {
	if w.key == nil {
		return common.Address{}, core.ErrNoWalletConnected
	}
	return crypto.PubkeyToAddress(w.key.PublicKey), nil
}

// SignMessage produces a personal-sign signature over msg with the recovery
// id offset to 27/28, matching what browser wallets emit.
func (w *LocalWallet) SignMessage(ctx context.Context, msg []byte) ([]byte, error) {
	if w.key == nil {
		return nil, core.ErrNoWalletConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, core.ErrSigningTimeout
	}

	sig, err := crypto.Sign(accounts.TextHash(msg), w.key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

package wallet

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchbase/pitchbase/core"
)

func TestSignMessageRecoverable(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)
	address, err := w.Address()
	require.NoError(t, err)

	msg := []byte("hello from the signing prompt")
	sig, err := w.SignMessage(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.GreaterOrEqual(t, sig[64], byte(27), "recovery id carries the personal_sign offset")

	sig[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(msg), sig)
	require.NoError(t, err)
	assert.Equal(t, address, crypto.PubkeyToAddress(*pub))
}

func TestNilKeyModelsNoWallet(t *testing.T) {
	w := NewLocalWallet(nil)

	_, err := w.Address()
	assert.ErrorIs(t, err, core.ErrNoWalletConnected)

	_, err = w.SignMessage(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, core.ErrNoWalletConnected)
}

func TestCancelledContext(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = w.SignMessage(ctx, []byte("x"))
	assert.ErrorIs(t, err, core.ErrSigningTimeout)
}

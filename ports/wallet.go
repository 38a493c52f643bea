package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Wallet is an external key-holding agent capable of producing signatures
// over arbitrary messages. Signing may block on user interaction and can be
// cancelled through the context at any point up to completion.
type Wallet interface {
	// Address returns the connected account, or core.ErrNoWalletConnected.
	Address() (common.Address, error)

	// SignMessage produces a 65-byte personal-sign signature over msg.
	SignMessage(ctx context.Context, msg []byte) ([]byte, error)
}

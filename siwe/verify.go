package siwe

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/pitchbase/pitchbase/core"
)

// SigHash returns the EIP-191 personal-sign digest of the canonical message.
func (m *Message) SigHash() []byte {
	return accounts.TextHash([]byte(m.String()))
}

// RecoverAddress recovers the signer of the canonical message from a 65-byte
// secp256k1 signature. Both 0/1 and 27/28 recovery ids are accepted.
func RecoverAddress(m *Message, signature []byte) (common.Address, error) {
	if len(signature) != 65 {
		return common.Address{}, fmt.Errorf("signature must be 65 bytes: %w", core.ErrInvalidSignature)
	}

	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pub, err := crypto.SigToPub(m.SigHash(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", core.ErrInvalidSignature)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify checks that the hex-encoded signature was produced over the
// canonical serialization by the address bound in the message, and returns
// the recovered address.
func Verify(m *Message, signature string) (common.Address, error) {
	decoded, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}

	recovered, err := RecoverAddress(m, decoded)
	if err != nil {
		return common.Address{}, err
	}
	if recovered != m.EthAddress() {
		return common.Address{}, fmt.Errorf("recovered address %s does not match %s: %w",
			recovered.Hex(), m.Address, core.ErrInvalidSignature)
	}
	return recovered, nil
}

package siwe

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateNonce returns a single-use random token. 16 bytes of entropy keep
// it unpredictable while staying within the EIP-4361 alphanumeric alphabet.
func GenerateNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

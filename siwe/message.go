// Package siwe implements Sign-In with Ethereum (EIP-4361) message
// construction, parsing and signature verification. Users authenticate by
// signing a standardized message with their wallet's secp256k1 private key.
package siwe

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pitchbase/pitchbase/core"
)

// Version is the EIP-4361 protocol version literal.
const Version = "1"

const headerSuffix = " wants you to sign in with your Ethereum account:"

// Message is a sign-in challenge. Timestamps are kept as the RFC 3339
// strings that appear in the serialized message so that parsing and
// re-serializing round-trips the exact signed bytes.
type Message struct {
	Domain         string `json:"domain"`
	Address        string `json:"address"`
	Statement      string `json:"statement,omitempty"`
	URI            string `json:"uri"`
	Version        string `json:"version"`
	ChainID        int    `json:"chainId"`
	Nonce          string `json:"nonce"`
	IssuedAt       string `json:"issuedAt"`
	ExpirationTime string `json:"expirationTime,omitempty"`
}

// NewMessage builds a challenge for the given wallet address. The address is
// rendered in EIP-55 checksum form and issuedAt is set to now.
func NewMessage(domain string, address common.Address, uri string, chainID int, nonce string) *Message {
	return &Message{
		Domain:    domain,
		Address:   address.Hex(),
		Statement: "Sign in to the startup pitch directory",
		URI:       uri,
		Version:   Version,
		ChainID:   chainID,
		Nonce:     nonce,
		IssuedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}

// String returns the canonical EIP-4361 serialization. The same field values
// always produce the same byte sequence; the verifier reconstructs and hashes
// this form, never the raw client payload.
func (m *Message) String() string {
	var b strings.Builder
	b.WriteString(m.Domain)
	b.WriteString(headerSuffix)
	b.WriteByte('\n')
	b.WriteString(m.Address)
	b.WriteString("\n\n")
	if m.Statement != "" {
		b.WriteString(m.Statement)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "URI: %s\n", m.URI)
	fmt.Fprintf(&b, "Version: %s\n", m.Version)
	fmt.Fprintf(&b, "Chain ID: %d\n", m.ChainID)
	fmt.Fprintf(&b, "Nonce: %s\n", m.Nonce)
	fmt.Fprintf(&b, "Issued At: %s", m.IssuedAt)
	if m.ExpirationTime != "" {
		fmt.Fprintf(&b, "\nExpiration Time: %s", m.ExpirationTime)
	}
	return b.String()
}

// EthAddress returns the bound address in its parsed form. Comparisons
// against it are case-insensitive by construction.
func (m *Message) EthAddress() common.Address {
	return common.HexToAddress(m.Address)
}

// IssuedAtTime parses the issuedAt field.
func (m *Message) IssuedAtTime() (time.Time, error) {
	return time.Parse(time.RFC3339, m.IssuedAt)
}

// ExpiresAtTime parses the optional expirationTime field. The bool reports
// whether the field is present.
func (m *Message) ExpiresAtTime() (time.Time, bool, error) {
	if m.ExpirationTime == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, m.ExpirationTime)
	return t, true, err
}

// ParseMessage parses a serialized EIP-4361 message into structured fields.
// Anything that deviates from the canonical layout fails with
// core.ErrMalformedMessage.
func ParseMessage(raw string) (*Message, error) {
	lines := strings.Split(raw, "\n")
	if len(lines) < 8 {
		return nil, fmt.Errorf("%w: too few lines", core.ErrMalformedMessage)
	}

	domain, ok := strings.CutSuffix(lines[0], headerSuffix)
	if !ok || domain == "" {
		return nil, fmt.Errorf("%w: bad header line", core.ErrMalformedMessage)
	}

	address := lines[1]
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: invalid address", core.ErrMalformedMessage)
	}
	if lines[2] != "" {
		return nil, fmt.Errorf("%w: expected blank line after address", core.ErrMalformedMessage)
	}

	msg := &Message{Domain: domain, Address: address}

	i := 3
	if !strings.HasPrefix(lines[i], "URI: ") {
		msg.Statement = lines[i]
		if msg.Statement == "" || len(lines) < i+2 || lines[i+1] != "" {
			return nil, fmt.Errorf("%w: bad statement block", core.ErrMalformedMessage)
		}
		i += 2
	}

	next := func(prefix string) (string, error) {
		if i >= len(lines) {
			return "", fmt.Errorf("%w: missing %q field", core.ErrMalformedMessage, strings.TrimSuffix(prefix, ": "))
		}
		v, ok := strings.CutPrefix(lines[i], prefix)
		if !ok || v == "" {
			return "", fmt.Errorf("%w: missing %q field", core.ErrMalformedMessage, strings.TrimSuffix(prefix, ": "))
		}
		i++
		return v, nil
	}

	var err error
	if msg.URI, err = next("URI: "); err != nil {
		return nil, err
	}
	if msg.Version, err = next("Version: "); err != nil {
		return nil, err
	}
	if msg.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %q", core.ErrMalformedMessage, msg.Version)
	}
	chainID, err := next("Chain ID: ")
	if err != nil {
		return nil, err
	}
	if msg.ChainID, err = strconv.Atoi(chainID); err != nil {
		return nil, fmt.Errorf("%w: invalid chain id", core.ErrMalformedMessage)
	}
	if msg.Nonce, err = next("Nonce: "); err != nil {
		return nil, err
	}
	if msg.IssuedAt, err = next("Issued At: "); err != nil {
		return nil, err
	}
	if _, err := msg.IssuedAtTime(); err != nil {
		return nil, fmt.Errorf("%w: invalid issuedAt timestamp", core.ErrMalformedMessage)
	}

	if i < len(lines) {
		if msg.ExpirationTime, err = next("Expiration Time: "); err != nil {
			return nil, err
		}
		if _, _, err := msg.ExpiresAtTime(); err != nil {
			return nil, fmt.Errorf("%w: invalid expirationTime timestamp", core.ErrMalformedMessage)
		}
	}
	if i != len(lines) {
		return nil, fmt.Errorf("%w: trailing content", core.ErrMalformedMessage)
	}

	return msg, nil
}

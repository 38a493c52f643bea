package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with access-specific ones. The
// subject is the account id; the wallet address rides along so protected
// handlers can re-identify the user without a store lookup.
type AccessClaims struct {
	jwt.RegisteredClaims
	Wallet    string `json:"wallet"`
	RefreshID string `json:"rid"` // ID of the refresh token
}

// RefreshClaims carry the wallet address on top of the standard claims
type RefreshClaims struct {
	jwt.RegisteredClaims
	Wallet string `json:"wallet"`
}

package core

import "errors"

// Verification-time failures. Each one is terminal for the login attempt;
// the caller restarts with a fresh nonce.
var (
	ErrMalformedMessage = errors.New("malformed sign-in message")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrDomainMismatch   = errors.New("domain mismatch")
	ErrReplayedNonce    = errors.New("nonce already used or unknown")
	ErrExpiredChallenge = errors.New("challenge has expired")
)

// Client-side failures, raised before anything reaches the verifier.
var (
	ErrNoWalletConnected = errors.New("no wallet connected")
	ErrUserRejected      = errors.New("signing rejected by user")
	ErrSigningTimeout    = errors.New("signing timed out")
)

// Resolver and session failures.
var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrAccountNotFound  = errors.New("account not found")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalidated = errors.New("token has been invalidated")
	ErrInvalidToken     = errors.New("invalid token")
)

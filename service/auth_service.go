package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pitchbase/pitchbase/core"
	"github.com/pitchbase/pitchbase/ports"
	"github.com/pitchbase/pitchbase/siwe"
)

// AuthService handles the sign-in-with-Ethereum flow: nonce issuance,
// credential verification, account resolution and session issuance.
type AuthService struct {
	tokenizer ports.Tokenizer
	accounts  ports.AccountStore
	nonces    ports.NonceStore
	sessions  ports.SessionStore
	eventPub  ports.EventPublisher

	domain string

	challengeTTL time.Duration
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

// NewAuthService creates a new authentication service. domain is the host
// the service verifies sign-in messages against.
func NewAuthService(
	domain string,
	tokenizer ports.Tokenizer,
	accounts ports.AccountStore,
	nonces ports.NonceStore,
	sessions ports.SessionStore,
	eventPub ports.EventPublisher,
) *AuthService {
	return &AuthService{
		tokenizer:    tokenizer,
		accounts:     accounts,
		nonces:       nonces,
		sessions:     sessions,
		eventPub:     eventPub,
		domain:       domain,
		challengeTTL: 5 * time.Minute,
		accessTTL:    5 * time.Minute,
		refreshTTL:   5 * 24 * time.Hour, // 5 days
	}
}

// ChallengeTTL reports how long an issued nonce stays valid.
func (s *AuthService) ChallengeTTL() time.Duration {
	return s.challengeTTL
}

// IssueNonce generates and records a single-use nonce for a new login attempt.
func (s *AuthService) IssueNonce(ctx context.Context) (string, error) {
	nonce, err := siwe.GenerateNonce()
	if err != nil {
		return "", err
	}

	if err := s.nonces.Issue(ctx, nonce, s.challengeTTL); err != nil {
		return "", fmt.Errorf("failed to store nonce: %w", err)
	}

	return nonce, nil
}

// Login verifies a signed sign-in message and returns session tokens together
// with the resolved account. Every failure is terminal for the attempt; no
// account or session state is written before verification succeeds.
func (s *AuthService) Login(ctx context.Context, rawMessage, signature string) (string, string, *core.Account, error) {
	// 1. Parse the claimed message into structured fields
	msg, err := siwe.ParseMessage(rawMessage)
	if err != nil {
		return "", "", nil, err
	}

	// 2. Recover the signer over the canonical serialization and compare it
	// to the address bound in the message
	address, err := siwe.Verify(msg, signature)
	if err != nil {
		return "", "", nil, err
	}

	// 3. The message must be bound to this service's domain
	if msg.Domain != s.domain {
		return "", "", nil, fmt.Errorf("message domain %q does not match %q: %w", msg.Domain, s.domain, core.ErrDomainMismatch)
	}

	// 4. The nonce must be one we issued and never seen in a verification
	live, err := s.nonces.Consume(ctx, msg.Nonce)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to consume nonce: %w", err)
	}
	if !live {
		return "", "", nil, core.ErrReplayedNonce
	}

	// 5. The message must be fresh
	if err := s.checkFreshness(msg); err != nil {
		return "", "", nil, err
	}

	account, err := s.resolveAccount(ctx, address.Hex())
	if err != nil {
		return "", "", nil, err
	}

	accessToken, refreshToken, err := s.issueSession(account)
	if err != nil {
		return "", "", nil, err
	}

	return accessToken, refreshToken, account, nil
}

func (s *AuthService) checkFreshness(msg *siwe.Message) error {
	now := time.Now()

	issuedAt, err := msg.IssuedAtTime()
	if err != nil {
		return fmt.Errorf("%w: invalid issuedAt", core.ErrMalformedMessage)
	}
	if now.Sub(issuedAt) > s.challengeTTL {
		return fmt.Errorf("message issued %s ago: %w", now.Sub(issuedAt).Round(time.Second), core.ErrExpiredChallenge)
	}

	if expiry, ok, err := msg.ExpiresAtTime(); err != nil {
		return fmt.Errorf("%w: invalid expirationTime", core.ErrMalformedMessage)
	} else if ok && now.After(expiry) {
		return fmt.Errorf("message expired at %s: %w", expiry.Format(time.RFC3339), core.ErrExpiredChallenge)
	}

	return nil
}

// resolveAccount looks up the account for a verified address, provisioning
// one with derived defaults on first login. The store serializes concurrent
// creation attempts for the same address.
func (s *AuthService) resolveAccount(ctx context.Context, address string) (*core.Account, error) {
	account, err := s.accounts.FindByWalletAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
	if account != nil {
		return account, nil
	}

	created, err := s.accounts.Create(ctx, core.NewAccountDefaults(address))
	if err != nil {
		return nil, fmt.Errorf("account creation failed: %w", err)
	}

	if err := s.eventPub.PublishSignup(ctx, created.ID, created.WalletAddress); err != nil {
		// The account exists regardless; other instances just miss the event
		log.Warn().Err(err).Str("account", created.ID).Msg("failed to publish signup event")
	}

	log.Info().Str("account", created.ID).Str("address", created.WalletAddress).Msg("provisioned account for new wallet")
	return created, nil
}

func (s *AuthService) issueSession(account *core.Account) (string, string, error) {
	now := time.Now()
	session := &core.Session{
		ID:            uuid.New().String(),
		AccountID:     account.ID,
		Address:       account.WalletAddress,
		IssuedAt:      now,
		RefreshExpiry: now.Add(s.refreshTTL),
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshID:     uuid.New().String(),
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return "", "", fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return "", "", fmt.Errorf("failed to create refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// Refresh rotates the refresh token and issues new access and refresh tokens
func (s *AuthService) Refresh(ctx context.Context, refreshTokenStr string) (string, string, error) {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", err)
	}

	if time.Now().After(session.RefreshExpiry) {
		return "", "", core.ErrTokenExpired
	}

	invalidated, err := s.sessions.IsTokenInvalidated(ctx, session.RefreshID)
	if err != nil {
		return "", "", fmt.Errorf("failed to check token invalidation: %w", err)
	}
	if invalidated {
		return "", "", core.ErrTokenInvalidated
	}

	// Invalidate the old refresh token for the remainder of its lifetime
	remainingTime := time.Until(session.RefreshExpiry)
	if err := s.sessions.InvalidateToken(ctx, session.RefreshID, remainingTime); err != nil {
		return "", "", fmt.Errorf("failed to invalidate old token: %w", err)
	}

	now := time.Now()
	newSession := &core.Session{
		ID:            uuid.New().String(),
		AccountID:     session.AccountID,
		Address:       session.Address,
		IssuedAt:      now,
		RefreshExpiry: now.Add(s.refreshTTL),
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshID:     uuid.New().String(),
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(newSession)
	if err != nil {
		return "", "", fmt.Errorf("failed to create new access token: %w", err)
	}

	refreshToken, err := s.tokenizer.SessionToRefreshToken(newSession)
	if err != nil {
		return "", "", fmt.Errorf("failed to create new refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// Logout invalidates a refresh token. The account is unaffected.
func (s *AuthService) Logout(ctx context.Context, refreshTokenStr string) error {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return fmt.Errorf("invalid refresh token: %w", err)
	}

	// Keep the record around at least until the token itself expires
	remainingTime := time.Until(session.RefreshExpiry)
	if remainingTime < time.Hour {
		remainingTime = time.Hour
	}

	if err := s.sessions.InvalidateToken(ctx, session.RefreshID, remainingTime); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	if err := s.eventPub.PublishLogout(ctx, session.Address, session.RefreshID); err != nil {
		// The token is already invalidated in the store, which is the part
		// that matters
		log.Warn().Err(err).Str("address", session.Address).Msg("failed to publish logout event")
	}

	return nil
}

// ValidateAccessToken parses an access token and checks it against the
// invalidation store.
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	if time.Now().After(session.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}

	// Access tokens die with their refresh token
	if session.RefreshID != "" {
		invalidated, err := s.sessions.IsTokenInvalidated(ctx, session.RefreshID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token invalidation: %w", err)
		}
		if invalidated {
			return nil, core.ErrTokenInvalidated
		}
	}

	return session, nil
}

package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchbase/pitchbase/core"
	"github.com/pitchbase/pitchbase/ports"
)

func newTestTokenizer(t *testing.T) ports.Tokenizer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return NewJWTTokenizer(key)
}

func testSession() *core.Session {
	now := time.Now().Truncate(time.Second)
	return &core.Session{
		ID:            uuid.New().String(),
		AccountID:     "author-0xabc",
		Address:       "0xABCDEF0000000000000000000000000000001234",
		IssuedAt:      now,
		AccessExpiry:  now.Add(5 * time.Minute),
		RefreshExpiry: now.Add(5 * 24 * time.Hour),
		RefreshID:     uuid.New().String(),
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok := newTestTokenizer(t)
	session := testSession()

	token, err := tok.SessionToAccessToken(session)
	require.NoError(t, err)

	parsed, err := tok.AccessTokenToSession(token)
	require.NoError(t, err)

	assert.Equal(t, session.ID, parsed.ID)
	assert.Equal(t, session.AccountID, parsed.AccountID)
	assert.Equal(t, session.Address, parsed.Address)
	assert.Equal(t, session.RefreshID, parsed.RefreshID)
	assert.WithinDuration(t, session.AccessExpiry, parsed.AccessExpiry, time.Second)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tok := newTestTokenizer(t)
	session := testSession()

	token, err := tok.SessionToRefreshToken(session)
	require.NoError(t, err)

	parsed, err := tok.RefreshTokenToSession(token)
	require.NoError(t, err)

	assert.Equal(t, session.AccountID, parsed.AccountID)
	assert.Equal(t, session.Address, parsed.Address)
	assert.Equal(t, session.RefreshID, parsed.RefreshID)
	assert.WithinDuration(t, session.RefreshExpiry, parsed.RefreshExpiry, time.Second)
}

func TestAudienceSeparation(t *testing.T) {
	tok := newTestTokenizer(t)
	session := testSession()

	accessToken, err := tok.SessionToAccessToken(session)
	require.NoError(t, err)
	refreshToken, err := tok.SessionToRefreshToken(session)
	require.NoError(t, err)

	_, err = tok.RefreshTokenToSession(accessToken)
	assert.Error(t, err, "access token must not pass as refresh token")

	_, err = tok.AccessTokenToSession(refreshToken)
	assert.Error(t, err, "refresh token must not pass as access token")
}

func TestForeignKeyRejected(t *testing.T) {
	session := testSession()

	token, err := newTestTokenizer(t).SessionToAccessToken(session)
	require.NoError(t, err)

	_, err = newTestTokenizer(t).AccessTokenToSession(token)
	assert.Error(t, err, "token signed by another key must be rejected")
}

func TestExpiredTokenReported(t *testing.T) {
	tok := newTestTokenizer(t)

	session := testSession()
	session.IssuedAt = time.Now().Add(-time.Hour)
	session.AccessExpiry = time.Now().Add(-30 * time.Minute)
	session.RefreshExpiry = time.Now().Add(-30 * time.Minute)

	accessToken, err := tok.SessionToAccessToken(session)
	require.NoError(t, err)
	_, err = tok.AccessTokenToSession(accessToken)
	assert.ErrorIs(t, err, core.ErrTokenExpired)

	refreshToken, err := tok.SessionToRefreshToken(session)
	require.NoError(t, err)
	_, err = tok.RefreshTokenToSession(refreshToken)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestTamperedTokenRejected(t *testing.T) {
	tok := newTestTokenizer(t)

	token, err := tok.SessionToAccessToken(testSession())
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"
	_, err = tok.AccessTokenToSession(tampered)
	assert.Error(t, err)
}

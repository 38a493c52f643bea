package http

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchbase/pitchbase/adapters/content"
	"github.com/pitchbase/pitchbase/adapters/store"
	"github.com/pitchbase/pitchbase/adapters/tokenizer"
	"github.com/pitchbase/pitchbase/service"
	"github.com/pitchbase/pitchbase/siwe"
)

const testDomain = "app.example"

type nopPublisher struct{}

func (nopPublisher) PublishSignup(ctx context.Context, accountID, address string) error { return nil }
func (nopPublisher) PublishLogout(ctx context.Context, address, tokenID string) error  { return nil }

type emptyChain struct{}

func (emptyChain) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (emptyChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{}, nil
}

type testServer struct {
	router *gin.Engine
	key    *ecdsa.PrivateKey
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	walletKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	mem := store.NewMemoryStore()
	accounts := content.NewMemoryAccounts()

	authService := service.NewAuthService(
		testDomain,
		tokenizer.NewJWTTokenizer(signKey),
		accounts,
		mem,
		mem,
		nopPublisher{},
	)

	router := SetupRouter(
		RouterConfig{Origin: "http://localhost:3000"},
		authService,
		service.NewAccountService(accounts),
		service.NewTransferService(emptyChain{}, ethcommon.Address{}, 18),
	)

	return &testServer{router: router, key: walletKey}
}

func (s *testServer) do(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

// login runs the nonce + login round trip and returns the token pair.
func (s *testServer) login(t *testing.T) (access, refresh string) {
	t.Helper()

	address := crypto.PubkeyToAddress(s.key.PublicKey)

	w := s.do(t, http.MethodPost, "/auth/nonce", "", gin.H{"address": address.Hex()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var nonceResp struct {
		Nonce string `json:"nonce"`
	}
	decode(t, w, &nonceResp)
	require.NotEmpty(t, nonceResp.Nonce)

	msg := siwe.NewMessage(testDomain, address, "https://app.example", 1, nonceResp.Nonce)
	sig, err := crypto.Sign(msg.SigHash(), s.key)
	require.NoError(t, err)
	sig[64] += 27

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"message":   msg.String(),
		"signature": hexutil.Encode(sig),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var loginResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	decode(t, w, &loginResp)
	require.NotEmpty(t, loginResp.AccessToken)
	require.NotEmpty(t, loginResp.User.ID)

	return loginResp.AccessToken, loginResp.RefreshToken
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t)
	access, _ := s.login(t)

	w := s.do(t, http.MethodGet, "/api/me", access, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var meResp struct {
		User struct {
			WalletAddress string `json:"walletAddress"`
		} `json:"user"`
	}
	decode(t, w, &meResp)
	assert.Equal(t, crypto.PubkeyToAddress(s.key.PublicKey).Hex(), meResp.User.WalletAddress)
}

func TestLoginRejectsBadSignature(t *testing.T) {
	s := newTestServer(t)
	address := crypto.PubkeyToAddress(s.key.PublicKey)

	w := s.do(t, http.MethodPost, "/auth/nonce", "", gin.H{"address": address.Hex()})
	require.Equal(t, http.StatusOK, w.Code)
	var nonceResp struct {
		Nonce string `json:"nonce"`
	}
	decode(t, w, &nonceResp)

	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	msg := siwe.NewMessage(testDomain, address, "https://app.example", 1, nonceResp.Nonce)
	sig, err := crypto.Sign(msg.SigHash(), otherKey)
	require.NoError(t, err)

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"message":   msg.String(),
		"signature": hexutil.Encode(sig),
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNonceRejectsBadAddress(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/nonce", "", gin.H{"address": "not-an-address"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/me", "/api/transfers"} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := s.do(t, http.MethodGet, "/api/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutInvalidatesOldTokens(t *testing.T) {
	s := newTestServer(t)
	access, refresh := s.login(t)

	w := s.do(t, http.MethodPost, "/auth/logout", "", gin.H{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, w.Code)

	// The old access token no longer authenticates
	w = s.do(t, http.MethodGet, "/api/me", access, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// And the old refresh token cannot mint new ones
	w = s.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshFlow(t *testing.T) {
	s := newTestServer(t)
	_, refresh := s.login(t)

	w := s.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, w, &resp)

	w = s.do(t, http.MethodGet, "/api/me", resp.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	s := newTestServer(t)
	access, _ := s.login(t)

	w := s.do(t, http.MethodPatch, "/api/me", access, gin.H{"bio": "Building in public"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		User struct {
			Bio      string `json:"bio"`
			Username string `json:"username"`
		} `json:"user"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "Building in public", resp.User.Bio)
	assert.NotEmpty(t, resp.User.Username, "unpatched fields survive")
}

func TestGetUserByWallet(t *testing.T) {
	s := newTestServer(t)

	// Unknown wallet yields a null user, not a 404
	w := s.do(t, http.MethodGet, "/api/wallets/0x0000000000000000000000000000000000000001", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		User *json.RawMessage `json:"user"`
	}
	decode(t, w, &resp)
	assert.Nil(t, resp.User)

	s.login(t)

	address := crypto.PubkeyToAddress(s.key.PublicKey)
	w = s.do(t, http.MethodGet, "/api/wallets/"+address.Hex(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var found struct {
		User *struct {
			WalletAddress string `json:"walletAddress"`
		} `json:"user"`
	}
	decode(t, w, &found)
	require.NotNil(t, found.User)
	assert.Equal(t, address.Hex(), found.User.WalletAddress)
}

func TestTransfersEndpoint(t *testing.T) {
	s := newTestServer(t)
	access, _ := s.login(t)

	w := s.do(t, http.MethodGet, "/api/transfers", access, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/transfers?direction=sideways", access, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

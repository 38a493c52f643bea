// Package client implements the user-facing half of the sign-in flow: it
// fetches a nonce, builds the challenge message, asks the wallet to sign it
// and exchanges the result for session tokens.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pitchbase/pitchbase/core"
	"github.com/pitchbase/pitchbase/ports"
	"github.com/pitchbase/pitchbase/siwe"
)

// TokenPair is the session material returned by a successful login.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	Account      *core.Account `json:"user"`
}

// Client drives the sign-in flow against a pitchbase server.
type Client struct {
	baseURL string
	wallet  ports.Wallet
	http    *http.Client

	domain  string
	uri     string
	chainID int

	// signTimeout bounds how long the wallet prompt may sit unanswered.
	signTimeout time.Duration
}

// New creates a sign-in client. domain and uri describe the application the
// user is signing in to; they must match the server's configured domain.
func New(baseURL string, wallet ports.Wallet, domain, uri string, chainID int) *Client {
	return &Client{
		baseURL:     baseURL,
		wallet:      wallet,
		http:        &http.Client{Timeout: 30 * time.Second},
		domain:      domain,
		uri:         uri,
		chainID:     chainID,
		signTimeout: 2 * time.Minute,
	}
}

// Login runs the full challenge/sign/verify round trip. A rejected or timed
// out wallet prompt is an ordinary failure; the caller may retry immediately,
// which starts over with a fresh nonce.
func (c *Client) Login(ctx context.Context) (*TokenPair, error) {
	address, err := c.wallet.Address()
	if err != nil {
		return nil, err
	}

	nonce, err := c.fetchNonce(ctx, address.Hex())
	if err != nil {
		return nil, err
	}

	msg := siwe.NewMessage(c.domain, address, c.uri, c.chainID, nonce)

	signCtx, cancel := context.WithTimeout(ctx, c.signTimeout)
	defer cancel()

	signature, err := c.wallet.SignMessage(signCtx, []byte(msg.String()))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, core.ErrSigningTimeout
		}
		return nil, err
	}

	return c.login(ctx, msg.String(), fmt.Sprintf("0x%x", signature))
}

// Logout invalidates the session on the server.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	var resp struct {
		Message string `json:"message"`
	}
	return c.post(ctx, "/auth/logout", map[string]string{"refresh_token": refreshToken}, &resp)
}

func (c *Client) fetchNonce(ctx context.Context, address string) (string, error) {
	var resp struct {
		Nonce string `json:"nonce"`
	}
	if err := c.post(ctx, "/auth/nonce", map[string]string{"address": address}, &resp); err != nil {
		return "", err
	}
	return resp.Nonce, nil
}

func (c *Client) login(ctx context.Context, message, signature string) (*TokenPair, error) {
	var pair TokenPair
	payload := map[string]string{"message": message, "signature": signature}
	if err := c.post(ctx, "/auth/login", payload, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", path, apiErr.Error)
		}
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

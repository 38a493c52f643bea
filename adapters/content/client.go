// Package content adapts a headless content backend (a Sanity-compatible
// document API) to the AccountStore port. Accounts live as "author"
// documents whose id is derived from the lowercased wallet address, so that
// create is an atomic upsert-by-unique-key: two concurrent first logins for
// the same address target the same document and only one is created.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pitchbase/pitchbase/core"
	"github.com/pitchbase/pitchbase/ports"
)

const apiVersion = "v2021-10-21"

const (
	queryByWallet = `*[_type == "author" && lower(walletAddress) == $walletAddress][0]`
	queryByID     = `*[_type == "author" && _id == $id][0]`
)

// Config holds the connection parameters of the content backend.
type Config struct {
	BaseURL string // e.g. https://<project>.api.sanity.io
	Dataset string
	Token   string // write token, sent as a bearer credential
}

// Client implements ports.AccountStore over the content backend's HTTP API.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a content store client.
func NewClient(cfg Config) ports.AccountStore {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// DocumentID derives the stable document id for a wallet address.
func DocumentID(address string) string {
	return "author-" + strings.ToLower(address)
}

// FindByWalletAddress returns the account for an address, or nil when the
// address has never been seen. The comparison is case-insensitive.
func (c *Client) FindByWalletAddress(ctx context.Context, address string) (*core.Account, error) {
	params := url.Values{}
	params.Set("query", queryByWallet)
	params.Set("$walletAddress", fmt.Sprintf("%q", strings.ToLower(address)))

	doc, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return doc.toAccount(), nil
}

// FindByID fetches an account by its document id.
func (c *Client) FindByID(ctx context.Context, id string) (*core.Account, error) {
	params := url.Values{}
	params.Set("query", queryByID)
	params.Set("$id", fmt.Sprintf("%q", id))

	doc, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, core.ErrAccountNotFound
	}
	return doc.toAccount(), nil
}

// Create persists a new author document. createIfNotExists on the derived
// document id makes the call idempotent per address; the document fetched
// afterwards is authoritative either way.
func (c *Client) Create(ctx context.Context, account core.Account) (*core.Account, error) {
	id := DocumentID(account.WalletAddress)
	doc := authorDoc{
		ID:            id,
		Type:          "author",
		WalletAddress: account.WalletAddress,
		Name:          account.Name,
		Username:      account.Username,
		Email:         account.Email,
		Image:         account.Image,
		Bio:           account.Bio,
	}

	if err := c.mutate(ctx, map[string]any{"createIfNotExists": doc}); err != nil {
		return nil, err
	}
	return c.FindByID(ctx, id)
}

// Patch applies a partial profile update and returns the updated account.
func (c *Client) Patch(ctx context.Context, id string, patch core.ProfilePatch) (*core.Account, error) {
	set := map[string]any{}
	for field, v := range map[string]*string{
		"name":     patch.Name,
		"username": patch.Username,
		"email":    patch.Email,
		"image":    patch.Image,
		"bio":      patch.Bio,
	} {
		if v != nil {
			set[field] = *v
		}
	}

	if len(set) > 0 {
		m := map[string]any{"patch": map[string]any{"id": id, "set": set}}
		if err := c.mutate(ctx, m); err != nil {
			return nil, err
		}
	}
	return c.FindByID(ctx, id)
}

type authorDoc struct {
	ID            string     `json:"_id,omitempty"`
	Type          string     `json:"_type"`
	WalletAddress string     `json:"walletAddress"`
	Name          string     `json:"name,omitempty"`
	Username      string     `json:"username,omitempty"`
	Email         string     `json:"email,omitempty"`
	Image         string     `json:"image,omitempty"`
	Bio           string     `json:"bio,omitempty"`
	CreatedAt     *time.Time `json:"_createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"_updatedAt,omitempty"`
}

func (d *authorDoc) toAccount() *core.Account {
	acc := &core.Account{
		ID:            d.ID,
		WalletAddress: d.WalletAddress,
		Name:          d.Name,
		Username:      d.Username,
		Email:         d.Email,
		Image:         d.Image,
		Bio:           d.Bio,
	}
	if d.CreatedAt != nil {
		acc.CreatedAt = *d.CreatedAt
	}
	if d.UpdatedAt != nil {
		acc.UpdatedAt = *d.UpdatedAt
	}
	return acc
}

func (c *Client) query(ctx context.Context, params url.Values) (*authorDoc, error) {
	endpoint := fmt.Sprintf("%s/%s/data/query/%s?%s", c.cfg.BaseURL, apiVersion, c.cfg.Dataset, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build query request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content query failed: %w", core.ErrStoreUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content query returned %d: %w", resp.StatusCode, core.ErrStoreUnavailable)
	}

	var body struct {
		Result *authorDoc `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", core.ErrStoreUnavailable)
	}
	return body.Result, nil
}

func (c *Client) mutate(ctx context.Context, mutations ...any) error {
	endpoint := fmt.Sprintf("%s/%s/data/mutate/%s", c.cfg.BaseURL, apiVersion, c.cfg.Dataset)

	payload, err := json.Marshal(map[string]any{"mutations": mutations})
	if err != nil {
		return fmt.Errorf("failed to marshal mutations: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build mutate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("content mutation failed: %w", core.ErrStoreUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("content mutation returned %d: %w", resp.StatusCode, core.ErrStoreUnavailable)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
}

package lnbits

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	extUsermanager = "usermanager"
	extWithdraw    = "withdraw"
)

// Client wraps the wallet platform's HTTP API with an admin key and a
// per-process wallet cache keyed by Discord ID. Cache entries are
// population-only: the backing store stays authoritative and stale
// entries are evicted on authorization failures.
type Client struct {
	baseURL  string
	adminKey string
	http     *http.Client

	mu          sync.RWMutex
	walletCache map[string]*Wallet
}

// NewClient creates a client for one admin's platform account
func NewClient(baseURL, adminKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		adminKey:    adminKey,
		http:        httpClient,
		walletCache: make(map[string]*Wallet),
	}
}

// Request performs a raw authenticated call against the platform.
// extension may be empty for core endpoints. A non-2xx response is
// returned as *APIError; when out is non-nil the response body is
// decoded into it.
func (c *Client) Request(ctx context.Context, method, path, key, extension string, query url.Values, body, out any) error {
	u := c.baseURL
	if extension != "" {
		u += "/" + extension
	}
	u += "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if key != "" {
		req.Header.Set("X-API-KEY", key)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}

// GetUser looks up the platform user tagged with this Discord ID. When
// the stored avatar has drifted from the live one, a metadata patch is
// issued best-effort. Returns nil when no user has been provisioned.
func (c *Client) GetUser(ctx context.Context, identity Identity) (*User, error) {
	extra, _ := json.Marshal(map[string]string{"discord_id": identity.ID})
	query := url.Values{"extra": {string(extra)}}

	var users []User
	if err := c.Request(ctx, http.MethodGet, "/users", c.adminKey, extUsermanager, query, nil, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	user := users[0]
	if user.Extra["discord_avatar_url"] != identity.AvatarURL {
		patch := map[string]any{
			"extra": map[string]string{"discord_avatar_url": identity.AvatarURL},
		}
		if err := c.Request(ctx, http.MethodPatch, "/users/"+user.ID, c.adminKey, extUsermanager, nil, patch, nil); err != nil {
			log.Warnf("Failed to update avatar for user %s: %v", user.ID, err)
		}
	}
	return &user, nil
}

// ListDiscordUsers returns every platform user provisioned through a
// Discord interaction, recognized by the discord_id extra attribute.
func (c *Client) ListDiscordUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.Request(ctx, http.MethodGet, "/users", c.adminKey, extUsermanager, nil, nil, &users); err != nil {
		return nil, err
	}
	discord := users[:0]
	for _, u := range users {
		if u.Extra["discord_id"] != "" {
			discord = append(discord, u)
		}
	}
	return discord, nil
}

// GetUserWallet returns the cached or looked-up wallet for this
// identity. A nil wallet with nil error means the identity has never
// been provisioned.
func (c *Client) GetUserWallet(ctx context.Context, identity Identity) (*Wallet, error) {
	c.mu.RLock()
	wallet := c.walletCache[identity.ID]
	c.mu.RUnlock()
	if wallet != nil {
		return wallet, nil
	}

	user, err := c.GetUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	var wallets []Wallet
	if err := c.Request(ctx, http.MethodGet, "/wallets/"+user.ID, c.adminKey, extUsermanager, nil, nil, &wallets); err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, nil
	}

	wallet = &wallets[0]
	c.cacheWallet(identity, wallet)
	return wallet, nil
}

// GetOrCreateWallet returns the identity's wallet, provisioning the
// platform user on first use. Concurrent first invocations may race at
// the HTTP layer; the platform's create-if-absent behaviour is the
// source of truth for dedup, this client only short-circuits via cache.
func (c *Client) GetOrCreateWallet(ctx context.Context, identity Identity) (*Wallet, error) {
	wallet, err := c.GetUserWallet(ctx, identity)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}

	payload := map[string]any{
		"user_name":   identity.Username,
		"wallet_name": identity.Username + "-main",
		"extra": map[string]string{
			"discord_id":         identity.ID,
			"discord_avatar_url": identity.AvatarURL,
		},
	}
	var user User
	if err := c.Request(ctx, http.MethodPost, "/users", c.adminKey, extUsermanager, nil, payload, &user); err != nil {
		return nil, err
	}
	if len(user.Wallets) == 0 {
		return nil, fmt.Errorf("platform created user %s without a wallet", user.ID)
	}

	wallet = &user.Wallets[0]
	c.cacheWallet(identity, wallet)
	return wallet, nil
}

// GetUserBalance reads the identity's balance in sats. On an
// authorization failure the cached wallet is evicted and the read is
// retried exactly once, in case the cached keys went stale.
func (c *Client) GetUserBalance(ctx context.Context, identity Identity) (int64, error) {
	return c.getUserBalance(ctx, identity, true)
}

func (c *Client) getUserBalance(ctx context.Context, identity Identity, retry bool) (int64, error) {
	wallet, err := c.GetUserWallet(ctx, identity)
	if err != nil {
		return 0, err
	}
	if wallet == nil {
		return 0, fmt.Errorf("no wallet for user %s", identity.Username)
	}

	var details struct {
		Name    string `json:"name"`
		Balance int64  `json:"balance"`
	}
	if err := c.Request(ctx, http.MethodGet, "/wallet", wallet.AdminKey, "", nil, nil, &details); err != nil {
		var apiErr *APIError
		if retry && errors.As(err, &apiErr) && apiErr.IsAuthError() {
			c.EvictWallet(identity)
			return c.getUserBalance(ctx, identity, false)
		}
		return 0, err
	}
	return details.Balance / 1000, nil
}

// EvictWallet drops the cached wallet for an identity
func (c *Client) EvictWallet(identity Identity) {
	c.mu.Lock()
	delete(c.walletCache, identity.ID)
	c.mu.Unlock()
}

func (c *Client) cacheWallet(identity Identity, wallet *Wallet) {
	c.mu.Lock()
	c.walletCache[identity.ID] = wallet
	c.mu.Unlock()
}

// BaseURL returns the platform's base URL, for building wallet links
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WalletURL is the browser URL of a wallet on the platform
func (c *Client) WalletURL(wallet *Wallet) string {
	return fmt.Sprintf("%s/wallet?usr=%s&wal=%s", c.baseURL, wallet.User, wallet.ID)
}

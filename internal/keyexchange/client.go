package keyexchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	cache "github.com/pmylund/go-cache"
)

var (
	// ErrKeyNotFound is returned when the directory has no published key
	// for the requested identity.
	ErrKeyNotFound = errors.New("no published key for identity")
)

// Directory is the key-bundle exchange collaborator.
type Directory interface {
	// Publish uploads an identity's public key (base64 of PKIX DER).
	Publish(ctx context.Context, userID, publicKeyB64 string) error

	// Fetch retrieves an identity's current public key.
	Fetch(ctx context.Context, userID string) (string, error)
}

// Compile-time check that Client implements Directory
var _ Directory = (*Client)(nil)

const (
	// fetchCacheTTL bounds how stale a cached public key may be. Keys
	// rotate rarely; a short TTL keeps lookups cheap without pinning a
	// revoked key for long.
	fetchCacheTTL = 15 * time.Minute

	defaultTimeout = 30 * time.Second
	defaultRetries = 3
)

// Client is the HTTP implementation of Directory.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retries    int

	// fetched caches userID -> publicKeyB64 with a TTL so a thread's worth
	// of envelopes doesn't re-fetch the same counterpart key.
	fetched *cache.Cache
}

// Option configures the directory client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetries sets the number of retries on 5xx responses.
func WithRetries(retries int) Option {
	return func(c *Client) {
		c.retries = retries
	}
}

// New creates a directory client for the given base URL.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("directory base URL is required")
	}

	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		retries: defaultRetries,
		fetched: cache.New(fetchCacheTTL, fetchCacheTTL),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type keyBundle struct {
	UserID    string `json:"userId"`
	PublicKey string `json:"publicKey"`
}

// Publish implements Directory.
func (c *Client) Publish(ctx context.Context, userID, publicKeyB64 string) error {
	body, err := json.Marshal(keyBundle{UserID: userID, PublicKey: publicKeyB64})
	if err != nil {
		return fmt.Errorf("marshal key bundle: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, "/keys/"+url.PathEscape(userID), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("publish key: unexpected status %d", resp.StatusCode)
	}

	// A republished key invalidates whatever we had cached.
	c.fetched.Delete(userID)
	return nil
}

// Fetch implements Directory. Results are cached for fetchCacheTTL.
func (c *Client) Fetch(ctx context.Context, userID string) (string, error) {
	if v, ok := c.fetched.Get(userID); ok {
		return v.(string), nil
	}

	resp, err := c.do(ctx, http.MethodGet, "/keys/"+url.PathEscape(userID), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, userID)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch key: unexpected status %d", resp.StatusCode)
	}

	var bundle keyBundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return "", fmt.Errorf("decode key bundle: %w", err)
	}
	if bundle.PublicKey == "" {
		return "", fmt.Errorf("%w: empty bundle for %s", ErrKeyNotFound, userID)
	}

	c.fetched.Set(userID, bundle.PublicKey, cache.DefaultExpiration)
	return bundle.PublicKey, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 500 * time.Millisecond):
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("directory request failed: %w", lastErr)
	}
	return nil, fmt.Errorf("directory request failed with status %d after %d attempts", resp.StatusCode, c.retries+1)
}

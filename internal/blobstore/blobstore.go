// Package blobstore uploads and downloads encrypted media bodies. The blob
// store only ever sees ciphertext; sealing happens before upload and
// opening after download, both on the client.
package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrBlobNotFound is returned when a locator does not resolve.
	ErrBlobNotFound = errors.New("blob not found")
)

// maxBlobSize caps downloads so a hostile locator can't exhaust memory.
const maxBlobSize = 64 << 20

// Store moves encrypted media bytes to and from external storage.
type Store interface {
	// Upload stores encrypted bytes and returns a retrievable locator.
	Upload(ctx context.Context, data []byte, mimeType string) (string, error)

	// Download fetches the encrypted bytes behind a locator.
	Download(ctx context.Context, locator string) ([]byte, error)
}

// Compile-time check that Client implements Store
var _ Store = (*Client)(nil)

// Client is the HTTP implementation of Store.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retries    int
}

// Option configures the blob store client.
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

// New creates a blob store client for the given base URL.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("blob store base URL is required")
	}

	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		retries: 3,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload implements Store.
func (c *Client) Upload(ctx context.Context, data []byte, mimeType string) (string, error) {
	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/blobs", bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mimeType)
		return req, nil
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("upload blob: unexpected status %d", resp.StatusCode)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload blob: empty locator in response")
	}
	return out.URL, nil
}

// Download implements Store. The locator is the URL returned by Upload.
func (c *Client) Download(ctx context.Context, locator string) ([]byte, error) {
	resp, err := c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, locator)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download blob: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobSize+1))
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	if len(data) > maxBlobSize {
		return nil, fmt.Errorf("blob exceeds %d byte limit", maxBlobSize)
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

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
		return nil, fmt.Errorf("blob store request failed: %w", lastErr)
	}
	return nil, fmt.Errorf("blob store request failed with status %d after %d attempts", resp.StatusCode, c.retries+1)
}

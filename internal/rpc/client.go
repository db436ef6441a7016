package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fystack/payment-indexer/pkg/ratelimiter"
)

type BaseClient struct {
	httpClient  *http.Client
	baseURL     string
	auth        *AuthConfig
	rateLimiter *ratelimiter.RateLimiter
}

// NewBaseClient returns a client for a single node. rateLimiter may be nil.
func NewBaseClient(baseURL string, auth *AuthConfig, timeout time.Duration, rateLimiter *ratelimiter.RateLimiter) *BaseClient {
	return &BaseClient{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		auth:        auth,
		rateLimiter: rateLimiter,
	}
}

func (c *BaseClient) Do(ctx context.Context, method, endpoint string, body any, params map[string]string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	if c.auth != nil && c.auth.Type == AuthTypeQuery {
		q.Set(c.auth.Key, c.auth.Value)
	}
	u.RawQuery = q.Encode()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.auth != nil && c.auth.Type == AuthTypeHeader {
		req.Header.Set(c.auth.Key, c.auth.Value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	slog.Debug("HTTP request completed", "endpoint", endpoint, "status", resp.StatusCode, "elapsed", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return data, &HTTPError{StatusCode: resp.StatusCode, URL: c.baseURL + endpoint, Body: data}
	}
	return data, nil
}

func (c *BaseClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

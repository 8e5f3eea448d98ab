package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultTimeout bounds every provider round-trip.
const DefaultTimeout = 10 * time.Second

// Cache stores successful provider response bodies.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, name ProviderName, key string, body []byte)
}

// Client performs rate-limited JSON GETs on behalf of one provider and maps
// HTTP failures onto the provider error types.
type Client struct {
	name    ProviderName
	http    *http.Client
	limiter *RateLimiterMap
	cache   Cache
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default 10s-timeout HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithCache enables response caching.
func WithCache(cache Cache) ClientOption {
	return func(c *Client) { c.cache = cache }
}

// NewClient creates a Client for the named provider.
func NewClient(name ProviderName, limiter *RateLimiterMap, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		name:    name,
		http:    &http.Client{Timeout: DefaultTimeout},
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON decodes the response to req into out. When cacheKey is non-empty
// and a cache is configured, a cached body is used instead of the network
// and successful bodies are stored. cacheKey must not contain credentials.
func (c *Client) GetJSON(ctx context.Context, req *http.Request, cacheKey string, out any) error {
	if cacheKey != "" && c.cache != nil {
		if body, ok := c.cache.Get(ctx, cacheKey); ok {
			if err := json.Unmarshal(body, out); err == nil {
				c.logger.Debug("cache hit", slog.String("key", cacheKey))
				return nil
			}
		}
	}

	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ErrMalformedResponse{Provider: c.name, Cause: fmt.Errorf("parsing response: %w", err)}
	}

	if cacheKey != "" && c.cache != nil {
		c.cache.Put(ctx, c.name, cacheKey, body)
	}
	return nil
}

// Do waits for the provider's rate limiter, sends req and returns the body
// of a 200 response.
func (c *Client) Do(ctx context.Context, req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(ctx, c.name); err != nil {
		return nil, &ErrProviderUnavailable{
			Provider: c.name,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	c.logger.Debug("requesting", slog.String("url", redact(req.URL)))

	resp, err := c.http.Do(req.WithContext(ctx)) //nolint:gosec // URL constructed from trusted base + escaped query
	if err != nil {
		return nil, &ErrProviderUnavailable{
			Provider: c.name,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &ErrNotFound{Provider: c.name, ID: req.URL.Path}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &ErrAuthRequired{Provider: c.name}
	case resp.StatusCode != http.StatusOK:
		return nil, &ErrProviderUnavailable{
			Provider:   c.name,
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrProviderUnavailable{
			Provider:   c.name,
			Cause:      fmt.Errorf("reading response: %w", err),
			StatusCode: resp.StatusCode,
		}
	}
	return body, nil
}

// redact hides credential-bearing query parameters for logging.
func redact(u *url.URL) string {
	q := u.Query()
	for _, k := range []string{"api_key", "key", "secret", "token"} {
		if q.Has(k) {
			q.Set(k, "REDACTED")
		}
	}
	r := *u
	r.RawQuery = q.Encode()
	return r.String()
}

func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

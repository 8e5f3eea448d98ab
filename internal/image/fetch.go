package image

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultUserAgent = "Encore/1.0 +https://github.com/sydlexius/encore"
	// Discogs image hosts reject hotlinks without a matching referer.
	discogsReferer  = "https://www.discogs.com/"
	maxImageBytes   = 25 << 20
	defaultMaxDim   = 3000
	downloadTimeout = 30 * time.Second
)

// Fetcher downloads artwork and normalises it to JPEG.
type Fetcher struct {
	client *http.Client
	maxDim int
	logger *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithMaxDimension sets the largest width or height kept after scaling.
// Non-positive values keep the default.
func WithMaxDimension(px int) FetcherOption {
	return func(f *Fetcher) {
		if px > 0 {
			f.maxDim = px
		}
	}
}

// NewFetcher creates an artwork Fetcher.
func NewFetcher(logger *slog.Logger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: downloadTimeout},
		maxDim: defaultMaxDim,
		logger: logger.With(slog.String("component", "artwork")),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch downloads rawURL and returns it as a JPEG. A 403 is retried once
// with a Discogs referer.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	data, status, err := f.get(ctx, rawURL, "")
	if err == nil && status == http.StatusForbidden {
		f.logger.Debug("artwork forbidden, retrying with referer", slog.String("url", rawURL))
		data, status, err = f.get(ctx, rawURL, discogsReferer)
	}
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: HTTP %d", rawURL, status)
	}

	out, err := ToJPEG(data, f.maxDim)
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", rawURL, err)
	}
	return out, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL, referer string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil) //nolint:gosec // URL from provider results
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := f.client.Do(req) //nolint:gosec // URL from provider results
	if err != nil {
		return nil, 0, fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if len(data) > maxImageBytes {
		return nil, 0, fmt.Errorf("image exceeds 25MB limit")
	}
	return data, resp.StatusCode, nil
}

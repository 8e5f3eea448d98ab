package fanarttv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/sydlexius/encore/internal/provider"
)

const (
	defaultBaseURL = "https://webservice.fanart.tv/v3/music"

	// DefaultBackoff is the fixed wait between attempts.
	DefaultBackoff = 2 * time.Second

	// maxAttempts bounds the total number of requests per lookup.
	maxAttempts = 3
)

// Adapter implements provider.ImageProvider for Fanart.tv.
type Adapter struct {
	client  *provider.Client
	apiKey  string
	backoff time.Duration
	logger  *slog.Logger
	baseURL string
}

// New creates a Fanart.tv adapter with the default base URL.
func New(limiter *provider.RateLimiterMap, apiKey string, logger *slog.Logger, opts ...provider.ClientOption) *Adapter {
	return NewWithBaseURL(limiter, apiKey, logger, defaultBaseURL, opts...)
}

// NewWithBaseURL creates a Fanart.tv adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, apiKey string, logger *slog.Logger, baseURL string, opts ...provider.ClientOption) *Adapter {
	logger = logger.With(slog.String("provider", "fanarttv"))
	return &Adapter{
		client:  provider.NewClient(provider.NameFanartTV, limiter, logger, opts...),
		apiKey:  apiKey,
		backoff: DefaultBackoff,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SetBackoff overrides the wait between retries.
func (a *Adapter) SetBackoff(d time.Duration) {
	if d > 0 {
		a.backoff = d
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameFanartTV }

// RequiresAuth returns whether this provider needs an API key.
func (a *Adapter) RequiresAuth() bool { return true }

// Configured reports whether an API key is set.
func (a *Adapter) Configured() bool { return a.apiKey != "" }

// Images fetches poster and fanart URLs for an artist by MusicBrainz ID.
// Banners are preferred over thumbnails for the poster. Server errors and
// transport failures are retried with a constant backoff.
func (a *Adapter) Images(ctx context.Context, mbid string) (*provider.Artwork, error) {
	if !a.Configured() {
		return nil, &provider.ErrAuthRequired{Provider: provider.NameFanartTV}
	}
	if mbid == "" {
		return nil, &provider.ErrNotFound{Provider: provider.NameFanartTV, ID: mbid}
	}

	reqURL := fmt.Sprintf("%s/%s", a.baseURL, url.PathEscape(mbid))
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewConstant(a.backoff))

	resp, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("api-key", a.apiKey)

		var r Response
		if err := a.client.GetJSON(ctx, req, "fanarttv:"+mbid, &r); err != nil {
			if retryable(err) {
				a.logger.Debug("retrying", slog.String("mbid", mbid), slog.String("error", err.Error()))
				return nil, retry.RetryableError(err)
			}
			return nil, err
		}
		return &r, nil
	})
	if err != nil {
		return nil, err
	}

	art := mapImages(resp)
	if art.PosterURL == "" && art.FanartURL == "" {
		return nil, &provider.ErrNotFound{Provider: provider.NameFanartTV, ID: mbid}
	}
	return art, nil
}

func retryable(err error) bool {
	var unavailable *provider.ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		return false
	}
	switch unavailable.StatusCode {
	case 0, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func mapImages(r *Response) *provider.Artwork {
	art := &provider.Artwork{}
	switch {
	case len(r.MusicBanner) > 0:
		art.PosterURL = r.MusicBanner[0].URL
	case len(r.ArtistThumb) > 0:
		art.PosterURL = r.ArtistThumb[0].URL
	}
	if len(r.ArtistBackground) > 0 {
		art.FanartURL = r.ArtistBackground[0].URL
	}
	return art
}

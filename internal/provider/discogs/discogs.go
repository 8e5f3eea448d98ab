package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sydlexius/encore/internal/match"
	"github.com/sydlexius/encore/internal/provider"
)

const (
	defaultBaseURL = "https://api.discogs.com"
	userAgent      = "Encore/1.0 +https://github.com/sydlexius/encore"
	defaultGenre   = "Music"
)

// Adapter implements provider.Searcher for Discogs release search.
type Adapter struct {
	client          *provider.Client
	key             string
	secret          string
	prefixThreshold float64
	logger          *slog.Logger
	baseURL         string
}

// New creates a Discogs adapter with the default base URL.
func New(limiter *provider.RateLimiterMap, key, secret string, logger *slog.Logger, opts ...provider.ClientOption) *Adapter {
	return NewWithBaseURL(limiter, key, secret, logger, defaultBaseURL, opts...)
}

// NewWithBaseURL creates a Discogs adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, key, secret string, logger *slog.Logger, baseURL string, opts ...provider.ClientOption) *Adapter {
	logger = logger.With(slog.String("provider", "discogs"))
	return &Adapter{
		client:          provider.NewClient(provider.NameDiscogs, limiter, logger, opts...),
		key:             key,
		secret:          secret,
		prefixThreshold: match.DefaultArtistPrefixThreshold,
		logger:          logger,
		baseURL:         strings.TrimRight(baseURL, "/"),
	}
}

// SetPrefixThreshold overrides the similarity above which a leading
// "Artist - " segment is stripped from release titles.
func (a *Adapter) SetPrefixThreshold(threshold float64) {
	if threshold > 0 && threshold <= 1 {
		a.prefixThreshold = threshold
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameDiscogs }

// RequiresAuth returns whether this provider needs an API key.
func (a *Adapter) RequiresAuth() bool { return true }

// Configured reports whether both the consumer key and secret are set.
func (a *Adapter) Configured() bool { return a.key != "" && a.secret != "" }

// Search queries database/search for releases matching "artist title".
// Titles are returned with the artist prefix removed.
func (a *Adapter) Search(ctx context.Context, q provider.Query, limit int) ([]provider.Candidate, error) {
	if !a.Configured() {
		return nil, &provider.ErrAuthRequired{Provider: provider.NameDiscogs}
	}
	if limit <= 0 {
		limit = 1
	}

	params := url.Values{}
	params.Set("q", q.String())
	params.Set("type", "release")
	params.Set("per_page", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/database/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Discogs key=%s, secret=%s", a.key, a.secret))
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	var resp SearchResponse
	if err := a.client.GetJSON(ctx, req, "discogs:database/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, &provider.ErrNotFound{Provider: provider.NameDiscogs, ID: q.String()}
	}

	results := make([]provider.Candidate, 0, min(limit, len(resp.Results)))
	for _, raw := range resp.Results {
		if len(results) == limit {
			break
		}
		var r SearchResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, &provider.ErrMalformedResponse{Provider: provider.NameDiscogs, Cause: err}
		}
		results = append(results, a.mapRelease(&r, q.Artist, raw))
	}
	return results, nil
}

func (a *Adapter) mapRelease(r *SearchResult, artist string, raw []byte) provider.Candidate {
	genre := defaultGenre
	if len(r.Genre) > 0 && r.Genre[0] != "" {
		genre = r.Genre[0]
	}
	poster := r.CoverImage
	if poster == "" {
		poster = r.Thumb
	}
	title := match.StripArtistPrefix(r.Title, artist, a.prefixThreshold)
	return provider.Candidate{
		Source:    provider.NameDiscogs,
		Kind:      provider.KindRelease,
		Title:     title,
		Artist:    artist,
		Year:      r.Year,
		Plot:      "Release from Discogs: " + title,
		Genre:     genre,
		PosterURL: poster,
		Raw:       raw,
	}
}

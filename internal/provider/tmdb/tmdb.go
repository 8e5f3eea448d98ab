// Package tmdb adapts The Movie Database search API as the primary
// concert-film provider.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sydlexius/encore/internal/provider"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	imageBaseURL   = "https://image.tmdb.org/t/p/original"

	// DefaultLanguage is used when no language is configured.
	DefaultLanguage = "en-US"
)

// Adapter implements provider.Searcher for TMDB movie search.
type Adapter struct {
	client   *provider.Client
	apiKey   string
	language string
	logger   *slog.Logger
	baseURL  string
}

// New creates a TMDB adapter with the default base URL.
func New(limiter *provider.RateLimiterMap, apiKey, language string, logger *slog.Logger, opts ...provider.ClientOption) *Adapter {
	return NewWithBaseURL(limiter, apiKey, language, logger, defaultBaseURL, opts...)
}

// NewWithBaseURL creates a TMDB adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, apiKey, language string, logger *slog.Logger, baseURL string, opts ...provider.ClientOption) *Adapter {
	if language == "" {
		language = DefaultLanguage
	}
	logger = logger.With(slog.String("provider", "tmdb"))
	return &Adapter{
		client:   provider.NewClient(provider.NameTMDB, limiter, logger, opts...),
		apiKey:   apiKey,
		language: language,
		logger:   logger,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameTMDB }

// RequiresAuth returns true because TMDB requires an API key.
func (a *Adapter) RequiresAuth() bool { return true }

// Configured reports whether an API key is set.
func (a *Adapter) Configured() bool { return a.apiKey != "" }

// Search queries search/movie with "artist title". Every hit is classified
// as a concert and credited to the queried artist.
func (a *Adapter) Search(ctx context.Context, q provider.Query, limit int) ([]provider.Candidate, error) {
	if !a.Configured() {
		return nil, &provider.ErrAuthRequired{Provider: provider.NameTMDB}
	}

	params := url.Values{}
	params.Set("query", q.String())
	params.Set("language", a.language)
	cacheKey := "tmdb:search/movie?" + params.Encode()
	params.Set("api_key", a.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/search/movie?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var resp SearchResponse
	if err := a.client.GetJSON(ctx, req, cacheKey, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, &provider.ErrNotFound{Provider: provider.NameTMDB, ID: q.String()}
	}
	if limit <= 0 {
		limit = 1
	}

	results := make([]provider.Candidate, 0, min(limit, len(resp.Results)))
	for _, raw := range resp.Results {
		if len(results) == limit {
			break
		}
		var m Movie
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, &provider.ErrMalformedResponse{Provider: provider.NameTMDB, Cause: err}
		}
		results = append(results, mapMovie(&m, q.Artist, raw))
	}
	return results, nil
}

func mapMovie(m *Movie, artist string, raw []byte) provider.Candidate {
	year, _, _ := strings.Cut(m.ReleaseDate, "-")
	return provider.Candidate{
		Source:    provider.NameTMDB,
		Kind:      provider.KindConcert,
		Title:     m.Title,
		Artist:    artist,
		Year:      year,
		Plot:      m.Overview,
		Genre:     "Concert",
		PosterURL: imageURL(m.PosterPath),
		FanartURL: imageURL(m.BackdropPath),
		Raw:       raw,
	}
}

func imageURL(path string) string {
	if path == "" {
		return ""
	}
	return imageBaseURL + path
}

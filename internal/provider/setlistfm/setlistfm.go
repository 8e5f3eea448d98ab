// Package setlistfm adapts the setlist.fm search API.
package setlistfm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sydlexius/encore/internal/provider"
)

const (
	defaultBaseURL = "https://api.setlist.fm/rest/1.0"
	dateLayout     = "02-01-2006"
)

// Adapter implements provider.SetlistProvider for setlist.fm.
type Adapter struct {
	client  *provider.Client
	apiKey  string
	logger  *slog.Logger
	baseURL string
}

// New creates a setlist.fm adapter with the default base URL.
func New(limiter *provider.RateLimiterMap, apiKey string, logger *slog.Logger, opts ...provider.ClientOption) *Adapter {
	return NewWithBaseURL(limiter, apiKey, logger, defaultBaseURL, opts...)
}

// NewWithBaseURL creates a setlist.fm adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, apiKey string, logger *slog.Logger, baseURL string, opts ...provider.ClientOption) *Adapter {
	logger = logger.With(slog.String("provider", "setlistfm"))
	return &Adapter{
		client:  provider.NewClient(provider.NameSetlistFM, limiter, logger, opts...),
		apiKey:  apiKey,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameSetlistFM }

// RequiresAuth returns whether this provider needs an API key.
func (a *Adapter) RequiresAuth() bool { return true }

// Configured reports whether an API key is set.
func (a *Adapter) Configured() bool { return a.apiKey != "" }

// SetlistByDate returns the artist's setlist for the given day.
func (a *Adapter) SetlistByDate(ctx context.Context, artist string, date time.Time) (*provider.Setlist, error) {
	params := url.Values{}
	params.Set("artistName", artist)
	params.Set("date", date.Format(dateLayout))
	return a.search(ctx, params)
}

// SetlistByTour returns the first setlist of the named tour, optionally
// restricted to a year.
func (a *Adapter) SetlistByTour(ctx context.Context, artist, tour, year string) (*provider.Setlist, error) {
	params := url.Values{}
	params.Set("artistName", artist)
	params.Set("tourName", tour)
	params.Set("p", "1")
	if year != "" {
		params.Set("year", year)
	}
	return a.search(ctx, params)
}

func (a *Adapter) search(ctx context.Context, params url.Values) (*provider.Setlist, error) {
	if !a.Configured() {
		return nil, &provider.ErrAuthRequired{Provider: provider.NameSetlistFM}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/search/setlists?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("Accept", "application/json")

	var resp SearchResponse
	if err := a.client.GetJSON(ctx, req, "setlistfm:search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Setlists) == 0 {
		return nil, &provider.ErrNotFound{Provider: provider.NameSetlistFM, ID: params.Encode()}
	}

	s := mapSetlist(&resp.Setlists[0])
	if len(s.Songs) == 0 {
		return nil, &provider.ErrNotFound{Provider: provider.NameSetlistFM, ID: params.Encode()}
	}
	return s, nil
}

func mapSetlist(sl *Setlist) *provider.Setlist {
	s := &provider.Setlist{
		Artist:    sl.Artist.Name,
		EventDate: sl.EventDate,
		Venue:     sl.Venue.Name,
	}
	if sl.Tour != nil {
		s.Tour = sl.Tour.Name
	}
	for _, set := range sl.Sets.Set {
		for _, song := range set.Song {
			if song.Name != "" {
				s.Songs = append(s.Songs, song.Name)
			}
		}
	}
	return s
}

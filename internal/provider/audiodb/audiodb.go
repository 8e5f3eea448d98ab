package audiodb

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
	defaultBaseURL = "https://www.theaudiodb.com/api/v1/json"

	// PublicKey is TheAudioDB's free test key, used when none is configured.
	PublicKey = "2"
)

// Adapter implements provider.Searcher for TheAudioDB V1 track search.
type Adapter struct {
	client  *provider.Client
	apiKey  string
	logger  *slog.Logger
	baseURL string
}

// New creates a TheAudioDB adapter with the default V1 base URL.
func New(limiter *provider.RateLimiterMap, apiKey string, logger *slog.Logger, opts ...provider.ClientOption) *Adapter {
	return NewWithBaseURL(limiter, apiKey, logger, defaultBaseURL, opts...)
}

// NewWithBaseURL creates a TheAudioDB adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, apiKey string, logger *slog.Logger, baseURL string, opts ...provider.ClientOption) *Adapter {
	if apiKey == "" {
		apiKey = PublicKey
	}
	logger = logger.With(slog.String("provider", "audiodb"))
	return &Adapter{
		client:  provider.NewClient(provider.NameAudioDB, limiter, logger, opts...),
		apiKey:  apiKey,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameAudioDB }

// RequiresAuth returns false; the public key always works.
func (a *Adapter) RequiresAuth() bool { return false }

// Configured always reports true.
func (a *Adapter) Configured() bool { return true }

// Search looks up a track by artist and title. Hits are classified as
// music videos.
func (a *Adapter) Search(ctx context.Context, q provider.Query, limit int) ([]provider.Candidate, error) {
	params := url.Values{}
	params.Set("s", q.Artist)
	params.Set("t", q.Title)

	reqURL := fmt.Sprintf("%s/%s/searchtrack.php?%s", a.baseURL, url.PathEscape(a.apiKey), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var resp TrackResponse
	if err := a.client.GetJSON(ctx, req, "audiodb:searchtrack?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Track) == 0 {
		return nil, &provider.ErrNotFound{Provider: provider.NameAudioDB, ID: q.String()}
	}
	if limit <= 0 {
		limit = 1
	}

	results := make([]provider.Candidate, 0, min(limit, len(resp.Track)))
	for _, raw := range resp.Track {
		if len(results) == limit {
			break
		}
		var t AudioDBTrack
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, &provider.ErrMalformedResponse{Provider: provider.NameAudioDB, Cause: err}
		}
		results = append(results, mapTrack(&t, raw))
	}
	return results, nil
}

func mapTrack(t *AudioDBTrack, raw []byte) provider.Candidate {
	return provider.Candidate{
		Source:        provider.NameAudioDB,
		Kind:          provider.KindMusicVideo,
		Title:         t.Track,
		Artist:        t.Artist,
		Album:         t.Album,
		Year:          t.Year,
		Plot:          t.DescriptionEN,
		Director:      t.MusicVidDirector,
		Genre:         t.Genre,
		PosterURL:     t.AlbumThumb,
		FanartURL:     t.TrackThumb,
		MusicBrainzID: t.MusicBrainzID,
		Raw:           raw,
	}
}

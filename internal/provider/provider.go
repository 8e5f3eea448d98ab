package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AccessTier classifies a provider's access model.
type AccessTier string

// Access tier constants for classifying a provider's access model.
const (
	TierFree     AccessTier = "free"     // No key, no limit known
	TierFreeKey  AccessTier = "free_key" // Free account/sign-up required
	TierFreemium AccessTier = "freemium" // Free tier with quota, paid for more
)

// ProviderCapability describes a provider's access model and where to get a key.
type ProviderCapability struct {
	Tier    AccessTier `json:"tier"`
	HelpURL string     `json:"help_url,omitempty"`
}

// ProviderCapabilities returns the known capability metadata for each provider.
func ProviderCapabilities() map[ProviderName]ProviderCapability {
	return map[ProviderName]ProviderCapability{
		NameTMDB: {
			Tier:    TierFreeKey,
			HelpURL: "https://www.themoviedb.org/settings/api",
		},
		NameAudioDB: {
			Tier:    TierFreemium,
			HelpURL: "https://www.theaudiodb.com/api_guide.php",
		},
		NameDiscogs: {
			Tier:    TierFreeKey,
			HelpURL: "https://www.discogs.com/settings/developers",
		},
		NameFanartTV: {
			Tier:    TierFreeKey,
			HelpURL: "https://fanart.tv/get-an-api-key/",
		},
		NameSetlistFM: {
			Tier:    TierFreeKey,
			HelpURL: "https://www.setlist.fm/settings/api",
		},
		NameWikipedia: {
			Tier: TierFree,
		},
	}
}

// ProviderName uniquely identifies a metadata provider.
type ProviderName string

// Known provider names.
const (
	NameTMDB      ProviderName = "tmdb"
	NameAudioDB   ProviderName = "audiodb"
	NameDiscogs   ProviderName = "discogs"
	NameFanartTV  ProviderName = "fanarttv"
	NameSetlistFM ProviderName = "setlistfm"
	NameWikipedia ProviderName = "wikipedia"
)

// AllProviderNames returns all known provider names in waterfall order.
func AllProviderNames() []ProviderName {
	return []ProviderName{
		NameTMDB,
		NameAudioDB,
		NameDiscogs,
		NameFanartTV,
		NameSetlistFM,
		NameWikipedia,
	}
}

// DisplayName returns a human-readable name for the provider.
func (n ProviderName) DisplayName() string {
	switch n {
	case NameTMDB:
		return "TMDB"
	case NameAudioDB:
		return "TheAudioDB"
	case NameDiscogs:
		return "Discogs"
	case NameFanartTV:
		return "Fanart.tv"
	case NameSetlistFM:
		return "setlist.fm"
	case NameWikipedia:
		return "Wikipedia"
	default:
		return string(n)
	}
}

// Kind classifies what a candidate describes.
type Kind string

// Candidate kinds.
const (
	KindConcert    Kind = "concert"
	KindMusicVideo Kind = "music_video"
	KindRelease    Kind = "release"
)

// Query identifies the asset being resolved.
type Query struct {
	Artist string `json:"artist" yaml:"artist"`
	Title  string `json:"title" yaml:"title"`
	// Date is a known performance date (YYYY-MM-DD), if any.
	Date string `json:"date,omitempty" yaml:"date,omitempty"`
}

func (q Query) String() string {
	return strings.TrimSpace(q.Artist + " " + q.Title)
}

// Candidate is one provider hit normalized to the common record shape.
// Adapters never modify a Candidate after returning it.
type Candidate struct {
	Source        ProviderName `json:"source"`
	Kind          Kind         `json:"kind"`
	Title         string       `json:"title"`
	Artist        string       `json:"artist,omitempty"`
	Album         string       `json:"album,omitempty"`
	Year          string       `json:"year,omitempty"`
	Plot          string       `json:"plot,omitempty"`
	Director      string       `json:"director,omitempty"`
	Genre         string       `json:"genre,omitempty"`
	PosterURL     string       `json:"poster_url,omitempty"`
	FanartURL     string       `json:"fanart_url,omitempty"`
	MusicBrainzID string       `json:"musicbrainz_id,omitempty"`
	// Raw is the provider's untouched payload for this hit.
	Raw []byte `json:"-"`
}

// Record seeds a metadata record from the candidate. Only concert
// candidates from the primary database are classified as concerts.
func (c Candidate) Record() *Record {
	return &Record{
		Title:         c.Title,
		Artist:        c.Artist,
		Album:         c.Album,
		Year:          c.Year,
		Plot:          c.Plot,
		Director:      c.Director,
		Genre:         c.Genre,
		PosterURL:     c.PosterURL,
		FanartURL:     c.FanartURL,
		MusicBrainzID: c.MusicBrainzID,
		IsConcert:     c.Source == NameTMDB && c.Kind == KindConcert,
	}
}

// Record is resolved metadata for one asset.
type Record struct {
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	Album         string `json:"album,omitempty"`
	Year          string `json:"year,omitempty"`
	Plot          string `json:"plot,omitempty"`
	Director      string `json:"director,omitempty"`
	Genre         string `json:"genre,omitempty"`
	PosterURL     string `json:"poster_url,omitempty"`
	FanartURL     string `json:"fanart_url,omitempty"`
	MusicBrainzID string `json:"musicbrainz_id,omitempty"`
	IsConcert     bool   `json:"is_concert"`
	Date          string `json:"date,omitempty"`
}

// Clone returns a copy of r.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// FieldSource records which provider supplied a given field.
type FieldSource struct {
	Field    string       `json:"field"`
	Provider ProviderName `json:"provider"`
}

// Artwork holds image URLs keyed by MBID.
type Artwork struct {
	PosterURL string `json:"poster_url,omitempty"`
	FanartURL string `json:"fanart_url,omitempty"`
}

// Setlist is an ordered song list for one performance.
type Setlist struct {
	Artist    string   `json:"artist"`
	Tour      string   `json:"tour,omitempty"`
	EventDate string   `json:"event_date,omitempty"`
	Venue     string   `json:"venue,omitempty"`
	Songs     []string `json:"songs"`
}

// Text renders the setlist as a human-readable block.
func (s *Setlist) Text() string {
	var b strings.Builder
	if s.Tour != "" {
		fmt.Fprintf(&b, "Tour: %s\n", s.Tour)
	}
	for i, song := range s.Songs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, song)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Summary is an encyclopedia page extract.
type Summary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	URL     string `json:"url,omitempty"`
}

// Provider is the interface all metadata source adapters implement.
type Provider interface {
	// Name returns the unique provider identifier.
	Name() ProviderName

	// RequiresAuth returns true if this provider needs credentials to function.
	RequiresAuth() bool

	// Configured reports whether the credentials the provider needs are present.
	Configured() bool
}

// Searcher finds candidates by artist and title.
type Searcher interface {
	Provider

	// Search returns up to limit candidates in the provider's own ranking.
	// An empty result is reported as *ErrNotFound.
	Search(ctx context.Context, q Query, limit int) ([]Candidate, error)
}

// ImageProvider serves artwork keyed by MusicBrainz artist ID.
type ImageProvider interface {
	Provider
	Images(ctx context.Context, mbid string) (*Artwork, error)
}

// SetlistProvider looks up performed songs.
type SetlistProvider interface {
	Provider
	SetlistByDate(ctx context.Context, artist string, date time.Time) (*Setlist, error)
	SetlistByTour(ctx context.Context, artist, tour, year string) (*Setlist, error)
}

// SummaryProvider returns the first acceptable page among titles, tried in order.
type SummaryProvider interface {
	Provider
	Summary(ctx context.Context, titles []string) (*Summary, error)
}

// ErrProviderUnavailable indicates a transient failure (rate-limited, timeout, server error).
type ErrProviderUnavailable struct {
	Provider   ProviderName
	Cause      error
	StatusCode int // 0 when no response was received
	RetryAfter time.Duration
}

func (e *ErrProviderUnavailable) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Cause)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Cause }

// ErrNotFound indicates the provider has no data for the request.
type ErrNotFound struct {
	Provider ProviderName
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("provider %s: %s not found", e.Provider, e.ID)
}

// ErrAuthRequired indicates the provider needs credentials but none are configured
// or the configured ones were rejected.
type ErrAuthRequired struct {
	Provider ProviderName
}

func (e *ErrAuthRequired) Error() string {
	return fmt.Sprintf("provider %s: API key not configured", e.Provider)
}

// ErrMalformedResponse indicates the provider answered with an unexpected shape.
type ErrMalformedResponse struct {
	Provider ProviderName
	Cause    error
}

func (e *ErrMalformedResponse) Error() string {
	return fmt.Sprintf("provider %s: malformed response: %v", e.Provider, e.Cause)
}

func (e *ErrMalformedResponse) Unwrap() error { return e.Cause }

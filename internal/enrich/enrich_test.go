package enrich

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydlexius/encore/internal/match"
	"github.com/sydlexius/encore/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeReleases struct {
	candidate *provider.Candidate
	calls     int
}

func (f *fakeReleases) Name() provider.ProviderName { return provider.NameDiscogs }
func (f *fakeReleases) RequiresAuth() bool          { return true }
func (f *fakeReleases) Configured() bool            { return true }
func (f *fakeReleases) Search(context.Context, provider.Query, int) ([]provider.Candidate, error) {
	f.calls++
	if f.candidate == nil {
		return nil, &provider.ErrNotFound{Provider: provider.NameDiscogs}
	}
	return []provider.Candidate{*f.candidate}, nil
}

type fakeSummaries struct {
	summary *provider.Summary
	titles  [][]string
}

func (f *fakeSummaries) Name() provider.ProviderName { return provider.NameWikipedia }
func (f *fakeSummaries) RequiresAuth() bool          { return false }
func (f *fakeSummaries) Configured() bool            { return true }
func (f *fakeSummaries) Summary(_ context.Context, titles []string) (*provider.Summary, error) {
	f.titles = append(f.titles, titles)
	if f.summary == nil {
		return nil, &provider.ErrNotFound{Provider: provider.NameWikipedia}
	}
	return f.summary, nil
}

type fakeSetlists struct {
	setlist *provider.Setlist
	calls   int
}

func (f *fakeSetlists) Name() provider.ProviderName { return provider.NameSetlistFM }
func (f *fakeSetlists) RequiresAuth() bool          { return true }
func (f *fakeSetlists) Configured() bool            { return true }
func (f *fakeSetlists) SetlistByDate(context.Context, string, time.Time) (*provider.Setlist, error) {
	f.calls++
	return f.setlist, nil
}
func (f *fakeSetlists) SetlistByTour(context.Context, string, string, string) (*provider.Setlist, error) {
	f.calls++
	return f.setlist, nil
}

type fakeImages struct {
	art   *provider.Artwork
	calls int
}

func (f *fakeImages) Name() provider.ProviderName { return provider.NameFanartTV }
func (f *fakeImages) RequiresAuth() bool          { return true }
func (f *fakeImages) Configured() bool            { return true }
func (f *fakeImages) Images(context.Context, string) (*provider.Artwork, error) {
	f.calls++
	return f.art, nil
}

type fixture struct {
	releases  *fakeReleases
	summaries *fakeSummaries
	setlists  *fakeSetlists
	images    *fakeImages
	enricher  *Enricher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		releases:  &fakeReleases{},
		summaries: &fakeSummaries{},
		setlists:  &fakeSetlists{setlist: &provider.Setlist{Tour: "Black Album", Songs: []string{"Enter Sandman", "Sad but True"}}},
		images:    &fakeImages{art: &provider.Artwork{PosterURL: "fa-poster", FanartURL: "fa-bg"}},
	}
	reg := provider.NewRegistry(testLogger())
	reg.Register(f.releases)
	reg.Register(f.summaries)
	reg.Register(f.setlists)
	reg.Register(f.images)
	f.enricher = New(reg, match.NewGate(0), 0, testLogger())
	return f
}

func TestEnrichSkipsWithoutArtistOrTitle(t *testing.T) {
	f := newFixture(t)
	rec := &provider.Record{Title: "One"}
	before := *rec

	assert.Empty(t, f.enricher.Enrich(context.Background(), rec))
	assert.Equal(t, before, *rec)
	assert.Zero(t, f.releases.calls)
}

func TestEnrichFillsOnlyMissingFromRelease(t *testing.T) {
	f := newFixture(t)
	f.releases.candidate = &provider.Candidate{Source: provider.NameDiscogs, Title: "Nevermind", Year: "1991", PosterURL: "cover"}
	rec := &provider.Record{Artist: "Nirvana", Title: "Nevermind", Album: "Nevermind (Deluxe)", Plot: strings.Repeat("x", 60)}

	sources := f.enricher.Enrich(context.Background(), rec)

	assert.Equal(t, "1991", rec.Year)
	assert.Equal(t, "Nevermind (Deluxe)", rec.Album, "populated album kept")
	assert.Equal(t, "cover", rec.PosterURL)
	assert.Contains(t, sources, provider.FieldSource{Field: "year", Provider: provider.NameDiscogs})
	assert.NotContains(t, sources, provider.FieldSource{Field: "album", Provider: provider.NameDiscogs})
	assert.Empty(t, f.summaries.titles, "long plot is not looked up")
}

func TestEnrichRejectsMismatchedRelease(t *testing.T) {
	f := newFixture(t)
	f.releases.candidate = &provider.Candidate{Source: provider.NameDiscogs, Title: "Totally Different Record", Year: "1970"}
	rec := &provider.Record{Artist: "Nirvana", Title: "Bleach"}

	f.enricher.Enrich(context.Background(), rec)
	assert.Empty(t, rec.Year)
}

func TestEnrichSummaryVariantsAndLength(t *testing.T) {
	f := newFixture(t)
	f.summaries.summary = &provider.Summary{Extract: "\"Army of Me\" is a song by Björk from the album Post, released in 1995."}
	rec := &provider.Record{Artist: "Björk", Title: "Army of Me", Plot: "Short.", Year: "1995", Album: "Post", PosterURL: "p"}

	f.enricher.Enrich(context.Background(), rec)

	require.Len(t, f.summaries.titles, 1)
	assert.Equal(t, []string{"Björk Army of Me (song)", "Army of Me (song)", "Army of Me"}, f.summaries.titles[0])
	assert.Equal(t, f.summaries.summary.Extract, rec.Plot)
}

func TestEnrichSummaryNeverShortensPlot(t *testing.T) {
	f := newFixture(t)
	f.summaries.summary = &provider.Summary{Extract: "A song."}
	rec := &provider.Record{Artist: "a", Title: "b", Plot: "Something longer than seven."}

	f.enricher.Enrich(context.Background(), rec)
	assert.Equal(t, "Something longer than seven.", rec.Plot)
}

func TestEnrichSetlistIdempotent(t *testing.T) {
	f := newFixture(t)
	rec := &provider.Record{
		Artist: "Metallica", Title: "Live Shit", IsConcert: true,
		Year: "1993", Album: "Live Shit", PosterURL: "p", FanartURL: "f",
		Plot: strings.Repeat("Concert film. ", 5),
	}

	f.enricher.Enrich(context.Background(), rec)
	once := *rec
	f.enricher.Enrich(context.Background(), rec)

	assert.Equal(t, once, *rec)
	assert.Equal(t, 1, strings.Count(rec.Plot, "[SETLIST]"))
	assert.Equal(t, 1, f.setlists.calls)
	assert.Contains(t, rec.Plot, "1. Enter Sandman")
}

func TestEnrichSetlistOnlyForConcerts(t *testing.T) {
	f := newFixture(t)
	rec := &provider.Record{Artist: "a", Title: "b", Year: "1", Album: "c", PosterURL: "p", Plot: strings.Repeat("y", 60)}

	f.enricher.Enrich(context.Background(), rec)
	assert.Zero(t, f.setlists.calls)
}

func TestEnrichLegacyMarker(t *testing.T) {
	f := newFixture(t)
	rec := &provider.Record{Artist: "a", Title: "b", IsConcert: true, Year: "1", Album: "c", PosterURL: "p",
		Plot: strings.Repeat("y", 60) + "\n[SCALETTA]\n1. x"}

	f.enricher.Enrich(context.Background(), rec)
	assert.Zero(t, f.setlists.calls)
}

func TestEnrichArtworkFillsMissingOnly(t *testing.T) {
	f := newFixture(t)
	rec := &provider.Record{Artist: "a", Title: "b", Year: "1", Album: "c", PosterURL: "mine",
		Plot: strings.Repeat("y", 60), MusicBrainzID: "mbid"}

	f.enricher.Enrich(context.Background(), rec)
	assert.Equal(t, "mine", rec.PosterURL)
	assert.Equal(t, "fa-bg", rec.FanartURL)

	rec.MusicBrainzID = ""
	rec.FanartURL = ""
	f.enricher.Enrich(context.Background(), rec)
	assert.Equal(t, 1, f.images.calls, "no MBID, no lookup")
}

func TestEnrichNeverReducesCompleteness(t *testing.T) {
	f := newFixture(t)
	f.releases.candidate = &provider.Candidate{Title: "Post", Year: "1995", PosterURL: "c"}
	f.summaries.summary = &provider.Summary{Extract: "x"}
	in := provider.Record{Artist: "Björk", Title: "Post", Plot: "A long enough plot that stays.", MusicBrainzID: "m"}
	rec := in

	f.enricher.Enrich(context.Background(), &rec)

	fields := func(r provider.Record) []string {
		return []string{r.Artist, r.Title, r.Album, r.Year, r.Plot, r.Director, r.Genre, r.PosterURL, r.FanartURL, r.MusicBrainzID}
	}
	before, after := fields(in), fields(rec)
	for i := range before {
		assert.GreaterOrEqual(t, len(after[i]), len(before[i]))
		if before[i] != "" && i != 4 {
			assert.Equal(t, before[i], after[i])
		}
	}
}

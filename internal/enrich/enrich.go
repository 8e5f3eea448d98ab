// Package enrich fills gaps in a record that a human has already picked.
package enrich

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/sydlexius/encore/internal/match"
	"github.com/sydlexius/encore/internal/provider"
	"github.com/sydlexius/encore/internal/resolve"
)

// DefaultMinPlotLength is the plot length below which a summary is looked up.
const DefaultMinPlotLength = 50

// Enricher deepens a selected record with secondary providers. Each step
// only touches fields that are empty, or a plot shorter than the minimum.
type Enricher struct {
	registry      *provider.Registry
	gate          match.Gate
	minPlotLength int
	logger        *slog.Logger
}

// New creates an Enricher. A minPlotLength of zero or less uses
// DefaultMinPlotLength.
func New(registry *provider.Registry, gate match.Gate, minPlotLength int, logger *slog.Logger) *Enricher {
	if minPlotLength <= 0 {
		minPlotLength = DefaultMinPlotLength
	}
	return &Enricher{
		registry:      registry,
		gate:          gate,
		minPlotLength: minPlotLength,
		logger:        logger.With(slog.String("component", "enricher")),
	}
}

// Enrich fills rec in place and returns the fields it changed. Records
// without both artist and title are left alone. Running it again on its
// own output changes nothing already filled and never repeats a setlist.
func (e *Enricher) Enrich(ctx context.Context, rec *provider.Record) []provider.FieldSource {
	if rec.Artist == "" || rec.Title == "" {
		return nil
	}

	var sources []provider.FieldSource
	sources = e.fromRelease(ctx, rec, sources)
	sources = e.fromSummary(ctx, rec, sources)
	sources = e.fromSetlist(ctx, rec, sources)
	sources = e.fromArtwork(ctx, rec, sources)
	return sources
}

func (e *Enricher) fromRelease(ctx context.Context, rec *provider.Record, sources []provider.FieldSource) []provider.FieldSource {
	if rec.Year != "" && rec.Album != "" && rec.PosterURL != "" {
		return sources
	}
	s, ok := provider.As[provider.Searcher](e.registry, provider.NameDiscogs)
	if !ok {
		return sources
	}

	q := provider.Query{Artist: rec.Artist, Title: rec.Title}
	out := provider.Lookup(ctx, s, q)
	if !out.Found() {
		e.logOutcome(out)
		return sources
	}
	if sim, ok := e.gate.Check(rec.Title, out.Candidate.Title, rec.Artist); !ok {
		e.logger.Debug("candidate rejected",
			slog.String("provider", string(provider.NameDiscogs)),
			slog.Float64("score", sim.Score))
		return sources
	}

	c := out.Candidate
	if rec.Year == "" && c.Year != "" {
		rec.Year = c.Year
		sources = append(sources, provider.FieldSource{Field: "year", Provider: provider.NameDiscogs})
	}
	if rec.Album == "" && c.Title != "" {
		rec.Album = c.Title
		sources = append(sources, provider.FieldSource{Field: "album", Provider: provider.NameDiscogs})
	}
	if rec.PosterURL == "" && c.PosterURL != "" {
		rec.PosterURL = c.PosterURL
		sources = append(sources, provider.FieldSource{Field: "poster_url", Provider: provider.NameDiscogs})
	}
	return sources
}

// SummaryTitles returns the page names tried for a plot, most specific first.
func SummaryTitles(artist, title string) []string {
	return []string{
		artist + " " + title + " (song)",
		title + " (song)",
		title,
	}
}

func (e *Enricher) fromSummary(ctx context.Context, rec *provider.Record, sources []provider.FieldSource) []provider.FieldSource {
	current := utf8.RuneCountInString(rec.Plot)
	if current >= e.minPlotLength {
		return sources
	}
	sp, ok := provider.As[provider.SummaryProvider](e.registry, provider.NameWikipedia)
	if !ok {
		return sources
	}

	summary, err := sp.Summary(ctx, SummaryTitles(rec.Artist, rec.Title))
	if err != nil {
		e.logSoftFailure(provider.NameWikipedia, err)
		return sources
	}
	if utf8.RuneCountInString(summary.Extract) <= current {
		return sources
	}
	rec.Plot = summary.Extract
	return append(sources, provider.FieldSource{Field: "plot", Provider: provider.NameWikipedia})
}

func (e *Enricher) fromSetlist(ctx context.Context, rec *provider.Record, sources []provider.FieldSource) []provider.FieldSource {
	if !rec.IsConcert || resolve.HasSetlist(rec.Plot) {
		return sources
	}
	sp, ok := provider.As[provider.SetlistProvider](e.registry, provider.NameSetlistFM)
	if !ok {
		return sources
	}

	s, err := resolve.FetchSetlist(ctx, sp, rec.Artist, rec.Title, rec.Date, rec.Year)
	if err != nil {
		e.logSoftFailure(provider.NameSetlistFM, err)
		return sources
	}
	rec.Plot = resolve.AppendSetlist(rec.Plot, s.Text())
	return append(sources, provider.FieldSource{Field: "setlist", Provider: provider.NameSetlistFM})
}

func (e *Enricher) fromArtwork(ctx context.Context, rec *provider.Record, sources []provider.FieldSource) []provider.FieldSource {
	if (rec.PosterURL != "" && rec.FanartURL != "") || rec.MusicBrainzID == "" {
		return sources
	}
	ip, ok := provider.As[provider.ImageProvider](e.registry, provider.NameFanartTV)
	if !ok {
		return sources
	}

	art, err := ip.Images(ctx, rec.MusicBrainzID)
	if err != nil {
		e.logSoftFailure(provider.NameFanartTV, err)
		return sources
	}
	return resolve.FillArtwork(rec, art, sources)
}

func (e *Enricher) logOutcome(out provider.Outcome) {
	if out.Err != nil {
		e.logSoftFailure(out.Provider, out.Err)
	}
}

func (e *Enricher) logSoftFailure(name provider.ProviderName, err error) {
	if provider.Classify(err) == provider.StatusTransient {
		e.logger.Warn("enrichment lookup failed",
			slog.String("provider", string(name)),
			slog.String("error", err.Error()))
		return
	}
	e.logger.Debug("enrichment lookup empty",
		slog.String("provider", string(name)),
		slog.String("error", err.Error()))
}

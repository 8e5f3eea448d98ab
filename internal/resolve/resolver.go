// Package resolve picks metadata for an asset by consulting providers in a
// fixed priority order and accepting the first candidate that clears the
// similarity gate.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sydlexius/encore/internal/match"
	"github.com/sydlexius/encore/internal/provider"
)

// ErrUnresolved reports that no provider produced an accepted candidate.
type ErrUnresolved struct {
	Artist   string
	Title    string
	Attempts []provider.Outcome
}

func (e *ErrUnresolved) Error() string {
	return fmt.Sprintf("no provider matched %q by %q", e.Title, e.Artist)
}

// Result is a resolved record plus which provider supplied each field.
type Result struct {
	Record   *provider.Record       `json:"record"`
	Sources  []provider.FieldSource `json:"sources"`
	Attempts []provider.Outcome     `json:"-"`
}

// Resolver runs the provider waterfall for one query at a time. It is safe
// for concurrent use.
type Resolver struct {
	registry *provider.Registry
	gate     match.Gate
	logger   *slog.Logger

	// rejected holds providers whose credentials the service refused.
	rejected sync.Map
}

// New creates a Resolver over the registered providers.
func New(registry *provider.Registry, gate match.Gate, logger *slog.Logger) *Resolver {
	return &Resolver{
		registry: registry,
		gate:     gate,
		logger:   logger.With(slog.String("component", "resolver")),
	}
}

// Resolve runs the waterfall for q:
//
//  1. TMDB; an accepted hit is a concert, gets an optional setlist, and ends resolution.
//  2. TheAudioDB, then Discogs only if TheAudioDB had no accepted hit.
//  3. Fanart.tv fills missing poster/fanart when an MBID is known.
//  4. Discogs cover art fills a still-missing poster.
//
// When nothing is accepted it returns *ErrUnresolved and no record.
func (r *Resolver) Resolve(ctx context.Context, q provider.Query) (*Result, error) {
	res := &Result{}

	if c, ok := r.try(ctx, provider.NameTMDB, q, res); ok {
		rec := c.Record()
		rec.Artist = q.Artist
		rec.Date = q.Date
		res.Record = rec
		res.Sources = appendSources(res.Sources, rec, provider.NameTMDB)
		r.attachSetlist(ctx, q, res)
		return res, nil
	}

	var discogsHit *provider.Candidate
	c, found := r.try(ctx, provider.NameAudioDB, q, res)
	if !found {
		c, found = r.try(ctx, provider.NameDiscogs, q, res)
		if found {
			discogsHit = &c
		}
	}
	if !found {
		r.logger.Warn("resolution exhausted",
			slog.String("artist", q.Artist),
			slog.String("title", q.Title))
		return nil, &ErrUnresolved{Artist: q.Artist, Title: q.Title, Attempts: res.Attempts}
	}

	rec := c.Record()
	if rec.Artist == "" {
		rec.Artist = q.Artist
	}
	rec.Date = q.Date
	res.Record = rec
	res.Sources = appendSources(res.Sources, rec, c.Source)

	if (rec.PosterURL == "" || rec.FanartURL == "") && rec.MusicBrainzID != "" {
		r.completeImages(ctx, res)
	}

	if rec.PosterURL == "" {
		if discogsHit == nil {
			if hit, ok := r.try(ctx, provider.NameDiscogs, q, res); ok {
				discogsHit = &hit
			}
		}
		if discogsHit != nil && discogsHit.PosterURL != "" {
			rec.PosterURL = discogsHit.PosterURL
			res.Sources = append(res.Sources, provider.FieldSource{Field: "poster_url", Provider: provider.NameDiscogs})
		}
	}

	return res, nil
}

// try looks up the top candidate from one provider and applies the gate.
// Every attempt is recorded on res.
func (r *Resolver) try(ctx context.Context, name provider.ProviderName, q provider.Query, res *Result) (provider.Candidate, bool) {
	s, ok := provider.As[provider.Searcher](r.registry, name)
	if !ok {
		return provider.Candidate{}, false
	}

	out := provider.Lookup(ctx, s, q)
	res.Attempts = append(res.Attempts, out)

	switch out.Status {
	case provider.StatusFound:
		sim, accepted := r.gate.Check(q.Title, out.Candidate.Title, q.Artist)
		if !accepted {
			r.logger.Debug("candidate rejected",
				slog.String("provider", string(name)),
				slog.String("query", sim.Query),
				slog.String("candidate", sim.Candidate),
				slog.Float64("score", sim.Score))
			return provider.Candidate{}, false
		}
		r.logger.Debug("candidate accepted",
			slog.String("provider", string(name)),
			slog.String("title", out.Candidate.Title),
			slog.Float64("score", sim.Score))
		return out.Candidate, true
	case provider.StatusTransient:
		r.logger.Warn("provider lookup failed",
			slog.String("provider", string(name)),
			slog.String("error", out.Err.Error()))
	case provider.StatusNotFound:
		r.logger.Debug("no result",
			slog.String("provider", string(name)),
			slog.String("query", q.String()))
	case provider.StatusUnavailable:
		r.warnRejected(name, out.Err)
	}
	return provider.Candidate{}, false
}

func (r *Resolver) attachSetlist(ctx context.Context, q provider.Query, res *Result) {
	sp, ok := provider.As[provider.SetlistProvider](r.registry, provider.NameSetlistFM)
	if !ok {
		return
	}
	s, err := FetchSetlist(ctx, sp, q.Artist, res.Record.Title, q.Date, res.Record.Year)
	if err != nil {
		r.logSoftFailure(ctx, provider.NameSetlistFM, err)
		return
	}
	res.Record.Plot = AppendSetlist(res.Record.Plot, s.Text())
	res.Sources = append(res.Sources, provider.FieldSource{Field: "setlist", Provider: provider.NameSetlistFM})
}

func (r *Resolver) completeImages(ctx context.Context, res *Result) {
	ip, ok := provider.As[provider.ImageProvider](r.registry, provider.NameFanartTV)
	if !ok {
		return
	}
	art, err := ip.Images(ctx, res.Record.MusicBrainzID)
	if err != nil {
		r.logSoftFailure(ctx, provider.NameFanartTV, err)
		return
	}
	res.Sources = FillArtwork(res.Record, art, res.Sources)
}

// warnRejected logs a refused credential at Warn once per provider for the
// life of the Resolver and at Debug after that. Providers registered without
// credentials never get here; the registry reports those at startup.
func (r *Resolver) warnRejected(name provider.ProviderName, err error) {
	attrs := []any{slog.String("provider", string(name))}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	if _, seen := r.rejected.LoadOrStore(name, struct{}{}); seen {
		r.logger.Debug("provider rejected credentials", attrs...)
		return
	}
	r.logger.Warn("provider rejected credentials, check the configured key", attrs...)
}

func (r *Resolver) logSoftFailure(ctx context.Context, name provider.ProviderName, err error) {
	level := slog.LevelDebug
	switch provider.Classify(err) {
	case provider.StatusTransient:
		level = slog.LevelWarn
	case provider.StatusUnavailable:
		r.warnRejected(name, err)
		return
	}
	r.logger.Log(ctx, level, "auxiliary lookup failed",
		slog.String("provider", string(name)),
		slog.String("error", err.Error()))
}

// FillArtwork copies only the missing image URLs from art and credits them
// to Fanart.tv.
func FillArtwork(rec *provider.Record, art *provider.Artwork, sources []provider.FieldSource) []provider.FieldSource {
	if rec.PosterURL == "" && art.PosterURL != "" {
		rec.PosterURL = art.PosterURL
		sources = append(sources, provider.FieldSource{Field: "poster_url", Provider: provider.NameFanartTV})
	}
	if rec.FanartURL == "" && art.FanartURL != "" {
		rec.FanartURL = art.FanartURL
		sources = append(sources, provider.FieldSource{Field: "fanart_url", Provider: provider.NameFanartTV})
	}
	return sources
}

// appendSources credits every populated field of rec to name.
func appendSources(sources []provider.FieldSource, rec *provider.Record, name provider.ProviderName) []provider.FieldSource {
	fields := []struct {
		field string
		value string
	}{
		{"title", rec.Title},
		{"artist", rec.Artist},
		{"album", rec.Album},
		{"year", rec.Year},
		{"plot", rec.Plot},
		{"director", rec.Director},
		{"genre", rec.Genre},
		{"poster_url", rec.PosterURL},
		{"fanart_url", rec.FanartURL},
		{"musicbrainz_id", rec.MusicBrainzID},
	}
	for _, f := range fields {
		if f.value != "" {
			sources = append(sources, provider.FieldSource{Field: f.field, Provider: name})
		}
	}
	return sources
}

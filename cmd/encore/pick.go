package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sydlexius/encore/internal/merge"
	"github.com/sydlexius/encore/internal/nfo"
	"github.com/sydlexius/encore/internal/provider"
)

// enrichPick seeds a Record from the nth (1-based) candidate and deepens it
// with the enrichment pipeline.
func enrichPick(ctx context.Context, svc *services, candidates []provider.Candidate, n int, q provider.Query) (*provider.Record, []provider.FieldSource, error) {
	if len(candidates) == 0 {
		return nil, nil, fmt.Errorf("no candidates for %s - %s", q.Artist, q.Title)
	}
	if n < 1 || n > len(candidates) {
		return nil, nil, fmt.Errorf("--pick %d out of range: %d candidates", n, len(candidates))
	}
	rec := candidates[n-1].Record()
	if rec.Artist == "" {
		rec.Artist = q.Artist
	}
	if rec.Date == "" {
		rec.Date = q.Date
	}
	return rec, svc.enricher.Enrich(ctx, rec), nil
}

// storedSidecar is an asset's sidecar as read before any provider call.
// readAt lets the final write detect edits made in the meantime.
type storedSidecar struct {
	path   string
	found  bool
	readAt time.Time
	record *provider.Record
}

func readStored(assetPath string) (*storedSidecar, error) {
	s := &storedSidecar{record: &provider.Record{}, readAt: time.Now()}
	s.path, s.found = nfo.FindSidecar(assetPath)
	if !s.found {
		return s, nil
	}
	doc, err := nfo.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	s.record = nfo.ToRecord(doc)
	return s, nil
}

// plan builds the field decisions for incoming against the stored record
// and applies the user's toggles, overwrite first.
func (s *storedSidecar) plan(incoming *provider.Record, overwrite, keep []string) (*merge.Plan, error) {
	p := merge.NewPlan(merge.FromRecord(s.record), merge.FromRecord(incoming))
	for _, field := range overwrite {
		if err := p.Set(field, true); err != nil {
			return nil, err
		}
	}
	for _, field := range keep {
		if err := p.Set(field, false); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// merged applies p and returns the record to write. Fields outside the
// merge set come from the stored sidecar, or from incoming when there is
// none.
func (s *storedSidecar) merged(p *merge.Plan, incoming *provider.Record) (*provider.Record, error) {
	fields, err := p.Apply()
	if err != nil {
		return nil, err
	}
	base := s.record
	if !s.found {
		base = incoming
	}
	rec := merge.ToRecord(base, fields)
	if rec.MusicBrainzID == "" {
		rec.MusicBrainzID = incoming.MusicBrainzID
	}
	return rec, nil
}

// checkConflict fails when the sidecar changed on disk after it was read.
func (s *storedSidecar) checkConflict(force bool) error {
	if !s.found || force {
		return nil
	}
	if check := nfo.CheckFileConflict(s.path, s.readAt); check.HasConflict {
		return fmt.Errorf("%s: %s; rerun with --force to overwrite", s.path, check.Reason)
	}
	return nil
}

// Package merge reconciles a stored record with freshly retrieved values
// under user control. It performs no I/O.
package merge

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/sydlexius/encore/internal/provider"
)

// Fields is the reconciled field set, in display order.
var Fields = []string{"artist", "title", "album", "year", "plot", "poster_url", "fanart_url"}

// Decision statuses.
const (
	StatusAdded     = "added"     // current empty, new present
	StatusConflict  = "conflict"  // both present and different
	StatusUnchanged = "unchanged" // equal after trimming
	StatusNoValue   = "no_value"  // nothing new to offer
)

var (
	// ErrLocked is returned when toggling a field whose decision is forced off.
	ErrLocked = errors.New("merge: field cannot be overwritten")

	// ErrConsumed is returned when a plan is applied more than once.
	ErrConsumed = errors.New("merge: plan already applied")
)

// Decision is the overwrite choice for one field.
type Decision struct {
	Field     string `json:"field"`
	Current   string `json:"current"`
	New       string `json:"new"`
	Status    string `json:"status"`
	Overwrite bool   `json:"overwrite"`
	// Locked decisions are always off and cannot be toggled.
	Locked bool `json:"locked"`
}

// Plan is one reconciliation session. Defaults are set by NewPlan,
// adjusted with Set, and consumed once by Apply.
type Plan struct {
	current   map[string]string
	decisions []Decision
	consumed  bool
}

// NewPlan computes default decisions for every field in Fields:
//   - new empty or equal to current: off and locked
//   - current empty: on
//   - both present and different: off
func NewPlan(current, incoming map[string]string) *Plan {
	p := &Plan{current: maps.Clone(current)}
	if p.current == nil {
		p.current = make(map[string]string)
	}

	for _, field := range Fields {
		cur := strings.TrimSpace(current[field])
		next := strings.TrimSpace(incoming[field])
		d := Decision{Field: field, Current: cur, New: next}

		switch {
		case next == "":
			d.Status = StatusNoValue
			d.Locked = true
		case next == cur:
			d.Status = StatusUnchanged
			d.Locked = true
		case cur == "":
			d.Status = StatusAdded
			d.Overwrite = true
		default:
			d.Status = StatusConflict
		}
		p.decisions = append(p.decisions, d)
	}
	return p
}

// Decisions returns a copy of the current decisions in field order.
func (p *Plan) Decisions() []Decision {
	return slices.Clone(p.decisions)
}

// Conflicts reports whether any field needs a human choice.
func (p *Plan) Conflicts() bool {
	for _, d := range p.decisions {
		if d.Status == StatusConflict {
			return true
		}
	}
	return false
}

// Set changes the overwrite choice for field.
func (p *Plan) Set(field string, overwrite bool) error {
	if p.consumed {
		return ErrConsumed
	}
	for i := range p.decisions {
		d := &p.decisions[i]
		if d.Field != field {
			continue
		}
		if d.Locked {
			if overwrite {
				return fmt.Errorf("%s: %w", field, ErrLocked)
			}
			return nil
		}
		d.Overwrite = overwrite
		return nil
	}
	return fmt.Errorf("merge: unknown field %q", field)
}

// Apply returns the merged map: the new value where overwrite is on, the
// current value elsewhere. Keys outside Fields pass through unchanged.
func (p *Plan) Apply() (map[string]string, error) {
	if p.consumed {
		return nil, ErrConsumed
	}
	p.consumed = true

	out := maps.Clone(p.current)
	for _, d := range p.decisions {
		if d.Overwrite {
			out[d.Field] = d.New
		}
	}
	return out, nil
}

// FromRecord flattens the merge fields of r.
func FromRecord(r *provider.Record) map[string]string {
	if r == nil {
		return map[string]string{}
	}
	return map[string]string{
		"artist":     r.Artist,
		"title":      r.Title,
		"album":      r.Album,
		"year":       r.Year,
		"plot":       r.Plot,
		"poster_url": r.PosterURL,
		"fanart_url": r.FanartURL,
	}
}

// ToRecord returns a copy of base with the merge fields taken from m.
func ToRecord(base *provider.Record, m map[string]string) *provider.Record {
	r := &provider.Record{}
	if base != nil {
		r = base.Clone()
	}
	r.Artist = m["artist"]
	r.Title = m["title"]
	r.Album = m["album"]
	r.Year = m["year"]
	r.Plot = m["plot"]
	r.PosterURL = m["poster_url"]
	r.FanartURL = m["fanart_url"]
	return r
}

package provider

import (
	"context"
	"errors"
)

// Status is the tagged result of a single provider lookup.
type Status int

// Lookup statuses.
const (
	// StatusNotFound covers empty results, 404s and responses of an unexpected shape.
	StatusNotFound Status = iota
	// StatusFound means the provider returned a candidate.
	StatusFound
	// StatusTransient covers network errors, timeouts and 5xx responses.
	StatusTransient
	// StatusUnavailable means the provider lacks credentials and was not called.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusTransient:
		return "transient_error"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "not_found"
	}
}

// Outcome is the result of asking one provider for its best candidate.
// Candidate is set only when Status is StatusFound.
type Outcome struct {
	Provider  ProviderName
	Status    Status
	Candidate Candidate
	Err       error
}

// Found reports whether the outcome carries a candidate.
func (o Outcome) Found() bool { return o.Status == StatusFound }

// Lookup asks s for its top candidate and folds every failure mode into
// the returned Outcome. It never returns an error to the caller.
func Lookup(ctx context.Context, s Searcher, q Query) Outcome {
	out := Outcome{Provider: s.Name()}
	if !s.Configured() {
		out.Status = StatusUnavailable
		out.Err = &ErrAuthRequired{Provider: s.Name()}
		return out
	}

	candidates, err := s.Search(ctx, q, 1)
	if err == nil && len(candidates) == 0 {
		err = &ErrNotFound{Provider: s.Name(), ID: q.String()}
	}
	if err != nil {
		out.Status = Classify(err)
		out.Err = err
		return out
	}

	out.Status = StatusFound
	out.Candidate = candidates[0]
	return out
}

// Classify maps a provider error onto a lookup status.
func Classify(err error) Status {
	if err == nil {
		return StatusFound
	}

	var notFound *ErrNotFound
	var malformed *ErrMalformedResponse
	var auth *ErrAuthRequired

	switch {
	case errors.As(err, &notFound), errors.As(err, &malformed):
		return StatusNotFound
	case errors.As(err, &auth):
		return StatusUnavailable
	default:
		return StatusTransient
	}
}

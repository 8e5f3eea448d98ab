// Package batch resolves a list of assets on a bounded worker
// pool, reporting per-item failures without aborting the run.
package batch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/encore/internal/provider"
	"github.com/sydlexius/encore/internal/resolve"
)

// Job statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// Item statuses.
const (
	ItemResolved = "resolved"
	ItemFailed   = "failed"
	ItemCanceled = "canceled"
)

// Item is one asset to resolve. Path identifies the asset to the Sink.
type Item struct {
	Path   string `json:"path" yaml:"path"`
	Artist string `json:"artist" yaml:"artist"`
	Title  string `json:"title" yaml:"title"`
	Date   string `json:"date,omitempty" yaml:"date,omitempty"`
}

// Query returns the provider query for the item.
func (i Item) Query() provider.Query {
	return provider.Query{
		Artist: strings.TrimSpace(i.Artist),
		Title:  strings.TrimSpace(i.Title),
		Date:   strings.TrimSpace(i.Date),
	}
}

// Manifest is the on-disk list of items.
type Manifest struct {
	Items []Item `yaml:"items"`
}

// ParseManifest decodes a YAML manifest.
func ParseManifest(data []byte) ([]Item, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return m.Items, nil
}

// LoadManifest reads and decodes a YAML manifest file.
func LoadManifest(path string) ([]Item, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data)
}

// Failure describes an item that could not be resolved or saved.
type Failure struct {
	Path   string `json:"path"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// ItemResult is the outcome of one item.
type ItemResult struct {
	Item    Item                   `json:"item"`
	Status  string                 `json:"status"`
	Reason  string                 `json:"reason,omitempty"`
	Sources []provider.FieldSource `json:"sources,omitempty"`
}

// Report summarises a batch run.
type Report struct {
	JobID      string    `json:"job_id"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Processed  int       `json:"processed"`
	Resolved   int       `json:"resolved"`
	Failed     int       `json:"failed"`
	Canceled   int       `json:"canceled"`
	Failures   []Failure `json:"failures,omitempty"`
}

// Resolver finds a record for a query.
type Resolver interface {
	Resolve(ctx context.Context, q provider.Query) (*resolve.Result, error)
}

// Sink persists a resolved record for an item.
type Sink interface {
	Save(ctx context.Context, item Item, res *resolve.Result) error
}

// Recorder stores job progress. Errors are logged and never fail the batch.
type Recorder interface {
	StartJob(ctx context.Context, r *Report) error
	RecordItem(ctx context.Context, jobID string, res ItemResult) error
	FinishJob(ctx context.Context, r *Report) error
}

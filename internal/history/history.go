// Package history records batch runs and per-item outcomes in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sydlexius/encore/internal/batch"
	"github.com/sydlexius/encore/internal/provider"
)

// ErrJobNotFound is returned when a job ID is unknown.
var ErrJobNotFound = errors.New("batch job not found")

// Item is one recorded item outcome.
type Item struct {
	ID        string                 `json:"id"`
	JobID     string                 `json:"job_id"`
	Path      string                 `json:"path"`
	Artist    string                 `json:"artist"`
	Title     string                 `json:"title"`
	Status    string                 `json:"status"`
	Reason    string                 `json:"reason,omitempty"`
	Sources   []provider.FieldSource `json:"sources,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Store persists batch reports. It implements batch.Recorder.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ batch.Recorder = (*Store)(nil)

// NewStore creates a history Store.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger.With(slog.String("component", "history"))}
}

// StartJob inserts the job row.
func (s *Store) StartJob(ctx context.Context, r *batch.Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_jobs (id, status, total, started_at)
		VALUES (?, ?, ?, ?)
	`, r.JobID, r.Status, r.Total, r.StartedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("creating batch job: %w", err)
	}
	return nil
}

// RecordItem inserts one item outcome.
func (s *Store) RecordItem(ctx context.Context, jobID string, res batch.ItemResult) error {
	sources, err := json.Marshal(res.Sources)
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}
	if res.Sources == nil {
		sources = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO batch_items (id, job_id, path, artist, title, status, reason, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), jobID, res.Item.Path, res.Item.Artist, res.Item.Title,
		res.Status, res.Reason, string(sources), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("creating batch item: %w", err)
	}
	return nil
}

// FinishJob stores the final counts and status.
func (s *Store) FinishJob(ctx context.Context, r *batch.Report) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE batch_jobs
		SET status = ?, processed = ?, resolved = ?, failed = ?, canceled = ?, finished_at = ?
		WHERE id = ?
	`, r.Status, r.Processed, r.Resolved, r.Failed, r.Canceled,
		r.FinishedAt.UTC().Format(time.RFC3339), r.JobID)
	if err != nil {
		return fmt.Errorf("finishing batch job: %w", err)
	}
	return nil
}

// GetJob returns the stored report for a job, including its failures.
func (s *Store) GetJob(ctx context.Context, id string) (*batch.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, total, processed, resolved, failed, canceled, started_at, finished_at
		FROM batch_jobs WHERE id = ?
	`, id)
	r, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("getting batch job: %w", err)
	}

	items, err := s.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.Status == batch.ItemFailed {
			r.Failures = append(r.Failures, batch.Failure{
				Path:   it.Path,
				Artist: it.Artist,
				Title:  it.Title,
				Reason: it.Reason,
			})
		}
	}
	return r, nil
}

// ListJobs returns recent jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]batch.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, total, processed, resolved, failed, canceled, started_at, finished_at
		FROM batch_jobs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing batch jobs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var jobs []batch.Report
	for rows.Next() {
		r, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning batch job: %w", err)
		}
		jobs = append(jobs, *r)
	}
	return jobs, rows.Err()
}

// ListItems returns the items of a job in the order they finished.
func (s *Store) ListItems(ctx context.Context, jobID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, path, artist, title, status, reason, sources, created_at
		FROM batch_items WHERE job_id = ? ORDER BY created_at, rowid
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing batch items: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return s.scanItems(rows)
}

// LastResolved returns the most recent successful item for path, if any.
func (s *Store) LastResolved(ctx context.Context, path string) (*Item, error) {
	items, err := s.itemsForPath(ctx, path, batch.ItemResolved)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

func (s *Store) itemsForPath(ctx context.Context, path, status string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, path, artist, title, status, reason, sources, created_at
		FROM batch_items WHERE path = ? AND status = ?
		ORDER BY created_at DESC, rowid DESC
	`, path, status)
	if err != nil {
		return nil, fmt.Errorf("listing items for path: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return s.scanItems(rows)
}

func (s *Store) scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var it Item
		var sources, createdAt string
		if err := rows.Scan(&it.ID, &it.JobID, &it.Path, &it.Artist, &it.Title,
			&it.Status, &it.Reason, &sources, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning batch item: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &it.Sources); err != nil {
			s.logger.Warn("decoding item sources", slog.String("id", it.ID), slog.String("error", err.Error()))
		}
		it.CreatedAt = parseTime(createdAt)
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanJob(row interface{ Scan(...any) error }) (*batch.Report, error) {
	var r batch.Report
	var startedAt string
	var finishedAt sql.NullString
	if err := row.Scan(&r.JobID, &r.Status, &r.Total, &r.Processed, &r.Resolved,
		&r.Failed, &r.Canceled, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	r.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		r.FinishedAt = parseTime(finishedAt.String)
	}
	return &r, nil
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

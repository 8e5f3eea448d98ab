// Package maintenance keeps the SQLite store that backs the response cache
// and batch history healthy: size reporting, optimize, vacuum and snapshot
// backups.
package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
)

// Status holds database size and row counts.
type Status struct {
	DBFileSize   int64 `json:"db_file_size"`
	WALFileSize  int64 `json:"wal_file_size"`
	PageCount    int64 `json:"page_count"`
	PageSize     int64 `json:"page_size"`
	FreePages    int64 `json:"free_pages"`
	CacheEntries int64 `json:"cache_entries"`
	BatchJobs    int64 `json:"batch_jobs"`
	BatchItems   int64 `json:"batch_items"`
}

// Service provides database maintenance operations.
type Service struct {
	db     *sql.DB
	dbPath string
	logger *slog.Logger
}

// NewService creates a maintenance service for the database at dbPath.
func NewService(db *sql.DB, dbPath string, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		dbPath: dbPath,
		logger: logger.With(slog.String("component", "maintenance")),
	}
}

// Status returns current file sizes, page statistics and table counts.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	st := &Status{}

	if info, err := os.Stat(s.dbPath); err == nil {
		st.DBFileSize = info.Size()
	}
	if info, err := os.Stat(s.dbPath + "-wal"); err == nil {
		st.WALFileSize = info.Size()
	}

	pragmas := []struct {
		stmt string
		dst  *int64
	}{
		{"PRAGMA page_count", &st.PageCount},
		{"PRAGMA page_size", &st.PageSize},
		{"PRAGMA freelist_count", &st.FreePages},
	}
	for _, p := range pragmas {
		if err := s.db.QueryRowContext(ctx, p.stmt).Scan(p.dst); err != nil {
			return nil, fmt.Errorf("%s: %w", p.stmt, err)
		}
	}

	counts := []struct {
		table string
		dst   *int64
	}{
		{"provider_cache", &st.CacheEntries},
		{"batch_jobs", &st.BatchJobs},
		{"batch_items", &st.BatchItems},
	}
	for _, c := range counts {
		// Table names are constants above.
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil { //nolint:gosec
			return nil, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}

	return st, nil
}

// Optimize runs PRAGMA optimize followed by a WAL checkpoint.
func (s *Service) Optimize(ctx context.Context) error {
	s.logger.Info("running PRAGMA optimize")
	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return fmt.Errorf("PRAGMA optimize: %w", err)
	}

	s.logger.Info("running WAL checkpoint")
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}
	return nil
}

// Vacuum rebuilds the database file, returning free pages to the OS.
func (s *Service) Vacuum(ctx context.Context) error {
	s.logger.Info("running VACUUM")
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("VACUUM: %w", err)
	}
	return nil
}

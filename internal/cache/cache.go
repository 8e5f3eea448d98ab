// Package cache stores successful provider responses in SQLite so repeat
// lookups within the TTL skip the network and the rate limiter.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sydlexius/encore/internal/provider"
)

// DefaultTTL is how long a cached response is served.
const DefaultTTL = 24 * time.Hour

// timeFormat is fixed-width so expiry comparisons work on the TEXT column.
const timeFormat = "2006-01-02T15:04:05.000000Z"

// Store implements provider.Cache over the provider_cache table.
type Store struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

var _ provider.Cache = (*Store)(nil)

// New creates a cache Store. ttl <= 0 uses DefaultTTL.
func New(db *sql.DB, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		db:     db,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With(slog.String("component", "provider-cache")),
	}
}

// Get returns the cached body for key if it has not expired. Lookup errors
// count as a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM provider_cache
		WHERE key = ? AND expires_at > ?
	`, key, s.now().UTC().Format(timeFormat)).Scan(&body)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("reading provider cache", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}
	return body, true
}

// Put stores body under key. Write errors are logged; a failed write only
// costs a future cache miss.
func (s *Store) Put(ctx context.Context, name provider.ProviderName, key string, body []byte) {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provider_cache (key, provider, body, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			provider = excluded.provider,
			body = excluded.body,
			fetched_at = excluded.fetched_at,
			expires_at = excluded.expires_at
	`, key, string(name), body, now.Format(timeFormat), now.Add(s.ttl).Format(timeFormat))
	if err != nil {
		s.logger.Warn("writing provider cache", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Purge deletes expired entries and returns how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM provider_cache WHERE expires_at <= ?
	`, s.now().UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("purging provider cache: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every entry for one provider, or all entries when name is empty.
func (s *Store) Clear(ctx context.Context, name provider.ProviderName) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if name == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM provider_cache`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM provider_cache WHERE provider = ?`, string(name))
	}
	if err != nil {
		return 0, fmt.Errorf("clearing provider cache: %w", err)
	}
	return res.RowsAffected()
}

// Stats holds entry counts per provider.
type Stats struct {
	Provider provider.ProviderName `json:"provider"`
	Entries  int                   `json:"entries"`
	Expired  int                   `json:"expired"`
}

// Stats returns live and expired entry counts grouped by provider.
func (s *Store) Stats(ctx context.Context) ([]Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider,
		       COUNT(*),
		       SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END)
		FROM provider_cache
		GROUP BY provider
		ORDER BY provider
	`, s.now().UTC().Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("reading cache stats: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Stats
	for rows.Next() {
		var st Stats
		var name string
		if err := rows.Scan(&name, &st.Entries, &st.Expired); err != nil {
			return nil, fmt.Errorf("scanning cache stats: %w", err)
		}
		st.Provider = provider.ProviderName(name)
		out = append(out, st)
	}
	return out, rows.Err()
}

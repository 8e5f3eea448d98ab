package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const backupStamp = "20060102-150405"

// backupPattern matches snapshot filenames: encore-YYYYMMDD-HHMMSS.db
var backupPattern = regexp.MustCompile(`^encore-\d{8}-\d{6}\.db$`)

// BackupInfo describes a snapshot file.
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Backup writes a consistent snapshot of the database into dir using
// VACUUM INTO.
func (s *Service) Backup(ctx context.Context, dir string) (*BackupInfo, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	now := time.Now().UTC()
	filename := "encore-" + now.Format(backupStamp) + ".db"
	dest := filepath.Join(dir, filename)
	if _, err := os.Stat(dest); err == nil {
		return nil, fmt.Errorf("backup %s already exists", filename)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return nil, fmt.Errorf("VACUUM INTO: %w", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("stat backup file: %w", err)
	}

	s.logger.Info("backup complete",
		slog.String("path", dest),
		slog.Int64("size", info.Size()))
	return &BackupInfo{Filename: filename, Size: info.Size(), CreatedAt: now}, nil
}

// ListBackups returns the snapshots in dir, newest first. A missing
// directory holds no backups.
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !backupPattern.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(entry.Name(), "encore-"), ".db")
		ts, err := time.Parse(backupStamp, stamp)
		if err != nil {
			ts = info.ModTime()
		}
		backups = append(backups, BackupInfo{
			Filename:  entry.Name(),
			Size:      info.Size(),
			CreatedAt: ts,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Prune keeps the newest retain snapshots in dir and removes the rest. It
// returns the removed filenames. retain below 1 keeps everything.
func (s *Service) Prune(dir string, retain int) ([]string, error) {
	if retain < 1 {
		return nil, nil
	}
	backups, err := ListBackups(dir)
	if err != nil {
		return nil, err
	}
	if len(backups) <= retain {
		return nil, nil
	}

	var removed []string
	for _, b := range backups[retain:] {
		if err := os.Remove(filepath.Join(dir, b.Filename)); err != nil {
			s.logger.Warn("removing old backup",
				slog.String("filename", b.Filename),
				slog.String("error", err.Error()))
			continue
		}
		removed = append(removed, b.Filename)
	}
	return removed, nil
}

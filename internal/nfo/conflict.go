package nfo

import (
	"os"
	"time"
)

// ConflictCheck describes the result of checking for sidecar write conflicts.
type ConflictCheck struct {
	HasConflict  bool       `json:"has_conflict"`
	Reason       string     `json:"reason,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// CheckFileConflict reports whether the sidecar at path changed after since,
// the moment it was read. A missing file is never a conflict.
func CheckFileConflict(path string, since time.Time) *ConflictCheck {
	info, err := os.Stat(path)
	if err != nil {
		return &ConflictCheck{}
	}

	modTime := info.ModTime()
	if modTime.After(since) {
		return &ConflictCheck{
			HasConflict:  true,
			Reason:       "sidecar modified by another program since it was read",
			LastModified: &modTime,
		}
	}
	return &ConflictCheck{LastModified: &modTime}
}

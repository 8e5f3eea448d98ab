// Package filesystem writes sidecar and artwork files without leaving
// partial content behind.
package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BackupSuffix is appended to the previous version of a replaced file.
const BackupSuffix = ".bak"

// WriteFileAtomic writes data to target through a temp file and rename.
// Any previous version is removed once the new one is in place.
func WriteFileAtomic(target string, data []byte, perm os.FileMode) error {
	return writeAtomic(target, data, perm, false)
}

// ReplaceFile behaves like WriteFileAtomic but leaves the previous version
// of target at target+BackupSuffix.
func ReplaceFile(target string, data []byte, perm os.FileMode) error {
	return writeAtomic(target, data, perm, true)
}

// Steps:
//  1. Write data to <target>.tmp
//  2. If <target> exists, rename it to <target>.bak
//  3. Rename <target>.tmp to <target>
//  4. Remove <target>.bak unless keepBackup
//
// If rename fails (e.g., cross-mount point), falls back to copy+delete with fsync.
func writeAtomic(target string, data []byte, perm os.FileMode, keepBackup bool) error {
	tmpPath := target + ".tmp"
	bakPath := target + BackupSuffix

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: media folders are world-readable
		return fmt.Errorf("creating parent directory: %w", err)
	}

	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	hadPrevious := false
	if _, err := os.Stat(target); err == nil {
		if err := renameSafe(target, bakPath); err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("backing up existing file: %w", err)
		}
		hadPrevious = true
	}

	if err := renameSafe(tmpPath, target); err != nil {
		if hadPrevious {
			_ = renameSafe(bakPath, target)
		}
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp to target: %w", err)
	}

	if hadPrevious && !keepBackup {
		_ = os.Remove(bakPath)
	}
	return nil
}

// renameSafe attempts os.Rename first, then falls back to copy+delete.
func renameSafe(oldPath, newPath string) error {
	err := os.Rename(oldPath, newPath)
	if err == nil {
		return nil
	}
	if copyErr := copyFile(oldPath, newPath); copyErr != nil {
		return fmt.Errorf("copy fallback: %w (rename error: %w)", copyErr, err)
	}
	_ = os.Remove(oldPath)
	return nil
}

// copyFile copies a file using io.Copy and flushes with fsync.
func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // G304: paths derive from the target being written
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dst) //nolint:gosec // G304: paths derive from the target being written
	if err != nil {
		return err
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}
	return out.Close()
}

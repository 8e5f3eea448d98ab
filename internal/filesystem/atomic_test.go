package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic_NewFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "movie.nfo")

	require.NoError(t, WriteFileAtomic(target, []byte("<movie/>"), 0o644))

	got, err := os.ReadFile(target) //nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, "<movie/>", string(got))

	_, err = os.Stat(target + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be gone")
}

func TestWriteFileAtomic_OverwriteRemovesBackup(t *testing.T) {
	target := filepath.Join(t.TempDir(), "poster.jpg")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

	require.NoError(t, WriteFileAtomic(target, []byte("new"), 0o644))

	got, err := os.ReadFile(target) //nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	_, err = os.Stat(target + BackupSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestReplaceFile_KeepsBackup(t *testing.T) {
	target := filepath.Join(t.TempDir(), "Live.nfo")
	require.NoError(t, os.WriteFile(target, []byte("v1"), 0o644))

	require.NoError(t, ReplaceFile(target, []byte("v2"), 0o644))

	bak, err := os.ReadFile(target + BackupSuffix) //nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, "v1", string(bak))

	got, err := os.ReadFile(target) //nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}

func TestReplaceFile_NoPreviousVersion(t *testing.T) {
	target := filepath.Join(t.TempDir(), "fresh.nfo")
	require.NoError(t, ReplaceFile(target, []byte("v1"), 0o644))

	_, err := os.Stat(target + BackupSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteFileAtomic_CreatesParentDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "Pink Floyd", "Pulse", "movie.nfo")
	require.NoError(t, WriteFileAtomic(target, []byte("x"), 0o644))

	_, err := os.Stat(target)
	assert.NoError(t, err)
}

func TestWriteFileAtomic_MultipleOverwrites(t *testing.T) {
	target := filepath.Join(t.TempDir(), "fanart.jpg")
	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, WriteFileAtomic(target, []byte(v), 0o644))
	}
	got, err := os.ReadFile(target) //nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, "c", string(got))
}

package nfo

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydlexius/encore/internal/batch"
	"github.com/sydlexius/encore/internal/provider"
	"github.com/sydlexius/encore/internal/resolve"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeFetcher struct {
	fetched []string
	fail    map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.fetched = append(f.fetched, url)
	if f.fail[url] {
		return nil, errors.New("HTTP 500")
	}
	return []byte("jpeg:" + url), nil
}

func TestSink_SaveConcertDisc(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Pulse")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "VIDEO_TS"), 0o755))

	fetcher := &fakeFetcher{}
	sink := NewSink(fetcher, SinkOptions{DownloadArtwork: true}, testLogger())

	res := &resolve.Result{Record: &provider.Record{
		Title:     "Pulse",
		Artist:    "Pink Floyd",
		Year:      "1995",
		Genre:     "Concert",
		PosterURL: "https://img/p.jpg",
		FanartURL: "https://img/f.jpg",
		IsConcert: true,
	}}
	require.NoError(t, sink.Save(context.Background(), batch.Item{Path: dir}, res))

	n, err := ReadFile(filepath.Join(dir, "movie.nfo"))
	require.NoError(t, err)
	assert.Equal(t, RootMovie, n.Root)
	assert.Equal(t, "Pink Floyd", n.Artist)
	assert.Equal(t, "https://img/p.jpg", n.Poster())

	poster, err := os.ReadFile(filepath.Join(dir, "poster.jpg")) //nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, "jpeg:https://img/p.jpg", string(poster))
	_, err = os.Stat(filepath.Join(dir, "fanart.jpg"))
	assert.NoError(t, err)
}

func TestSink_MusicVideoPreservesExtras(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Björk - Army of Me.mkv")
	touch(t, file)
	existing := `<musicvideo><title>old</title><fileinfo><streamdetails/></fileinfo></musicvideo>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Björk - Army of Me.nfo"), []byte(existing), 0o644))

	sink := NewSink(nil, SinkOptions{Backup: true}, testLogger())
	layout, err := sink.Write(context.Background(), file, &provider.Record{Title: "Army of Me", Artist: "Björk"})
	require.NoError(t, err)

	data, err := os.ReadFile(layout.NFO) //nolint:gosec
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, "<musicvideo>"))
	assert.True(t, strings.Contains(out, "<title>Army of Me</title>"))
	assert.True(t, strings.Contains(out, "<fileinfo>"), "unknown elements kept")

	bak, err := os.ReadFile(layout.NFO + ".bak") //nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, existing, string(bak))
}

func TestSink_ArtworkFailureDoesNotFail(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "One.mkv")
	touch(t, file)

	fetcher := &fakeFetcher{fail: map[string]bool{"https://img/p.jpg": true}}
	sink := NewSink(fetcher, SinkOptions{DownloadArtwork: true}, testLogger())

	layout, err := sink.Write(context.Background(), file, &provider.Record{
		Title:     "One",
		PosterURL: "https://img/p.jpg",
		FanartURL: "https://img/f.jpg",
	})
	require.NoError(t, err)

	_, err = os.Stat(layout.Poster)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(layout.Fanart)
	assert.NoError(t, err)
	assert.Len(t, fetcher.fetched, 2)
}

func TestSink_NoArtworkWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "One.mkv")
	touch(t, file)

	fetcher := &fakeFetcher{}
	sink := NewSink(fetcher, SinkOptions{}, testLogger())
	_, err := sink.Write(context.Background(), file, &provider.Record{Title: "One", PosterURL: "https://img/p.jpg"})
	require.NoError(t, err)
	assert.Empty(t, fetcher.fetched)
}

func TestSink_MissingAsset(t *testing.T) {
	sink := NewSink(nil, SinkOptions{}, testLogger())
	err := sink.Save(context.Background(), batch.Item{Path: filepath.Join(t.TempDir(), "gone.mkv")},
		&resolve.Result{Record: &provider.Record{Title: "x"}})
	assert.Error(t, err)
}

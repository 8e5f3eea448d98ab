package nfo

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sydlexius/encore/internal/batch"
	"github.com/sydlexius/encore/internal/filesystem"
	"github.com/sydlexius/encore/internal/provider"
	"github.com/sydlexius/encore/internal/resolve"
)

// ArtworkFetcher downloads an image and returns JPEG bytes.
type ArtworkFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SinkOptions controls what the Sink writes besides the sidecar.
type SinkOptions struct {
	// DownloadArtwork saves poster and fanart next to the sidecar.
	DownloadArtwork bool
	// Backup keeps the replaced sidecar as <name>.nfo.bak.
	Backup bool
}

// Sink writes resolved records as Kodi sidecars. It implements batch.Sink.
type Sink struct {
	fetcher ArtworkFetcher
	opts    SinkOptions
	logger  *slog.Logger
}

var _ batch.Sink = (*Sink)(nil)

// NewSink creates a Sink. fetcher may be nil when artwork is not downloaded.
func NewSink(fetcher ArtworkFetcher, opts SinkOptions, logger *slog.Logger) *Sink {
	return &Sink{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger.With(slog.String("component", "nfo-sink")),
	}
}

// Save writes the sidecar (and optionally artwork) for a batch item.
func (s *Sink) Save(ctx context.Context, item batch.Item, res *resolve.Result) error {
	_, err := s.Write(ctx, item.Path, res.Record)
	return err
}

// Write renders rec next to the asset at assetPath. An existing sidecar
// contributes its unknown elements. Artwork failures are logged and do not
// fail the write.
func (s *Sink) Write(ctx context.Context, assetPath string, rec *provider.Record) (Layout, error) {
	layout, err := LayoutFor(assetPath)
	if err != nil {
		return Layout{}, err
	}

	var base *VideoNFO
	if existing, ok := FindSidecar(assetPath); ok {
		base, err = ReadFile(existing)
		if err != nil {
			s.logger.Warn("existing sidecar unreadable, replacing",
				slog.String("path", existing),
				slog.String("error", err.Error()))
			base = nil
		}
	}

	var buf bytes.Buffer
	if err := Write(&buf, FromRecord(rec, base)); err != nil {
		return layout, fmt.Errorf("rendering sidecar: %w", err)
	}

	write := filesystem.WriteFileAtomic
	if s.opts.Backup {
		write = filesystem.ReplaceFile
	}
	if err := write(layout.NFO, buf.Bytes(), 0o644); err != nil {
		return layout, fmt.Errorf("writing sidecar: %w", err)
	}
	s.logger.Info("saved sidecar", slog.String("path", layout.NFO))

	if s.opts.DownloadArtwork && s.fetcher != nil {
		s.saveArtwork(ctx, rec.PosterURL, layout.Poster)
		s.saveArtwork(ctx, rec.FanartURL, layout.Fanart)
	}
	return layout, nil
}

func (s *Sink) saveArtwork(ctx context.Context, url, target string) {
	if url == "" {
		return
	}
	data, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.logger.Warn("artwork download failed", slog.String("url", url), slog.String("error", err.Error()))
		return
	}
	if err := filesystem.WriteFileAtomic(target, data, 0o644); err != nil {
		s.logger.Warn("saving artwork", slog.String("path", target), slog.String("error", err.Error()))
		return
	}
	s.logger.Info("saved artwork", slog.String("path", target))
}

// ReadFile parses the sidecar at path.
func ReadFile(path string) (*VideoNFO, error) {
	f, err := os.Open(path) //nolint:gosec // G304: sidecar path comes from the asset layout
	if err != nil {
		return nil, fmt.Errorf("opening sidecar: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return Parse(f)
}

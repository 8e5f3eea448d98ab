// Package logging builds the process logger: a JSON or text slog handler on
// stderr, optionally teed into a size-rotated log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log formats.
const (
	FormatJSON = "json"
	FormatText = "text"
	// FormatAuto picks text on an interactive terminal and JSON otherwise.
	FormatAuto = "auto"
)

// Rotation defaults applied when the file settings are zero.
const (
	defaultMaxSizeMB  = 100
	defaultMaxFiles   = 3
	defaultMaxAgeDays = 30
)

// Config describes the desired logging configuration.
type Config struct {
	Level          string `json:"level"`
	Format         string `json:"format"`
	FilePath       string `json:"file_path,omitempty"`
	FileMaxSizeMB  int    `json:"file_max_size_mb,omitempty"`
	FileMaxFiles   int    `json:"file_max_files,omitempty"`
	FileMaxAgeDays int    `json:"file_max_age_days,omitempty"`
}

// String returns a human-readable summary of the config.
func (c Config) String() string {
	s := fmt.Sprintf("level=%s format=%s", c.Level, c.Format)
	if c.FilePath != "" {
		s += fmt.Sprintf(" file=%s max_size=%dMB max_files=%d max_age=%dd",
			c.FilePath, c.FileMaxSizeMB, c.FileMaxFiles, c.FileMaxAgeDays)
	}
	return s
}

// Manager owns the logger for one process run. Records go to the console
// writer (stderr by default) so command output on stdout stays clean.
type Manager struct {
	level  *slog.LevelVar
	format string

	mu     sync.Mutex
	closer io.Closer // lumberjack writer, if any
}

// NewManager creates a Manager logging to stderr and returns it along with
// a ready-to-use logger.
func NewManager(cfg Config) (*Manager, *slog.Logger) {
	return NewManagerWithWriter(cfg, os.Stderr)
}

// NewManagerWithWriter is NewManager with an explicit console writer.
func NewManagerWithWriter(cfg Config, console io.Writer) (*Manager, *slog.Logger) {
	m := &Manager{
		level:  &slog.LevelVar{},
		format: resolveFormat(cfg.Format, console),
	}
	m.level.Set(parseLevel(cfg.Level))

	w := console
	if cfg.FilePath != "" {
		lj := rotatingFile(cfg)
		w = io.MultiWriter(console, lj)
		m.closer = lj
	}

	opts := &slog.HandlerOptions{Level: m.level}
	var h slog.Handler
	if m.format == FormatText {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return m, slog.New(h)
}

// SetLevel changes the minimum level of every logger derived from the
// manager, including children created with With.
func (m *Manager) SetLevel(level string) error {
	level = strings.ToLower(strings.TrimSpace(level))
	if !ValidLevel(level) {
		return fmt.Errorf("invalid log level: %q", level)
	}
	m.level.Set(parseLevel(level))
	return nil
}

// Level returns the current minimum level name.
func (m *Manager) Level() string {
	return strings.ToLower(m.level.Level().String())
}

// Format returns the effective handler format, with auto already resolved.
func (m *Manager) Format() string {
	return m.format
}

// Close releases the log file writer, if any. It is safe to call twice.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closer == nil {
		return nil
	}
	err := m.closer.Close()
	m.closer = nil
	return err
}

func rotatingFile(cfg Config) *lumberjack.Logger {
	orDefault := func(v, def int) int {
		if v <= 0 {
			return def
		}
		return v
	}
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    orDefault(cfg.FileMaxSizeMB, defaultMaxSizeMB),
		MaxBackups: orDefault(cfg.FileMaxFiles, defaultMaxFiles),
		MaxAge:     orDefault(cfg.FileMaxAgeDays, defaultMaxAgeDays),
	}
}

// resolveFormat maps FormatAuto to text or JSON depending on whether the
// console is a terminal.
func resolveFormat(format string, console io.Writer) string {
	if format != FormatAuto {
		return format
	}
	if f, ok := console.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		return FormatText
	}
	return FormatJSON
}

// parseLevel converts a string to slog.Level, defaulting to Info.
func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevel returns true if s is a recognized log level.
func ValidLevel(s string) bool {
	switch s {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ValidFormat returns true if s is a recognized log format.
func ValidFormat(s string) bool {
	switch s {
	case FormatText, FormatJSON, FormatAuto:
		return true
	}
	return false
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_AutoFormatOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	mgr, logger := NewManagerWithWriter(Config{Level: "info", Format: FormatAuto}, &buf)
	defer mgr.Close() //nolint:errcheck

	if mgr.Format() != FormatJSON {
		t.Errorf("expected auto to resolve to json, got %s", mgr.Format())
	}
	logger.Info("resolved", slog.String("provider", "tmdb"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON output off a terminal, got %q: %v", buf.String(), err)
	}
	if line["provider"] != "tmdb" {
		t.Errorf("expected provider attr, got %v", line["provider"])
	}
}

func TestManager_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	mgr, logger := NewManagerWithWriter(Config{Level: "info", Format: FormatText}, &buf)
	defer mgr.Close() //nolint:errcheck

	logger.Info("resolved", slog.String("provider", "discogs"))
	if !strings.Contains(buf.String(), "provider=discogs") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestManager_SetLevel(t *testing.T) {
	mgr, logger := NewManagerWithWriter(Config{Level: "info", Format: FormatJSON}, &bytes.Buffer{})
	defer mgr.Close() //nolint:errcheck

	ctx := context.Background()
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("expected debug to be disabled")
	}

	if err := mgr.SetLevel("DEBUG"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	if !logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("expected debug to be enabled")
	}
	if mgr.Level() != "debug" {
		t.Errorf("expected debug, got %s", mgr.Level())
	}

	if err := mgr.SetLevel("error"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	if logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("expected info to be disabled when level is error")
	}

	if err := mgr.SetLevel("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if mgr.Level() != "error" {
		t.Errorf("a rejected level must not change the manager, got %s", mgr.Level())
	}
}

func TestManager_ChildLoggerFollowsLevel(t *testing.T) {
	var buf bytes.Buffer
	mgr, logger := NewManagerWithWriter(Config{Level: "info", Format: FormatJSON}, &buf)
	defer mgr.Close() //nolint:errcheck

	child := logger.With(slog.String("component", "batch"))
	if err := mgr.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	child.Debug("item started")
	if !strings.Contains(buf.String(), `"component":"batch"`) {
		t.Errorf("expected child logger to honor the new level, got %q", buf.String())
	}
}

func TestManager_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "encore.log")

	cfg := Config{
		Level:          "info",
		Format:         FormatJSON,
		FilePath:       logFile,
		FileMaxSizeMB:  1,
		FileMaxFiles:   1,
		FileMaxAgeDays: 1,
	}
	var console bytes.Buffer
	mgr, logger := NewManagerWithWriter(cfg, &console)

	logger.Info("batch finished", slog.Int("resolved", 3))

	if err := mgr.Close(); err != nil {
		t.Fatalf("closing manager: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !bytes.Contains(data, []byte(`"resolved":3`)) {
		t.Errorf("expected log file to contain the record, got %q", data)
	}
	if console.Len() == 0 {
		t.Error("expected console to receive the same record")
	}
}

func TestManager_CloseIdempotent(t *testing.T) {
	mgr, _ := NewManagerWithWriter(Config{Level: "info", Format: FormatJSON, FilePath: filepath.Join(t.TempDir(), "x.log")}, &bytes.Buffer{})
	if err := mgr.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range []string{"debug", "info", "warn", "error"} {
		if !ValidLevel(l) {
			t.Errorf("expected %q to be valid", l)
		}
	}
	for _, l := range []string{"", "trace", "fatal", "DEBUG"} {
		if ValidLevel(l) {
			t.Errorf("expected %q to be invalid", l)
		}
	}
}

func TestValidFormat(t *testing.T) {
	if !ValidFormat("text") || !ValidFormat("json") || !ValidFormat("auto") {
		t.Error("text, json and auto should be valid")
	}
	if ValidFormat("xml") || ValidFormat("") {
		t.Error("xml and empty should be invalid")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in  string
		out slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"unknown", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.out {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.out)
		}
	}
}

func TestRotatingFileDefaults(t *testing.T) {
	lj := rotatingFile(Config{FilePath: "encore.log"})
	if lj.MaxSize != defaultMaxSizeMB || lj.MaxBackups != defaultMaxFiles || lj.MaxAge != defaultMaxAgeDays {
		t.Errorf("unexpected rotation settings: %+v", lj)
	}
}

func TestConfig_String(t *testing.T) {
	cfg := Config{Level: "info", Format: "json"}
	if s := cfg.String(); s != "level=info format=json" {
		t.Errorf("unexpected string: %s", s)
	}

	cfg.FilePath = "/var/log/encore.log"
	cfg.FileMaxSizeMB = 50
	cfg.FileMaxFiles = 5
	cfg.FileMaxAgeDays = 7
	expected := "level=info format=json file=/var/log/encore.log max_size=50MB max_files=5 max_age=7d"
	if s := cfg.String(); s != expected {
		t.Errorf("got %q, want %q", s, expected)
	}
}

// Package synclog provides structured JSON logging for the sync engine.
//
// This mirrors the teacher's pkg/logging: JSON, file-backed, no console
// output by default, so automated callers (agents, CI) can parse it freely
// without it colliding with human-facing CLI output.
package synclog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LogFileName is the default sync log file, written under cacheDir.
const LogFileName = ".sync.log"

// New creates a structured JSON logger writing to <cacheDir>/.sync.log.
// The cache directory is created if missing.
func New(cacheDir string, level slog.Level) (*slog.Logger, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := filepath.Join(cacheDir, LogFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync log: %w", err)
	}

	return NewWithWriter(f, level), nil
}

// NewWithWriter creates a logger writing JSON records to w. Useful for
// tests and for callers that want to inject their own sink.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// Discard returns a logger that drops everything, for callers that did not
// ask for logging (graceful degradation, matching the teacher's
// initLogger which keeps Manager usable when log setup fails).
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

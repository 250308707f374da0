package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Setup describes the logger a memhooks command wants.
type Setup struct {
	Debug bool

	// JSON switches stderr output from the pretty handler to JSON.
	JSON bool

	// File, when set, receives a JSON copy of every record.
	File string

	// Stderr overrides the console writer. Defaults to os.Stderr.
	Stderr io.Writer
}

// Build creates the command logger and a closer for the log file, if any.
// Records never go to stdout, which belongs to the host platform.
func (s Setup) Build() (*slog.Logger, func() error, error) {
	console := s.Stderr
	if console == nil {
		console = os.Stderr
	}

	l := New(
		WithWriter(console),
		WithDebug(s.Debug),
		WithJSON(s.JSON),
		WithPretty(!s.JSON),
	)

	if s.File == "" {
		return l, func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(s.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	fileLogger := New(WithWriter(f), WithDebug(s.Debug), WithJSON(true))
	return Multi(l, fileLogger), f.Close, nil
}

// Package logging builds the charmbracelet/log loggers used across Marquee.
//
// The TUI owns the terminal, so interactive runs log to a dated file.
// Server and one-shot commands log to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Version is reported in the startup line.
const Version = "0.1.0"

// File is an open log destination. Close it on shutdown.
type File struct {
	Logger *log.Logger
	Path   string
	f      *os.File
}

// Close writes the shutdown line and closes the file.
func (f *File) Close() error {
	if f == nil || f.f == nil {
		return nil
	}
	f.Logger.Info("Marquee shutting down")
	return f.f.Close()
}

// OpenFile creates dir if needed and opens marquee-YYYY-MM-DD.log in it.
func OpenFile(dir, level string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("marquee-%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := New(f, level)
	l.Info("Marquee started", "version", Version)
	return &File{Logger: l, Path: path, f: f}, nil
}

// New returns a timestamped text logger writing to w at the given level.
// Unknown levels fall back to info.
func New(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           ParseLevel(level),
	})
}

// Discard returns a logger that writes nowhere. Used as a nil default.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

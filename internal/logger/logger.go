// Package logger holds the process-wide slog logger used by poolctl.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// L is the global logger instance. It's initialized to discard all output by default.
// Call Init() to enable logging.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

// closer releases the current log file, if any.
var closer io.Closer

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Level   slog.Level // Minimum log level
	File    string     // Log file path; empty logs text to Stderr
	Stderr  io.Writer  // Destination when File is empty. Default: os.Stderr
}

// Init configures logging. Call before any log calls; calling it again
// closes the previous log file.
func Init(opts Options) error {
	if err := Close(); err != nil {
		return err
	}

	if !opts.Enabled {
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	if opts.File == "" {
		w := opts.Stderr
		if w == nil {
			w = os.Stderr
		}
		L = slog.New(slog.NewTextHandler(w, handlerOpts))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	closer = f

	// Files get JSON so they can be fed to log tooling
	L = slog.New(slog.NewJSONHandler(f, handlerOpts))
	return nil
}

// Close closes the log file opened by Init, if any. Logging is discarded
// afterwards until the next Init.
func Close() error {
	L = slog.New(slog.NewTextHandler(io.Discard, nil))
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("logger: unknown level %q", s)
	}
	return level, nil
}

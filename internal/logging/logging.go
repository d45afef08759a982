// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Setup returns a JSON logger appending to path and installs it as the
// default. The TUI owns the terminal, so when the file cannot be opened the
// logger falls back to stderr. The returned closer releases the file.
func Setup(path, level string) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if path != "" {
		_ = os.MkdirAll(filepath.Dir(path), 0755)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			out, closer = f, f
		}
	}

	logger := slog.New(slog.NewJSONHandler(out, opts))
	slog.SetDefault(logger)
	return logger, closer
}

// Stderr returns a text logger for the non-interactive commands.
func Stderr(level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: ParseLevel(level)}))
	slog.SetDefault(logger)
	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

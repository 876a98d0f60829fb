// Package logging wraps log/slog with the field helpers and request
// middleware used across the service.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a structured logger. The embedded *slog.Logger provides
// Debug/Info/Warn/Error/Log.
type Logger struct {
	*slog.Logger
}

// NewLogger returns a text logger at debug level in development and a JSON
// logger at info level otherwise.
func NewLogger(isDev bool) *Logger {
	return newLogger(os.Stdout, isDev)
}

func newLogger(w io.Writer, isDev bool) *Logger {
	if isDev {
		return &Logger{slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	}
	return &Logger{slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithFields returns a child logger carrying fields on every record.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{l.Logger.With(args...)}
}

// WithError attaches err under the "error" key.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{l.Logger.With("error", err)}
}

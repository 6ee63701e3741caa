package nixstore

import (
	"log/slog"
	"os"

	"github.com/neurokit/nixstore/model"
)

// Logger wraps slog.Logger with nixstore-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// LogRead logs a read operation.
func (l *Logger) LogRead(kind model.Kind, name string, err error) {
	if err != nil {
		l.Error("read failed", "kind", kind.String(), "name", name, "error", err)
	} else {
		l.Debug("read completed", "kind", kind.String(), "name", name)
	}
}

// LogWrite logs a write operation.
func (l *Logger) LogWrite(kind model.Kind, name string, err error) {
	if err != nil {
		l.Error("write failed", "kind", kind.String(), "name", name, "error", err)
	} else {
		l.Debug("write completed", "kind", kind.String(), "name", name)
	}
}

// LogSweep logs an orphan-collection sweep.
func (l *Logger) LogSweep(block string, removed int) {
	l.Debug("orphan sweep completed", "block", block, "removed", removed)
}

package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates the process logger: JSON to stdout at the given level.
func New(level slog.Level) *slog.Logger {
	return NewWriter(os.Stdout, level)
}

// NewWriter creates a JSON logger writing to w.
func NewWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Component tags every record from logger with the emitting component.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", name)
}

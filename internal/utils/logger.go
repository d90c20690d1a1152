package utils

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with warp-specific helpers so that every debug
// line carries consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a text logger on stderr. verbose enables debug output.
func NewLogger(verbose bool) *Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo creates a text logger writing to w at the given level.
func NewLoggerTo(w io.Writer, level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLoggerTo(io.Discard, slog.Level(1000))
}

// WithFrame tags log lines with a frame index.
func (l *Logger) WithFrame(index int) *Logger {
	return &Logger{Logger: l.Logger.With("frame", index)}
}

// WithWorker tags log lines with an engine ID.
func (l *Logger) WithWorker(id int) *Logger {
	return &Logger{Logger: l.Logger.With("worker", id)}
}

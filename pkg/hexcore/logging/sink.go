// Package logging defines the logging sink consumed by the core.
//
// The sink is an ordinary port: the application resolves it through the
// port registry at startup and falls back to a console sink when no
// adapter is available.
package logging

import (
	"context"
	"log/slog"
	"os"
)

// Custom levels extending slog's built-in range.
const (
	// LevelTrace sits below slog.LevelDebug.
	LevelTrace = slog.LevelDebug - 4

	// LevelCritical sits above slog.LevelError.
	LevelCritical = slog.LevelError + 4
)

// Sink receives log messages from the core.
type Sink interface {
	Critical(msg string, args ...any)
	Error(msg string, args ...any)
	Warning(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Trace(msg string, args ...any)
}

// slogSink adapts a *slog.Logger to the Sink interface.
type slogSink struct {
	logger *slog.Logger
}

// NewSlogSink wraps a slog logger as a Sink.
// If logger is nil, slog.Default() is used.
func NewSlogSink(logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogSink{logger: logger}
}

// Console returns the fallback sink writing to stderr.
// Used when no logging adapter resolves.
func Console() Sink {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: LevelTrace,
	})
	return &slogSink{logger: slog.New(handler)}
}

func (s *slogSink) Critical(msg string, args ...any) {
	s.logger.Log(context.Background(), LevelCritical, msg, args...)
}

func (s *slogSink) Error(msg string, args ...any) {
	s.logger.Error(msg, args...)
}

func (s *slogSink) Warning(msg string, args ...any) {
	s.logger.Warn(msg, args...)
}

func (s *slogSink) Info(msg string, args ...any) {
	s.logger.Info(msg, args...)
}

func (s *slogSink) Debug(msg string, args ...any) {
	s.logger.Debug(msg, args...)
}

func (s *slogSink) Trace(msg string, args ...any) {
	s.logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Package observability provides structured logging, metrics, and tracing
// for the dispatch engine.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
)

// EnrichLogger adds dispatch context to a logger.
// Returns a new logger with event_id, event_type and generation fields.
func EnrichLogger(logger *slog.Logger, eventID, eventType string, generation int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("event_id", eventID),
		slog.String("event_type", eventType),
		slog.Int("generation", generation),
	)
}

// LogDispatchStart logs the start of a cascade.
func LogDispatchStart(logger *slog.Logger, eventID, eventType string) {
	if logger == nil {
		return
	}
	logger.Info("accepting event",
		slog.String("event_id", eventID),
		slog.String("event_type", eventType),
	)
}

// LogDispatchComplete logs successful cascade completion.
func LogDispatchComplete(logger *slog.Logger, eventID string, durationMs float64, produced int) {
	if logger == nil {
		return
	}
	logger.Info("cascade completed",
		slog.String("event_id", eventID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("events_produced", produced),
	)
}

// LogDispatchError logs cascade failure.
func LogDispatchError(logger *slog.Logger, eventID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("cascade failed",
		slog.String("event_id", eventID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogHandlerStart logs handler invocation.
func LogHandlerStart(logger *slog.Logger, unit, eventType string) {
	if logger == nil {
		return
	}
	logger.Debug("handler starting",
		slog.String("unit", unit),
		slog.String("event_type", eventType),
	)
}

// LogHandlerComplete logs successful handler completion.
func LogHandlerComplete(logger *slog.Logger, unit string, durationMs float64, produced int) {
	if logger == nil {
		return
	}
	logger.Debug("handler completed",
		slog.String("unit", unit),
		slog.Float64("duration_ms", durationMs),
		slog.Int("events_produced", produced),
	)
}

// LogMissingHandler logs a listener unit whose handler cannot be located.
// The unit yields no events; the cascade continues.
func LogMissingHandler(logger *slog.Logger, unit, eventType string) {
	if logger == nil {
		return
	}
	logger.Error("handler not found for registered listener",
		slog.String("unit", unit),
		slog.String("event_type", eventType),
	)
}

// LogJournalError logs a journal append failure (non-fatal).
func LogJournalError(logger *slog.Logger, eventID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("event journal append failed",
		slog.String("event_id", eventID),
		slog.String("error", err.Error()),
	)
}

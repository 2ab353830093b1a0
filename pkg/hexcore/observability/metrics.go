package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records dispatch metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordHandlerInvocation records a handler run with duration and error status.
	RecordHandlerInvocation(ctx context.Context, unit, eventType string, duration time.Duration, err error)

	// RecordCascade records a completed cascade: outcome, duration, total
	// events produced and the deepest generation reached.
	RecordCascade(ctx context.Context, success bool, duration time.Duration, produced, depth int)

	// RecordUnsupportedEvent records an event dispatched with no listeners.
	RecordUnsupportedEvent(ctx context.Context, eventType string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	handlerInvocations metric.Int64Counter
	handlerLatency     metric.Float64Histogram
	handlerErrors      metric.Int64Counter
	cascades           metric.Int64Counter
	cascadeLatency     metric.Float64Histogram
	cascadeDepth       metric.Int64Histogram
	unsupportedEvents  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("hexcore")

	handlerInvocations, err := meter.Int64Counter("hexcore.handler.invocations",
		metric.WithDescription("Number of handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	handlerLatency, err := meter.Float64Histogram("hexcore.handler.latency_ms",
		metric.WithDescription("Handler invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	handlerErrors, err := meter.Int64Counter("hexcore.handler.errors",
		metric.WithDescription("Number of handler errors"),
	)
	if err != nil {
		return nil, err
	}

	cascades, err := meter.Int64Counter("hexcore.cascade.runs",
		metric.WithDescription("Number of dispatched cascades"),
	)
	if err != nil {
		return nil, err
	}

	cascadeLatency, err := meter.Float64Histogram("hexcore.cascade.latency_ms",
		metric.WithDescription("Cascade latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cascadeDepth, err := meter.Int64Histogram("hexcore.cascade.depth",
		metric.WithDescription("Deepest generation reached per cascade"),
	)
	if err != nil {
		return nil, err
	}

	unsupportedEvents, err := meter.Int64Counter("hexcore.events.unsupported",
		metric.WithDescription("Events dispatched with no registered listeners"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		handlerInvocations: handlerInvocations,
		handlerLatency:     handlerLatency,
		handlerErrors:      handlerErrors,
		cascades:           cascades,
		cascadeLatency:     cascadeLatency,
		cascadeDepth:       cascadeDepth,
		unsupportedEvents:  unsupportedEvents,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordHandlerInvocation records a handler run.
func (m *otelMetrics) RecordHandlerInvocation(ctx context.Context, unit, eventType string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("unit", unit),
		attribute.String("event_type", eventType),
	}

	m.handlerInvocations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.handlerLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.handlerErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordCascade records a completed cascade.
func (m *otelMetrics) RecordCascade(ctx context.Context, success bool, duration time.Duration, produced, depth int) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.cascades.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.cascadeLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.cascadeDepth.Record(ctx, int64(depth), metric.WithAttributes(attribute.Int("events_produced", produced)))
}

// RecordUnsupportedEvent records an unrouted event.
func (m *otelMetrics) RecordUnsupportedEvent(ctx context.Context, eventType string) {
	m.unsupportedEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}

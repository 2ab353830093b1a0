package dispatch

import (
	"log/slog"

	"github.com/mpereira/hexcore/pkg/hexcore/observability"
	"github.com/mpereira/hexcore/pkg/hexcore/retry"
	"github.com/mpereira/hexcore/pkg/hexcore/store"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Nil disables engine logging.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics recorder (default: no-op).
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithSpans sets the trace span manager (default: no-op).
func WithSpans(sm observability.SpanManager) Option {
	return func(e *Engine) {
		e.spans = sm
	}
}

// WithJournal records every event entering the engine in the given store.
// Journal failures are logged and never abort a cascade.
func WithJournal(s store.Store) Option {
	return func(e *Engine) {
		e.journal = s
	}
}

// WithMaxDepth guards against unbounded cascades by failing dispatch once
// the generation depth reaches n. Zero (the default) disables the guard:
// handlers are responsible for avoiding infinite mutual triggering.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		e.maxDepth = n
	}
}

// WithConcurrency invokes the handlers of one generation concurrently,
// at most n at a time (n <= 0 means unlimited). Results keep listener
// priority order regardless of completion order.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrent = true
		e.concurrencyLimit = n
	}
}

// WithHandlerRetry retries failed handler invocations with the given
// configuration. The default is retry.None: handler errors propagate to
// the boundary on the first failure.
func WithHandlerRetry(cfg retry.Config) Option {
	return func(e *Engine) {
		e.retry = cfg
	}
}

// Package dispatch provides the engine routing events to listener units
// and cascading the events their handlers produce.
//
// Accept looks the event up in the listener directory, invokes all
// matching handlers in priority order, collects the events they return
// into a generation, and recursively dispatches each of those. The
// cascade terminates when a generation produces no further events. All
// results of generation n precede generation n+1 in the returned list.
package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mpereira/hexcore/pkg/hexcore/event"
	"github.com/mpereira/hexcore/pkg/hexcore/listener"
	"github.com/mpereira/hexcore/pkg/hexcore/observability"
	"github.com/mpereira/hexcore/pkg/hexcore/retry"
	"github.com/mpereira/hexcore/pkg/hexcore/store"
)

// Engine dispatches events through a listener directory.
// Safe for concurrent use once constructed.
type Engine struct {
	directory *listener.Directory
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
	journal   store.Store
	retry     retry.Config

	maxDepth         int
	concurrent       bool
	concurrencyLimit int
}

// New creates a dispatch engine over the given directory.
func New(directory *listener.Directory, opts ...Option) *Engine {
	e := &Engine{
		directory: directory,
		logger:    slog.Default(),
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
		retry:     retry.None,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Accept dispatches evt and returns every event the cascade produced, in
// generation order. A nil event yields an empty result. An event with no
// registered listeners fails with *UnsupportedEventError. Handler errors
// propagate unchanged, together with the events collected before the
// failure.
func (e *Engine) Accept(ctx context.Context, evt event.Event) ([]event.Event, error) {
	if evt == nil {
		return nil, nil
	}

	start := time.Now()
	observability.LogDispatchStart(e.logger, evt.ID(), evt.Type())
	ctx, span := e.spans.StartCascadeSpan(ctx, evt.ID(), evt.Type())

	result, deepest, err := e.accept(ctx, evt, 0)

	duration := time.Since(start)
	e.spans.EndSpanWithError(span, err)
	e.metrics.RecordCascade(ctx, err == nil, duration, len(result), deepest)

	if err != nil {
		observability.LogDispatchError(e.logger, evt.ID(), err, float64(duration.Milliseconds()))
		return result, err
	}
	observability.LogDispatchComplete(e.logger, evt.ID(), float64(duration.Milliseconds()), len(result))
	return result, nil
}

// accept runs one cascade level. depth counts generations from the root
// event. It returns the collected events, the deepest generation reached,
// and the first error encountered.
func (e *Engine) accept(ctx context.Context, evt event.Event, depth int) ([]event.Event, int, error) {
	if evt == nil {
		return nil, depth, nil
	}

	if e.maxDepth > 0 && depth >= e.maxDepth {
		return nil, depth, &MaxDepthError{EventID: evt.ID(), EventType: evt.Type(), Depth: e.maxDepth}
	}

	e.record(evt)

	units := e.directory.ListenersFor(evt.Type())
	if len(units) == 0 {
		e.metrics.RecordUnsupportedEvent(ctx, evt.Type())
		return nil, depth, NewUnsupportedEventError(evt)
	}

	generation, err := e.invokeGeneration(ctx, evt, units)
	if err != nil {
		return nil, depth, err
	}

	result := make([]event.Event, 0, len(generation))
	result = append(result, generation...)

	deepest := depth
	for _, produced := range generation {
		sub, subDepth, err := e.accept(ctx, produced, depth+1)
		result = append(result, sub...)
		if subDepth > deepest {
			deepest = subDepth
		}
		if err != nil {
			return result, deepest, err
		}
	}
	return result, deepest, nil
}

// invokeGeneration runs every unit's handler for evt and flattens the
// produced events in listener priority order. Units within a generation
// are independent; with WithConcurrency they run in parallel, but the
// flattened order still follows priority, not completion time.
func (e *Engine) invokeGeneration(ctx context.Context, evt event.Event, units []listener.Unit) ([]event.Event, error) {
	produced := make([][]event.Event, len(units))

	if e.concurrent && len(units) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		if e.concurrencyLimit > 0 {
			g.SetLimit(e.concurrencyLimit)
		}
		for i, unit := range units {
			g.Go(func() error {
				events, err := e.invokeUnit(gctx, unit, evt)
				if err != nil {
					return err
				}
				produced[i] = events
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, unit := range units {
			events, err := e.invokeUnit(ctx, unit, evt)
			if err != nil {
				return nil, err
			}
			produced[i] = events
		}
	}

	var generation []event.Event
	for _, events := range produced {
		generation = append(generation, events...)
	}
	return generation, nil
}

// invokeUnit runs one unit's handler for evt.
// A registered unit without a locatable handler yields no events: the
// lookup failure is logged as an error and the cascade continues.
func (e *Engine) invokeUnit(ctx context.Context, unit listener.Unit, evt event.Event) ([]event.Event, error) {
	handler, ok := e.directory.HandlerFor(unit, evt.Type())
	if !ok || handler == nil {
		observability.LogMissingHandler(e.logger, unit.Name(), evt.Type())
		return nil, nil
	}

	observability.LogHandlerStart(e.logger, unit.Name(), evt.Type())
	ctx, span := e.spans.StartHandlerSpan(ctx, unit.Name(), evt.Type())
	start := time.Now()

	result := retry.Do(ctx, e.retry, func(ctx context.Context) ([]event.Event, error) {
		return handler.Handle(ctx, evt)
	})

	duration := time.Since(start)
	e.spans.EndSpanWithError(span, result.Err)
	e.metrics.RecordHandlerInvocation(ctx, unit.Name(), evt.Type(), duration, result.Err)

	if result.Err != nil {
		return nil, result.Err
	}
	observability.LogHandlerComplete(e.logger, unit.Name(), float64(duration.Milliseconds()), len(result.Value))
	return result.Value, nil
}

// record journals the event if a journal store is configured.
// Failures are logged and never abort the cascade.
func (e *Engine) record(evt event.Event) {
	if e.journal == nil {
		return
	}

	payload, err := json.Marshal(evt.Data())
	if err != nil {
		payload = nil
	}

	err = e.journal.Append(store.Record{
		EventID:          evt.ID(),
		EventType:        evt.Type(),
		PreviousEventIDs: evt.PreviousEventIDs(),
		Timestamp:        evt.Timestamp(),
		Payload:          payload,
	})
	if err != nil {
		observability.LogJournalError(e.logger, evt.ID(), err)
	}
}

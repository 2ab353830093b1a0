// Package flow tracks causal chains of events and decides whether an
// incoming event continues an existing chain.
//
// A Flow starts from one root event and absorbs each event that extends
// its causal chain. Events are kept most recent first, so the root event
// is always the last element. Resuming with an event that does not
// continue the chain is a quiet no-op.
package flow

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/mpereira/hexcore/pkg/hexcore/event"
)

// Continuer reacts to an event absorbed into a flow, typically by
// emitting the follow-up events of the next step.
type Continuer interface {
	ContinueFlow(ctx context.Context, evt event.Event) ([]event.Event, error)
}

// ContinuerFunc adapts a function to the Continuer interface.
type ContinuerFunc func(ctx context.Context, evt event.Event) ([]event.Event, error)

// ContinueFlow implements Continuer.
func (f ContinuerFunc) ContinueFlow(ctx context.Context, evt event.Event) ([]event.Event, error) {
	return f(ctx, evt)
}

// Flow is a causal chain of events rooted at a single first event.
// Safe for concurrent use.
type Flow struct {
	id        string
	continuer Continuer
	logger    *slog.Logger

	mu     sync.Mutex
	events []event.Event // most recent first, root last
}

// Option configures a Flow.
type Option func(*Flow)

// WithID overrides the generated flow id.
func WithID(id string) Option {
	return func(f *Flow) { f.id = id }
}

// WithContinuer sets the continuation callback invoked after an event
// is absorbed into the chain.
func WithContinuer(c Continuer) Option {
	return func(f *Flow) { f.continuer = c }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a flow rooted at first.
func New(first event.Event, opts ...Option) *Flow {
	f := &Flow{
		id:     uuid.NewString(),
		logger: slog.Default(),
		events: []event.Event{first},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ID returns the flow's unique identifier.
func (f *Flow) ID() string { return f.id }

// FirstEvent returns the root event the flow started from.
func (f *Flow) FirstEvent() event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[len(f.events)-1]
}

// Events returns the chain, most recent first.
func (f *Flow) Events() []event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]event.Event, len(f.events))
	copy(out, f.events)
	return out
}

// EventIDs returns the ids of the chain, most recent first.
func (f *Flow) EventIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eventIDsLocked()
}

func (f *Flow) eventIDsLocked() []string {
	ids := make([]string, len(f.events))
	for i, evt := range f.events {
		ids[i] = evt.ID()
	}
	return ids
}

// Len returns the number of events in the chain.
func (f *Flow) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// FindLatest returns the most recently absorbed event of the given
// type, if any.
func (f *Flow) FindLatest(eventType string) (event.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, evt := range f.events {
		if evt.Type() == eventType {
			return evt, true
		}
	}
	return nil, false
}

// Continues reports whether evt would extend the flow's causal chain.
func (f *Flow) Continues(evt event.Event) bool {
	if evt == nil {
		return false
	}
	candidate := append([]string{evt.ID()}, evt.PreviousEventIDs()...)
	f.mu.Lock()
	defer f.mu.Unlock()
	return chainContinues(candidate, f.eventIDsLocked())
}

// Resume absorbs evt into the chain if it continues the flow, then
// delegates to the continuer for follow-up events. An event that does
// not continue the chain is logged at debug level and ignored. An event
// already recorded is never absorbed twice; a continuation over the
// identical chain still reaches the continuer.
func (f *Flow) Resume(ctx context.Context, evt event.Event) ([]event.Event, error) {
	if evt == nil {
		return nil, nil
	}

	candidate := append([]string{evt.ID()}, evt.PreviousEventIDs()...)

	f.mu.Lock()
	current := f.eventIDsLocked()
	if !chainContinues(candidate, current) {
		f.mu.Unlock()
		f.logger.Debug("event does not continue flow",
			"flow_id", f.id,
			"event_id", evt.ID(),
			"event_type", evt.Type())
		return nil, nil
	}
	if !slices.Contains(current, evt.ID()) {
		f.events = append([]event.Event{evt}, f.events...)
	}
	f.mu.Unlock()

	if f.continuer == nil {
		return nil, nil
	}
	return f.continuer.ContinueFlow(ctx, evt)
}

// chainContinues reports whether the candidate chain extends current.
// Identical chains continue. Otherwise the candidate must bring at
// least one new id, share at least one id with current, and the shared
// ids must appear in current in the same relative order.
func chainContinues(candidate, current []string) bool {
	if len(current) == 0 {
		return false
	}
	if slices.Equal(candidate, current) {
		return true
	}

	known := make(map[string]struct{}, len(current))
	for _, id := range current {
		known[id] = struct{}{}
	}

	hasNew := false
	var common []string
	for _, id := range candidate {
		if _, ok := known[id]; ok {
			common = append(common, id)
		} else {
			hasNew = true
		}
	}
	if !hasNew || len(common) == 0 {
		return false
	}

	// The shared ids must form a subsequence of current.
	next := 0
	for _, id := range current {
		if next < len(common) && id == common[next] {
			next++
		}
	}
	return next == len(common)
}

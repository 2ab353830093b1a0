// Package emit provides synchronous fan-out of events to registered
// receivers.
//
// Unlike a queue-backed bus, delivery is in-process and ordered: Emit
// returns only after every matching receiver has run. The application
// runtime registers itself as a wildcard receiver so adapter-originated
// events feed the dispatch cascade.
package emit

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mpereira/hexcore/pkg/hexcore/event"
)

// ErrEmitterClosed is returned by Emit after Close.
var ErrEmitterClosed = errors.New("emit: emitter is closed")

// Receiver consumes an emitted event.
type Receiver interface {
	Receive(ctx context.Context, evt event.Event) error
}

// ReceiverFunc adapts a function to the Receiver interface.
type ReceiverFunc func(ctx context.Context, evt event.Event) error

// Receive implements Receiver.
func (f ReceiverFunc) Receive(ctx context.Context, evt event.Event) error {
	return f(ctx, evt)
}

// Subscription represents an active receiver registration.
type Subscription interface {
	// Unsubscribe removes the registration.
	Unsubscribe()

	// Pause temporarily stops delivery.
	Pause()

	// Resume continues delivery after pause.
	Resume()

	// IsPaused returns true if the registration is paused.
	IsPaused() bool
}

// Config configures emitter behavior.
type Config struct {
	// DeduplicateTTL enables id-based deduplication with the given TTL.
	// Default: 0 (disabled)
	DeduplicateTTL time.Duration

	// OnError is called when a receiver returns an error. Delivery to
	// the remaining receivers continues.
	OnError func(evt event.Event, receiverID string, err error)
}

// Emitter delivers events synchronously to registered receivers.
type Emitter struct {
	config Config

	mu        sync.RWMutex
	receivers map[string]*registration
	byType    map[string]map[string]*registration
	wildcards map[string]*registration

	dedupeMu    sync.Mutex
	dedupeCache map[string]time.Time

	nextID atomic.Int64
	closed atomic.Bool
}

// New creates an emitter.
func New(config Config) *Emitter {
	e := &Emitter{
		config:    config,
		receivers: make(map[string]*registration),
		byType:    make(map[string]map[string]*registration),
		wildcards: make(map[string]*registration),
	}
	if config.DeduplicateTTL > 0 {
		e.dedupeCache = make(map[string]time.Time)
	}
	return e
}

// registration is an internal receiver registration.
type registration struct {
	id       string
	types    []string // empty = all types
	receiver Receiver
	paused   atomic.Bool
	emitter  *Emitter
}

// Emit delivers evt to every matching receiver, in registration order.
// The first receiver error aborts delivery unless OnError is set, in
// which case the error is reported and delivery continues.
func (e *Emitter) Emit(ctx context.Context, evt event.Event) error {
	if evt == nil {
		return nil
	}
	if e.closed.Load() {
		return ErrEmitterClosed
	}

	if e.config.DeduplicateTTL > 0 {
		if e.seen(evt) {
			return nil
		}
	}

	e.mu.RLock()
	regs := e.matching(evt.Type())
	e.mu.RUnlock()

	for _, reg := range regs {
		if reg.paused.Load() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := reg.receiver.Receive(ctx, evt); err != nil {
			if e.config.OnError == nil {
				return err
			}
			e.config.OnError(evt, reg.id, err)
		}
	}
	return nil
}

// Register subscribes a receiver for specific event types.
func (e *Emitter) Register(types []string, receiver Receiver) Subscription {
	return e.register(types, receiver)
}

// RegisterAll subscribes a receiver for all events.
func (e *Emitter) RegisterAll(receiver Receiver) Subscription {
	return e.register(nil, receiver)
}

// noopSubscription is handed out when a registration cannot be
// accepted. All its methods are inert, so callers need not check.
type noopSubscription struct{}

func (noopSubscription) Unsubscribe()   {}
func (noopSubscription) Pause()         {}
func (noopSubscription) Resume()        {}
func (noopSubscription) IsPaused() bool { return false }

func (e *Emitter) register(types []string, receiver Receiver) Subscription {
	if e.closed.Load() || receiver == nil {
		return noopSubscription{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	reg := &registration{
		id:       strconv.FormatInt(e.nextID.Add(1), 10),
		types:    types,
		receiver: receiver,
		emitter:  e,
	}

	e.receivers[reg.id] = reg
	if len(types) == 0 {
		e.wildcards[reg.id] = reg
	} else {
		for _, t := range types {
			if e.byType[t] == nil {
				e.byType[t] = make(map[string]*registration)
			}
			e.byType[t][reg.id] = reg
		}
	}
	return reg
}

// matching returns registrations for eventType plus wildcards, ordered
// by registration id so delivery order is deterministic.
func (e *Emitter) matching(eventType string) []*registration {
	regs := make([]*registration, 0, len(e.wildcards))
	for _, reg := range e.byType[eventType] {
		regs = append(regs, reg)
	}
	for _, reg := range e.wildcards {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool {
		a, b := regs[i].id, regs[j].id
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return regs
}

// Close stops the emitter. Subsequent Emit calls fail.
func (e *Emitter) Close() error {
	e.closed.Store(true)
	return nil
}

// seen records evt's id and reports whether it was already recorded
// within the deduplication window.
func (e *Emitter) seen(evt event.Event) bool {
	e.dedupeMu.Lock()
	defer e.dedupeMu.Unlock()

	now := time.Now()
	cutoff := now.Add(-e.config.DeduplicateTTL)
	for id, ts := range e.dedupeCache {
		if ts.Before(cutoff) {
			delete(e.dedupeCache, id)
		}
	}

	if ts, ok := e.dedupeCache[evt.ID()]; ok && !ts.Before(cutoff) {
		return true
	}
	e.dedupeCache[evt.ID()] = now
	return false
}

// Unsubscribe removes the registration.
func (r *registration) Unsubscribe() {
	r.emitter.mu.Lock()
	defer r.emitter.mu.Unlock()

	delete(r.emitter.receivers, r.id)
	delete(r.emitter.wildcards, r.id)
	for _, t := range r.types {
		if regs, ok := r.emitter.byType[t]; ok {
			delete(regs, r.id)
		}
	}
}

// Pause temporarily stops delivery.
func (r *registration) Pause() { r.paused.Store(true) }

// Resume continues delivery after pause.
func (r *registration) Resume() { r.paused.Store(false) }

// IsPaused returns true if the registration is paused.
func (r *registration) IsPaused() bool { return r.paused.Load() }

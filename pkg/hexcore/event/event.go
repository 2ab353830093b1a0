// Package event provides the immutable event values at the heart of hexcore.
//
// An event is a fact: something that happened, identified by a unique id,
// stamped with its creation time, and carrying the ids of the events that
// directly caused it. Events are values - once created they are never
// mutated, and two events are the same event exactly when their ids match,
// regardless of payload.
package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mpereira/hexcore/pkg/hexcore/valueobject"
)

// Event is the contract every event in the system satisfies.
// Implementations must be immutable after construction.
type Event interface {
	// ID returns the unique event identifier.
	ID() string

	// Type returns the event type (e.g. "order.placed").
	Type() string

	// Timestamp returns when the event was created.
	Timestamp() time.Time

	// PreviousEventIDs returns the ids of the direct causal predecessors,
	// most recent first. It may be empty for root events.
	PreviousEventIDs() []string

	// Data returns the event payload.
	Data() any
}

// Same reports whether a and b are the same event.
// Event identity is the id, never the payload.
func Same(a, b Event) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID() == b.ID()
}

// Metadata holds the identity and causal fields shared by all events.
type Metadata struct {
	EventID          string    `json:"id"`
	EventType        string    `json:"type"`
	CreatedAt        time.Time `json:"timestamp"`
	PreviousEventIDs []string  `json:"previous_event_ids,omitempty"`
}

// Base is a generic event implementation.
// T is the payload type for type-safe access.
type Base[T any] struct {
	Meta    Metadata `json:"metadata"`
	Payload T        `json:"payload"`
}

// ID returns the unique event identifier.
func (e *Base[T]) ID() string {
	return e.Meta.EventID
}

// Type returns the event type.
func (e *Base[T]) Type() string {
	return e.Meta.EventType
}

// Timestamp returns when the event was created.
func (e *Base[T]) Timestamp() time.Time {
	return e.Meta.CreatedAt
}

// PreviousEventIDs returns the ids of the direct causal predecessors.
// The returned slice is a copy; mutating it does not affect the event.
func (e *Base[T]) PreviousEventIDs() []string {
	if len(e.Meta.PreviousEventIDs) == 0 {
		return nil
	}
	out := make([]string, len(e.Meta.PreviousEventIDs))
	copy(out, e.Meta.PreviousEventIDs)
	return out
}

// Data returns the event payload.
func (e *Base[T]) Data() any {
	return e.Payload
}

// TypedData returns the strongly-typed payload.
func (e *Base[T]) TypedData() T {
	return e.Payload
}

// eventFields is the declared schema shared by all events: identity is
// the id alone, causal bookkeeping stays out of formatted output.
var eventFields = []valueobject.Field{
	{Name: "id", PrimaryKey: true},
	{Name: "type"},
	{Name: "timestamp", Internal: true},
	{Name: "previous_event_ids", Internal: true},
	{Name: "payload"},
}

// Fields implements valueobject.Describer.
func (e *Base[T]) Fields() []valueobject.Field {
	return eventFields
}

// FieldValue implements valueobject.Describer.
func (e *Base[T]) FieldValue(name string) any {
	switch name {
	case "id":
		return e.Meta.EventID
	case "type":
		return e.Meta.EventType
	case "timestamp":
		return e.Meta.CreatedAt
	case "previous_event_ids":
		return e.Meta.PreviousEventIDs
	case "payload":
		if d, ok := any(e.Payload).(valueobject.Describer); ok {
			return valueobject.Format(d)
		}
		return e.Payload
	}
	return nil
}

// String renders the event for logs. Payloads declaring their own field
// metadata get internal fields omitted and sensitive fields masked.
func (e *Base[T]) String() string {
	return valueobject.Format(e)
}

// MarshalJSON implements json.Marshaler.
func (e *Base[T]) MarshalJSON() ([]byte, error) {
	type alias Base[T]
	return json.Marshal((*alias)(e))
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Base[T]) UnmarshalJSON(data []byte) error {
	type alias Base[T]
	return json.Unmarshal(data, (*alias)(e))
}

// Option configures event creation.
type Option func(*eventConfig)

type eventConfig struct {
	id        string
	timestamp time.Time
	previous  []string
}

// WithID sets a specific event id. Used when reconstructing an event
// received from outside the process; the default is a generated UUID.
func WithID(id string) Option {
	return func(cfg *eventConfig) {
		cfg.id = id
	}
}

// WithTimestamp sets a specific timestamp (default: time.Now().UTC()).
func WithTimestamp(t time.Time) Option {
	return func(cfg *eventConfig) {
		cfg.timestamp = t
	}
}

// WithPreviousEventIDs sets the causal predecessor ids, most recent first.
func WithPreviousEventIDs(ids ...string) Option {
	return func(cfg *eventConfig) {
		cfg.previous = ids
	}
}

// New creates a new event with the given type and payload.
func New[T any](eventType string, payload T, opts ...Option) *Base[T] {
	cfg := &eventConfig{
		id:        uuid.New().String(),
		timestamp: time.Now().UTC(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	var previous []string
	if len(cfg.previous) > 0 {
		previous = make([]string, len(cfg.previous))
		copy(previous, cfg.previous)
	}

	return &Base[T]{
		Meta: Metadata{
			EventID:          cfg.id,
			EventType:        eventType,
			CreatedAt:        cfg.timestamp,
			PreviousEventIDs: previous,
		},
		Payload: payload,
	}
}

// NewFromParent creates a new event directly caused by parent.
// The parent's id becomes the first previous-event id, followed by the
// parent's own predecessors, keeping the most-recent-first orientation.
func NewFromParent[T any](parent Event, eventType string, payload T, opts ...Option) *Base[T] {
	previous := append([]string{parent.ID()}, parent.PreviousEventIDs()...)
	allOpts := append([]Option{WithPreviousEventIDs(previous...)}, opts...)
	return New(eventType, payload, allOpts...)
}

// NewAny creates a new event with an untyped payload.
func NewAny(eventType string, payload any, opts ...Option) *Base[any] {
	return New(eventType, payload, opts...)
}

// NewAnyFromParent creates a new event with untyped payload caused by parent.
func NewAnyFromParent(parent Event, eventType string, payload any, opts ...Option) *Base[any] {
	return NewFromParent(parent, eventType, payload, opts...)
}

// Handler processes an event and optionally returns derived events.
type Handler interface {
	// Handle processes an event and returns any derived events.
	Handle(ctx context.Context, evt Event) ([]Event, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt Event) ([]Event, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, evt Event) ([]Event, error) {
	return f(ctx, evt)
}

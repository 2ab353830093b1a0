// Package store provides the event record store port: adapter-side
// persistence for accepted events. The dispatch engine journals through it
// when configured; the engine itself still guarantees nothing across
// process restarts.
package store

import (
	"errors"
	"time"
)

// Record is the persisted form of an accepted event.
type Record struct {
	EventID          string
	EventType        string
	PreviousEventIDs []string
	Timestamp        time.Time
	Payload          []byte
}

// Store persists event records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores a record. Appending the same event id twice is a
	// no-op, preserving event immutability.
	Append(rec Record) error

	// Get retrieves a record by event id.
	// Returns ErrNotFound if the event was never journaled.
	Get(eventID string) (Record, error)

	// ListByType returns all records of an event type in append order.
	// Returns an empty slice (not an error) for unknown types.
	ListByType(eventType string) ([]Record, error)

	// Count returns the number of journaled events.
	Count() (int, error)

	// Close releases any resources.
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates the event was never journaled.
	ErrNotFound = errors.New("event record not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("event store closed")
)

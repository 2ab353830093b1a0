package store

import "sync"

// MemoryStore is an in-memory event store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]Record
	order  []string
	closed bool
}

// NewMemoryStore creates a new in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]Record),
	}
}

// Append implements Store.
func (m *MemoryStore) Append(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if _, exists := m.byID[rec.EventID]; exists {
		return nil
	}

	// Copy slices to avoid retaining the caller's backing arrays.
	stored := rec
	if len(rec.PreviousEventIDs) > 0 {
		stored.PreviousEventIDs = append([]string(nil), rec.PreviousEventIDs...)
	}
	if len(rec.Payload) > 0 {
		stored.Payload = append([]byte(nil), rec.Payload...)
	}

	m.byID[rec.EventID] = stored
	m.order = append(m.order, rec.EventID)
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(eventID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, ErrStoreClosed
	}
	rec, ok := m.byID[eventID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// ListByType implements Store.
func (m *MemoryStore) ListByType(eventType string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	out := []Record{}
	for _, id := range m.order {
		if rec := m.byID[id]; rec.EventType == eventType {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Count implements Store.
func (m *MemoryStore) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	return len(m.byID), nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

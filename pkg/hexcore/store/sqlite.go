package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists event records to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite event store.
// The path should be a file path (e.g. "./events.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			previous_event_ids TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			payload BLOB,
			sequence INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_events_type
		ON events(event_type)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	previous, err := json.Marshal(rec.PreviousEventIDs)
	if err != nil {
		return fmt.Errorf("encode previous event ids: %w", err)
	}

	// Events are immutable: a duplicate id is ignored, not overwritten.
	_, err = s.db.Exec(`
		INSERT INTO events (event_id, event_type, previous_event_ids, timestamp, payload, sequence)
		VALUES (
			?, ?, ?, ?, ?,
			COALESCE((SELECT MAX(sequence) FROM events), 0) + 1
		)
		ON CONFLICT(event_id) DO NOTHING
	`, rec.EventID, rec.EventType, string(previous), rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.Payload)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(eventID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Record{}, ErrStoreClosed
	}

	row := s.db.QueryRow(`
		SELECT event_id, event_type, previous_event_ids, timestamp, payload
		FROM events WHERE event_id = ?
	`, eventID)

	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get event: %w", err)
	}
	return rec, nil
}

// ListByType implements Store.
func (s *SQLiteStore) ListByType(eventType string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT event_id, event_type, previous_event_ids, timestamp, payload
		FROM events WHERE event_type = ?
		ORDER BY sequence
	`, eventType)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count implements Store.
func (s *SQLiteStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func scanRecord(scan func(...any) error) (Record, error) {
	var rec Record
	var previous, timestamp string
	if err := scan(&rec.EventID, &rec.EventType, &previous, &timestamp, &rec.Payload); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(previous), &rec.PreviousEventIDs); err != nil {
		return Record{}, fmt.Errorf("decode previous event ids: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return Record{}, fmt.Errorf("decode timestamp: %w", err)
	}
	rec.Timestamp = ts
	return rec, nil
}

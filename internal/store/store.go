// Package store holds the in-memory expense collection and the reconciler
// that folds realtime change events into it.
package store

import (
	"fmt"
	"sync"

	"tally/internal/core"
)

// Store is the single writable source of truth for the dashboard: an
// ordered record collection, most-recent-insert-first. Order matters only
// for display; aggregation is order-independent. A mutex serializes the
// two writers (snapshot refresh and feed consumer) so events apply
// strictly in arrival order.
type Store struct {
	mu      sync.Mutex
	records []core.Record
	index   map[string]int // id -> position in records
}

// New returns an empty store.
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// ReplaceAll swaps the whole collection, used after a snapshot fetch.
// Records with a duplicate id keep only their first occurrence so the
// id-uniqueness invariant holds even against a misbehaving endpoint.
func (s *Store) ReplaceAll(records []core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = s.records[:0]
	s.index = make(map[string]int, len(records))
	for _, r := range records {
		if _, dup := s.index[r.ID]; dup {
			continue
		}
		s.index[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}
}

// ApplyEvent folds one change event into the collection:
//
//   - insert: prepend; a duplicate id replaces the existing record in
//     place instead of creating a second one
//   - update: replace by id; an unknown id is treated as an insert
//   - delete: remove by id; an unknown id is a no-op
//
// The returned kind is what was actually applied (an update of an unknown
// id comes back as EventInsert), which feeds the metrics labels.
func (s *Store) ApplyEvent(e Event) (EventKind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Kind {
	case EventInsert, EventUpdate:
		rec, err := core.FromWire(e.Record)
		if err != nil {
			return "", fmt.Errorf("decode %s payload for id %s: %w", e.Kind, e.ID, err)
		}
		if rec.ID == "" {
			rec.ID = e.ID
		}
		if i, ok := s.index[rec.ID]; ok {
			s.records[i] = rec
			return EventUpdate, nil
		}
		s.prepend(rec)
		return EventInsert, nil
	case EventDelete:
		i, ok := s.index[e.ID]
		if !ok {
			return EventDelete, nil
		}
		s.records = append(s.records[:i], s.records[i+1:]...)
		delete(s.index, e.ID)
		for j := i; j < len(s.records); j++ {
			s.index[s.records[j].ID] = j
		}
		return EventDelete, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", e.Kind)
	}
}

func (s *Store) prepend(r core.Record) {
	s.records = append(s.records, core.Record{})
	copy(s.records[1:], s.records)
	s.records[0] = r
	for id := range s.index {
		s.index[id]++
	}
	s.index[r.ID] = 0
}

// Snapshot returns a copy of the current collection in display order.
func (s *Store) Snapshot() []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

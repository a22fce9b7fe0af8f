package store

import (
	"encoding/json"
	"fmt"
	"time"

	"tally/internal/core"
)

// EventKind discriminates change-feed notifications.
type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// Event is one change notification from the realtime feed. Insert and
// Update carry the full record; Delete carries only the id.
type Event struct {
	Kind      EventKind       `json:"kind"`
	ID        string          `json:"id"`
	Record    core.RecordWire `json:"record,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewInsertEvent builds an insert notification for a record.
func NewInsertEvent(r core.Record) Event {
	return Event{Kind: EventInsert, ID: r.ID, Record: core.ToWire(r), Timestamp: time.Now()}
}

// NewUpdateEvent builds an update notification for a record.
func NewUpdateEvent(r core.Record) Event {
	return Event{Kind: EventUpdate, ID: r.ID, Record: core.ToWire(r), Timestamp: time.Now()}
}

// NewDeleteEvent builds a delete notification for a record id.
func NewDeleteEvent(id string) Event {
	return Event{Kind: EventDelete, ID: id, Timestamp: time.Now()}
}

// ToJSON converts the event to JSON bytes for the feed.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes a feed message.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	switch e.Kind {
	case EventInsert, EventUpdate, EventDelete:
	default:
		return Event{}, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.ID == "" {
		e.ID = e.Record.ID
	}
	return e, nil
}

package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"tally/internal/core"
)

// SnapshotLister fetches the full record list from the resource endpoint.
type SnapshotLister interface {
	ListRecords(ctx context.Context) ([]core.Record, error)
}

// Feed is a realtime change-feed subscription. Subscribe delivers events
// to the handler in arrival order until the subscription is closed.
type Feed interface {
	Subscribe(ctx context.Context, handler func(Event)) (Subscription, error)
}

// Subscription is a live feed binding. Unsubscribe must be safe to call
// more than once.
type Subscription interface {
	Unsubscribe() error
}

// Status reports feed lifecycle transitions to an optional callback.
type Status string

const (
	StatusFetching  Status = "fetching"
	StatusStreaming Status = "streaming"
	StatusFetchOnly Status = "fetch_only"
	StatusStopped   Status = "stopped"
)

// Engine owns the fetch-then-stream lifecycle around a Store. Start
// sequences the snapshot fetch strictly before live streaming: events that
// arrive while the snapshot is in flight are queued and replayed after
// ReplaceAll, so a late fetch can never clobber a newer event.
//
// A nil feed is a supported degraded mode: the engine fetches once and
// stays fetch-only, surfacing no error.
type Engine struct {
	store  *Store
	lister SnapshotLister
	feed   Feed

	// OnApplied, when set, observes every successfully applied event with
	// the kind the store actually performed. OnStatus observes lifecycle
	// transitions. Both must be set before Start.
	OnApplied func(Event, EventKind)
	OnStatus  func(Status)

	mu      sync.Mutex
	started bool
	sub     Subscription // single-slot subscription guard
	pending []Event      // events queued while the snapshot is in flight
	queuing bool
}

// NewEngine creates an engine over the given store. feed may be nil.
func NewEngine(s *Store, lister SnapshotLister, feed Feed) *Engine {
	return &Engine{store: s, lister: lister, feed: feed}
}

// Start fetches the snapshot and then begins streaming. Starting an
// already started engine is an error; Start after Stop subscribes cleanly
// again.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine already started")
	}
	e.started = true
	e.queuing = true
	e.pending = nil
	e.mu.Unlock()

	e.setStatus(StatusFetching)

	// Subscribe before fetching so nothing is missed; deliveries are
	// queued until the snapshot has landed.
	if e.feed != nil {
		sub, err := e.feed.Subscribe(ctx, e.handleEvent)
		if err != nil {
			// Feed unavailable degrades to fetch-only, not to failure.
			slog.WarnContext(ctx, "Change feed unavailable, running fetch-only", "error", err)
		} else {
			e.mu.Lock()
			if !e.started {
				// Stopped while the subscribe was in flight: the slot must
				// stay empty, so tear the fresh binding down instead of
				// storing it on a stopped engine.
				e.mu.Unlock()
				if err := sub.Unsubscribe(); err != nil {
					slog.Warn("Unsubscribe failed", "error", err)
				}
				return nil
			}
			e.sub = sub
			e.mu.Unlock()
		}
	}

	records, err := e.lister.ListRecords(ctx)

	e.mu.Lock()
	if !e.started {
		// Stopped while the fetch was in flight: discard the result.
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if err != nil {
		// Prior state stays intact; queued events still apply below.
		slog.ErrorContext(ctx, "Snapshot fetch failed, keeping prior state", "error", err)
	} else {
		e.store.ReplaceAll(records)
		slog.InfoContext(ctx, "Snapshot loaded", "records", len(records))
	}

	e.replayPending()

	e.mu.Lock()
	streaming := e.sub != nil
	e.mu.Unlock()
	if streaming {
		e.setStatus(StatusStreaming)
	} else {
		e.setStatus(StatusFetchOnly)
	}
	return nil
}

// Refresh refetches the snapshot while streaming, e.g. after a local CRUD
// round trip. Events arriving during the refetch are queued and replayed
// after ReplaceAll, same as Start, so the older snapshot can never clobber
// a newer event.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine not started")
	}
	e.queuing = true
	e.mu.Unlock()

	records, err := e.lister.ListRecords(ctx)

	e.mu.Lock()
	if !e.started {
		// Stop cleared the queue already.
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if err != nil {
		e.replayPending()
		return fmt.Errorf("refresh snapshot: %w", err)
	}

	e.store.ReplaceAll(records)
	e.replayPending()
	return nil
}

// Stop tears the subscription down and releases the slot. Safe to call
// more than once; a later Start resubscribes.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	e.queuing = false
	e.pending = nil
	sub := e.sub
	e.sub = nil
	e.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn("Unsubscribe failed", "error", err)
		}
	}
	e.setStatus(StatusStopped)
}

// Started reports whether the engine is between Start and Stop.
func (e *Engine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

func (e *Engine) handleEvent(ev Event) {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	if e.queuing {
		e.pending = append(e.pending, ev)
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	e.apply(ev)
}

// replayPending drains the queue in arrival order. Queuing stays on until
// the queue is observed empty, so events landing mid-drain cannot overtake
// earlier queued ones.
func (e *Engine) replayPending() {
	for {
		e.mu.Lock()
		if len(e.pending) == 0 {
			e.queuing = false
			e.mu.Unlock()
			return
		}
		queued := e.pending
		e.pending = nil
		e.mu.Unlock()

		for _, ev := range queued {
			e.apply(ev)
		}
	}
}

func (e *Engine) apply(ev Event) {
	applied, err := e.store.ApplyEvent(ev)
	if err != nil {
		// Malformed events degrade to a log line, never to a crash.
		slog.Error("Dropping malformed change event", "kind", ev.Kind, "id", ev.ID, "error", err)
		return
	}
	if e.OnApplied != nil {
		e.OnApplied(ev, applied)
	}
}

func (e *Engine) setStatus(s Status) {
	if e.OnStatus != nil {
		e.OnStatus(s)
	}
}

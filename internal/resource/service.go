// Package resource is the reference expense API: SQLite-backed CRUD with
// change events published to the feed after every mutation.
package resource

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/core"
	"tally/internal/storage"
	"tally/internal/store"
)

// EventPublisher pushes change events onto the feed. Nil-able: without a
// broker the API still works, dashboards just poll.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev store.Event) error
}

// Service orchestrates expense mutations across SQLite and the feed.
type Service struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
}

func NewService(repo *storage.SQLiteRepository, publisher EventPublisher) *Service {
	return &Service{
		storage:   repo,
		publisher: publisher,
	}
}

// List returns all stored expenses, most recent purchase first.
func (s *Service) List(ctx context.Context) ([]core.Record, error) {
	return s.storage.List(ctx)
}

// Get returns a single expense by id.
func (s *Service) Get(ctx context.Context, id string) (core.Record, error) {
	return s.storage.Get(ctx, id)
}

// Create saves an expense locally and publishes an insert event.
func (s *Service) Create(ctx context.Context, rec core.Record) (core.Record, error) {
	// Save to SQLite first (fast, reliable)
	saved, err := s.storage.Create(ctx, rec)
	if err != nil {
		return core.Record{}, fmt.Errorf("save expense: %w", err)
	}

	// Publish async (non-blocking for the caller's success path)
	if err := s.publish(ctx, store.NewInsertEvent(saved)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish insert event",
			"id", saved.ID, "error", err)
		// Don't fail the request - expense is saved locally
	}

	return saved, nil
}

// Update replaces an expense and publishes an update event.
func (s *Service) Update(ctx context.Context, rec core.Record) (core.Record, error) {
	saved, err := s.storage.Update(ctx, rec)
	if err != nil {
		return core.Record{}, fmt.Errorf("update expense: %w", err)
	}

	if err := s.publish(ctx, store.NewUpdateEvent(saved)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish update event",
			"id", saved.ID, "error", err)
	}

	return saved, nil
}

// Delete removes an expense and publishes a delete event.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	if err := s.publish(ctx, store.NewDeleteEvent(id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete event",
			"id", id, "error", err)
	}

	return nil
}

func (s *Service) publish(ctx context.Context, ev store.Event) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No feed publisher configured, skipping event", "kind", ev.Kind)
		return nil
	}
	return s.publisher.PublishEvent(ctx, ev)
}

// Close closes the underlying storage.
func (s *Service) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}
	return nil
}

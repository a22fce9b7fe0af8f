package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"tally/internal/core"
	"tally/internal/storage"
	"tally/internal/store"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []store.Event
}

func (p *capturingPublisher) PublishEvent(ctx context.Context, ev store.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturingPublisher) kinds() []store.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]store.EventKind, len(p.events))
	for i, ev := range p.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func testServer(t *testing.T) (*Server, *capturingPublisher) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}

	pub := &capturingPublisher{}
	svc := NewService(repo, pub)
	t.Cleanup(func() { svc.Close() })

	return NewServer(":0", svc), pub
}

func postExpense(t *testing.T, srv *Server, wire core.RecordWire) core.RecordWire {
	t.Helper()

	body, _ := json.Marshal(wire)
	req := httptest.NewRequest(http.MethodPost, "/expenses/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created core.RecordWire
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}
	return created
}

func TestCreateListRoundTrip(t *testing.T) {
	srv, pub := testServer(t)

	created := postExpense(t, srv, core.RecordWire{
		Amount:   "42.50",
		Category: "Food",
		Date:     "2024-03-01",
		Notes:    "lunch",
	})
	if created.ID == "" {
		t.Fatal("expected server-assigned id")
	}
	if created.Amount != "42.50" {
		t.Errorf("expected amount 42.50, got %s", created.Amount)
	}

	req := httptest.NewRequest(http.MethodGet, "/expenses/", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var listed []core.RecordWire
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decoding list response: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("unexpected list: %+v", listed)
	}

	kinds := pub.kinds()
	if len(kinds) != 1 || kinds[0] != store.EventInsert {
		t.Errorf("expected one insert event, got %v", kinds)
	}
}

func TestCreateRejectsBadAmount(t *testing.T) {
	srv, pub := testServer(t)

	body := []byte(`{"amount":"abc","category":"Food","date":"2024-03-01"}`)
	req := httptest.NewRequest(http.MethodPost, "/expenses/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if len(pub.kinds()) != 0 {
		t.Error("no event should be published for a rejected create")
	}
}

func TestUpdatePublishesEvent(t *testing.T) {
	srv, pub := testServer(t)

	created := postExpense(t, srv, core.RecordWire{
		Amount:   "10.00",
		Category: "Food",
		Date:     "2024-03-01",
	})

	body := []byte(`{"amount":"20.00","category":"Travel","date":"2024-03-02"}`)
	req := httptest.NewRequest(http.MethodPut, "/expenses/"+created.ID+"/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated core.RecordWire
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("decoding update response: %v", err)
	}
	if updated.Amount != "20.00" || updated.Category != "Travel" {
		t.Errorf("unexpected updated record: %+v", updated)
	}

	kinds := pub.kinds()
	if len(kinds) != 2 || kinds[1] != store.EventUpdate {
		t.Errorf("expected insert then update, got %v", kinds)
	}
}

func TestUpdateUnknownIDReturns404(t *testing.T) {
	srv, _ := testServer(t)

	body := []byte(`{"amount":"20.00","category":"Travel","date":"2024-03-02"}`)
	req := httptest.NewRequest(http.MethodPut, "/expenses/missing/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeletePublishesEvent(t *testing.T) {
	srv, pub := testServer(t)

	created := postExpense(t, srv, core.RecordWire{
		Amount:   "10.00",
		Category: "Bills",
		Date:     "2024-03-01",
	})

	req := httptest.NewRequest(http.MethodDelete, "/expenses/"+created.ID+"/", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	kinds := pub.kinds()
	if len(kinds) != 2 || kinds[1] != store.EventDelete {
		t.Errorf("expected insert then delete, got %v", kinds)
	}

	// Repeated delete still succeeds; the feed gets another delete event
	// and downstream stores treat it as a no-op.
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/expenses/"+created.ID+"/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("repeated delete: expected 204, got %d", rec.Code)
	}
}

func TestGetUnknownIDReturns404(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/expenses/missing/", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

package resource

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tally/internal/core"
	"tally/internal/storage"
)

// Server exposes the expense CRUD surface consumed by dashboards.
type Server struct {
	http.Server

	service *Service
}

func NewServer(addr string, service *Service) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:           addr,
			Handler:        mux,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		service: service,
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/expenses/", s.handleExpenses)

	return s
}

// handleExpenses routes the collection and item endpoints:
//
//	GET    /expenses/        list
//	POST   /expenses/        create
//	GET    /expenses/{id}/   fetch one
//	PUT    /expenses/{id}/   update
//	DELETE /expenses/{id}/   delete
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/expenses/"), "/")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			s.handleList(w, r)
		case http.MethodPost:
			s.handleCreate(w, r)
		default:
			w.Header().Set("Allow", "GET, POST")
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r, id)
	case http.MethodPut:
		s.handleUpdate(w, r, id)
	case http.MethodDelete:
		s.handleDelete(w, r, id)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list expenses", "error", err)
		http.Error(w, "failed to list expenses", http.StatusInternalServerError)
		return
	}

	wires := make([]core.RecordWire, len(records))
	for i, rec := range records {
		wires[i] = core.ToWire(rec)
	}
	respondJSON(w, http.StatusOK, wires)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := s.service.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "expense not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to fetch expense", "id", id, "error", err)
		http.Error(w, "failed to fetch expense", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, core.ToWire(rec))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}

	saved, err := s.service.Create(r.Context(), rec)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create expense", "error", err)
		http.Error(w, "failed to create expense", http.StatusUnprocessableEntity)
		return
	}

	slog.InfoContext(r.Context(), "Expense created",
		"id", saved.ID,
		"category", saved.Category,
		"amount_cents", saved.Amount.Cents)

	respondJSON(w, http.StatusCreated, core.ToWire(saved))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	rec.ID = id

	saved, err := s.service.Update(r.Context(), rec)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "expense not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to update expense", "id", id, "error", err)
		http.Error(w, "failed to update expense", http.StatusUnprocessableEntity)
		return
	}

	respondJSON(w, http.StatusOK, core.ToWire(saved))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.service.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete expense", "id", id, "error", err)
		http.Error(w, "failed to delete expense", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeRecord parses the wire body strictly: the write path rejects what
// the read path would merely flag.
func decodeRecord(w http.ResponseWriter, r *http.Request) (core.Record, bool) {
	var wire core.RecordWire
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return core.Record{}, false
	}

	cents, err := core.ParseDecimalToCents(wire.Amount)
	if err != nil {
		http.Error(w, "invalid amount: "+err.Error(), http.StatusUnprocessableEntity)
		return core.Record{}, false
	}
	date, err := core.ParseDate(wire.Date)
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusUnprocessableEntity)
		return core.Record{}, false
	}

	return core.Record{
		Amount:   core.Money{Cents: cents},
		Category: core.NormalizeCategory(wire.Category),
		Date:     date,
		Notes:    strings.TrimSpace(wire.Notes),
	}, true
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"tally/internal/core"
)

// Demo credentials, matching the source's admin/admin gate. This is a
// rendering gate, not an access-control boundary.
const (
	demoUser = "admin"
	demoPass = "admin"
)

type recordView struct {
	ID       string `json:"id"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Notes    string `json:"notes,omitempty"`
	Flagged  bool   `json:"flagged,omitempty"`
}

type categoryView struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Count    int    `json:"count"`
}

type periodView struct {
	Period string `json:"period"`
	Amount string `json:"amount"`
}

type dashboardView struct {
	Count      int            `json:"count"`
	Flagged    int            `json:"flagged,omitempty"`
	Total      string         `json:"total"`
	Average    string         `json:"average"`
	Max        string         `json:"max"`
	ByCategory []categoryView `json:"byCategory"`
	ByMonth    []periodView   `json:"byMonth"`
	ByDay      []periodView   `json:"byDay"`
	TopBySum   string         `json:"topCategoryBySum"`
	TopByCount string         `json:"topCategoryByCount"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if creds.Username != demoUser || creds.Password != demoPass {
		slog.WarnContext(r.Context(), "Login rejected", "username", creds.Username)
		http.Error(w, "invalid username or password", http.StatusUnauthorized)
		return
	}

	s.session.SetAuthenticated(true)
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.session.SetAuthenticated(false)
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records := s.store.Snapshot()
	views := make([]recordView, len(records))
	for i, rec := range records {
		views[i] = recordView{
			ID:       rec.ID,
			Amount:   rec.Amount.Decimal(),
			Category: string(rec.Category),
			Date:     rec.Date.ISO(),
			Notes:    rec.Notes,
			Flagged:  rec.Flagged,
		}
	}
	writeJSON(w, http.StatusOK, views)
}

// handleDashboard filters the snapshot by the optional inclusive
// start/end query params and returns the full aggregate.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var rng core.Range
	if v := r.URL.Query().Get("start"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			http.Error(w, "invalid start date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		rng.Start = d
	}
	if v := r.URL.Query().Get("end"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			http.Error(w, "invalid end date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		rng.End = d
	}

	sum := core.Summarize(rng.Filter(s.store.Snapshot()))

	view := dashboardView{
		Count:      sum.Count,
		Flagged:    sum.Flagged,
		Total:      sum.Total.Decimal(),
		Average:    sum.Average.Decimal(),
		Max:        sum.Max.Decimal(),
		ByCategory: make([]categoryView, 0, len(sum.ByCategory)),
		ByMonth:    make([]periodView, 0, len(sum.ByMonth)),
		ByDay:      make([]periodView, 0, len(sum.ByDay)),
		TopBySum:   string(sum.TopBySum),
		TopByCount: string(sum.TopByCount),
	}
	for _, ca := range sum.ByCategory {
		view.ByCategory = append(view.ByCategory, categoryView{
			Category: string(ca.Category),
			Amount:   ca.Amount.Decimal(),
			Count:    ca.Count,
		})
	}
	for _, pa := range sum.ByMonth {
		view.ByMonth = append(view.ByMonth, periodView{Period: pa.Period, Amount: pa.Amount.Decimal()})
	}
	for _, pa := range sum.ByDay {
		view.ByDay = append(view.ByDay, periodView{Period: pa.Period, Amount: pa.Amount.Decimal()})
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCurrency(w http.ResponseWriter, r *http.Request) {
	if s.rates == nil {
		http.Error(w, "currency widget not configured", http.StatusServiceUnavailable)
		return
	}
	rate, err := s.rates.Fetch(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Currency rate fetch failed", "error", err)
		http.Error(w, "unable to fetch rate", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		http.Error(w, "news widget not configured", http.StatusServiceUnavailable)
		return
	}
	headlines, err := s.news.Fetch(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Headlines fetch failed", "error", err)
		http.Error(w, "unable to fetch headlines", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"headlines": headlines})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

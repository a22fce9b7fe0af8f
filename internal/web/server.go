// Package web serves the dashboard: aggregated expense data as JSON,
// widget proxies, the live websocket, and the demo login gate.
package web

import (
	"net/http"
	"time"

	"tally/internal/api"
	"tally/internal/hub"
	"tally/internal/metrics"
	"tally/internal/session"
	"tally/internal/store"
)

// Server wires the engine's store to the HTTP surface.
type Server struct {
	http.Server

	store   *store.Store
	engine  *store.Engine
	rates   *api.RateClient
	news    *api.NewsClient
	session session.Session
	hub     *hub.Hub

	limiter *rateLimiter
}

// NewServer configures all routes and returns a ready-to-run server.
// rates, news and h may be nil; the matching endpoints then report
// unavailable instead of panicking.
func NewServer(addr string, st *store.Store, eng *store.Engine, rates *api.RateClient, news *api.NewsClient, sess session.Session, h *hub.Hub) *Server {
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
		store:   st,
		engine:  eng,
		rates:   rates,
		news:    news,
		session: sess,
		hub:     h,
		limiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/api/login", s.withRequestLog(s.handleLogin))
	mux.HandleFunc("/api/logout", s.withRequestLog(s.handleLogout))

	mux.HandleFunc("/api/records", s.withRequestLog(s.requireAuth(s.handleRecords)))
	mux.HandleFunc("/api/dashboard", s.withRequestLog(s.requireAuth(s.handleDashboard)))
	mux.HandleFunc("/api/widgets/currency", s.withRequestLog(s.requireAuth(s.handleCurrency)))
	mux.HandleFunc("/api/widgets/news", s.withRequestLog(s.requireAuth(s.handleNews)))
	mux.HandleFunc("/ws", s.requireAuth(s.handleWS))

	return s
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.engine != nil && !s.engine.Started() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("engine not started"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live updates unavailable", http.StatusServiceUnavailable)
		return
	}
	s.hub.ServeWS(w, r)
}

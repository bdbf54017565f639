// Package server exposes the newsdesk HTTP API: read endpoints over the
// event store plus manual triggers for the aggregation cycle and the
// audit-record cleanup.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsdesk/internal/aggregator"
	"newsdesk/internal/store"
)

// Server is the newsdesk HTTP API server.
type Server struct {
	db      *store.DB
	sched   *aggregator.Scheduler
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server over the given store and scheduler.
func New(db *store.DB, sched *aggregator.Scheduler, version string) *Server {
	s := &Server{
		db:      db,
		sched:   sched,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/news", s.handleNews)
		r.Get("/stats", s.handleStats)
		r.Get("/events/{eventID}/updates", s.handleEventUpdates)
		r.Post("/aggregate", s.handleAggregate)
		r.Post("/cleanup-updates", s.handleCleanupUpdates)
	})
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"uptime":    time.Since(s.started).Seconds(),
		"db":        dbOK,
		"db_path":   s.db.Path,
		"scheduler": s.sched.State().String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

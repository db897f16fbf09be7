// Package httpapi serves the monitor's state as read-only JSON. Rendering a
// status page from it is someone else's job.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/tn3w/statussentinel/internal/domain"
	"github.com/tn3w/statussentinel/internal/repo"
)

type Server struct {
	Logger *zap.Logger
	Status repo.StatusStore
}

func NewServer(l *zap.Logger, status repo.StatusStore) *Server {
	return &Server{Logger: l, Status: status}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/services", s.handleServices)
	r.Get("/api/incidents", s.handleIncidents)

	return r
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Status.LatestStatus(r.Context())
	if err != nil {
		s.Logger.Warn("latest_status_failed", zap.Error(err))
		http.Error(w, "status unavailable", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []repo.StatusRow{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	includeClosed := r.URL.Query().Get("all") == "1"
	incidents, err := s.Status.ListIncidents(r.Context(), includeClosed)
	if err != nil {
		s.Logger.Warn("list_incidents_failed", zap.Error(err))
		http.Error(w, "incidents unavailable", http.StatusInternalServerError)
		return
	}
	if incidents == nil {
		incidents = []domain.Incident{}
	}
	writeJSON(w, incidents)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

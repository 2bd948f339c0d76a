// Package debughttp exposes the engine's only HTTP surface: a tiny
// chi-routed introspection server over the local member list, rumor store,
// recent loop spans, and Prometheus metrics.
package debughttp

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tutu-network/gossipd/internal/infra/observability"
	"github.com/tutu-network/gossipd/internal/membership"
	"github.com/tutu-network/gossipd/internal/rumorstore"
)

// JoinFunc seeds the gossip layer with one or more "host:port" SWIM
// addresses.
type JoinFunc func(addrs []string) error

// Server is the debug/introspection HTTP server.
type Server struct {
	members *membership.List
	rumors  *rumorstore.Store
	tracer  *observability.Tracer
	join    JoinFunc
}

// NewServer creates a debug server backed by a running gossip.Server's
// member list, rumor store, span tracer, and join entrypoint.
func NewServer(members *membership.List, rumors *rumorstore.Store, tracer *observability.Tracer, join JoinFunc) *Server {
	return &Server{members: members, rumors: rumors, tracer: tracer, join: join}
}

// Handler returns the chi router with every debug route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/debug/members", s.handleMembers)
	r.Get("/debug/rumors", s.handleRumors)
	r.Get("/debug/traces", s.handleTraces)
	r.Post("/debug/join", s.handleJoin)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.members.Members())
}

func (s *Server) handleRumors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rumors.All())
}

// handleTraces returns the most recent loop spans. ?limit=N caps the result
// (default 100).
func (s *Server) handleTraces(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, s.tracer.Spans(limit))
}

// handleJoin accepts {"addrs": ["host:port", ...]} and seeds the gossip
// layer with them.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Addrs []string `json:"addrs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Addrs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "addrs required"})
		return
	}
	if err := s.join(body.Addrs); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "joining"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

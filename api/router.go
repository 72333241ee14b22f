// Package api exposes the allocation engine over HTTP. Handlers only shape
// requests and responses; every decision happens in the core packages.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kilianp07/depotplan/core/alloc"
	"github.com/kilianp07/depotplan/core/history"
	"github.com/kilianp07/depotplan/core/logger"
	"github.com/kilianp07/depotplan/core/metrics"
	"github.com/kilianp07/depotplan/core/registry"
)

// Server wires the HTTP handlers with their dependencies.
type Server struct {
	mgr       *alloc.Manager
	reg       *registry.Registry
	hist      history.Store
	sink      metrics.Sink
	log       logger.Logger
	optBudget int
}

// NewServer builds the API composition root.
func NewServer(mgr *alloc.Manager, reg *registry.Registry, hist history.Store, sink metrics.Sink, log logger.Logger, optBudget int) *Server {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Server{mgr: mgr, reg: reg, hist: hist, sink: sink, log: log, optBudget: optBudget}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/vehicles", s.vehicles)
	mux.HandleFunc("/vehicles/", s.vehicleByID)
	mux.HandleFunc("/depots", s.depots)
	mux.HandleFunc("/depots/", s.depotByName)
	mux.HandleFunc("/schedule", s.schedule)
	mux.HandleFunc("/schedule/occupancy", s.occupancy)
	mux.HandleFunc("/optimize", s.optimize)
	mux.HandleFunc("/optimize/adopt", s.adopt)
	mux.HandleFunc("/statistics", s.statistics)
	mux.HandleFunc("/requirements", s.requirements)
	mux.HandleFunc("/import", s.importVehicles)
	mux.HandleFunc("/recalculate", s.recalculate)
	mux.HandleFunc("/reset", s.reset)
	mux.HandleFunc("/history", s.history)
	mux.HandleFunc("/health", s.health)
	return s.loggingMiddleware(mux)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// statusWriter captures the final HTTP status code for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		s.log.Debugw("request", map[string]any{
			"method": r.Method,
			"path":   r.URL.RequestURI(),
			"status": sw.status,
			"dur_ms": time.Since(start).Milliseconds(),
		})
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, map[string]string{"error": msg})
}

package api

import (
	"net/http"
	"time"

	"github.com/kilianp07/depotplan/core/stats"
)

// schedule returns the occupation table as timeline tuples, globally or for
// one depot.
func (s *Server) schedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	depot := r.URL.Query().Get("depot")
	if depot != "" {
		if _, ok := s.reg.Depot(depot); !ok {
			s.writeError(w, r, http.StatusNotFound, "depot not found")
			return
		}
	}
	s.writeJSON(w, r, http.StatusOK, s.mgr.Schedule(depot))
}

// occupancy lists the vehicles present per track at a given instant.
func (s *Server) occupancy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	at := r.URL.Query().Get("at")
	instant, err := time.Parse(time.RFC3339, at)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid datetime format")
		return
	}
	depot := r.URL.Query().Get("depot")
	if depot != "" {
		if _, ok := s.reg.Depot(depot); !ok {
			s.writeError(w, r, http.StatusNotFound, "depot not found")
			return
		}
	}
	s.writeJSON(w, r, http.StatusOK, stats.OccupancyAt(s.mgr.Snapshot(), instant, depot))
}

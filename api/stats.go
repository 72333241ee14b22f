package api

import (
	"net/http"
	"time"

	"github.com/kilianp07/depotplan/core/history"
	"github.com/kilianp07/depotplan/core/model"
	"github.com/kilianp07/depotplan/core/stats"
)

// statistics returns the aggregate summary. An optional from/to pair narrows
// the occupancy reporting window.
func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var window model.Interval
	if from := r.URL.Query().Get("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			window.Begin = t
		}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			window.End = t
		}
	}
	s.writeJSON(w, r, http.StatusOK, stats.Compute(s.mgr.Snapshot(), window))
}

// requirements returns per-day locomotive and test driver needs.
func (s *Server) requirements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, r, http.StatusOK, stats.DailyRequirements(s.mgr.Snapshot()))
}

// history exposes the mutation log.
func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.hist == nil {
		s.writeJSON(w, r, http.StatusOK, []history.Record{})
		return
	}
	q := history.Query{
		VehicleID: r.URL.Query().Get("vehicle_id"),
		Depot:     r.URL.Query().Get("depot"),
		Action:    r.URL.Query().Get("action"),
	}
	if v := r.URL.Query().Get("start"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.Start = t
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.End = t
		}
	}
	recs, err := s.hist.Query(r.Context(), q)
	if err != nil {
		s.log.Errorf("query history: %v", err)
		s.writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if recs == nil {
		recs = []history.Record{}
	}
	s.writeJSON(w, r, http.StatusOK, recs)
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/depotplan/core/alloc"
)

// ImportRequest is a batch of vehicle records.
type ImportRequest struct {
	Vehicles []alloc.VehicleInput `json:"vehicles"`
}

// ImportRowFailure reports one rejected record. Rows are 1-based.
type ImportRowFailure struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResponse collects per-record outcomes; the batch never aborts.
type ImportResponse struct {
	Imported []VehicleResponse  `json:"imported"`
	Errors   []ImportRowFailure `json:"errors"`
}

func (s *Server) importVehicles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	rep := s.mgr.Import(req.Vehicles)
	out := ImportResponse{Imported: []VehicleResponse{}, Errors: []ImportRowFailure{}}
	for _, st := range rep.Imported {
		out.Imported = append(out.Imported, vehicleResponse(st, nil))
	}
	for _, e := range rep.Errors {
		out.Errors = append(out.Errors, ImportRowFailure{Row: e.Row, Error: e.Err.Error()})
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/depotplan/core/alloc"
	"github.com/kilianp07/depotplan/core/model"
)

// VehicleResponse is the wire shape of a vehicle with its placement status.
type VehicleResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	LengthM         float64    `json:"length_m"`
	Wagons          int        `json:"wagons"`
	Locomotives     int        `json:"locomotives"`
	Electric        bool       `json:"electric"`
	Depot           string     `json:"depot"`
	Arrival         time.Time  `json:"arrival"`
	Departure       time.Time  `json:"departure"`
	Category        string     `json:"category"`
	LocomotiveSide  string     `json:"locomotive_side,omitempty"`
	Status          string     `json:"status"`
	Track           int        `json:"track,omitempty"`
	WaitStart       *time.Time `json:"wait_start,omitempty"`
	WaitEnd         *time.Time `json:"wait_end,omitempty"`
	SuggestedDepots []string   `json:"suggested_depots,omitempty"`
}

func vehicleResponse(st alloc.VehicleState, suggested []string) VehicleResponse {
	v := st.Vehicle
	out := VehicleResponse{
		ID:              v.ID,
		Name:            v.Name,
		LengthM:         v.EffectiveLength(),
		Wagons:          v.Wagons,
		Locomotives:     v.Locomotives,
		Electric:        v.Electric,
		Depot:           v.Depot,
		Arrival:         v.Arrival,
		Departure:       v.Departure,
		Category:        v.Category.String(),
		LocomotiveSide:  v.LocomotiveSide,
		Status:          st.Status.String(),
		SuggestedDepots: suggested,
	}
	if st.Status == alloc.StatusPlaced {
		out.Track = st.Track
	}
	if !st.WaitStart.IsZero() {
		ws := st.WaitStart
		out.WaitStart = &ws
	}
	if !st.WaitEnd.IsZero() {
		we := st.WaitEnd
		out.WaitEnd = &we
	}
	return out
}

func (s *Server) vehicles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		states := s.mgr.List()
		out := make([]VehicleResponse, 0, len(states))
		for _, st := range states {
			out = append(out, vehicleResponse(st, nil))
		}
		s.writeJSON(w, r, http.StatusOK, out)
	case http.MethodPost:
		var in alloc.VehicleInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
		res, err := s.mgr.Create(in)
		if err != nil {
			s.vehicleError(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusCreated, vehicleResponse(res.State, res.Suggested))
	default:
		w.Header().Set("Allow", "GET, POST")
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) vehicleByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/vehicles/")
	if id == "" {
		s.writeError(w, r, http.StatusBadRequest, "vehicle id required")
		return
	}
	switch r.Method {
	case http.MethodGet:
		st, ok := s.mgr.Get(id)
		if !ok {
			s.writeError(w, r, http.StatusNotFound, "vehicle not found")
			return
		}
		s.writeJSON(w, r, http.StatusOK, vehicleResponse(st, nil))
	case http.MethodPut:
		var in alloc.VehicleInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
		res, err := s.mgr.Update(id, in)
		if err != nil {
			s.vehicleError(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusOK, vehicleResponse(res.State, res.Suggested))
	case http.MethodDelete:
		if err := s.mgr.Delete(id); err != nil {
			s.vehicleError(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) vehicleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrVehicleNotFound):
		s.writeError(w, r, http.StatusNotFound, err.Error())
	case model.IsValidation(err):
		s.writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		s.log.Errorf("vehicle operation failed: %v", err)
		s.writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.mgr.Reset()
	s.writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) recalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	placed := s.mgr.ReattemptAll()
	out := make([]VehicleResponse, 0, len(placed))
	for _, st := range placed {
		out = append(out, vehicleResponse(st, nil))
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"placed": out})
}

package api

import (
	"net/http"
	"strings"

	"github.com/kilianp07/depotplan/core/model"
)

// DepotSummary is the catalog entry shape.
type DepotSummary struct {
	Name   string  `json:"name"`
	Tracks int     `json:"tracks"`
	Lat    float64 `json:"lat,omitempty"`
	Lon    float64 `json:"lon,omitempty"`
}

// TrackDetail is one track with the vehicles currently bound to it.
type TrackDetail struct {
	Number      int                `json:"number"`
	LengthM     float64            `json:"length_m"`
	Electrified bool               `json:"electrified"`
	Occupations []model.Occupation `json:"occupations"`
}

// DepotDetail is the full view of one depot.
type DepotDetail struct {
	Name    string            `json:"name"`
	Lat     float64           `json:"lat,omitempty"`
	Lon     float64           `json:"lon,omitempty"`
	Tracks  []TrackDetail     `json:"tracks"`
	Waiting []VehicleResponse `json:"waiting"`
}

func (s *Server) depots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	out := make([]DepotSummary, 0)
	for _, d := range s.reg.Depots() {
		out = append(out, DepotSummary{Name: d.Name, Tracks: len(d.Tracks), Lat: d.Lat, Lon: d.Lon})
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) depotByName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/depots/")
	snap, ok := s.mgr.SnapshotDepot(name)
	if !ok {
		s.writeError(w, r, http.StatusNotFound, "depot not found")
		return
	}
	detail := DepotDetail{Name: snap.Depot.Name, Lat: snap.Depot.Lat, Lon: snap.Depot.Lon}
	for _, t := range snap.Depot.Tracks {
		td := TrackDetail{Number: t.Number, LengthM: t.LengthM, Electrified: t.Electrified, Occupations: []model.Occupation{}}
		for _, o := range snap.Occupations {
			if o.Track == t.Number {
				td.Occupations = append(td.Occupations, o)
			}
		}
		detail.Tracks = append(detail.Tracks, td)
	}
	detail.Waiting = make([]VehicleResponse, 0)
	for _, vs := range snap.Waiting() {
		detail.Waiting = append(detail.Waiting, vehicleResponse(vs, nil))
	}
	s.writeJSON(w, r, http.StatusOK, detail)
}

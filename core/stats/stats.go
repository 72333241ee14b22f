// Package stats derives aggregate figures from allocation snapshots. All
// functions are pure and safe to call concurrently; they never mutate the
// snapshot.
package stats

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/depotplan/core/alloc"
	"github.com/kilianp07/depotplan/core/model"
)

// DepotStats is the per-depot breakdown of the summary.
type DepotStats struct {
	Vehicles      int     `json:"vehicles"`
	Waiting       int     `json:"waiting"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// Summary aggregates the whole engine state.
type Summary struct {
	TotalVehicles    int     `json:"total_vehicles"`
	ElectricVehicles int     `json:"electric_vehicles"`
	WaitingVehicles  int     `json:"waiting_vehicles"`
	// AverageWaitMinutes is the mean over vehicles with a completed wait.
	// Vehicles placed immediately never waited and are excluded.
	AverageWaitMinutes float64 `json:"average_wait_minutes"`
	// GlobalOccupancyRate is the time-weighted mean, over all tracks and
	// the reporting window, of occupied length over capacity, in [0,1].
	GlobalOccupancyRate float64               `json:"global_occupancy_rate"`
	PerDepot            map[string]DepotStats `json:"per_depot"`
	Window              model.Interval        `json:"window"`
}

// Compute builds the summary over the reporting window. A zero window
// defaults to the span of all occupations in the snapshot.
func Compute(snap alloc.Snapshot, window model.Interval) Summary {
	if !window.Valid() {
		window = occupationSpan(snap)
	}
	s := Summary{PerDepot: make(map[string]DepotStats), Window: window}

	var waits []float64
	var depotRates []float64
	var depotWeights []float64
	for name, ds := range snap.Depots {
		d := DepotStats{}
		for _, vs := range ds.Vehicles {
			s.TotalVehicles++
			d.Vehicles++
			if vs.Vehicle.Electric {
				s.ElectricVehicles++
			}
			if vs.Status == alloc.StatusWaiting {
				s.WaitingVehicles++
				d.Waiting++
			}
			if vs.Waited() {
				waits = append(waits, vs.WaitDuration().Minutes())
			}
		}
		d.OccupancyRate = occupancyRate(ds, window)
		s.PerDepot[name] = d
		depotRates = append(depotRates, d.OccupancyRate)
		depotWeights = append(depotWeights, float64(len(ds.Depot.Tracks)))
	}
	if len(waits) > 0 {
		s.AverageWaitMinutes = stat.Mean(waits, nil)
	}
	if len(depotRates) > 0 {
		s.GlobalOccupancyRate = stat.Mean(depotRates, depotWeights)
	}
	return s
}

// occupancyRate integrates occupied-length over capacity for every track of
// the depot across the window and averages over tracks. The sum only changes
// at occupation boundaries, so integration walks the sorted boundary points.
func occupancyRate(ds alloc.DepotSnapshot, window model.Interval) float64 {
	if !window.Valid() || len(ds.Depot.Tracks) == 0 {
		return 0
	}
	var rates []float64
	for _, t := range ds.Depot.Tracks {
		rates = append(rates, trackRate(t, ds.Occupations, window))
	}
	return stat.Mean(rates, nil)
}

func trackRate(t model.Track, occs []model.Occupation, window model.Interval) float64 {
	points := []time.Time{window.Begin, window.End}
	for _, o := range occs {
		if o.Track != t.Number || !o.Window().Overlaps(window) {
			continue
		}
		if o.Begin.After(window.Begin) {
			points = append(points, o.Begin)
		}
		if o.End.Before(window.End) {
			points = append(points, o.End)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })

	var weighted float64
	for i := 0; i+1 < len(points); i++ {
		seg := model.Interval{Begin: points[i], End: points[i+1]}
		if !seg.Valid() {
			continue
		}
		var occupied float64
		for _, o := range occs {
			if o.Track == t.Number && o.Covers(seg.Begin) {
				occupied += o.LengthM
			}
		}
		if occupied > t.LengthM {
			occupied = t.LengthM
		}
		weighted += (occupied / t.LengthM) * seg.Duration().Seconds()
	}
	total := window.Duration().Seconds()
	if total <= 0 {
		return 0
	}
	return weighted / total
}

func occupationSpan(snap alloc.Snapshot) model.Interval {
	var span model.Interval
	for _, ds := range snap.Depots {
		for _, o := range ds.Occupations {
			if span.Begin.IsZero() || o.Begin.Before(span.Begin) {
				span.Begin = o.Begin
			}
			if o.End.After(span.End) {
				span.End = o.End
			}
		}
	}
	return span
}

// TrackPresence describes one vehicle present on a track at an instant.
type TrackPresence struct {
	Depot       string         `json:"depot"`
	Track       int            `json:"track"`
	VehicleID   string         `json:"vehicle_id"`
	VehicleName string         `json:"vehicle_name"`
	Category    string         `json:"category"`
	Electric    bool           `json:"electric"`
	LengthM     float64        `json:"length_m"`
	Window      model.Interval `json:"window"`
}

// OccupancyAt lists the vehicles present on each track at the given instant.
// An empty depot name covers all depots.
func OccupancyAt(snap alloc.Snapshot, instant time.Time, depot string) []TrackPresence {
	var out []TrackPresence
	for name, ds := range snap.Depots {
		if depot != "" && name != depot {
			continue
		}
		for _, o := range ds.Occupations {
			if !o.Covers(instant) {
				continue
			}
			out = append(out, TrackPresence{
				Depot:       name,
				Track:       o.Track,
				VehicleID:   o.VehicleID,
				VehicleName: o.VehicleName,
				Category:    o.Category.String(),
				Electric:    o.Electric,
				LengthM:     o.LengthM,
				Window:      o.Window(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depot != out[j].Depot {
			return out[i].Depot < out[j].Depot
		}
		return out[i].Track < out[j].Track
	})
	return out
}

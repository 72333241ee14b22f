package alloc

import (
	"sort"
	"time"

	"github.com/kilianp07/depotplan/core/model"
)

// Status is the placement state of a vehicle. A vehicle is Waiting exactly
// when it holds no occupation.
type Status int

const (
	StatusPlaced Status = iota
	StatusWaiting
)

// String returns the wire name of the status.
func (s Status) String() string {
	if s == StatusWaiting {
		return "waiting"
	}
	return "placed"
}

// VehicleState is a vehicle together with its current placement outcome.
type VehicleState struct {
	Vehicle model.Vehicle `json:"vehicle"`
	Status  Status        `json:"-"`
	// Track the vehicle is placed on, meaningful only when placed.
	Track int `json:"track,omitempty"`
	// WaitStart is set when the vehicle entered the waiting queue and
	// WaitEnd when it left it. Both stay zero for vehicles placed
	// immediately.
	WaitStart time.Time `json:"wait_start,omitempty"`
	WaitEnd   time.Time `json:"wait_end,omitempty"`
}

// Waited reports whether the vehicle has a completed waiting period.
func (s VehicleState) Waited() bool {
	return !s.WaitStart.IsZero() && s.WaitEnd.After(s.WaitStart)
}

// WaitDuration returns the completed waiting time, zero otherwise.
func (s VehicleState) WaitDuration() time.Duration {
	if !s.Waited() {
		return 0
	}
	return s.WaitEnd.Sub(s.WaitStart)
}

// DepotSnapshot is a deep copy of one depot's occupation table and vehicle
// states, taken under the depot lock. Version identifies the table revision
// the copy was taken from.
type DepotSnapshot struct {
	Depot       model.Depot
	Occupations []model.Occupation
	Vehicles    []VehicleState
	Version     uint64
}

// Waiting returns the depot's waiting vehicles in FIFO order (ascending
// WaitStart, ties broken by vehicle ID).
func (s DepotSnapshot) Waiting() []VehicleState {
	var out []VehicleState
	for _, vs := range s.Vehicles {
		if vs.Status == StatusWaiting {
			out = append(out, vs)
		}
	}
	sortByWaitStart(out)
	return out
}

// Placed returns the depot's placed vehicles.
func (s DepotSnapshot) Placed() []VehicleState {
	var out []VehicleState
	for _, vs := range s.Vehicles {
		if vs.Status == StatusPlaced {
			out = append(out, vs)
		}
	}
	return out
}

// Clone returns an independent copy of the snapshot.
func (s DepotSnapshot) Clone() DepotSnapshot {
	out := s
	out.Occupations = append([]model.Occupation(nil), s.Occupations...)
	out.Vehicles = append([]VehicleState(nil), s.Vehicles...)
	return out
}

// Snapshot is a frozen, depot-keyed view of the whole engine state.
type Snapshot struct {
	Depots  map[string]DepotSnapshot
	TakenAt time.Time
}

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Depots: make(map[string]DepotSnapshot, len(s.Depots)), TakenAt: s.TakenAt}
	for name, ds := range s.Depots {
		out.Depots[name] = ds.Clone()
	}
	return out
}

// Vehicles returns all vehicle states across depots, sorted by arrival then ID.
func (s Snapshot) Vehicles() []VehicleState {
	var out []VehicleState
	for _, ds := range s.Depots {
		out = append(out, ds.Vehicles...)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Vehicle, out[j].Vehicle
		if !a.Arrival.Equal(b.Arrival) {
			return a.Arrival.Before(b.Arrival)
		}
		return a.ID < b.ID
	})
	return out
}

// WaitingCount returns the number of waiting vehicles across all depots.
func (s Snapshot) WaitingCount() int {
	n := 0
	for _, ds := range s.Depots {
		for _, vs := range ds.Vehicles {
			if vs.Status == StatusWaiting {
				n++
			}
		}
	}
	return n
}

func sortByWaitStart(states []VehicleState) {
	sort.Slice(states, func(i, j int) bool {
		if !states[i].WaitStart.Equal(states[j].WaitStart) {
			return states[i].WaitStart.Before(states[j].WaitStart)
		}
		return states[i].Vehicle.ID < states[j].Vehicle.ID
	})
}

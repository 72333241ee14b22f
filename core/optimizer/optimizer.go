// Package optimizer searches a frozen allocation snapshot for relocations
// that admit waiting vehicles. It never touches the live occupation table;
// callers decide whether to adopt the result.
package optimizer

import (
	"sort"
	"time"

	"github.com/kilianp07/depotplan/core/alloc"
	"github.com/kilianp07/depotplan/core/model"
)

// DefaultBudget bounds the number of tentative relocations tried in one pass.
// Full re-optimization is combinatorially hard; the pass is a heuristic, not
// an optimal solver.
const DefaultBudget = 10000

// Result is the outcome of one optimization pass.
type Result struct {
	// Snapshot is the improved allocation. Equal to the input when no
	// improvement was found.
	Snapshot alloc.Snapshot
	// Modifications lists the applied relocations, empty when nothing
	// changed so callers can render "no changes" explicitly.
	Modifications []alloc.Modification
	// BudgetExhausted signals the heuristic stopped on its iteration
	// budget; the partial improvement found so far is still returned.
	BudgetExhausted bool
	WaitingBefore   int
	WaitingAfter    int
}

// Optimize runs an iterative-improvement pass over a copy of the snapshot.
// For every waiting vehicle it first retries a direct placement, then looks
// for a single relocation of a placed vehicle that frees enough concurrent
// capacity. A tentative move is only kept when the waiting vehicle actually
// fits afterwards; feasibility is re-checked on every affected track so no
// invariant can break as a side effect. The output never has more waiting
// vehicles than the input.
func Optimize(snap alloc.Snapshot, budget int) Result {
	if budget <= 0 {
		budget = DefaultBudget
	}
	work := snap.Clone()
	res := Result{WaitingBefore: snap.WaitingCount()}

	names := make([]string, 0, len(work.Depots))
	for name := range work.Depots {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		// Work on a clone so reverted tentative moves cannot reach the
		// map entry through shared backing arrays.
		ds := work.Depots[name].Clone()
		optimizeDepot(&ds, &res, &budget, work.TakenAt)
		work.Depots[name] = ds
		if budget <= 0 {
			res.BudgetExhausted = true
			break
		}
	}

	res.Snapshot = work
	res.WaitingAfter = work.WaitingCount()
	return res
}

// optimizeDepot repeatedly scans the depot's waiting queue until a full pass
// admits nobody or the budget runs out.
func optimizeDepot(ds *alloc.DepotSnapshot, res *Result, budget *int, now time.Time) {
	for {
		admitted := false
		for _, w := range ds.Waiting() {
			if *budget <= 0 {
				return
			}
			if admitWaiting(ds, w, res, budget, now) {
				admitted = true
			}
		}
		if !admitted {
			return
		}
	}
}

// admitWaiting tries to place the waiting vehicle, relocating at most one
// placed vehicle to make room.
func admitWaiting(ds *alloc.DepotSnapshot, w alloc.VehicleState, res *Result, budget *int, now time.Time) bool {
	*budget--
	// Capacity may already be free, e.g. released by a previous relocation.
	if track, ok := directFit(ds, w.Vehicle); ok {
		place(ds, w.Vehicle.ID, track, now)
		res.Modifications = append(res.Modifications, alloc.Modification{
			VehicleID:   w.Vehicle.ID,
			VehicleName: w.Vehicle.Name,
			Depot:       ds.Depot.Name,
			From:        alloc.Location{Waiting: true},
			To:          alloc.Location{Track: track},
		})
		return true
	}

	for _, p := range ds.Placed() {
		for _, target := range ds.Depot.Tracks {
			if target.Number == p.Track {
				continue
			}
			if *budget <= 0 {
				return false
			}
			*budget--
			if !alloc.Fits(target, p.Vehicle, p.Vehicle.Window(), ds.Occupations) {
				continue
			}
			// Tentatively relocate p, then see if the freed capacity
			// admits the waiting vehicle.
			saved := ds.Clone()
			relocate(ds, p.Vehicle.ID, target.Number)
			track, ok := directFit(ds, w.Vehicle)
			if !ok {
				*ds = saved
				continue
			}
			place(ds, w.Vehicle.ID, track, now)
			res.Modifications = append(res.Modifications,
				alloc.Modification{
					VehicleID:   p.Vehicle.ID,
					VehicleName: p.Vehicle.Name,
					Depot:       ds.Depot.Name,
					From:        alloc.Location{Track: p.Track},
					To:          alloc.Location{Track: target.Number},
				},
				alloc.Modification{
					VehicleID:   w.Vehicle.ID,
					VehicleName: w.Vehicle.Name,
					Depot:       ds.Depot.Name,
					From:        alloc.Location{Waiting: true},
					To:          alloc.Location{Track: track},
				})
			return true
		}
	}
	return false
}

// directFit runs first-fit for the vehicle against the snapshot occupations.
func directFit(ds *alloc.DepotSnapshot, v model.Vehicle) (int, bool) {
	for _, t := range ds.Depot.Tracks {
		if alloc.Fits(t, v, v.Window(), ds.Occupations) {
			return t.Number, true
		}
	}
	return 0, false
}

// place commits the waiting vehicle onto the track inside the snapshot.
func place(ds *alloc.DepotSnapshot, vehicleID string, track int, now time.Time) {
	for i := range ds.Vehicles {
		if ds.Vehicles[i].Vehicle.ID != vehicleID {
			continue
		}
		ds.Vehicles[i].Status = alloc.StatusPlaced
		ds.Vehicles[i].Track = track
		ds.Vehicles[i].WaitEnd = now
		v := ds.Vehicles[i].Vehicle
		ds.Occupations = append(ds.Occupations, model.Occupation{
			VehicleID:   v.ID,
			VehicleName: v.Name,
			Depot:       v.Depot,
			Track:       track,
			LengthM:     v.EffectiveLength(),
			Electric:    v.Electric,
			Category:    v.Category,
			Begin:       v.Arrival,
			End:         v.Departure,
		})
		return
	}
}

// relocate moves a placed vehicle's occupation to another track.
func relocate(ds *alloc.DepotSnapshot, vehicleID string, track int) {
	for i := range ds.Occupations {
		if ds.Occupations[i].VehicleID == vehicleID {
			ds.Occupations[i].Track = track
			break
		}
	}
	for i := range ds.Vehicles {
		if ds.Vehicles[i].Vehicle.ID == vehicleID {
			ds.Vehicles[i].Track = track
			break
		}
	}
}

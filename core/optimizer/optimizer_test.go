package optimizer

import (
	"testing"
	"time"

	"github.com/kilianp07/depotplan/core/alloc"
	"github.com/kilianp07/depotplan/core/model"
)

var base = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time { return base.Add(time.Duration(hour) * time.Hour) }

func placed(id string, length float64, track int, from, to int) (alloc.VehicleState, model.Occupation) {
	v := model.Vehicle{ID: id, Name: id, LengthM: length, Depot: "aarhus", Arrival: at(from), Departure: at(to)}
	st := alloc.VehicleState{Vehicle: v, Status: alloc.StatusPlaced, Track: track}
	o := model.Occupation{VehicleID: id, VehicleName: id, Depot: "aarhus", Track: track, LengthM: length, Begin: at(from), End: at(to)}
	return st, o
}

func waiting(id string, length float64, from, to int) alloc.VehicleState {
	v := model.Vehicle{ID: id, Name: id, LengthM: length, Depot: "aarhus", Arrival: at(from), Departure: at(to)}
	return alloc.VehicleState{Vehicle: v, Status: alloc.StatusWaiting, WaitStart: at(from)}
}

func depotSnapshot(tracks []model.Track, vehicles []alloc.VehicleState, occs []model.Occupation) alloc.Snapshot {
	for i := range tracks {
		tracks[i].Depot = "aarhus"
	}
	ds := alloc.DepotSnapshot{
		Depot:       model.Depot{Name: "aarhus", Tracks: tracks},
		Occupations: occs,
		Vehicles:    vehicles,
		Version:     1,
	}
	return alloc.Snapshot{Depots: map[string]alloc.DepotSnapshot{"aarhus": ds}, TakenAt: at(12)}
}

func TestOptimizeRelocationAdmitsWaiting(t *testing.T) {
	// First-fit left 120m on track 1 and 90m on track 2; the 150m waiter
	// fits nowhere directly but moving the 90m vehicle over frees track 2.
	p1, o1 := placed("p1", 120, 1, 10, 14)
	p2, o2 := placed("p2", 90, 2, 10, 14)
	w := waiting("w", 150, 10, 14)
	snap := depotSnapshot(
		[]model.Track{{Number: 1, LengthM: 250}, {Number: 2, LengthM: 200}},
		[]alloc.VehicleState{p1, p2, w},
		[]model.Occupation{o1, o2},
	)

	res := Optimize(snap, 0)
	if res.WaitingAfter != 0 {
		t.Fatalf("the waiter should be admitted, still %d waiting", res.WaitingAfter)
	}
	if res.WaitingBefore != 1 {
		t.Fatalf("one vehicle was waiting before, got %d", res.WaitingBefore)
	}
	if len(res.Modifications) != 2 {
		t.Fatalf("expected relocation plus placement, got %v", res.Modifications)
	}
	reloc, place := res.Modifications[0], res.Modifications[1]
	if reloc.VehicleID != "p2" || reloc.From.Track != 2 || reloc.To.Track != 1 {
		t.Fatalf("p2 should move from track 2 to 1, got %+v", reloc)
	}
	if place.VehicleID != "w" || !place.From.Waiting || place.To.Track != 2 {
		t.Fatalf("w should leave the queue onto track 2, got %+v", place)
	}
	if res.BudgetExhausted {
		t.Fatal("the pass should finish within the default budget")
	}
	assertCapacityHolds(t, res.Snapshot)

	// The input snapshot is never mutated.
	if snap.Depots["aarhus"].Occupations[1].Track != 2 {
		t.Fatal("input snapshot was mutated")
	}
}

func TestOptimizeDirectFit(t *testing.T) {
	// Capacity is already free; no relocation is needed.
	p1, o1 := placed("p1", 120, 1, 10, 14)
	w := waiting("w", 150, 10, 14)
	snap := depotSnapshot(
		[]model.Track{{Number: 1, LengthM: 250}, {Number: 2, LengthM: 200}},
		[]alloc.VehicleState{p1, w},
		[]model.Occupation{o1},
	)

	res := Optimize(snap, 0)
	if res.WaitingAfter != 0 || len(res.Modifications) != 1 {
		t.Fatalf("expected a single placement, got %+v", res)
	}
	if mod := res.Modifications[0]; !mod.From.Waiting || mod.To.Track != 2 {
		t.Fatalf("w should go straight to track 2, got %+v", mod)
	}
}

func TestOptimizeNoImprovement(t *testing.T) {
	p1, o1 := placed("p1", 200, 1, 10, 14)
	w := waiting("w", 260, 10, 14) // longer than the longest track
	snap := depotSnapshot(
		[]model.Track{{Number: 1, LengthM: 250}, {Number: 2, LengthM: 200}},
		[]alloc.VehicleState{p1, w},
		[]model.Occupation{o1},
	)

	res := Optimize(snap, 0)
	if len(res.Modifications) != 0 {
		t.Fatalf("no move can help, got %v", res.Modifications)
	}
	if res.WaitingAfter != res.WaitingBefore {
		t.Fatalf("waiting count must not change: %d -> %d", res.WaitingBefore, res.WaitingAfter)
	}
}

func TestOptimizeRevertedMoveLeavesSnapshotUntouched(t *testing.T) {
	// The 50m vehicle can relocate from track 1 to track 2, but that never
	// admits the 200m waiter, so the move is tried and rolled back. The
	// returned snapshot must match the input exactly; an unreported track
	// change here would be committed blind on adoption.
	p1, o1 := placed("p1", 50, 1, 10, 14)
	w := waiting("w", 200, 10, 14)
	snap := depotSnapshot(
		[]model.Track{{Number: 1, LengthM: 150}, {Number: 2, LengthM: 150}},
		[]alloc.VehicleState{p1, w},
		[]model.Occupation{o1},
	)

	res := Optimize(snap, 0)
	if len(res.Modifications) != 0 {
		t.Fatalf("no move can help, got %v", res.Modifications)
	}
	out := res.Snapshot.Depots["aarhus"]
	if got := out.Occupations[0].Track; got != 1 {
		t.Fatalf("reverted relocation leaked into the occupation table: track %d", got)
	}
	for _, vs := range out.Vehicles {
		if vs.Vehicle.ID == "p1" && vs.Track != 1 {
			t.Fatalf("reverted relocation leaked into the vehicle state: track %d", vs.Track)
		}
	}
	in := snap.Depots["aarhus"]
	if in.Occupations[0].Track != 1 || in.Vehicles[0].Track != 1 {
		t.Fatal("input snapshot was mutated")
	}
}

func TestOptimizeNeverRegresses(t *testing.T) {
	p1, o1 := placed("p1", 120, 1, 10, 14)
	p2, o2 := placed("p2", 90, 2, 10, 14)
	w := waiting("w", 150, 10, 14)
	snap := depotSnapshot(
		[]model.Track{{Number: 1, LengthM: 250}, {Number: 2, LengthM: 200}},
		[]alloc.VehicleState{p1, p2, w},
		[]model.Occupation{o1, o2},
	)
	res := Optimize(snap, 0)
	if res.WaitingAfter > res.WaitingBefore {
		t.Fatalf("optimizer regressed: %d -> %d", res.WaitingBefore, res.WaitingAfter)
	}
	for _, ds := range res.Snapshot.Depots {
		for _, vs := range ds.Placed() {
			found := false
			for _, o := range ds.Occupations {
				if o.VehicleID == vs.Vehicle.ID && o.Track == vs.Track {
					found = true
				}
			}
			if !found {
				t.Fatalf("placed vehicle %s has no matching occupation", vs.Vehicle.ID)
			}
		}
	}
}

func TestOptimizeIdempotent(t *testing.T) {
	p1, o1 := placed("p1", 120, 1, 10, 14)
	p2, o2 := placed("p2", 90, 2, 10, 14)
	w := waiting("w", 150, 10, 14)
	snap := depotSnapshot(
		[]model.Track{{Number: 1, LengthM: 250}, {Number: 2, LengthM: 200}},
		[]alloc.VehicleState{p1, p2, w},
		[]model.Occupation{o1, o2},
	)
	first := Optimize(snap, 0)
	second := Optimize(first.Snapshot, 0)
	if len(second.Modifications) != 0 {
		t.Fatalf("re-optimizing an optimized snapshot must change nothing, got %v", second.Modifications)
	}
}

func TestOptimizeBudgetExhausted(t *testing.T) {
	p1, o1 := placed("p1", 120, 1, 10, 14)
	p2, o2 := placed("p2", 90, 2, 10, 14)
	w := waiting("w", 150, 10, 14)
	snap := depotSnapshot(
		[]model.Track{{Number: 1, LengthM: 250}, {Number: 2, LengthM: 200}},
		[]alloc.VehicleState{p1, p2, w},
		[]model.Occupation{o1, o2},
	)
	res := Optimize(snap, 1)
	if !res.BudgetExhausted {
		t.Fatal("a one-step budget cannot cover the relocation search")
	}
	if res.WaitingAfter > res.WaitingBefore {
		t.Fatal("an exhausted budget must still never regress")
	}
}

func TestOptimizeDepotOrderDeterministic(t *testing.T) {
	// Two depots each hold a waiter that fits directly, but the budget only
	// covers one admission. Depots are processed in name order, so the
	// aarhus waiter always wins.
	mkDepot := func(depot, vehicleID string) alloc.DepotSnapshot {
		v := model.Vehicle{ID: vehicleID, Name: vehicleID, LengthM: 50, Depot: depot, Arrival: at(10), Departure: at(14)}
		return alloc.DepotSnapshot{
			Depot:    model.Depot{Name: depot, Tracks: []model.Track{{Depot: depot, Number: 1, LengthM: 100}}},
			Vehicles: []alloc.VehicleState{{Vehicle: v, Status: alloc.StatusWaiting, WaitStart: at(10)}},
			Version:  1,
		}
	}
	snap := alloc.Snapshot{
		Depots: map[string]alloc.DepotSnapshot{
			"aarhus": mkDepot("aarhus", "a1"),
			"vejle":  mkDepot("vejle", "v1"),
		},
		TakenAt: at(12),
	}

	for i := 0; i < 5; i++ {
		res := Optimize(snap.Clone(), 1)
		if len(res.Modifications) != 1 || res.Modifications[0].VehicleID != "a1" {
			t.Fatalf("run %d: expected the aarhus waiter admitted first, got %v", i, res.Modifications)
		}
		if !res.BudgetExhausted {
			t.Fatalf("run %d: the second depot's admission must hit the budget", i)
		}
	}
}

// assertCapacityHolds verifies the concurrent length sum on every track stays
// within capacity at all occupation start points.
func assertCapacityHolds(t *testing.T, snap alloc.Snapshot) {
	t.Helper()
	for name, ds := range snap.Depots {
		for _, track := range ds.Depot.Tracks {
			for _, o := range ds.Occupations {
				if o.Track != track.Number {
					continue
				}
				sum := 0.0
				for _, other := range ds.Occupations {
					if other.Track == track.Number && other.Covers(o.Begin) {
						sum += other.LengthM
					}
				}
				if sum > track.LengthM {
					t.Fatalf("%s track %d over capacity at %v: %v > %v", name, track.Number, o.Begin, sum, track.LengthM)
				}
			}
		}
	}
}

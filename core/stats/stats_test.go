package stats

import (
	"math"
	"testing"
	"time"

	"github.com/kilianp07/depotplan/core/alloc"
	"github.com/kilianp07/depotplan/core/model"
)

var base = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time { return base.Add(time.Duration(hour) * time.Hour) }

func snapshotOf(ds alloc.DepotSnapshot) alloc.Snapshot {
	return alloc.Snapshot{Depots: map[string]alloc.DepotSnapshot{ds.Depot.Name: ds}, TakenAt: at(12)}
}

func TestAverageWaitExcludesImmediatePlacements(t *testing.T) {
	mkState := func(id string, waited time.Duration) alloc.VehicleState {
		st := alloc.VehicleState{
			Vehicle: model.Vehicle{ID: id, LengthM: 100, Depot: "aarhus", Arrival: at(10), Departure: at(12)},
			Status:  alloc.StatusPlaced,
			Track:   1,
		}
		if waited > 0 {
			st.WaitStart = at(10)
			st.WaitEnd = at(10).Add(waited)
		}
		return st
	}
	ds := alloc.DepotSnapshot{
		Depot: model.Depot{Name: "aarhus", Tracks: []model.Track{{Number: 1, LengthM: 1000}}},
		Vehicles: []alloc.VehicleState{
			mkState("a", 20*time.Minute),
			mkState("b", 40*time.Minute),
			mkState("c", 0), // placed immediately, not part of the mean
		},
	}

	s := Compute(snapshotOf(ds), model.Interval{Begin: at(10), End: at(12)})
	if s.TotalVehicles != 3 {
		t.Fatalf("expected 3 vehicles, got %d", s.TotalVehicles)
	}
	if math.Abs(s.AverageWaitMinutes-30) > 1e-9 {
		t.Fatalf("mean over completed waits should be 30, got %v", s.AverageWaitMinutes)
	}
}

func TestAverageWaitZeroWithoutWaiters(t *testing.T) {
	ds := alloc.DepotSnapshot{
		Depot: model.Depot{Name: "aarhus", Tracks: []model.Track{{Number: 1, LengthM: 1000}}},
		Vehicles: []alloc.VehicleState{{
			Vehicle: model.Vehicle{ID: "a", LengthM: 100, Depot: "aarhus", Arrival: at(10), Departure: at(12)},
			Status:  alloc.StatusPlaced,
			Track:   1,
		}},
	}
	s := Compute(snapshotOf(ds), model.Interval{Begin: at(10), End: at(12)})
	if s.AverageWaitMinutes != 0 {
		t.Fatalf("no completed waits means zero average, got %v", s.AverageWaitMinutes)
	}
}

func TestOccupancyRateIntegratesOverTime(t *testing.T) {
	// A 50m vehicle on a 100m track for one of the two window hours:
	// 0.5 utilisation for half the time gives 0.25.
	ds := alloc.DepotSnapshot{
		Depot: model.Depot{Name: "aarhus", Tracks: []model.Track{{Number: 1, LengthM: 100}}},
		Occupations: []model.Occupation{
			{VehicleID: "a", Track: 1, LengthM: 50, Begin: at(10), End: at(11)},
		},
	}
	s := Compute(snapshotOf(ds), model.Interval{Begin: at(10), End: at(12)})
	got := s.PerDepot["aarhus"].OccupancyRate
	if math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("expected rate 0.25, got %v", got)
	}
	if math.Abs(s.GlobalOccupancyRate-0.25) > 1e-9 {
		t.Fatalf("single depot drives the global rate, got %v", s.GlobalOccupancyRate)
	}
}

func TestOccupancyRateAveragesTracks(t *testing.T) {
	// Track 1 is fully used all window, track 2 idle: depot rate 0.5.
	ds := alloc.DepotSnapshot{
		Depot: model.Depot{Name: "aarhus", Tracks: []model.Track{
			{Number: 1, LengthM: 100},
			{Number: 2, LengthM: 100},
		}},
		Occupations: []model.Occupation{
			{VehicleID: "a", Track: 1, LengthM: 100, Begin: at(10), End: at(12)},
		},
	}
	s := Compute(snapshotOf(ds), model.Interval{Begin: at(10), End: at(12)})
	if got := s.PerDepot["aarhus"].OccupancyRate; math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected rate 0.5, got %v", got)
	}
}

func TestGlobalRateWeightedByTrackCount(t *testing.T) {
	one := alloc.DepotSnapshot{
		Depot: model.Depot{Name: "aarhus", Tracks: []model.Track{{Number: 1, LengthM: 100}}},
		Occupations: []model.Occupation{
			{VehicleID: "a", Track: 1, LengthM: 100, Begin: at(10), End: at(12)},
		},
	}
	three := alloc.DepotSnapshot{
		Depot: model.Depot{Name: "vejle", Tracks: []model.Track{
			{Number: 1, LengthM: 100}, {Number: 2, LengthM: 100}, {Number: 3, LengthM: 100},
		}},
	}
	snap := alloc.Snapshot{Depots: map[string]alloc.DepotSnapshot{"aarhus": one, "vejle": three}, TakenAt: at(12)}
	s := Compute(snap, model.Interval{Begin: at(10), End: at(12)})
	// aarhus runs at 1.0 with one track, vejle at 0.0 with three.
	if math.Abs(s.GlobalOccupancyRate-0.25) > 1e-9 {
		t.Fatalf("expected weighted global rate 0.25, got %v", s.GlobalOccupancyRate)
	}
}

func TestComputeDefaultsWindowToOccupationSpan(t *testing.T) {
	ds := alloc.DepotSnapshot{
		Depot: model.Depot{Name: "aarhus", Tracks: []model.Track{{Number: 1, LengthM: 100}}},
		Occupations: []model.Occupation{
			{VehicleID: "a", Track: 1, LengthM: 100, Begin: at(10), End: at(12)},
		},
	}
	s := Compute(snapshotOf(ds), model.Interval{})
	if !s.Window.Begin.Equal(at(10)) || !s.Window.End.Equal(at(12)) {
		t.Fatalf("window should default to the occupation span, got %+v", s.Window)
	}
	if math.Abs(s.PerDepot["aarhus"].OccupancyRate-1) > 1e-9 {
		t.Fatalf("full track over its own span is rate 1, got %v", s.PerDepot["aarhus"].OccupancyRate)
	}
}

func TestOccupancyAt(t *testing.T) {
	ds := alloc.DepotSnapshot{
		Depot: model.Depot{Name: "aarhus", Tracks: []model.Track{{Number: 1, LengthM: 100}}},
		Occupations: []model.Occupation{
			{VehicleID: "a", VehicleName: "IC3-01", Track: 1, LengthM: 50, Begin: at(10), End: at(12)},
		},
	}
	snap := snapshotOf(ds)

	if got := OccupancyAt(snap, at(11), ""); len(got) != 1 || got[0].VehicleName != "IC3-01" {
		t.Fatalf("vehicle present at 11:00 missing: %v", got)
	}
	// The departure instant is already free.
	if got := OccupancyAt(snap, at(12), ""); len(got) != 0 {
		t.Fatalf("departure instant must be free, got %v", got)
	}
	if got := OccupancyAt(snap, at(11), "vejle"); len(got) != 0 {
		t.Fatalf("unknown depot filter should return nothing, got %v", got)
	}
}

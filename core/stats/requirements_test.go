package stats

import (
	"testing"
	"time"

	"github.com/kilianp07/depotplan/core/alloc"
	"github.com/kilianp07/depotplan/core/model"
)

func TestDailyRequirements(t *testing.T) {
	tester := alloc.VehicleState{
		Vehicle: model.Vehicle{
			ID: "a", LengthM: 100, Depot: "aarhus", Category: model.CategoryTesting,
			Arrival:   time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC),
			Departure: time.Date(2024, 5, 3, 2, 0, 0, 0, time.UTC),
		},
		Status: alloc.StatusPlaced, Track: 1,
	}
	hauler := alloc.VehicleState{
		Vehicle: model.Vehicle{
			ID: "b", Locomotives: 2, Wagons: 1, Depot: "vejle",
			Arrival:   time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC),
			Departure: time.Date(2024, 5, 2, 18, 0, 0, 0, time.UTC),
		},
		Status: alloc.StatusPlaced, Track: 1,
	}
	snap := alloc.Snapshot{Depots: map[string]alloc.DepotSnapshot{
		"aarhus": {Depot: model.Depot{Name: "aarhus", Tracks: []model.Track{{Number: 1, LengthM: 500}}}, Vehicles: []alloc.VehicleState{tester}},
		"vejle":  {Depot: model.Depot{Name: "vejle", Tracks: []model.Track{{Number: 1, LengthM: 500}}}, Vehicles: []alloc.VehicleState{hauler}},
	}}

	days := DailyRequirements(snap)
	if len(days) != 3 {
		t.Fatalf("the testing vehicle spans three calendar days, got %d: %v", len(days), days)
	}
	if days[0].Date != "2024-05-01" || days[2].Date != "2024-05-03" {
		t.Fatalf("days out of order: %v", days)
	}
	for _, d := range days {
		if d.TestDrivers != 1 {
			t.Fatalf("%s: one test driver expected, got %d", d.Date, d.TestDrivers)
		}
	}
	if days[1].Locomotives != 2 {
		t.Fatalf("the hauler contributes two locomotives on May 2, got %d", days[1].Locomotives)
	}
	if days[0].Locomotives != 0 || days[2].Locomotives != 0 {
		t.Fatalf("locomotives only on May 2: %v", days)
	}
	if len(days[1].LocomotiveDepots) != 1 || days[1].LocomotiveDepots[0] != "vejle" {
		t.Fatalf("locomotive depot list wrong: %v", days[1].LocomotiveDepots)
	}
	if len(days[1].TestDriverDepots) != 1 || days[1].TestDriverDepots[0] != "aarhus" {
		t.Fatalf("test driver depot list wrong: %v", days[1].TestDriverDepots)
	}
}

func TestDailyRequirementsEmpty(t *testing.T) {
	if got := DailyRequirements(alloc.Snapshot{}); len(got) != 0 {
		t.Fatalf("empty snapshot should yield no days, got %v", got)
	}
}

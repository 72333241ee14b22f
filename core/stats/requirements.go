package stats

import (
	"sort"
	"time"

	"github.com/kilianp07/depotplan/core/alloc"
	"github.com/kilianp07/depotplan/core/model"
)

// DayRequirements counts the resources a calendar day needs: locomotives
// from the vehicles present that day and test drivers for vehicles parked
// for testing. Contributing depots are listed for display.
type DayRequirements struct {
	Date             string   `json:"date"`
	TestDrivers      int      `json:"test_drivers"`
	Locomotives      int      `json:"locomotives"`
	TestDriverDepots []string `json:"depots_test_drivers"`
	LocomotiveDepots []string `json:"depots_locomotives"`
}

// DailyRequirements derives per-day resource needs from every vehicle whose
// interval intersects the day, sorted by date. Days are evaluated in UTC.
func DailyRequirements(snap alloc.Snapshot) []DayRequirements {
	type acc struct {
		testDrivers int
		locomotives int
		testDepots  map[string]bool
		locoDepots  map[string]bool
	}
	days := make(map[string]*acc)

	for _, vs := range snap.Vehicles() {
		v := vs.Vehicle
		for day := startOfDay(v.Arrival); day.Before(v.Departure); day = day.AddDate(0, 0, 1) {
			key := day.Format("2006-01-02")
			a := days[key]
			if a == nil {
				a = &acc{testDepots: make(map[string]bool), locoDepots: make(map[string]bool)}
				days[key] = a
			}
			if v.Category == model.CategoryTesting {
				a.testDrivers++
				a.testDepots[v.Depot] = true
			}
			if v.Locomotives > 0 {
				a.locomotives += v.Locomotives
				a.locoDepots[v.Depot] = true
			}
		}
	}

	out := make([]DayRequirements, 0, len(days))
	for key, a := range days {
		out = append(out, DayRequirements{
			Date:             key,
			TestDrivers:      a.testDrivers,
			Locomotives:      a.locomotives,
			TestDriverDepots: sortedKeys(a.testDepots),
			LocomotiveDepots: sortedKeys(a.locoDepots),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

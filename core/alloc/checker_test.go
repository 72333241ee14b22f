package alloc

import (
	"testing"
	"time"

	"github.com/kilianp07/depotplan/core/model"
)

var base = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time { return base.Add(time.Duration(hour) * time.Hour) }

func occ(id string, track int, length float64, from, to int) model.Occupation {
	return model.Occupation{VehicleID: id, Track: track, LengthM: length, Begin: at(from), End: at(to)}
}

func TestFitsSharesTrackCapacity(t *testing.T) {
	track := model.Track{Number: 1, LengthM: 300}
	occs := []model.Occupation{
		occ("a", 1, 200, 10, 12),
		occ("b", 1, 100, 12, 14),
	}
	v := model.Vehicle{ID: "c", LengthM: 100}
	if !Fits(track, v, model.Interval{Begin: at(11), End: at(13)}, occs) {
		t.Fatal("100m vehicle should fit next to 200m then 100m neighbours")
	}
	v.LengthM = 150
	if Fits(track, v, model.Interval{Begin: at(11), End: at(13)}, occs) {
		t.Fatal("150m vehicle exceeds capacity while the 200m occupation is present")
	}
}

func TestFitsChecksEveryOccupationStart(t *testing.T) {
	// The interval's own start is fine; the peak appears when a later
	// occupation begins inside the window.
	track := model.Track{Number: 1, LengthM: 300}
	occs := []model.Occupation{occ("a", 1, 200, 12, 14)}
	v := model.Vehicle{ID: "b", LengthM: 150}
	if Fits(track, v, model.Interval{Begin: at(10), End: at(13)}, occs) {
		t.Fatal("peak at the second occupation start must be rejected")
	}
}

func TestFitsBackToBackWindows(t *testing.T) {
	// Half-open intervals: departure at 12:00 frees the track for an
	// arrival at 12:00.
	track := model.Track{Number: 1, LengthM: 300}
	occs := []model.Occupation{occ("a", 1, 300, 10, 12)}
	v := model.Vehicle{ID: "b", LengthM: 300}
	if !Fits(track, v, model.Interval{Begin: at(12), End: at(14)}, occs) {
		t.Fatal("back to back windows must not conflict")
	}
}

func TestFitsIgnoresOtherTracks(t *testing.T) {
	track := model.Track{Number: 1, LengthM: 300}
	occs := []model.Occupation{occ("a", 2, 300, 10, 14)}
	v := model.Vehicle{ID: "b", LengthM: 300}
	if !Fits(track, v, model.Interval{Begin: at(10), End: at(14)}, occs) {
		t.Fatal("occupations on other tracks must not count")
	}
}

func TestFitsSkipsOwnOccupation(t *testing.T) {
	track := model.Track{Number: 1, LengthM: 300}
	occs := []model.Occupation{occ("a", 1, 300, 10, 14)}
	v := model.Vehicle{ID: "a", LengthM: 300}
	if !Fits(track, v, model.Interval{Begin: at(10), End: at(14)}, occs) {
		t.Fatal("a vehicle must not conflict with its own previous slot")
	}
}

func TestFitsElectrification(t *testing.T) {
	v := model.Vehicle{ID: "a", LengthM: 100, Electric: true}
	iv := model.Interval{Begin: at(10), End: at(12)}
	if Fits(model.Track{Number: 1, LengthM: 300}, v, iv, nil) {
		t.Fatal("electric vehicle must not fit a non-electrified track")
	}
	if !Fits(model.Track{Number: 1, LengthM: 300, Electrified: true}, v, iv, nil) {
		t.Fatal("electric vehicle should fit an electrified track")
	}
	v.Electric = false
	if !Fits(model.Track{Number: 1, LengthM: 300}, v, iv, nil) {
		t.Fatal("diesel vehicle should fit any track")
	}
}

func TestFitsRejectsOversizeAndInvalid(t *testing.T) {
	track := model.Track{Number: 1, LengthM: 100}
	if Fits(track, model.Vehicle{ID: "a", LengthM: 101}, model.Interval{Begin: at(10), End: at(12)}, nil) {
		t.Fatal("vehicle longer than the track must be rejected")
	}
	if Fits(track, model.Vehicle{ID: "a", LengthM: 50}, model.Interval{Begin: at(12), End: at(12)}, nil) {
		t.Fatal("empty interval must be rejected")
	}
	if Fits(track, model.Vehicle{ID: "a", LengthM: 50}, model.Interval{Begin: at(12), End: at(10)}, nil) {
		t.Fatal("reversed interval must be rejected")
	}
}

func TestFirstFitPrefersLowestNumber(t *testing.T) {
	depot := model.Depot{Name: "aarhus", Tracks: []model.Track{
		{Number: 1, LengthM: 300},
		{Number: 2, LengthM: 300},
	}}
	v := model.Vehicle{ID: "a", LengthM: 100, Arrival: at(10), Departure: at(12)}
	track, ok := firstFit(depot, v, nil)
	if !ok || track.Number != 1 {
		t.Fatalf("expected track 1, got %d (ok=%v)", track.Number, ok)
	}
	// Fill track 1 for the window and first-fit must move on to track 2.
	occs := []model.Occupation{occ("b", 1, 250, 10, 12)}
	track, ok = firstFit(depot, v, occs)
	if !ok || track.Number != 2 {
		t.Fatalf("expected track 2, got %d (ok=%v)", track.Number, ok)
	}
}

package alloc

import (
	"time"

	"github.com/kilianp07/depotplan/core/model"
)

// Fits reports whether the vehicle can occupy the track for the given
// interval without exceeding the track capacity at any instant, given the
// occupations currently committed on the depot. Occupations on other tracks
// are ignored. The check is pure and deterministic for a fixed snapshot.
//
// Capacity is evaluated with an event sweep: the concurrent length sum only
// changes at occupation boundaries, so it suffices to test the interval's own
// start plus every occupation start falling inside the interval.
func Fits(track model.Track, vehicle model.Vehicle, iv model.Interval, occs []model.Occupation) bool {
	if !iv.Valid() {
		return false
	}
	length := vehicle.EffectiveLength()
	if length <= 0 || length > track.LengthM {
		return false
	}
	if vehicle.Electric && !track.Electrified {
		return false
	}

	var overlapping []model.Occupation
	for _, o := range occs {
		if o.Track != track.Number {
			continue
		}
		if o.VehicleID == vehicle.ID {
			// An edited vehicle must not conflict with its own old slot.
			continue
		}
		if o.Window().Overlaps(iv) {
			overlapping = append(overlapping, o)
		}
	}
	if len(overlapping) == 0 {
		return true
	}

	points := make([]time.Time, 0, len(overlapping)+1)
	points = append(points, iv.Begin)
	for _, o := range overlapping {
		if o.Begin.After(iv.Begin) && o.Begin.Before(iv.End) {
			points = append(points, o.Begin)
		}
	}
	for _, p := range points {
		sum := length
		for _, o := range overlapping {
			if o.Covers(p) {
				sum += o.LengthM
			}
		}
		if sum > track.LengthM {
			return false
		}
	}
	return true
}

// firstFit returns the first track of the depot, in ascending track number,
// on which the vehicle fits for its requested window. The deterministic
// low-number preference is part of the engine contract.
func firstFit(depot model.Depot, vehicle model.Vehicle, occs []model.Occupation) (model.Track, bool) {
	iv := vehicle.Window()
	for _, t := range depot.Tracks {
		if Fits(t, vehicle, iv, occs) {
			return t, true
		}
	}
	return model.Track{}, false
}

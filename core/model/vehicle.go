package model

import (
	"time"
)

// Standard element lengths in meters used when a vehicle length is derived
// from its composition instead of being given explicitly.
const (
	WagonLengthM      = 14.0
	LocomotiveLengthM = 19.0
)

// Category classifies what a vehicle is parked for. It affects display and
// resource requirement counting, never placement feasibility.
type Category int

const (
	CategoryStorage Category = iota
	CategoryTesting
	CategoryPit
	CategoryPassenger
)

// String returns the lowercase wire name of the category.
func (c Category) String() string {
	switch c {
	case CategoryStorage:
		return "storage"
	case CategoryTesting:
		return "testing"
	case CategoryPit:
		return "pit"
	case CategoryPassenger:
		return "passenger"
	default:
		return "unknown"
	}
}

// ParseCategory converts a wire name into a Category.
func ParseCategory(s string) (Category, bool) {
	switch s {
	case "storage", "":
		return CategoryStorage, true
	case "testing":
		return CategoryTesting, true
	case "pit":
		return CategoryPit, true
	case "passenger":
		return CategoryPassenger, true
	default:
		return CategoryStorage, false
	}
}

// Vehicle is a rail consist requesting a track for its [Arrival, Departure)
// window at the depot named by Depot.
type Vehicle struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	LengthM     float64   `json:"length_m"`
	Wagons      int       `json:"wagons"`
	Locomotives int       `json:"locomotives"`
	Electric    bool      `json:"electric"`
	Depot       string    `json:"depot"`
	Arrival     time.Time `json:"arrival"`
	Departure   time.Time `json:"departure"`
	Category    Category  `json:"-"`
	// Side the locomotive sits on for single-locomotive consists. Cosmetic.
	LocomotiveSide string `json:"locomotive_side,omitempty"`
}

// EffectiveLength returns LengthM when set, otherwise the length derived
// from the consist composition (wagons and locomotives).
func (v Vehicle) EffectiveLength() float64 {
	if v.LengthM > 0 {
		return v.LengthM
	}
	return float64(v.Wagons)*WagonLengthM + float64(v.Locomotives)*LocomotiveLengthM
}

// Window returns the vehicle's requested parking interval.
func (v Vehicle) Window() Interval {
	return Interval{Begin: v.Arrival, End: v.Departure}
}

// Validate checks the vehicle attributes that do not depend on the catalog.
func (v Vehicle) Validate() error {
	if v.EffectiveLength() <= 0 {
		return &ValidationError{Field: "length", Reason: "vehicle length must be positive"}
	}
	if !v.Departure.After(v.Arrival) {
		return &ValidationError{Field: "departure", Reason: "departure must be after arrival"}
	}
	if v.Depot == "" {
		return &ValidationError{Field: "depot", Reason: "depot is required"}
	}
	return nil
}

package model

import "time"

// Interval is a half-open time window [Begin, End).
type Interval struct {
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`
}

// Valid reports whether Begin is strictly before End.
func (i Interval) Valid() bool { return i.Begin.Before(i.End) }

// Overlaps reports whether two half-open intervals share any instant.
func (i Interval) Overlaps(o Interval) bool {
	return i.Begin.Before(o.End) && o.Begin.Before(i.End)
}

// Contains reports whether t falls inside the half-open interval.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Begin) && t.Before(i.End)
}

// Duration returns End - Begin.
func (i Interval) Duration() time.Duration { return i.End.Sub(i.Begin) }

// Occupation binds a vehicle to a track for a half-open interval. The vehicle
// length and flags are snapshotted at placement time so that capacity checks
// and schedule rendering never need to resolve the vehicle again.
type Occupation struct {
	VehicleID   string    `json:"vehicle_id"`
	VehicleName string    `json:"vehicle_name"`
	Depot       string    `json:"depot"`
	Track       int       `json:"track"`
	LengthM     float64   `json:"length_m"`
	Electric    bool      `json:"electric"`
	Category    Category  `json:"-"`
	Begin       time.Time `json:"begin"`
	End         time.Time `json:"end"`
}

// Window returns the occupation interval.
func (o Occupation) Window() Interval { return Interval{Begin: o.Begin, End: o.End} }

// Covers reports whether the occupation is active at instant t.
func (o Occupation) Covers(t time.Time) bool { return o.Window().Contains(t) }

// Package events defines the notifications the allocation manager publishes
// on the internal event bus.
package events

import (
	"time"

	"github.com/kilianp07/depotplan/core/model"
)

// PlacementEvent is published when a vehicle is committed to a track,
// including admissions out of the waiting queue.
type PlacementEvent struct {
	Vehicle model.Vehicle
	Depot   string
	Track   int
	Begin   time.Time
	End     time.Time
	// FromWaiting is true when the vehicle left the waiting queue.
	FromWaiting bool
}

// WaitingEvent is published when a vehicle enters the waiting queue.
type WaitingEvent struct {
	Vehicle model.Vehicle
	Depot   string
	// Suggested lists alternative depots that could hold the vehicle in
	// principle, for manual re-routing.
	Suggested []string
}

// RemovalEvent is published when a vehicle is deleted.
type RemovalEvent struct {
	VehicleID string
	Depot     string
}

// OptimizationEvent is published when an optimization proposal is adopted.
type OptimizationEvent struct {
	Modifications int
	WaitingBefore int
	WaitingAfter  int
}

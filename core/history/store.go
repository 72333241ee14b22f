// Package history persists every mutation applied to the occupation table so
// runs can be audited and replayed.
package history

import (
	"context"
	"time"
)

// Record describes one applied mutation.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	VehicleID string    `json:"vehicle_id,omitempty"`
	Depot     string    `json:"depot,omitempty"`
	Track     int       `json:"track,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Actions recorded by the allocation manager.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionPlace  = "place"
	ActionWait   = "wait"
	ActionAdopt  = "adopt"
	ActionReset  = "reset"
)

// Query filters history records. Zero fields match everything.
type Query struct {
	Start     time.Time
	End       time.Time
	VehicleID string
	Depot     string
	Action    string
}

// Matches reports whether the record satisfies the query.
func (q Query) Matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.VehicleID != "" && r.VehicleID != q.VehicleID {
		return false
	}
	if q.Depot != "" && r.Depot != q.Depot {
		return false
	}
	if q.Action != "" && r.Action != q.Action {
		return false
	}
	return true
}

// Store persists mutation records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

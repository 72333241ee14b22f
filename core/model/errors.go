package model

import (
	"errors"
	"fmt"
)

// ErrVehicleNotFound is returned when an operation references an unknown vehicle.
var ErrVehicleNotFound = errors.New("vehicle not found")

// ErrStaleSnapshot is returned when adopting an optimization whose snapshot
// no longer matches the live occupation table.
var ErrStaleSnapshot = errors.New("snapshot is stale")

// ValidationError rejects malformed vehicle attributes before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ImportRowError marks one malformed record inside a bulk import. It never
// aborts the batch; rows are collected and reported alongside successes.
type ImportRowError struct {
	Row int
	Err error
}

func (e *ImportRowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *ImportRowError) Unwrap() error { return e.Err }

package structs

import "errors"

var (
	// ErrInsufficientCapacity is returned by the capacity backend when the
	// provider explicitly reports that no capacity exists for the requested
	// instance type and zone. Every other reservation failure is passed
	// through untranslated.
	ErrInsufficientCapacity = errors.New("insufficient instance capacity")

	// ErrScheduleNotFound is returned by the scheduler backend when the
	// named schedule does not exist.
	ErrScheduleNotFound = errors.New("schedule not found")
)

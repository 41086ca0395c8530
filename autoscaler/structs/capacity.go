package structs

import "context"

// CapacityClient is the interface required of the capacity probe backend.
// The backend answers whether compute capacity for an instance type exists
// in a zone by placing a reservation which the caller releases immediately;
// no durable resource is ever committed.
type CapacityClient interface {
	// ReserveCapacity places a targeted reservation for exactly one
	// instance of the given type in the given zone and returns the
	// reservation identifier. ErrInsufficientCapacity is returned, possibly
	// wrapped, when the provider explicitly reports that no capacity
	// exists.
	ReserveCapacity(ctx context.Context, instanceType, zone string) (string, error)

	// ReleaseCapacity cancels a reservation previously placed with
	// ReserveCapacity.
	ReleaseCapacity(ctx context.Context, reservationID string) error
}

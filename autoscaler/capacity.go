package autoscaler

import (
	"context"
	"errors"
	"time"

	metrics "github.com/armon/go-metrics"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
)

// probeCapacity answers whether compute capacity for the instance type
// currently exists in the zone by placing a one-instance reservation and
// releasing it straight away. Absence of capacity and inability to
// determine it are deliberately indistinguishable to the caller; the
// control loop simply advances to the next candidate either way rather
// than blocking on a transient provider error.
func probeCapacity(ctx context.Context, config *structs.Config, instanceType, zone string) bool {
	defer metrics.MeasureSince([]string{"capacity", "probe"}, time.Now())

	reservationID, err := config.Capacity.ReserveCapacity(ctx, instanceType, zone)
	if err != nil {
		if errors.Is(err, structs.ErrInsufficientCapacity) {
			logging.Info("core/capacity: no capacity for %v in %v", instanceType, zone)
			metrics.IncrCounter([]string{"capacity", "probe", "miss"}, 1)
		} else {
			logging.Error("core/capacity: unable to determine capacity for %v "+
				"in %v, treating as unavailable: %v", instanceType, zone, err)
			metrics.IncrCounter([]string{"capacity", "probe", "error"}, 1)
		}
		return false
	}

	// The reservation exists only to answer the capacity question, so it is
	// released before reporting back. A failed release degrades the answer
	// to unavailable, like any other ambiguous probe outcome.
	if err := config.Capacity.ReleaseCapacity(ctx, reservationID); err != nil {
		logging.Error("core/capacity: unable to release probe reservation "+
			"%v, treating %v in %v as unavailable: %v", reservationID,
			instanceType, zone, err)
		metrics.IncrCounter([]string{"capacity", "probe", "error"}, 1)
		return false
	}

	logging.Info("core/capacity: capacity available for %v in %v", instanceType, zone)
	metrics.IncrCounter([]string{"capacity", "probe", "hit"}, 1)

	return true
}

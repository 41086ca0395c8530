package structs

import (
	"context"
	"time"
)

// MetricsClient is the interface required of the telemetry backend.
type MetricsClient interface {
	// ReaderCPUSamples issues one batched query covering all given instance
	// identifiers and returns the raw period-average CPU utilization
	// samples per identifier over the window ending now. Identifiers with
	// no datapoints in the window are absent from the result.
	ReaderCPUSamples(ctx context.Context, ids []string, window, period time.Duration) (map[string][]float64, error)
}

package autoscaler

import (
	"context"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
)

// poolUtilization is the aggregated view of reader pool CPU utilization
// over one lookback window.
type poolUtilization struct {
	// Average is the arithmetic mean over the flat union of all raw
	// samples. Only meaningful when Datapoints is non-zero.
	Average float64

	// Datapoints is the total number of raw samples across all readers.
	Datapoints int

	// SampledReaders is the number of readers that returned at least one
	// sample in the window.
	SampledReaders int
}

// aggregateReaderCPU queries CPU samples for all given readers over the
// lookback window and folds them into one pool wide view. Every raw sample
// contributes equally to the average, so a reader with more datapoints
// weighs more than one with fewer; the pool average is not a mean of
// per-reader means. Zero datapoints means no decision is possible, which
// is distinct from a pool sitting idle at zero utilization.
func aggregateReaderCPU(ctx context.Context, config *structs.Config, readerIDs []string) (*poolUtilization, error) {
	window := time.Duration(config.ScaleDown.LookbackMinutes) * time.Minute
	period := time.Duration(config.ScaleDown.MetricPeriod) * time.Second

	samples, err := config.Metrics.ReaderCPUSamples(ctx, readerIDs, window, period)
	if err != nil {
		return nil, err
	}

	util := &poolUtilization{}
	var flat []float64

	for _, id := range readerIDs {
		values := samples[id]
		if len(values) == 0 {
			logging.Debug("core/metrics: reader %v returned no datapoints in "+
				"the last %v", id, window)
			continue
		}

		mean, _ := stats.Mean(values)
		low, _ := stats.Min(values)
		high, _ := stats.Max(values)

		logging.Info("core/metrics: reader %v: %v datapoints, avg %.2f%%, "+
			"min %.2f%%, max %.2f%%", id, len(values), mean, low, high)

		util.SampledReaders++
		flat = append(flat, values...)
	}

	if len(flat) == 0 {
		return util, nil
	}

	average, err := stats.Mean(flat)
	if err != nil {
		return nil, err
	}

	util.Average = average
	util.Datapoints = len(flat)

	return util, nil
}

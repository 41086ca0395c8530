package autoscaler

import (
	"context"
	"errors"
	"testing"
)

func TestMetrics_aggregateReaderCPU(t *testing.T) {

	config, fakes := makeTestConfig()
	ctx := context.Background()

	// Every raw sample weighs equally: the flat union of 10,20,30,40
	// averages 25, where a mean of per-reader means would report 30.
	fakes.metrics.Samples["reader-1"] = []float64{10, 20, 30}
	fakes.metrics.Samples["reader-2"] = []float64{40}

	util, err := aggregateReaderCPU(ctx, config, []string{"reader-1", "reader-2", "reader-3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if util.Average != 25 {
		t.Fatalf("expected pool average 25 got %v", util.Average)
	}
	if util.Datapoints != 4 {
		t.Fatalf("expected 4 datapoints got %v", util.Datapoints)
	}
	if util.SampledReaders != 2 {
		t.Fatalf("expected 2 sampled readers got %v", util.SampledReaders)
	}
}

func TestMetrics_aggregateReaderCPUNoData(t *testing.T) {

	config, fakes := makeTestConfig()
	ctx := context.Background()

	util, err := aggregateReaderCPU(ctx, config, []string{"reader-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if util.Datapoints != 0 || util.SampledReaders != 0 || util.Average != 0 {
		t.Fatalf("expected an empty aggregation, got %+v", util)
	}

	fakes.metrics.Err = errors.New("cloudwatch is unavailable")
	if _, err := aggregateReaderCPU(ctx, config, []string{"reader-1"}); err == nil {
		t.Fatal("expected an error but got nil")
	}
}

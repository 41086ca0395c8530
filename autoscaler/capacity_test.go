package autoscaler

import (
	"context"
	"errors"
	"testing"
)

func TestCapacity_probeCapacity(t *testing.T) {

	config, fakes := makeTestConfig()
	ctx := context.Background()

	// No seeded capacity anywhere answers false.
	if probeCapacity(ctx, config, "r6i.32xlarge", "eu-central-1a") {
		t.Fatal("expected the probe to answer false but got true")
	}

	// A hit reserves once and releases straight away.
	fakes.capacity.Available["r6i.32xlarge/eu-central-1a"] = true
	if !probeCapacity(ctx, config, "r6i.32xlarge", "eu-central-1a") {
		t.Fatal("expected the probe to answer true but got false")
	}

	if len(fakes.capacity.Reserved) != 1 || len(fakes.capacity.Released) != 1 {
		t.Fatalf("expected 1 reservation and 1 release, got %v and %v",
			len(fakes.capacity.Reserved), len(fakes.capacity.Released))
	}
}

func TestCapacity_probeCapacityErrors(t *testing.T) {

	config, fakes := makeTestConfig()
	ctx := context.Background()

	// A provider error that is not a capacity signal still answers false.
	fakes.capacity.ReserveErr = errors.New("request throttled")
	if probeCapacity(ctx, config, "r6i.32xlarge", "eu-central-1a") {
		t.Fatal("expected the probe to answer false but got true")
	}

	// A reservation that cannot be released is not trusted either; the
	// probe degrades to unavailable.
	fakes.capacity.ReserveErr = nil
	fakes.capacity.ReleaseErr = errors.New("reservation already gone")
	fakes.capacity.Available["r6i.32xlarge/eu-central-1a"] = true
	if probeCapacity(ctx, config, "r6i.32xlarge", "eu-central-1a") {
		t.Fatal("expected the probe to answer false but got true")
	}
}

package autoscaler

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
)

func TestScheduler_reconcileScheduler(t *testing.T) {

	config, fakes := makeTestConfig()
	ctx := context.Background()
	now := time.Now()

	// A verified owned reader in the snapshot keeps the schedule armed.
	fakes.database.Tags["lambda-aurora-reader-20260825-100000-aaaaaa"] = ownedTags()
	snapshot := []*structs.DBInstance{
		makeReader("lambda-aurora-reader-20260825-100000-aaaaaa", "eu-central-1a",
			structs.InstanceStatusAvailable, now),
	}

	reconcileScheduler(ctx, config, snapshot)
	if !reflect.DeepEqual(fakes.scheduler.SetCalls, []string{structs.ScheduleStateEnabled}) {
		t.Fatalf("expected the schedule to be enabled, got %v", fakes.scheduler.SetCalls)
	}

	// An empty snapshot disables it again.
	fakes.scheduler.SetCalls = nil
	reconcileScheduler(ctx, config, nil)
	if !reflect.DeepEqual(fakes.scheduler.SetCalls, []string{structs.ScheduleStateDisabled}) {
		t.Fatalf("expected the schedule to be disabled, got %v", fakes.scheduler.SetCalls)
	}
}

func TestScheduler_reconcileSchedulerIgnoresForeign(t *testing.T) {

	config, fakes := makeTestConfig()
	ctx := context.Background()
	now := time.Now()

	fakes.scheduler.State = structs.ScheduleStateEnabled

	// None of these count as an owned reader: no naming prefix, already
	// deleting, or carrying the prefix without verifiable ownership tags.
	fakes.database.Tags["lambda-aurora-reader-20260825-110000-bbbbbb"] = ownedTags()
	snapshot := []*structs.DBInstance{
		makeReader("aurora-prod-writer", "eu-central-1a",
			structs.InstanceStatusAvailable, now),
		makeReader("lambda-aurora-reader-20260825-110000-bbbbbb", "eu-central-1b",
			structs.InstanceStatusDeleting, now),
		makeReader("lambda-aurora-reader-20260825-120000-cccccc", "eu-central-1c",
			structs.InstanceStatusAvailable, now),
	}

	reconcileScheduler(ctx, config, snapshot)
	if !reflect.DeepEqual(fakes.scheduler.SetCalls, []string{structs.ScheduleStateDisabled}) {
		t.Fatalf("expected the schedule to be disabled, got %v", fakes.scheduler.SetCalls)
	}
}

func TestScheduler_setScheduleStateIdempotent(t *testing.T) {

	config, fakes := makeTestConfig()
	ctx := context.Background()

	// Moving to the current state issues no update at all.
	fakes.scheduler.State = structs.ScheduleStateEnabled
	ensureScheduleEnabled(ctx, config)
	if len(fakes.scheduler.SetCalls) != 0 {
		t.Fatalf("expected no state updates, got %v", fakes.scheduler.SetCalls)
	}

	ensureScheduleDisabled(ctx, config)
	ensureScheduleDisabled(ctx, config)
	if !reflect.DeepEqual(fakes.scheduler.SetCalls, []string{structs.ScheduleStateDisabled}) {
		t.Fatalf("expected a single disable, got %v", fakes.scheduler.SetCalls)
	}
}

func TestScheduler_setScheduleStateTolerant(t *testing.T) {

	config, fakes := makeTestConfig()
	ctx := context.Background()

	// A schedule that does not exist is tolerated.
	fakes.scheduler.NotFound = true
	ensureScheduleEnabled(ctx, config)
	if len(fakes.scheduler.SetCalls) != 0 {
		t.Fatalf("expected no state updates, got %v", fakes.scheduler.SetCalls)
	}

	// So is a state read failure.
	fakes.scheduler.NotFound = false
	fakes.scheduler.StateErr = errors.New("scheduler is unavailable")
	ensureScheduleEnabled(ctx, config)
	if len(fakes.scheduler.SetCalls) != 0 {
		t.Fatalf("expected no state updates, got %v", fakes.scheduler.SetCalls)
	}

	// And an update failure.
	fakes.scheduler.StateErr = nil
	fakes.scheduler.SetErr = errors.New("scheduler is unavailable")
	ensureScheduleEnabled(ctx, config)
	if len(fakes.scheduler.SetCalls) != 0 {
		t.Fatalf("expected no recorded state updates, got %v", fakes.scheduler.SetCalls)
	}
}

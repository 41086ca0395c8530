package autoscaler

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
)

const (
	testReaderOld = "lambda-aurora-reader-20260825-100000-aaaaaa"
	testReaderNew = "lambda-aurora-reader-20260825-110000-bbbbbb"
)

// seedIdlePool wires a writer plus two owned idle readers, the setup most
// scale-down scenarios start from.
func seedIdlePool(fakes *testFakes) {
	now := time.Now()

	fakes.database.Members = []*structs.ClusterMember{
		{ID: "aurora-prod-writer", IsWriter: true},
		{ID: testReaderOld},
		{ID: testReaderNew},
	}
	fakes.database.Instances = []*structs.DBInstance{
		makeReader("aurora-prod-writer", "eu-central-1a", structs.InstanceStatusAvailable, now.Add(-24*time.Hour)),
		makeReader(testReaderOld, "eu-central-1b", structs.InstanceStatusAvailable, now.Add(-2*time.Hour)),
		makeReader(testReaderNew, "eu-central-1c", structs.InstanceStatusAvailable, now.Add(-1*time.Hour)),
	}
	fakes.database.Tags[testReaderOld] = ownedTags()
	fakes.database.Tags[testReaderNew] = ownedTags()

	// The flat union of 10, 9 and 9.5 averages exactly 9.5, just under the
	// 10 percent threshold.
	fakes.metrics.Samples[testReaderOld] = []float64{10, 9}
	fakes.metrics.Samples[testReaderNew] = []float64{9.5}

	fakes.scheduler.State = structs.ScheduleStateEnabled
}

func TestScaleDown_Run_removesNewestIdleReader(t *testing.T) {

	config, fakes := makeTestConfig()
	seedIdlePool(fakes)

	result := NewScaleDownRunner(config).Run(context.Background())

	if result.Status != structs.ResultSuccess {
		t.Fatalf("expected status %v got %v: %v", structs.ResultSuccess,
			result.Status, result.Message)
	}
	if result.InstanceID != testReaderNew {
		t.Fatalf("expected the newest reader %v got %v", testReaderNew, result.InstanceID)
	}
	if result.InstanceType != "r6i.32xlarge" {
		t.Fatalf("expected instance type r6i.32xlarge got %v", result.InstanceType)
	}

	if !reflect.DeepEqual(fakes.database.Deleted, []string{testReaderNew}) {
		t.Fatalf("expected %v to be deleted, got %v", testReaderNew, fakes.database.Deleted)
	}

	// Owned readers remain in the exit snapshot, so the schedule stays
	// enabled without an extra update.
	if len(fakes.scheduler.SetCalls) != 0 {
		t.Fatalf("expected no schedule updates, got %v", fakes.scheduler.SetCalls)
	}

	if len(fakes.notifier.Messages) != 1 {
		t.Fatalf("expected 1 notification got %v", len(fakes.notifier.Messages))
	}
}

func TestScaleDown_Run_poolBusy(t *testing.T) {

	config, fakes := makeTestConfig()
	seedIdlePool(fakes)

	// An average sitting exactly on the threshold keeps the pool as is.
	fakes.metrics.Samples[testReaderOld] = []float64{10}
	fakes.metrics.Samples[testReaderNew] = []float64{10}

	result := NewScaleDownRunner(config).Run(context.Background())

	if result.Status != structs.ResultNoAction {
		t.Fatalf("expected status %v got %v", structs.ResultNoAction, result.Status)
	}
	if result.StatusCode() != 200 {
		t.Fatalf("expected status code 200 got %v", result.StatusCode())
	}
	if len(fakes.database.Deleted) != 0 {
		t.Fatalf("expected no deletions, got %v", fakes.database.Deleted)
	}

	if len(fakes.notifier.Messages) != 1 {
		t.Fatalf("expected 1 notification got %v", len(fakes.notifier.Messages))
	}
	if subject := fakes.notifier.Messages[0].Subject; subject != "Aurora autoscaler: no action needed" {
		t.Fatalf("expected a no action notification got %q", subject)
	}
}

func TestScaleDown_Run_noReaders(t *testing.T) {

	config, fakes := makeTestConfig()

	fakes.database.Members = []*structs.ClusterMember{
		{ID: "aurora-prod-writer", IsWriter: true},
	}
	fakes.scheduler.State = structs.ScheduleStateEnabled

	result := NewScaleDownRunner(config).Run(context.Background())

	if result.Status != structs.ResultNoAction {
		t.Fatalf("expected status %v got %v", structs.ResultNoAction, result.Status)
	}

	// With nothing to manage the exit reconciliation stands the periodic
	// check down.
	if !reflect.DeepEqual(fakes.scheduler.SetCalls, []string{structs.ScheduleStateDisabled}) {
		t.Fatalf("expected the schedule to be disabled, got %v", fakes.scheduler.SetCalls)
	}

	if len(fakes.notifier.Messages) != 1 {
		t.Fatalf("expected 1 notification got %v", len(fakes.notifier.Messages))
	}
	if subject := fakes.notifier.Messages[0].Subject; subject != "Aurora autoscaler: no readers to evaluate" {
		t.Fatalf("expected a no readers notification got %q", subject)
	}
}

func TestScaleDown_Run_noDatapoints(t *testing.T) {

	config, fakes := makeTestConfig()
	seedIdlePool(fakes)

	// Readers exist but CloudWatch has nothing for them yet.
	fakes.metrics.Samples = map[string][]float64{}

	result := NewScaleDownRunner(config).Run(context.Background())

	if result.Status != structs.ResultNoAction {
		t.Fatalf("expected status %v got %v", structs.ResultNoAction, result.Status)
	}
	if len(fakes.database.Deleted) != 0 {
		t.Fatalf("expected no deletions, got %v", fakes.database.Deleted)
	}

	// Deferred decisions are reported like any other terminal outcome.
	if len(fakes.notifier.Messages) != 1 {
		t.Fatalf("expected 1 notification got %v", len(fakes.notifier.Messages))
	}
	if subject := fakes.notifier.Messages[0].Subject; subject != "Aurora autoscaler: no CPU data" {
		t.Fatalf("expected a no CPU data notification got %q", subject)
	}
}

func TestScaleDown_Run_blockedWithoutOwnership(t *testing.T) {

	config, fakes := makeTestConfig()
	seedIdlePool(fakes)

	// The newest reader carries the naming prefix but not the ownership
	// tags, so its removal must be refused.
	delete(fakes.database.Tags, testReaderNew)

	result := NewScaleDownRunner(config).Run(context.Background())

	if result.Status != structs.ResultBlocked {
		t.Fatalf("expected status %v got %v: %v", structs.ResultBlocked,
			result.Status, result.Message)
	}
	if result.StatusCode() != 403 {
		t.Fatalf("expected status code 403 got %v", result.StatusCode())
	}
	if result.InstanceID != testReaderNew {
		t.Fatalf("expected the blocked instance %v got %v", testReaderNew, result.InstanceID)
	}

	if len(fakes.database.Deleted) != 0 {
		t.Fatalf("expected no deletions, got %v", fakes.database.Deleted)
	}
	if len(fakes.notifier.Messages) != 1 {
		t.Fatalf("expected 1 notification got %v", len(fakes.notifier.Messages))
	}

	// The block does not skip the exit reconciliation; the verified old
	// reader keeps the schedule enabled.
	if len(fakes.scheduler.SetCalls) != 0 {
		t.Fatalf("expected no schedule updates, got %v", fakes.scheduler.SetCalls)
	}
}

func TestScaleDown_Run_neverSelectsWriter(t *testing.T) {

	config, fakes := makeTestConfig()
	now := time.Now()

	// An adversarial setup: the current writer carries the reader naming
	// prefix and even the ownership tags, for example after a failover
	// promoted an autoscaled reader.
	writerID := "lambda-aurora-reader-20260825-090000-ffffff"

	fakes.database.Members = []*structs.ClusterMember{
		{ID: writerID, IsWriter: true},
		{ID: testReaderOld},
	}
	fakes.database.Instances = []*structs.DBInstance{
		makeReader(writerID, "eu-central-1a", structs.InstanceStatusAvailable, now),
		makeReader(testReaderOld, "eu-central-1b", structs.InstanceStatusCreating, now),
	}
	fakes.database.Tags[writerID] = ownedTags()
	fakes.metrics.Samples[testReaderOld] = []float64{1}

	result := NewScaleDownRunner(config).Run(context.Background())

	if result.Status != structs.ResultNoAction {
		t.Fatalf("expected status %v got %v: %v", structs.ResultNoAction,
			result.Status, result.Message)
	}
	if len(fakes.database.Deleted) != 0 {
		t.Fatalf("expected no deletions, got %v", fakes.database.Deleted)
	}

	if len(fakes.notifier.Messages) != 1 {
		t.Fatalf("expected 1 notification got %v", len(fakes.notifier.Messages))
	}
	if subject := fakes.notifier.Messages[0].Subject; subject != "Aurora autoscaler: no removable reader" {
		t.Fatalf("expected a no removable reader notification got %q", subject)
	}
}

func TestScaleDown_Run_deleteFailure(t *testing.T) {

	config, fakes := makeTestConfig()
	seedIdlePool(fakes)

	fakes.database.DeleteInstanceErr = errors.New("rds is unavailable")

	result := NewScaleDownRunner(config).Run(context.Background())

	if result.Status != structs.ResultInternalError {
		t.Fatalf("expected status %v got %v", structs.ResultInternalError, result.Status)
	}
	if result.StatusCode() != 500 {
		t.Fatalf("expected status code 500 got %v", result.StatusCode())
	}
	if len(fakes.notifier.Messages) != 1 {
		t.Fatalf("expected 1 notification got %v", len(fakes.notifier.Messages))
	}
}

func TestScaleDown_Run_memberListingFailure(t *testing.T) {

	config, fakes := makeTestConfig()
	seedIdlePool(fakes)

	fakes.database.ListClusterMembersErr = errors.New("rds is unavailable")

	result := NewScaleDownRunner(config).Run(context.Background())

	if result.Status != structs.ResultInternalError {
		t.Fatalf("expected status %v got %v", structs.ResultInternalError, result.Status)
	}
	if len(fakes.notifier.Messages) != 1 {
		t.Fatalf("expected 1 notification got %v", len(fakes.notifier.Messages))
	}
	if subject := fakes.notifier.Messages[0].Subject; subject != "Aurora autoscaler: scale-down failed" {
		t.Fatalf("expected a scale-down failed notification got %q", subject)
	}
}

func TestScaleDown_Run_metricsFailure(t *testing.T) {

	config, fakes := makeTestConfig()
	seedIdlePool(fakes)

	fakes.metrics.Err = errors.New("cloudwatch is unavailable")

	result := NewScaleDownRunner(config).Run(context.Background())

	if result.Status != structs.ResultInternalError {
		t.Fatalf("expected status %v got %v", structs.ResultInternalError, result.Status)
	}
	if len(fakes.database.Deleted) != 0 {
		t.Fatalf("expected no deletions, got %v", fakes.database.Deleted)
	}
	if len(fakes.notifier.Messages) != 1 {
		t.Fatalf("expected 1 notification got %v", len(fakes.notifier.Messages))
	}
	if subject := fakes.notifier.Messages[0].Subject; subject != "Aurora autoscaler: scale-down failed" {
		t.Fatalf("expected a scale-down failed notification got %q", subject)
	}
}

func TestScaleDown_Run_instanceListingFailure(t *testing.T) {

	config, fakes := makeTestConfig()
	seedIdlePool(fakes)

	fakes.database.ListInstancesErr = errors.New("rds is unavailable")

	result := NewScaleDownRunner(config).Run(context.Background())

	if result.Status != structs.ResultInternalError {
		t.Fatalf("expected status %v got %v", structs.ResultInternalError, result.Status)
	}
	if len(fakes.notifier.Messages) != 1 {
		t.Fatalf("expected 1 notification got %v", len(fakes.notifier.Messages))
	}
	if subject := fakes.notifier.Messages[0].Subject; subject != "Aurora autoscaler: scale-down failed" {
		t.Fatalf("expected a scale-down failed notification got %q", subject)
	}
}

func TestScaleDown_removalCandidates(t *testing.T) {

	config, _ := makeTestConfig()
	now := time.Now()

	good := makeReader("lambda-aurora-reader-20260825-120000-dddddd",
		"eu-central-1a", structs.InstanceStatusAvailable, now)

	instances := []*structs.DBInstance{
		makeReader("app-reader-1", "eu-central-1a", structs.InstanceStatusAvailable, now),
		makeReader("lambda-aurora-reader-20260825-120000-eeeeee",
			"eu-central-1b", structs.InstanceStatusCreating, now),
		makeReader("lambda-aurora-reader-20260825-120000-ffffff",
			"eu-central-1c", structs.InstanceStatusAvailable, time.Time{}),
		makeReader("lambda-aurora-reader-20260825-090000-000000",
			"eu-central-1a", structs.InstanceStatusAvailable, now),
		good,
	}
	writers := map[string]bool{"lambda-aurora-reader-20260825-090000-000000": true}

	candidates := removalCandidates(config, instances, writers)
	if len(candidates) != 1 || candidates[0] != good {
		t.Fatalf("expected only %v as a candidate, got %v", good.ID, candidates)
	}
}

func TestScaleDown_newestInstance(t *testing.T) {

	now := time.Now()

	oldest := makeReader("lambda-aurora-reader-20260825-100000-aaaaaa",
		"eu-central-1a", structs.InstanceStatusAvailable, now.Add(-2*time.Hour))
	newest := makeReader("lambda-aurora-reader-20260825-120000-cccccc",
		"eu-central-1c", structs.InstanceStatusAvailable, now)
	middle := makeReader("lambda-aurora-reader-20260825-110000-bbbbbb",
		"eu-central-1b", structs.InstanceStatusAvailable, now.Add(-1*time.Hour))

	if picked := newestInstance([]*structs.DBInstance{oldest, newest, middle}); picked != newest {
		t.Fatalf("expected %v got %v", newest.ID, picked.ID)
	}

	// Creation time ties resolve to the lexically greater identifier.
	twinA := makeReader("lambda-aurora-reader-20260825-120000-aaaaaa",
		"eu-central-1a", structs.InstanceStatusAvailable, now)
	twinB := makeReader("lambda-aurora-reader-20260825-120000-bbbbbb",
		"eu-central-1b", structs.InstanceStatusAvailable, now)

	if picked := newestInstance([]*structs.DBInstance{twinB, twinA}); picked != twinB {
		t.Fatalf("expected %v got %v", twinB.ID, picked.ID)
	}
}

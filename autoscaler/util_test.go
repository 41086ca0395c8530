package autoscaler

import (
	"time"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/notifier"
	"github.com/aws-samples/sample-ManagedAutoScaler/testutil"
)

// testFakes bundles the fake backends wired into a test configuration so
// tests can seed inputs and inspect the recorded calls afterwards.
type testFakes struct {
	database  *testutil.FakeDatabaseClient
	capacity  *testutil.FakeCapacityClient
	metrics   *testutil.FakeMetricsClient
	scheduler *testutil.FakeSchedulerClient
	notifier  *testutil.RecorderNotifier
}

func makeTestConfig() (*structs.Config, *testFakes) {

	fakes := &testFakes{
		database:  &testutil.FakeDatabaseClient{Tags: make(map[string]map[string]string)},
		capacity:  &testutil.FakeCapacityClient{Available: make(map[string]bool)},
		metrics:   &testutil.FakeMetricsClient{Samples: make(map[string][]float64)},
		scheduler: &testutil.FakeSchedulerClient{State: structs.ScheduleStateDisabled},
		notifier:  &testutil.RecorderNotifier{},
	}

	config := &structs.Config{
		Region:    "eu-central-1",
		ClusterID: "aurora-prod",
		ScaleUp: &structs.ScaleUp{
			PreferredInstanceType: "r6i.32xlarge",
			InstanceTypePriority:  []string{"r7i.48xlarge", "r6id.32xlarge"},
			AvailabilityZones:     []string{"eu-central-1a", "eu-central-1b", "eu-central-1c"},
			FallbackStrategy:      structs.StrategyInstancePriority,
			Engine:                "aurora-postgresql",
			ReaderTier:            15,
		},
		ScaleDown: &structs.ScaleDown{
			CPUThreshold:    10,
			LookbackMinutes: 5,
			MetricPeriod:    60,
			ScheduleName:    "aurora-cpu-monitor-every-minute",
			ScheduleGroup:   "default",
		},
		Notification: &structs.Notification{
			Enabled:           true,
			ClusterIdentifier: "aurora-prod",
			Notifiers:         []notifier.Notifier{fakes.notifier},
		},
		Database:  fakes.database,
		Capacity:  fakes.capacity,
		Metrics:   fakes.metrics,
		Scheduler: fakes.scheduler,
	}

	return config, fakes
}

// makeReader returns an instance record belonging to the test cluster.
func makeReader(id, zone, status string, created time.Time) *structs.DBInstance {
	return &structs.DBInstance{
		ID:               id,
		ClusterID:        "aurora-prod",
		Class:            "db.r6i.32xlarge",
		AvailabilityZone: zone,
		Status:           status,
		CreateTime:       created,
	}
}

// ownedTags returns a tag set that passes the ownership verification.
func ownedTags() map[string]string {
	return map[string]string{
		"ManagedBy":  "aurora-autoscaler",
		"AutoScaler": "lambda-managed",
	}
}

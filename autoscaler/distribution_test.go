package autoscaler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
)

func TestDistribution_readerDistribution(t *testing.T) {

	config, fakes := makeTestConfig()
	now := time.Now()

	fakes.database.Members = []*structs.ClusterMember{
		{ID: "aurora-prod-writer", IsWriter: true},
		{ID: "reader-a1"},
		{ID: "reader-b1"},
	}

	fakes.database.Instances = []*structs.DBInstance{
		// The writer lives in zone a but must never count as a reader.
		makeReader("aurora-prod-writer", "eu-central-1a", structs.InstanceStatusAvailable, now),
		makeReader("reader-a1", "eu-central-1a", structs.InstanceStatusAvailable, now),
		// Provisioning instances count towards the distribution.
		makeReader("reader-b1", "eu-central-1b", structs.InstanceStatusCreating, now),
		// Terminal and stuck instances do not.
		makeReader("reader-c1", "eu-central-1c", structs.InstanceStatusDeleting, now),
		makeReader("reader-c2", "eu-central-1c", structs.InstanceStatusInsufficientCapacity, now),
		// Unconfigured zones are ignored entirely.
		makeReader("reader-d1", "eu-central-1d", structs.InstanceStatusAvailable, now),
	}

	// An instance from another cluster never counts.
	other := makeReader("other-reader", "eu-central-1a", structs.InstanceStatusAvailable, now)
	other.ClusterID = "aurora-staging"
	fakes.database.Instances = append(fakes.database.Instances, other)

	distribution, err := readerDistribution(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := structs.ZoneDistribution{
		"eu-central-1a": 1,
		"eu-central-1b": 1,
		"eu-central-1c": 0,
	}

	if diff := cmp.Diff(expected, distribution); diff != "" {
		t.Fatalf("distribution mismatch (-expected +got):\n%s", diff)
	}
}

func TestDistribution_readerDistributionErrors(t *testing.T) {

	config, fakes := makeTestConfig()

	fakes.database.ListInstancesErr = errors.New("rds is unavailable")
	if _, err := readerDistribution(context.Background(), config); err == nil {
		t.Fatal("expected an error but got nil")
	}

	fakes.database.ListInstancesErr = nil
	fakes.database.ListClusterMembersErr = errors.New("cluster not found")
	if _, err := readerDistribution(context.Background(), config); err == nil {
		t.Fatal("expected an error but got nil")
	}
}

package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/notifier"
)

// FakeDatabaseClient is an in-memory implementation of
// structs.DatabaseClient. Tests seed the listing and tag fields and
// inspect the recorded mutations afterwards.
type FakeDatabaseClient struct {
	Instances []*structs.DBInstance
	Members   []*structs.ClusterMember
	Tags      map[string]map[string]string

	ListInstancesErr      error
	ListClusterMembersErr error
	CreateReaderErr       error
	DeleteInstanceErr     error
	InstanceTagsErr       error

	// CreateReaderFailures fails this many leading CreateReader calls
	// before later calls succeed.
	CreateReaderFailures int

	CreateRequests []*structs.CreateReaderRequest
	Deleted        []string
}

// ListInstances returns the seeded instance listing.
func (f *FakeDatabaseClient) ListInstances(ctx context.Context) ([]*structs.DBInstance, error) {
	if f.ListInstancesErr != nil {
		return nil, f.ListInstancesErr
	}
	return f.Instances, nil
}

// ListClusterMembers returns the seeded membership listing.
func (f *FakeDatabaseClient) ListClusterMembers(ctx context.Context, clusterID string) ([]*structs.ClusterMember, error) {
	if f.ListClusterMembersErr != nil {
		return nil, f.ListClusterMembersErr
	}
	return f.Members, nil
}

// CreateReader records the provisioning request.
func (f *FakeDatabaseClient) CreateReader(ctx context.Context, req *structs.CreateReaderRequest) error {
	if f.CreateReaderErr != nil {
		return f.CreateReaderErr
	}
	if f.CreateReaderFailures > 0 {
		f.CreateReaderFailures--
		return fmt.Errorf("provisioning %s failed", req.ID)
	}
	f.CreateRequests = append(f.CreateRequests, req)
	return nil
}

// DeleteInstance records the removal request.
func (f *FakeDatabaseClient) DeleteInstance(ctx context.Context, id string) error {
	if f.DeleteInstanceErr != nil {
		return f.DeleteInstanceErr
	}
	f.Deleted = append(f.Deleted, id)
	return nil
}

// InstanceTags returns the seeded tags for id, or an error when the
// instance has no tag entry.
func (f *FakeDatabaseClient) InstanceTags(ctx context.Context, id string) (map[string]string, error) {
	if f.InstanceTagsErr != nil {
		return nil, f.InstanceTagsErr
	}
	tags, ok := f.Tags[id]
	if !ok {
		return nil, fmt.Errorf("instance %s not found", id)
	}
	return tags, nil
}

// FakeCapacityClient is an in-memory implementation of
// structs.CapacityClient. Capacity exists for exactly the
// "instanceType/zone" keys present in Available.
type FakeCapacityClient struct {
	Available map[string]bool

	ReserveErr error
	ReleaseErr error

	Reserved []string
	Released []string
}

// ReserveCapacity succeeds for seeded placements and reports
// structs.ErrInsufficientCapacity for everything else.
func (f *FakeCapacityClient) ReserveCapacity(ctx context.Context, instanceType, zone string) (string, error) {
	if f.ReserveErr != nil {
		return "", f.ReserveErr
	}

	key := instanceType + "/" + zone
	if !f.Available[key] {
		return "", fmt.Errorf("no capacity for %v in %v: %w", instanceType, zone,
			structs.ErrInsufficientCapacity)
	}

	id := fmt.Sprintf("cr-%v", len(f.Reserved))
	f.Reserved = append(f.Reserved, key)
	return id, nil
}

// ReleaseCapacity records the released reservation.
func (f *FakeCapacityClient) ReleaseCapacity(ctx context.Context, reservationID string) error {
	if f.ReleaseErr != nil {
		return f.ReleaseErr
	}
	f.Released = append(f.Released, reservationID)
	return nil
}

// FakeMetricsClient is an in-memory implementation of
// structs.MetricsClient serving the seeded samples.
type FakeMetricsClient struct {
	Samples map[string][]float64
	Err     error
}

// ReaderCPUSamples returns the seeded samples for the requested readers,
// skipping readers without data like the real backend does.
func (f *FakeMetricsClient) ReaderCPUSamples(ctx context.Context, ids []string, window, period time.Duration) (map[string][]float64, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	out := make(map[string][]float64)
	for _, id := range ids {
		if samples, ok := f.Samples[id]; ok && len(samples) > 0 {
			out[id] = samples
		}
	}
	return out, nil
}

// FakeSchedulerClient is an in-memory implementation of
// structs.SchedulerClient tracking the schedule state and every state
// transition applied to it.
type FakeSchedulerClient struct {
	State    string
	NotFound bool

	StateErr error
	SetErr   error

	SetCalls []string
}

// ScheduleState returns the current seeded state.
func (f *FakeSchedulerClient) ScheduleState(ctx context.Context, name, group string) (string, error) {
	if f.NotFound {
		return "", fmt.Errorf("schedule %v: %w", name, structs.ErrScheduleNotFound)
	}
	if f.StateErr != nil {
		return "", f.StateErr
	}
	return f.State, nil
}

// SetScheduleState applies and records the state transition.
func (f *FakeSchedulerClient) SetScheduleState(ctx context.Context, name, group, state string) error {
	if f.SetErr != nil {
		return f.SetErr
	}
	f.State = state
	f.SetCalls = append(f.SetCalls, state)
	return nil
}

// RecorderNotifier is a notifier.Notifier that captures every message
// for later inspection.
type RecorderNotifier struct {
	Messages []notifier.Message
}

// Name returns the provider name.
func (r *RecorderNotifier) Name() string {
	return "recorder"
}

// SendNotification records the message.
func (r *RecorderNotifier) SendNotification(m notifier.Message) {
	r.Messages = append(r.Messages, m)
}

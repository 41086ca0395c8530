package structs

import (
	"context"
	"time"
)

const (
	// InstanceStatusAvailable indicates the instance is up and serving.
	InstanceStatusAvailable = "available"

	// InstanceStatusCreating indicates the instance is still provisioning.
	InstanceStatusCreating = "creating"

	// InstanceStatusDeleting indicates the instance is being removed.
	InstanceStatusDeleting = "deleting"

	// InstanceStatusInsufficientCapacity indicates the provider could not
	// find capacity to bring the instance up.
	InstanceStatusInsufficientCapacity = "insufficient-capacity"
)

// DBInstance represents a single database instance as reported by the
// instance directory. Writer membership is not part of the instance record;
// it is carried on the ClusterMember entry instead.
type DBInstance struct {
	// ID is the globally unique instance identifier.
	ID string

	// ClusterID is the identifier of the cluster the instance belongs to,
	// empty for standalone instances.
	ClusterID string

	// Class is the instance class as reported by the provider, including
	// the db. prefix.
	Class string

	// AvailabilityZone is the zone the instance is placed in.
	AvailabilityZone string

	// Status is the current lifecycle status of the instance.
	Status string

	// CreateTime is the instance creation timestamp. A zero value means the
	// provider has not assigned one yet, which happens while an instance is
	// still provisioning.
	CreateTime time.Time
}

// ClusterMember represents one member entry of the database cluster and
// carries the authoritative writer flag.
type ClusterMember struct {
	// ID is the instance identifier of the member.
	ID string

	// IsWriter indicates whether the member currently holds the writer
	// role.
	IsWriter bool
}

// ZoneDistribution maps an availability zone to its current healthy reader
// count. It is recomputed from the live instance list on every scale-up
// invocation and never cached across invocations.
type ZoneDistribution map[string]int

// PlacementCandidate is an ordered (instance type, availability zone) pair
// considered for provisioning. The instance type is carried without the db.
// class prefix.
type PlacementCandidate struct {
	InstanceType     string
	AvailabilityZone string
}

// CreateReaderRequest carries the parameters for provisioning one new
// reader instance. Readers are always created privately; public
// accessibility is refused at the provisioner boundary.
type CreateReaderRequest struct {
	// ID is the freshly generated unique identifier for the reader.
	ID string

	// ClusterID is the cluster the reader joins.
	ClusterID string

	// InstanceClass is the full instance class including the db. prefix.
	InstanceClass string

	// AvailabilityZone is the zone the reader is placed in.
	AvailabilityZone string

	// Engine is the database engine of the cluster.
	Engine string

	// PromotionTier is the failover promotion tier assigned to the reader.
	PromotionTier int

	// Tags is the complete tag set attached at creation, both the ownership
	// markers and the descriptive metadata.
	Tags map[string]string
}

// DatabaseClient is the interface required of the database backend and
// covers the instance directory, the provisioner and the deprovisioner.
type DatabaseClient interface {
	// ListInstances returns every database instance visible in the region.
	// Callers filter the result down to the cluster or naming prefix they
	// care about.
	ListInstances(ctx context.Context) ([]*DBInstance, error)

	// ListClusterMembers returns the member entries of the named cluster,
	// which distinguish the writer from the readers.
	ListClusterMembers(ctx context.Context, clusterID string) ([]*ClusterMember, error)

	// CreateReader provisions a new reader instance. Completion is
	// asynchronous; the instance becomes available minutes later, out of
	// band.
	CreateReader(ctx context.Context, req *CreateReaderRequest) error

	// DeleteInstance removes the instance, skipping the final snapshot and
	// deleting automated backups.
	DeleteInstance(ctx context.Context, id string) error

	// InstanceTags resolves the current tag set of the instance. A missing
	// instance is reported as an error.
	InstanceTags(ctx context.Context, id string) (map[string]string, error)
}

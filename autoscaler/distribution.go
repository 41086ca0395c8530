package autoscaler

import (
	"context"

	"github.com/dariubs/percent"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
)

// readerDistribution computes the current healthy reader count per
// configured availability zone for the target cluster. The writer and any
// instance that is deleting or stuck without capacity are excluded, as are
// zones outside the configured list. Every configured zone is present in
// the result, defaulting to zero.
func readerDistribution(ctx context.Context, config *structs.Config) (structs.ZoneDistribution, error) {
	instances, err := config.Database.ListInstances(ctx)
	if err != nil {
		return nil, err
	}

	// Writer membership lives on the cluster member entries, not on the
	// instance records, so the two listings are joined here.
	members, err := config.Database.ListClusterMembers(ctx, config.ClusterID)
	if err != nil {
		return nil, err
	}

	writers := make(map[string]bool)
	for _, member := range members {
		if member.IsWriter {
			writers[member.ID] = true
		}
	}

	distribution := make(structs.ZoneDistribution, len(config.ScaleUp.AvailabilityZones))
	for _, zone := range config.ScaleUp.AvailabilityZones {
		distribution[zone] = 0
	}

	total := 0
	for _, instance := range instances {
		if instance.ClusterID != config.ClusterID || writers[instance.ID] {
			continue
		}

		if instance.Status == structs.InstanceStatusDeleting ||
			instance.Status == structs.InstanceStatusInsufficientCapacity {
			continue
		}

		if _, ok := distribution[instance.AvailabilityZone]; !ok {
			logging.Debug("core/distribution: ignoring reader %v in "+
				"unconfigured zone %v", instance.ID, instance.AvailabilityZone)
			continue
		}

		distribution[instance.AvailabilityZone]++
		total++
	}

	for _, zone := range config.ScaleUp.AvailabilityZones {
		share := 0.0
		if total > 0 {
			share = percent.PercentOf(distribution[zone], total)
		}

		logging.Info("core/distribution: zone %v holds %v of %v readers (%.1f%%)",
			zone, distribution[zone], total, share)
	}

	return distribution, nil
}

package autoscaler

import (
	"context"
	"time"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/helper"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
)

const (
	tagManagedBy      = "ManagedBy"
	tagManagedByValue = "aurora-autoscaler"

	tagAutoScaler      = "AutoScaler"
	tagAutoScalerValue = "lambda-managed"
)

// requiredOwnershipTags returns the tag set an instance must carry verbatim
// before this controller will delete it. These markers are attached at
// creation time and never mutated afterwards; everything else on the
// instance is descriptive metadata and never checked.
func requiredOwnershipTags() map[string]string {
	return map[string]string{
		tagManagedBy:  tagManagedByValue,
		tagAutoScaler: tagAutoScalerValue,
	}
}

// buildInstanceTags assembles the full tag set attached to a new reader,
// the ownership markers plus descriptive metadata for operators.
func buildInstanceTags(config *structs.Config, candidate structs.PlacementCandidate) map[string]string {
	tags := requiredOwnershipTags()

	tags["CreatedBy"] = "aurora-autoscale-up-lambda"
	tags["Purpose"] = "auto-scaling-reader"
	tags["CreatedAt"] = time.Now().UTC().Format(time.RFC3339)
	tags["InstanceType"] = candidate.InstanceType
	tags["AvailabilityZone"] = candidate.AvailabilityZone
	tags["ClusterIdentifier"] = config.ClusterID

	return tags
}

// verifyOwnership reports whether the instance carries every required
// ownership tag with an exact value match. A missing instance, a tag
// lookup failure and any mismatched tag all report false; nothing is ever
// deleted under uncertainty. This check is the sole authorization gate in
// front of every deletion and every scheduler disable decision.
func verifyOwnership(ctx context.Context, config *structs.Config, id string) bool {
	tags, err := config.Database.InstanceTags(ctx, id)
	if err != nil {
		logging.Warning("core/ownership: unable to resolve tags for instance "+
			"%v, treating as not owned: %v", id, err)
		return false
	}

	if missing := helper.MissingTags(tags, requiredOwnershipTags()); len(missing) > 0 {
		logging.Warning("core/ownership: instance %v is missing or mismatching "+
			"required tags %v", id, missing)
		return false
	}

	return true
}

package autoscaler

import (
	"context"
	"fmt"
	"time"

	metrics "github.com/armon/go-metrics"
	"github.com/thanhpk/randstr"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
)

// ScaleUpRunner drives one scale-up invocation end to end: distribution
// analysis, candidate planning, capacity probing and finally provisioning
// one new tagged reader.
type ScaleUpRunner struct {
	config *structs.Config
}

// NewScaleUpRunner returns a runner for one scale-up invocation.
func NewScaleUpRunner(config *structs.Config) *ScaleUpRunner {
	return &ScaleUpRunner{config: config}
}

// Run performs a single scale-up pass and always returns a structured
// result; expected negative outcomes such as finding no capacity anywhere
// are results, not errors. There are no retries within a run. Idempotency
// across runs comes from the freshly generated reader identifier, so a
// duplicated trigger creates a second reader rather than corrupting state.
func (r *ScaleUpRunner) Run(ctx context.Context) (result *structs.Result) {
	defer metrics.MeasureSince([]string{"scaleup", "run"}, time.Now())

	// Convert unexpected panics into an internal error result so the entry
	// points never crash uncaught.
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error("core/scale_up: unexpected failure during scale-up: %v", rec)
			notify(r.config, "Aurora autoscaler: scale-up failed",
				fmt.Sprintf("Unexpected failure during scale-up for cluster %s: %v",
					r.config.ClusterID, rec))
			result = &structs.Result{
				Status:  structs.ResultInternalError,
				Message: fmt.Sprintf("unexpected failure during scale-up: %v", rec),
			}
		}
	}()

	logging.Info("core/scale_up: insufficient capacity event received for "+
		"cluster %v, evaluating reader placement", r.config.ClusterID)

	distribution, err := readerDistribution(ctx, r.config)
	if err != nil {
		logging.Error("core/scale_up: unable to compute the reader "+
			"distribution: %v", err)
		notify(r.config, "Aurora autoscaler: scale-up failed",
			fmt.Sprintf("Unable to compute the reader distribution for cluster %s: %v",
				r.config.ClusterID, err))
		return &structs.Result{
			Status:  structs.ResultInternalError,
			Message: fmt.Sprintf("unable to compute the reader distribution: %v", err),
		}
	}

	zones := sortZonesByReaderCount(distribution, r.config.ScaleUp.AvailabilityZones)
	plan := newPlacementPlan(r.config.ScaleUp, zones)

	for candidate, ok := plan.next(); ok; candidate, ok = plan.next() {
		if !probeCapacity(ctx, r.config, candidate.InstanceType, candidate.AvailabilityZone) {
			continue
		}

		if result := r.provision(ctx, candidate); result != nil {
			return result
		}
	}

	// The candidate stream is exhausted without a single viable placement.
	// This is an expected outcome during a capacity squeeze, not a defect.
	logging.Warning("core/scale_up: no capacity available for any configured "+
		"instance type in any availability zone")
	metrics.IncrCounter([]string{"scaleup", "no_capacity"}, 1)

	notify(r.config, "Aurora autoscaler: no capacity available",
		fmt.Sprintf("Unable to provision a new reader for cluster %s: no capacity "+
			"was available for any configured instance type in any availability zone.",
			r.config.ClusterID))

	return &structs.Result{
		Status: structs.ResultNotFound,
		Message: "no capacity available for any configured instance type in " +
			"any availability zone",
	}
}

// provision requests one new reader for the candidate placement and arms
// the periodic CPU check on success. A provisioning failure is non-fatal;
// nil is returned so the caller advances to the next candidate.
func (r *ScaleUpRunner) provision(ctx context.Context, candidate structs.PlacementCandidate) *structs.Result {
	id := generateReaderID()

	req := &structs.CreateReaderRequest{
		ID:               id,
		ClusterID:        r.config.ClusterID,
		InstanceClass:    "db." + candidate.InstanceType,
		AvailabilityZone: candidate.AvailabilityZone,
		Engine:           r.config.ScaleUp.Engine,
		PromotionTier:    r.config.ScaleUp.ReaderTier,
		Tags:             buildInstanceTags(r.config, candidate),
	}

	if err := r.config.Database.CreateReader(ctx, req); err != nil {
		logging.Error("core/scale_up: provisioning %v (%v) in %v failed, "+
			"moving to the next candidate: %v", id, candidate.InstanceType,
			candidate.AvailabilityZone, err)
		metrics.IncrCounter([]string{"scaleup", "provision", "failure"}, 1)

		notify(r.config, "Aurora autoscaler: reader provisioning failed",
			fmt.Sprintf("Provisioning reader %s (%s) in %s for cluster %s failed: %v\n\n"+
				"The next placement candidate will be tried.", id, candidate.InstanceType,
				candidate.AvailabilityZone, r.config.ClusterID, err))

		return nil
	}

	logging.Info("core/scale_up: reader %v (%v) is being created in %v for "+
		"cluster %v", id, candidate.InstanceType, candidate.AvailabilityZone,
		r.config.ClusterID)
	metrics.IncrCounter([]string{"scaleup", "provision", "success"}, 1)

	// Arm the periodic CPU check so the new reader is evaluated for removal
	// once the pool quietens down. Failures are logged inside and never
	// taint a successful scale-up.
	ensureScheduleEnabled(ctx, r.config)

	notify(r.config, "Aurora autoscaler: reader created",
		fmt.Sprintf("A new reader is being provisioned for cluster %s.\n\n"+
			"Identifier: %s\nInstance type: %s\nAvailability zone: %s\n\n"+
			"The instance will become available in a few minutes.",
			r.config.ClusterID, id, candidate.InstanceType, candidate.AvailabilityZone))

	return &structs.Result{
		Status: structs.ResultSuccess,
		Message: fmt.Sprintf("reader %s (%s) is being created in %s", id,
			candidate.InstanceType, candidate.AvailabilityZone),
		InstanceID:       id,
		InstanceType:     candidate.InstanceType,
		AvailabilityZone: candidate.AvailabilityZone,
	}
}

// generateReaderID returns a fresh reader identifier encoding the creation
// time and a short random suffix, for example
// lambda-aurora-reader-20260825-141502-a3f09b. Identifiers are never
// reused across invocations.
func generateReaderID() string {
	return fmt.Sprintf("%s%s-%s", readerNamePrefix,
		time.Now().UTC().Format("20060102-150405"), randstr.Hex(6))
}

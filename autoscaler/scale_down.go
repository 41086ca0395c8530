package autoscaler

import (
	"context"
	"fmt"
	"strings"
	"time"

	metrics "github.com/armon/go-metrics"
	"github.com/dustin/go-humanize"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
)

// ScaleDownRunner drives one scale-down evaluation end to end: pool CPU
// aggregation, candidate selection, ownership verification and removal of
// at most one reader per invocation.
type ScaleDownRunner struct {
	config *structs.Config
}

// NewScaleDownRunner returns a runner for one scale-down invocation.
func NewScaleDownRunner(config *structs.Config) *ScaleDownRunner {
	return &ScaleDownRunner{config: config}
}

// Run performs a single scale-down pass and always returns a structured
// result. The pool shrinks by at most one reader per invocation; the
// schedule fires again if further reduction is warranted. Whatever path
// the evaluation takes, the periodic schedule is reconciled on the way
// out so it never keeps firing against a pool with nothing left to manage.
func (r *ScaleDownRunner) Run(ctx context.Context) (result *structs.Result) {
	defer metrics.MeasureSince([]string{"scaledown", "run"}, time.Now())

	// The reconciliation snapshot is populated once the pool listing has
	// been fetched. Exits before that point reconcile against an empty
	// snapshot, which disables the schedule; the next scale-up re-arms it.
	var snapshot []*structs.DBInstance

	defer func() {
		if rec := recover(); rec != nil {
			logging.Error("core/scale_down: unexpected failure during "+
				"scale-down: %v", rec)
			notify(r.config, "Aurora autoscaler: scale-down failed",
				fmt.Sprintf("Unexpected failure during scale-down for cluster %s: %v",
					r.config.ClusterID, rec))
			result = &structs.Result{
				Status:  structs.ResultInternalError,
				Message: fmt.Sprintf("unexpected failure during scale-down: %v", rec),
			}
		}

		reconcileScheduler(ctx, r.config, snapshot)
	}()

	members, err := r.config.Database.ListClusterMembers(ctx, r.config.ClusterID)
	if err != nil {
		logging.Error("core/scale_down: unable to list the members of cluster "+
			"%v: %v", r.config.ClusterID, err)
		notify(r.config, "Aurora autoscaler: scale-down failed",
			fmt.Sprintf("Unable to list the members of cluster %s: %v",
				r.config.ClusterID, err))
		return &structs.Result{
			Status:  structs.ResultInternalError,
			Message: fmt.Sprintf("unable to list cluster members: %v", err),
		}
	}

	writers := make(map[string]bool)
	readerIDs := make([]string, 0, len(members))

	for _, member := range members {
		if member.IsWriter {
			writers[member.ID] = true
			continue
		}
		readerIDs = append(readerIDs, member.ID)
	}

	if len(readerIDs) == 0 {
		logging.Info("core/scale_down: cluster %v has no readers, nothing to "+
			"evaluate", r.config.ClusterID)
		notify(r.config, "Aurora autoscaler: no readers to evaluate",
			fmt.Sprintf("Cluster %s has no reader instances, so there is nothing "+
				"to evaluate for removal.", r.config.ClusterID))
		return &structs.Result{
			Status:  structs.ResultNoAction,
			Message: "the cluster has no readers to evaluate",
		}
	}

	util, err := aggregateReaderCPU(ctx, r.config, readerIDs)
	if err != nil {
		logging.Error("core/scale_down: unable to aggregate reader CPU "+
			"utilization: %v", err)
		notify(r.config, "Aurora autoscaler: scale-down failed",
			fmt.Sprintf("Unable to aggregate the CPU utilization of the readers "+
				"in cluster %s: %v", r.config.ClusterID, err))
		return &structs.Result{
			Status:  structs.ResultInternalError,
			Message: fmt.Sprintf("unable to aggregate reader CPU utilization: %v", err),
		}
	}

	// No datapoints means no decision. Freshly created readers can lag a
	// few minutes before CloudWatch has samples for them.
	if util.Datapoints == 0 {
		logging.Info("core/scale_down: no CPU datapoints are available for the "+
			"readers of cluster %v, deferring the decision", r.config.ClusterID)
		notify(r.config, "Aurora autoscaler: no CPU data",
			fmt.Sprintf("No CPU datapoints are available for the readers of "+
				"cluster %s over the last %d minutes. The decision is deferred "+
				"until samples arrive.", r.config.ClusterID,
				r.config.ScaleDown.LookbackMinutes))
		return &structs.Result{
			Status:  structs.ResultNoAction,
			Message: "no CPU datapoints are available for the reader pool",
		}
	}

	if util.Average >= r.config.ScaleDown.CPUThreshold {
		logging.Debug("core/scale_down: pool CPU utilization %.2f%% is at or "+
			"above the %.2f%% threshold, the pool is kept as is", util.Average,
			r.config.ScaleDown.CPUThreshold)
		notify(r.config, "Aurora autoscaler: no action needed",
			fmt.Sprintf("Pool CPU utilization %.2f%% is at or above the %.2f%% "+
				"threshold for cluster %s, the pool is kept as is. Analyzed %d "+
				"datapoints from %d readers.", util.Average,
				r.config.ScaleDown.CPUThreshold, r.config.ClusterID,
				util.Datapoints, util.SampledReaders))
		return &structs.Result{
			Status: structs.ResultNoAction,
			Message: fmt.Sprintf("pool CPU utilization %.2f%% is at or above the "+
				"%.2f%% threshold", util.Average, r.config.ScaleDown.CPUThreshold),
		}
	}

	logging.Info("core/scale_down: pool CPU utilization %.2f%% is below the "+
		"%.2f%% threshold, evaluating removal candidates", util.Average,
		r.config.ScaleDown.CPUThreshold)

	instances, err := r.config.Database.ListInstances(ctx)
	if err != nil {
		logging.Error("core/scale_down: unable to list the database instances: "+
			"%v", err)
		notify(r.config, "Aurora autoscaler: scale-down failed",
			fmt.Sprintf("Unable to list the database instances while evaluating "+
				"cluster %s: %v", r.config.ClusterID, err))
		return &structs.Result{
			Status:  structs.ResultInternalError,
			Message: fmt.Sprintf("unable to list database instances: %v", err),
		}
	}
	snapshot = instances

	candidates := removalCandidates(r.config, instances, writers)
	if len(candidates) == 0 {
		logging.Info("core/scale_down: the pool is underutilized but holds no "+
			"removable reader, nothing to do")
		notify(r.config, "Aurora autoscaler: no removable reader",
			fmt.Sprintf("The reader pool of cluster %s is underutilized at %.2f%% "+
				"CPU but holds no reader the autoscaler may remove.",
				r.config.ClusterID, util.Average))
		return &structs.Result{
			Status:  structs.ResultNoAction,
			Message: "the pool holds no removable reader",
		}
	}

	candidate := newestInstance(candidates)

	// Last line of defense before a destructive call. A candidate whose
	// ownership cannot be positively verified is never touched.
	if !verifyOwnership(ctx, r.config, candidate.ID) {
		metrics.IncrCounter([]string{"scaledown", "blocked"}, 1)
		logging.Warning("core/scale_down: removal of %v was blocked, ownership "+
			"of the instance could not be verified", candidate.ID)

		notify(r.config, "Aurora autoscaler: reader removal blocked",
			fmt.Sprintf("Removal of reader %s in cluster %s was blocked because its "+
				"ownership tags could not be verified. The instance was not touched "+
				"and should be inspected manually.", candidate.ID, r.config.ClusterID))

		return &structs.Result{
			Status: structs.ResultBlocked,
			Message: fmt.Sprintf("removal of %s was blocked, instance ownership "+
				"could not be verified", candidate.ID),
			InstanceID: candidate.ID,
		}
	}

	if err := r.config.Database.DeleteInstance(ctx, candidate.ID); err != nil {
		logging.Error("core/scale_down: unable to delete reader %v: %v",
			candidate.ID, err)
		metrics.IncrCounter([]string{"scaledown", "delete", "failure"}, 1)

		notify(r.config, "Aurora autoscaler: reader removal failed",
			fmt.Sprintf("Deleting reader %s in cluster %s failed: %v", candidate.ID,
				r.config.ClusterID, err))

		return &structs.Result{
			Status:     structs.ResultInternalError,
			Message:    fmt.Sprintf("unable to delete reader %s: %v", candidate.ID, err),
			InstanceID: candidate.ID,
		}
	}

	logging.Info("core/scale_down: reader %v (%v) in %v is being removed from "+
		"cluster %v", candidate.ID, strings.TrimPrefix(candidate.Class, "db."),
		candidate.AvailabilityZone, r.config.ClusterID)
	metrics.IncrCounter([]string{"scaledown", "delete", "success"}, 1)

	notify(r.config, "Aurora autoscaler: reader removed",
		fmt.Sprintf("Reader %s is being removed from cluster %s.\n\n"+
			"Instance type: %s\nAvailability zone: %s\nInstance age: created %s\n\n"+
			"Pool CPU utilization over the last %d minutes was %.2f%% across %d "+
			"datapoints from %d readers, below the %.2f%% threshold.", candidate.ID,
			r.config.ClusterID, strings.TrimPrefix(candidate.Class, "db."),
			candidate.AvailabilityZone, humanize.Time(candidate.CreateTime),
			r.config.ScaleDown.LookbackMinutes, util.Average, util.Datapoints,
			util.SampledReaders, r.config.ScaleDown.CPUThreshold))

	return &structs.Result{
		Status: structs.ResultSuccess,
		Message: fmt.Sprintf("reader %s is being removed, pool CPU utilization "+
			"%.2f%% was below the %.2f%% threshold", candidate.ID, util.Average,
			r.config.ScaleDown.CPUThreshold),
		InstanceID:       candidate.ID,
		InstanceType:     strings.TrimPrefix(candidate.Class, "db."),
		AvailabilityZone: candidate.AvailabilityZone,
	}
}

// removalCandidates filters the pool listing down to readers the
// autoscaler is allowed to remove: instances it named, currently
// available, with a known creation time, and never the cluster writer.
func removalCandidates(config *structs.Config, instances []*structs.DBInstance, writers map[string]bool) []*structs.DBInstance {
	out := make([]*structs.DBInstance, 0, len(instances))

	for _, instance := range instances {
		if !strings.HasPrefix(instance.ID, readerNamePrefix) {
			continue
		}
		if instance.Status != structs.InstanceStatusAvailable {
			logging.Debug("core/scale_down: %v is in status %v and is not a "+
				"removal candidate", instance.ID, instance.Status)
			continue
		}
		if instance.CreateTime.IsZero() {
			continue
		}
		if writers[instance.ID] {
			logging.Warning("core/scale_down: %v carries the reader name prefix "+
				"but is the cluster writer, skipping it", instance.ID)
			continue
		}
		out = append(out, instance)
	}

	return out
}

// newestInstance returns the most recently created instance. Creation time
// ties are broken by the lexically greater identifier so the selection is
// deterministic; identifiers embed their creation timestamp, making the
// two orderings agree in practice.
func newestInstance(instances []*structs.DBInstance) *structs.DBInstance {
	newest := instances[0]

	for _, instance := range instances[1:] {
		if instance.CreateTime.After(newest.CreateTime) {
			newest = instance
			continue
		}
		if instance.CreateTime.Equal(newest.CreateTime) && instance.ID > newest.ID {
			newest = instance
		}
	}

	return newest
}

package autoscaler

import (
	"context"
	"errors"
	"strings"

	metrics "github.com/armon/go-metrics"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
)

// reconcileScheduler applies the hysteresis rule for the periodic CPU
// check: the schedule stays enabled while verified owned readers remain in
// the fleet snapshot and is disabled once none are left, so an idle
// cluster stops paying for a tick that has nothing to evaluate. The
// snapshot may be empty or partial; reconciliation works with whatever
// view the caller had at the point of exit. Every failure in here is
// demoted to a warning because scheduler housekeeping must never fail the
// surrounding control loop.
func reconcileScheduler(ctx context.Context, config *structs.Config, snapshot []*structs.DBInstance) {
	owned := 0

	for _, instance := range snapshot {
		if !strings.HasPrefix(instance.ID, readerNamePrefix) {
			continue
		}

		if instance.Status == structs.InstanceStatusDeleting {
			continue
		}

		if verifyOwnership(ctx, config, instance.ID) {
			owned++
		}
	}

	if owned > 0 {
		logging.Debug("core/scheduler: %v owned readers remain, the CPU check "+
			"schedule should stay enabled", owned)
		ensureScheduleEnabled(ctx, config)
		return
	}

	logging.Info("core/scheduler: no owned readers remain, the CPU check " +
		"schedule should be disabled")
	ensureScheduleDisabled(ctx, config)
}

// ensureScheduleEnabled idempotently moves the CPU check schedule to the
// enabled state. Scale-up arms the schedule through this after provisioning
// a reader so the new capacity is evaluated for removal once the pool
// quietens down.
func ensureScheduleEnabled(ctx context.Context, config *structs.Config) {
	setScheduleState(ctx, config, structs.ScheduleStateEnabled)
}

// ensureScheduleDisabled idempotently moves the CPU check schedule to the
// disabled state.
func ensureScheduleDisabled(ctx context.Context, config *structs.Config) {
	setScheduleState(ctx, config, structs.ScheduleStateDisabled)
}

// setScheduleState is the idempotent transition shared by both directions.
// The current state is read first so repeated calls produce no additional
// updates, and a schedule that does not exist is logged and tolerated.
func setScheduleState(ctx context.Context, config *structs.Config, desired string) {
	name := config.ScaleDown.ScheduleName
	group := config.ScaleDown.ScheduleGroup

	current, err := config.Scheduler.ScheduleState(ctx, name, group)
	if err != nil {
		if errors.Is(err, structs.ErrScheduleNotFound) {
			logging.Warning("core/scheduler: schedule %v does not exist, "+
				"skipping reconciliation", name)
		} else {
			logging.Warning("core/scheduler: unable to read the state of "+
				"schedule %v: %v", name, err)
		}
		return
	}

	if current == desired {
		logging.Debug("core/scheduler: schedule %v is already %v", name, desired)
		return
	}

	if err := config.Scheduler.SetScheduleState(ctx, name, group, desired); err != nil {
		logging.Warning("core/scheduler: unable to move schedule %v to state "+
			"%v: %v", name, desired, err)
		return
	}

	metrics.IncrCounter([]string{"scheduler", strings.ToLower(desired)}, 1)
	logging.Info("core/scheduler: schedule %v is now %v", name, desired)
}

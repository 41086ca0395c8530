package structs

import "context"

const (
	// ScheduleStateEnabled is the state of a schedule that fires.
	ScheduleStateEnabled = "ENABLED"

	// ScheduleStateDisabled is the state of a schedule that is paused.
	ScheduleStateDisabled = "DISABLED"
)

// SchedulerClient is the interface required of the trigger scheduler that
// fires the periodic CPU check.
type SchedulerClient interface {
	// ScheduleState returns the current state of the named schedule.
	// ErrScheduleNotFound is returned, possibly wrapped, when the schedule
	// does not exist.
	ScheduleState(ctx context.Context, name, group string) (string, error)

	// SetScheduleState moves the named schedule to the given state while
	// preserving its existing schedule expression, time window and target.
	SetScheduleState(ctx context.Context, name, group, state string) error
}

package client

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/scheduler"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
)

// schedulerClient is an EventBridge Scheduler backed implementation of the
// SchedulerClient interface.
type schedulerClient struct {
	scheduler *scheduler.Scheduler
}

// NewSchedulerClient is a factory function that generates a new EventBridge
// Scheduler backed client for managing the periodic CPU check trigger.
func NewSchedulerClient(region string) (structs.SchedulerClient, error) {
	if region == "" {
		return nil, fmt.Errorf("aws_region is required to setup the scheduler client")
	}

	sess := session.Must(session.NewSession())
	svc := scheduler.New(sess, &aws.Config{Region: aws.String(region)})

	return &schedulerClient{scheduler: svc}, nil
}

// ScheduleState returns the current state of the named schedule.
func (s *schedulerClient) ScheduleState(ctx context.Context, name, group string) (string, error) {
	resp, err := s.getSchedule(ctx, name, group)
	if err != nil {
		return "", err
	}

	return aws.StringValue(resp.State), nil
}

// SetScheduleState moves the named schedule to the given state. The update
// call replaces the whole schedule resource, so the existing schedule
// expression, flexible time window and target are read first and submitted
// back unchanged.
func (s *schedulerClient) SetScheduleState(ctx context.Context, name, group, state string) error {
	resp, err := s.getSchedule(ctx, name, group)
	if err != nil {
		return err
	}

	params := &scheduler.UpdateScheduleInput{
		Name:                       resp.Name,
		GroupName:                  resp.GroupName,
		ScheduleExpression:         resp.ScheduleExpression,
		ScheduleExpressionTimezone: resp.ScheduleExpressionTimezone,
		FlexibleTimeWindow:         resp.FlexibleTimeWindow,
		Target:                     resp.Target,
		Description:                resp.Description,
		StartDate:                  resp.StartDate,
		EndDate:                    resp.EndDate,
		KmsKeyArn:                  resp.KmsKeyArn,
		State:                      aws.String(state),
	}

	if _, err := s.scheduler.UpdateScheduleWithContext(ctx, params); err != nil {
		if isScheduleNotFound(err) {
			return fmt.Errorf("schedule %v: %w", name, structs.ErrScheduleNotFound)
		}
		return fmt.Errorf("unable to update schedule %v: %v", name, err)
	}

	logging.Info("client/scheduler: schedule %v moved to state %v", name, state)
	return nil
}

func (s *schedulerClient) getSchedule(ctx context.Context, name, group string) (*scheduler.GetScheduleOutput, error) {
	params := &scheduler.GetScheduleInput{
		Name: aws.String(name),
	}
	if group != "" {
		params.GroupName = aws.String(group)
	}

	resp, err := s.scheduler.GetScheduleWithContext(ctx, params)
	if err != nil {
		if isScheduleNotFound(err) {
			return nil, fmt.Errorf("schedule %v: %w", name, structs.ErrScheduleNotFound)
		}
		return nil, fmt.Errorf("unable to get schedule %v: %v", name, err)
	}

	return resp, nil
}

// isScheduleNotFound reports whether the error is the scheduler API's
// resource not found condition.
func isScheduleNotFound(err error) bool {
	if awsErr, ok := err.(awserr.Error); ok {
		return awsErr.Code() == scheduler.ErrCodeResourceNotFoundException
	}
	return false
}

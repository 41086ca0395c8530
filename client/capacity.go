package client

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
)

// insufficientCapacityCode is the EC2 error code that explicitly reports
// the absence of capacity for the requested instance type and zone.
const insufficientCapacityCode = "InsufficientInstanceCapacity"

// capacityClient is an EC2 capacity reservation backed implementation of
// the CapacityClient interface.
type capacityClient struct {
	ec2 *ec2.EC2
}

// NewCapacityClient is a factory function that generates a new EC2 backed
// capacity client used to probe for available compute capacity.
func NewCapacityClient(region string) (structs.CapacityClient, error) {
	if region == "" {
		return nil, fmt.Errorf("aws_region is required to setup the capacity client")
	}

	sess := session.Must(session.NewSession())
	svc := ec2.New(sess, &aws.Config{Region: aws.String(region)})

	return &capacityClient{ec2: svc}, nil
}

// ReserveCapacity places a targeted on-demand capacity reservation for
// exactly one instance of the given type in the given zone. The reservation
// is expected to be released immediately by the caller; it exists purely to
// answer whether capacity is available right now.
func (c *capacityClient) ReserveCapacity(ctx context.Context, instanceType, zone string) (string, error) {
	params := &ec2.CreateCapacityReservationInput{
		InstanceType:          aws.String(instanceType),
		InstancePlatform:      aws.String(ec2.CapacityReservationInstancePlatformLinuxUnix),
		AvailabilityZone:      aws.String(zone),
		InstanceCount:         aws.Int64(1),
		Tenancy:               aws.String(ec2.CapacityReservationTenancyDefault),
		EbsOptimized:          aws.Bool(true),
		EphemeralStorage:      aws.Bool(false),
		EndDateType:           aws.String(ec2.EndDateTypeUnlimited),
		InstanceMatchCriteria: aws.String(ec2.InstanceMatchCriteriaTargeted),
		TagSpecifications: []*ec2.TagSpecification{
			{
				ResourceType: aws.String(ec2.ResourceTypeCapacityReservation),
				Tags: []*ec2.Tag{
					{
						Key:   aws.String("ManagedBy"),
						Value: aws.String("aurora-autoscaler"),
					},
					{
						Key:   aws.String("Purpose"),
						Value: aws.String("capacity-probe"),
					},
				},
			},
		},
	}

	resp, err := c.ec2.CreateCapacityReservationWithContext(ctx, params)
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == insufficientCapacityCode {
			return "", fmt.Errorf("no capacity for %v in %v: %w",
				instanceType, zone, structs.ErrInsufficientCapacity)
		}
		return "", err
	}

	reservationID := aws.StringValue(resp.CapacityReservation.CapacityReservationId)
	logging.Debug("client/capacity: placed probe reservation %v for %v in %v",
		reservationID, instanceType, zone)

	return reservationID, nil
}

// ReleaseCapacity cancels a reservation previously placed by
// ReserveCapacity so the probe never holds capacity.
func (c *capacityClient) ReleaseCapacity(ctx context.Context, reservationID string) error {
	params := &ec2.CancelCapacityReservationInput{
		CapacityReservationId: aws.String(reservationID),
	}

	if _, err := c.ec2.CancelCapacityReservationWithContext(ctx, params); err != nil {
		return fmt.Errorf("unable to cancel capacity reservation %v: %v", reservationID, err)
	}

	logging.Debug("client/capacity: released probe reservation %v", reservationID)
	return nil
}

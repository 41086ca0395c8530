package client

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rds"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
)

// databaseClient is an RDS backed implementation of the DatabaseClient
// interface, covering the instance directory, the provisioner and the
// deprovisioner.
type databaseClient struct {
	rds *rds.RDS
}

// NewDatabaseClient is a factory function that generates a new RDS backed
// database client for use across all calls as required.
func NewDatabaseClient(region string) (structs.DatabaseClient, error) {
	if region == "" {
		return nil, fmt.Errorf("aws_region is required to setup the database client")
	}

	sess := session.Must(session.NewSession())
	svc := rds.New(sess, &aws.Config{Region: aws.String(region)})

	return &databaseClient{rds: svc}, nil
}

// ListInstances returns every database instance visible in the region.
func (c *databaseClient) ListInstances(ctx context.Context) ([]*structs.DBInstance, error) {
	resp, err := c.rds.DescribeDBInstancesWithContext(ctx, &rds.DescribeDBInstancesInput{})
	if err != nil {
		return nil, fmt.Errorf("unable to describe database instances: %v", err)
	}

	instances := make([]*structs.DBInstance, 0, len(resp.DBInstances))
	for _, instance := range resp.DBInstances {
		instances = append(instances, &structs.DBInstance{
			ID:               aws.StringValue(instance.DBInstanceIdentifier),
			ClusterID:        aws.StringValue(instance.DBClusterIdentifier),
			Class:            aws.StringValue(instance.DBInstanceClass),
			AvailabilityZone: aws.StringValue(instance.AvailabilityZone),
			Status:           aws.StringValue(instance.DBInstanceStatus),
			CreateTime:       aws.TimeValue(instance.InstanceCreateTime),
		})
	}

	return instances, nil
}

// ListClusterMembers returns the member entries of the named cluster along
// with their writer flags.
func (c *databaseClient) ListClusterMembers(ctx context.Context, clusterID string) ([]*structs.ClusterMember, error) {
	params := &rds.DescribeDBClustersInput{
		DBClusterIdentifier: aws.String(clusterID),
	}

	resp, err := c.rds.DescribeDBClustersWithContext(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("unable to describe database cluster %v: %v", clusterID, err)
	}

	if len(resp.DBClusters) == 0 {
		return nil, fmt.Errorf("database cluster %v not found", clusterID)
	}

	members := make([]*structs.ClusterMember, 0, len(resp.DBClusters[0].DBClusterMembers))
	for _, member := range resp.DBClusters[0].DBClusterMembers {
		members = append(members, &structs.ClusterMember{
			ID:       aws.StringValue(member.DBInstanceIdentifier),
			IsWriter: aws.BoolValue(member.IsClusterWriter),
		})
	}

	return members, nil
}

// CreateReader provisions a new reader instance in the cluster. The create
// call returns as soon as the request is accepted; the instance becomes
// available minutes later, out of band. Readers are never publicly
// accessible and always copy their tags to snapshots.
func (c *databaseClient) CreateReader(ctx context.Context, req *structs.CreateReaderRequest) error {
	tags := make([]*rds.Tag, 0, len(req.Tags))
	for key, value := range req.Tags {
		tags = append(tags, &rds.Tag{
			Key:   aws.String(key),
			Value: aws.String(value),
		})
	}

	params := &rds.CreateDBInstanceInput{
		DBInstanceIdentifier: aws.String(req.ID),
		DBClusterIdentifier:  aws.String(req.ClusterID),
		DBInstanceClass:      aws.String(req.InstanceClass),
		Engine:               aws.String(req.Engine),
		AvailabilityZone:     aws.String(req.AvailabilityZone),
		PromotionTier:        aws.Int64(int64(req.PromotionTier)),
		PubliclyAccessible:   aws.Bool(false),
		CopyTagsToSnapshot:   aws.Bool(true),
		Tags:                 tags,
	}

	logging.Info("client/rds: creating reader instance %v (%v) in %v for cluster %v",
		req.ID, req.InstanceClass, req.AvailabilityZone, req.ClusterID)

	if _, err := c.rds.CreateDBInstanceWithContext(ctx, params); err != nil {
		return fmt.Errorf("unable to create reader instance %v: %v", req.ID, err)
	}

	return nil
}

// DeleteInstance removes the instance, skipping the final snapshot and
// deleting automated backups. Issuing the call twice is harmless; the second
// attempt fails against an already deleting instance and the error is simply
// returned.
func (c *databaseClient) DeleteInstance(ctx context.Context, id string) error {
	params := &rds.DeleteDBInstanceInput{
		DBInstanceIdentifier:   aws.String(id),
		SkipFinalSnapshot:      aws.Bool(true),
		DeleteAutomatedBackups: aws.Bool(true),
	}

	logging.Info("client/rds: deleting instance %v", id)

	if _, err := c.rds.DeleteDBInstanceWithContext(ctx, params); err != nil {
		return fmt.Errorf("unable to delete instance %v: %v", id, err)
	}

	return nil
}

// InstanceTags resolves the current tag set of the instance by looking up
// its ARN and listing the tags attached to it.
func (c *databaseClient) InstanceTags(ctx context.Context, id string) (map[string]string, error) {
	params := &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(id),
	}

	resp, err := c.rds.DescribeDBInstancesWithContext(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("unable to describe database instance %v: %v", id, err)
	}

	if len(resp.DBInstances) == 0 {
		return nil, fmt.Errorf("database instance %v not found", id)
	}

	arn := aws.StringValue(resp.DBInstances[0].DBInstanceArn)

	tagResp, err := c.rds.ListTagsForResourceWithContext(ctx, &rds.ListTagsForResourceInput{
		ResourceName: aws.String(arn),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list tags for instance %v: %v", id, err)
	}

	tags := make(map[string]string, len(tagResp.TagList))
	for _, tag := range tagResp.TagList {
		tags[aws.StringValue(tag.Key)] = aws.StringValue(tag.Value)
	}

	return tags, nil
}

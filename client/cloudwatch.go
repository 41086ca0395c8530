package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"

	"github.com/aws-samples/sample-ManagedAutoScaler/autoscaler/structs"
	"github.com/aws-samples/sample-ManagedAutoScaler/logging"
)

const (
	rdsMetricNamespace  = "AWS/RDS"
	cpuUtilizationName  = "CPUUtilization"
	instanceIDDimension = "DBInstanceIdentifier"
)

// metricsClient is a CloudWatch backed implementation of the MetricsClient
// interface.
type metricsClient struct {
	cloudwatch *cloudwatch.CloudWatch
}

// NewMetricsClient is a factory function that generates a new CloudWatch
// backed metrics client for querying reader pool utilization.
func NewMetricsClient(region string) (structs.MetricsClient, error) {
	if region == "" {
		return nil, fmt.Errorf("aws_region is required to setup the metrics client")
	}

	sess := session.Must(session.NewSession())
	svc := cloudwatch.New(sess, &aws.Config{Region: aws.String(region)})

	return &metricsClient{cloudwatch: svc}, nil
}

// ReaderCPUSamples issues one batched GetMetricData query covering every
// given instance identifier over the window ending now, and returns the raw
// period-average CPU samples keyed by identifier. Identifiers with no
// datapoints are absent from the result.
func (m *metricsClient) ReaderCPUSamples(ctx context.Context, ids []string, window, period time.Duration) (map[string][]float64, error) {
	end := time.Now().UTC()
	start := end.Add(-window)

	queries := make([]*cloudwatch.MetricDataQuery, 0, len(ids))
	for i, id := range ids {
		queries = append(queries, &cloudwatch.MetricDataQuery{
			Id: aws.String(fmt.Sprintf("m%d", i)),
			MetricStat: &cloudwatch.MetricStat{
				Metric: &cloudwatch.Metric{
					Namespace:  aws.String(rdsMetricNamespace),
					MetricName: aws.String(cpuUtilizationName),
					Dimensions: []*cloudwatch.Dimension{
						{
							Name:  aws.String(instanceIDDimension),
							Value: aws.String(id),
						},
					},
				},
				Period: aws.Int64(int64(period / time.Second)),
				Stat:   aws.String(cloudwatch.StatisticAverage),
			},
			ReturnData: aws.Bool(true),
		})
	}

	params := &cloudwatch.GetMetricDataInput{
		MetricDataQueries: queries,
		StartTime:         aws.Time(start),
		EndTime:           aws.Time(end),
	}

	resp, err := m.cloudwatch.GetMetricDataWithContext(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("unable to query CPU utilization metrics: %v", err)
	}

	samples := make(map[string][]float64)
	for _, result := range resp.MetricDataResults {
		// Map the query id back onto the instance identifier it was built
		// from.
		idx, err := strconv.Atoi(strings.TrimPrefix(aws.StringValue(result.Id), "m"))
		if err != nil || idx < 0 || idx >= len(ids) {
			logging.Warning("client/cloudwatch: discarding metric result with "+
				"unexpected query id %v", aws.StringValue(result.Id))
			continue
		}

		values := aws.Float64ValueSlice(result.Values)
		if len(values) == 0 {
			continue
		}

		samples[ids[idx]] = append(samples[ids[idx]], values...)
	}

	return samples, nil
}

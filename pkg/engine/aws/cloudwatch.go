package aws

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/aqkprogrammer/finops-saas/pkg/resource"
)

// MetricsWindow is the rolling window for utilization enrichment.
const MetricsWindow = 7 * 24 * time.Hour

// CloudWatchAPI is the metrics surface the instance collector needs.
type CloudWatchAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// MetricsClient retrieves instance utilization metrics.
type MetricsClient struct {
	Client CloudWatchAPI
}

func NewMetricsClient(cfg aws.Config) *MetricsClient {
	return &MetricsClient{
		Client: cloudwatch.NewFromConfig(cfg),
	}
}

// GetCPUAverage returns the rolling 7-day average CPU utilization for an
// instance. A nil result with nil error means no datapoints were available,
// which callers treat as "metric absent", not a failure.
func (c *MetricsClient) GetCPUAverage(ctx context.Context, instanceID string) (*resource.CPUUtilization, error) {
	endTime := time.Now().UTC()
	startTime := endTime.Add(-MetricsWindow)

	result, err := c.Client.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/EC2"),
		MetricName: aws.String("CPUUtilization"),
		Dimensions: []types.Dimension{
			{Name: aws.String("InstanceId"), Value: aws.String(instanceID)},
		},
		StartTime:  aws.Time(startTime),
		EndTime:    aws.Time(endTime),
		Period:     aws.Int32(86400), // Daily datapoints.
		Statistics: []types.Statistic{types.StatisticAverage},
	})
	if err != nil {
		return nil, classify(err, "failed to get metric statistics", ErrUnknown)
	}

	if len(result.Datapoints) == 0 {
		return nil, nil
	}

	sum := 0.0
	count := 0
	for _, dp := range result.Datapoints {
		if dp.Average != nil {
			sum += *dp.Average
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}

	return &resource.CPUUtilization{
		Average: sum / float64(count),
		Window:  "7d",
	}, nil
}

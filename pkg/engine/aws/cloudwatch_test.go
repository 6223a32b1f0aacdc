package aws

import (
	"context"
	"math"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// mockCloudWatch implements CloudWatchAPI for testing.
type mockCloudWatch struct {
	GetMetricStatisticsFunc func(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

func (m *mockCloudWatch) GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
	return m.GetMetricStatisticsFunc(ctx, params, optFns...)
}

func TestGetCPUAverageMeansDatapoints(t *testing.T) {
	client := &MetricsClient{
		Client: &mockCloudWatch{
			GetMetricStatisticsFunc: func(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
				return &cloudwatch.GetMetricStatisticsOutput{
					Datapoints: []types.Datapoint{
						{Average: awssdk.Float64(2.0)},
						{Average: awssdk.Float64(4.0)},
						{Average: awssdk.Float64(6.0)},
					},
				}, nil
			},
		},
	}

	cpu, err := client.GetCPUAverage(context.Background(), "i-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cpu == nil {
		t.Fatal("expected a utilization value")
	}
	if math.Abs(cpu.Average-4.0) > 1e-9 {
		t.Errorf("Average = %.2f, want 4.00", cpu.Average)
	}
	if cpu.Window != "7d" {
		t.Errorf("Window = %q, want 7d", cpu.Window)
	}
}

func TestGetCPUAverageNoDatapoints(t *testing.T) {
	client := &MetricsClient{
		Client: &mockCloudWatch{
			GetMetricStatisticsFunc: func(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
				return &cloudwatch.GetMetricStatisticsOutput{}, nil
			},
		},
	}

	cpu, err := client.GetCPUAverage(context.Background(), "i-fresh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cpu != nil {
		t.Errorf("expected nil utilization for an instance with no metric history, got %+v", cpu)
	}
}

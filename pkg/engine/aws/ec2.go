package aws

import (
	"context"
	"log/slog"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/aqkprogrammer/finops-saas/pkg/resource"
)

// EC2InstanceAPI is the EC2 surface the instance collector needs.
type EC2InstanceAPI interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// CPUProvider supplies the optional utilization enrichment.
type CPUProvider interface {
	GetCPUAverage(ctx context.Context, instanceID string) (*resource.CPUUtilization, error)
}

// InstanceCollector maps EC2 instance listings into normalized records.
type InstanceCollector struct {
	Client    EC2InstanceAPI
	Metrics   CPUProvider
	Logger    *slog.Logger
	Region    string
	AccountID string
}

func NewInstanceCollector(cfg awssdk.Config, accountID string, metrics CPUProvider, logger *slog.Logger) *InstanceCollector {
	return &InstanceCollector{
		Client:    ec2.NewFromConfig(cfg),
		Metrics:   metrics,
		Logger:    logger,
		Region:    cfg.Region,
		AccountID: accountID,
	}
}

// Collect traverses all pages of the instance listing. When enrich is set,
// running instances get a secondary 7-day CPU average query; enrichment
// failures are swallowed so a missing optional metric never aborts
// collection.
func (c *InstanceCollector) Collect(ctx context.Context, enrich bool) ([]*resource.Instance, error) {
	var instances []*resource.Instance

	paginator := ec2.NewDescribeInstancesPaginator(c.Client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err, "failed to describe instances", ErrUnknown)
		}

		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				rec := &resource.Instance{
					Common: resource.Common{
						Region:    c.Region,
						AccountID: c.AccountID,
						Tags:      parseTags(inst.Tags),
					},
					InstanceID:   awssdk.ToString(inst.InstanceId),
					InstanceType: string(inst.InstanceType),
					LaunchTime:   awssdk.ToTime(inst.LaunchTime),
				}
				if inst.State != nil {
					rec.State = string(inst.State.Name)
				}

				if enrich && rec.State == "running" && c.Metrics != nil {
					cpu, err := c.Metrics.GetCPUAverage(ctx, rec.InstanceID)
					if err != nil {
						// Optional metric; the instance is still returned.
						if c.Logger != nil {
							c.Logger.Debug("CPU enrichment skipped", "instance", rec.InstanceID, "error", err)
						}
					} else {
						rec.CPU = cpu
					}
				}

				instances = append(instances, rec)
			}
		}
	}

	return instances, nil
}

func parseTags(tags []types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		if t.Key != nil && t.Value != nil {
			out[*t.Key] = *t.Value
		}
	}
	return out
}

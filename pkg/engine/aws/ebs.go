package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/aqkprogrammer/finops-saas/pkg/resource"
)

// EC2VolumeAPI is the EC2 surface the volume collector needs.
type EC2VolumeAPI interface {
	DescribeVolumes(ctx context.Context, params *ec2.DescribeVolumesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error)
}

// VolumeCollector maps EBS volume listings into normalized records.
type VolumeCollector struct {
	Client    EC2VolumeAPI
	Region    string
	AccountID string
}

func NewVolumeCollector(cfg awssdk.Config, accountID string) *VolumeCollector {
	return &VolumeCollector{
		Client:    ec2.NewFromConfig(cfg),
		Region:    cfg.Region,
		AccountID: accountID,
	}
}

// Collect traverses all pages of the volume listing.
func (c *VolumeCollector) Collect(ctx context.Context) ([]*resource.Volume, error) {
	var volumes []*resource.Volume

	paginator := ec2.NewDescribeVolumesPaginator(c.Client, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err, "failed to describe volumes", ErrUnknown)
		}

		for _, vol := range page.Volumes {
			rec := &resource.Volume{
				Common: resource.Common{
					Region:    c.Region,
					AccountID: c.AccountID,
					Tags:      parseTags(vol.Tags),
				},
				VolumeID:   awssdk.ToString(vol.VolumeId),
				SizeGB:     awssdk.ToInt32(vol.Size),
				VolumeType: string(vol.VolumeType),
				State:      string(vol.State),
				CreateTime: awssdk.ToTime(vol.CreateTime),
				Encrypted:  awssdk.ToBool(vol.Encrypted),
			}

			for _, att := range vol.Attachments {
				if att.InstanceId != nil {
					rec.Attached = true
					rec.AttachedInstanceID = *att.InstanceId
					break
				}
			}

			volumes = append(volumes, rec)
		}
	}

	return volumes, nil
}

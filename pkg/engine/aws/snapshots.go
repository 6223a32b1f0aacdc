package aws

import (
	"context"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/aqkprogrammer/finops-saas/pkg/resource"
)

// EC2SnapshotAPI is the EC2 surface the snapshot collector needs.
type EC2SnapshotAPI interface {
	DescribeSnapshots(ctx context.Context, params *ec2.DescribeSnapshotsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error)
}

// SnapshotCollector maps owned EBS snapshot listings into normalized records.
type SnapshotCollector struct {
	Client    EC2SnapshotAPI
	Region    string
	AccountID string

	// now is injectable for deterministic age derivation in tests.
	now func() time.Time
}

func NewSnapshotCollector(cfg awssdk.Config, accountID string) *SnapshotCollector {
	return &SnapshotCollector{
		Client:    ec2.NewFromConfig(cfg),
		Region:    cfg.Region,
		AccountID: accountID,
		now:       time.Now,
	}
}

// Collect traverses all pages of snapshots owned by the scanned account.
func (c *SnapshotCollector) Collect(ctx context.Context) ([]*resource.Snapshot, error) {
	input := &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	}
	if c.AccountID != "" {
		input.OwnerIds = []string{c.AccountID}
	}

	nowFn := c.now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn().UTC()

	var snapshots []*resource.Snapshot

	paginator := ec2.NewDescribeSnapshotsPaginator(c.Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err, "failed to describe snapshots", ErrUnknown)
		}

		for _, snap := range page.Snapshots {
			startTime := awssdk.ToTime(snap.StartTime)
			snapshots = append(snapshots, &resource.Snapshot{
				Common: resource.Common{
					Region:    c.Region,
					AccountID: c.AccountID,
					Tags:      parseTags(snap.Tags),
				},
				SnapshotID:     awssdk.ToString(snap.SnapshotId),
				SourceVolumeID: awssdk.ToString(snap.VolumeId),
				VolumeSizeGB:   awssdk.ToInt32(snap.VolumeSize),
				State:          string(snap.State),
				StartTime:      startTime,
				AgeDays:        resource.AgeInDays(startTime, now),
				Encrypted:      awssdk.ToBool(snap.Encrypted),
				Description:    awssdk.ToString(snap.Description),
			})
		}
	}

	return snapshots, nil
}

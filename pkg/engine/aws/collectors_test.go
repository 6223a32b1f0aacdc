package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/aqkprogrammer/finops-saas/pkg/resource"
)

// mockInstanceAPI implements EC2InstanceAPI with two pages.
type mockInstanceAPI struct {
	pages []*ec2.DescribeInstancesOutput
	calls int
}

func (m *mockInstanceAPI) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	out := m.pages[m.calls]
	m.calls++
	return out, nil
}

// mockCPUProvider implements CPUProvider.
type mockCPUProvider struct {
	values map[string]float64
	err    error
	asked  []string
}

func (m *mockCPUProvider) GetCPUAverage(ctx context.Context, instanceID string) (*resource.CPUUtilization, error) {
	m.asked = append(m.asked, instanceID)
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.values[instanceID]; ok {
		return &resource.CPUUtilization{Average: v, Window: "7d"}, nil
	}
	return nil, nil
}

func instancePage(nextToken string, instances ...types.Instance) *ec2.DescribeInstancesOutput {
	out := &ec2.DescribeInstancesOutput{
		Reservations: []types.Reservation{{Instances: instances}},
	}
	if nextToken != "" {
		out.NextToken = awssdk.String(nextToken)
	}
	return out
}

func testInstance(id, instanceType string, state types.InstanceStateName) types.Instance {
	return types.Instance{
		InstanceId:   awssdk.String(id),
		InstanceType: types.InstanceType(instanceType),
		State:        &types.InstanceState{Name: state},
		LaunchTime:   awssdk.Time(time.Now().Add(-30 * 24 * time.Hour)),
		Tags: []types.Tag{
			{Key: awssdk.String("Name"), Value: awssdk.String(id)},
		},
	}
}

func TestInstanceCollectorPaginates(t *testing.T) {
	api := &mockInstanceAPI{pages: []*ec2.DescribeInstancesOutput{
		instancePage("page2", testInstance("i-aaa", "t3.medium", types.InstanceStateNameRunning)),
		instancePage("", testInstance("i-bbb", "m5.large", types.InstanceStateNameStopped)),
	}}

	collector := &InstanceCollector{Client: api, Region: "us-east-1", AccountID: "123456789012"}

	instances, err := collector.Collect(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instances) != 2 {
		t.Fatalf("expected 2 instances across pages, got %d", len(instances))
	}
	if instances[0].InstanceID != "i-aaa" || instances[1].InstanceID != "i-bbb" {
		t.Errorf("unexpected instance order: %s, %s", instances[0].InstanceID, instances[1].InstanceID)
	}
	if instances[1].State != "stopped" {
		t.Errorf("state = %q, want stopped", instances[1].State)
	}
	if instances[0].Tags["Name"] != "i-aaa" {
		t.Errorf("tags not parsed: %v", instances[0].Tags)
	}
}

func TestInstanceCollectorEnrichesOnlyRunning(t *testing.T) {
	api := &mockInstanceAPI{pages: []*ec2.DescribeInstancesOutput{
		instancePage("",
			testInstance("i-running", "t3.medium", types.InstanceStateNameRunning),
			testInstance("i-stopped", "t3.medium", types.InstanceStateNameStopped),
		),
	}}
	metrics := &mockCPUProvider{values: map[string]float64{"i-running": 2.5}}

	collector := &InstanceCollector{Client: api, Metrics: metrics, Region: "us-east-1", AccountID: "123456789012"}

	instances, err := collector.Collect(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metrics.asked) != 1 || metrics.asked[0] != "i-running" {
		t.Errorf("only running instances should be enriched, asked: %v", metrics.asked)
	}
	if instances[0].CPU == nil || instances[0].CPU.Average != 2.5 {
		t.Errorf("running instance missing CPU enrichment: %+v", instances[0].CPU)
	}
	if instances[1].CPU != nil {
		t.Error("stopped instance should not carry CPU data")
	}
}

func TestInstanceCollectorSwallowsEnrichmentFailure(t *testing.T) {
	api := &mockInstanceAPI{pages: []*ec2.DescribeInstancesOutput{
		instancePage("", testInstance("i-running", "t3.medium", types.InstanceStateNameRunning)),
	}}
	metrics := &mockCPUProvider{err: errors.New("throttled")}

	collector := &InstanceCollector{Client: api, Metrics: metrics, Region: "us-east-1", AccountID: "123456789012"}

	instances, err := collector.Collect(context.Background(), true)
	if err != nil {
		t.Fatalf("enrichment failure must not abort collection: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("expected the instance to survive, got %d", len(instances))
	}
	if instances[0].CPU != nil {
		t.Error("CPU should be absent after a failed enrichment")
	}
}

// mockVolumeAPI implements EC2VolumeAPI.
type mockVolumeAPI struct {
	out *ec2.DescribeVolumesOutput
}

func (m *mockVolumeAPI) DescribeVolumes(ctx context.Context, params *ec2.DescribeVolumesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error) {
	return m.out, nil
}

func TestVolumeCollectorAttachmentState(t *testing.T) {
	api := &mockVolumeAPI{out: &ec2.DescribeVolumesOutput{
		Volumes: []types.Volume{
			{
				VolumeId:   awssdk.String("vol-orphan"),
				Size:       awssdk.Int32(200),
				VolumeType: types.VolumeTypeGp2,
				State:      types.VolumeStateAvailable,
				CreateTime: awssdk.Time(time.Now()),
			},
			{
				VolumeId:   awssdk.String("vol-used"),
				Size:       awssdk.Int32(100),
				VolumeType: types.VolumeTypeGp3,
				State:      types.VolumeStateInUse,
				CreateTime: awssdk.Time(time.Now()),
				Attachments: []types.VolumeAttachment{
					{InstanceId: awssdk.String("i-12345")},
				},
			},
		},
	}}

	collector := &VolumeCollector{Client: api, Region: "us-east-1", AccountID: "123456789012"}

	volumes, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(volumes) != 2 {
		t.Fatalf("expected 2 volumes, got %d", len(volumes))
	}
	if volumes[0].Attached {
		t.Error("available volume should not report attached")
	}
	if !volumes[1].Attached || volumes[1].AttachedInstanceID != "i-12345" {
		t.Errorf("attachment not mapped: %+v", volumes[1])
	}
}

// mockSnapshotAPI implements EC2SnapshotAPI.
type mockSnapshotAPI struct {
	out *ec2.DescribeSnapshotsOutput
}

func (m *mockSnapshotAPI) DescribeSnapshots(ctx context.Context, params *ec2.DescribeSnapshotsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error) {
	return m.out, nil
}

func TestSnapshotCollectorDerivesAge(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	api := &mockSnapshotAPI{out: &ec2.DescribeSnapshotsOutput{
		Snapshots: []types.Snapshot{
			{
				SnapshotId: awssdk.String("snap-old"),
				VolumeId:   awssdk.String("vol-1"),
				VolumeSize: awssdk.Int32(500),
				State:      types.SnapshotStateCompleted,
				StartTime:  awssdk.Time(now.Add(-45 * 24 * time.Hour)),
			},
		},
	}}

	collector := &SnapshotCollector{
		Client:    api,
		Region:    "us-east-1",
		AccountID: "123456789012",
		now:       func() time.Time { return now },
	}

	snapshots, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
	if snapshots[0].AgeDays != 45 {
		t.Errorf("AgeDays = %d, want 45", snapshots[0].AgeDays)
	}
}

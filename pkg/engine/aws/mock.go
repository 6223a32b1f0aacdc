package aws

import (
	"context"
	"time"

	"github.com/aqkprogrammer/finops-saas/pkg/resource"
)

// Deterministic fixtures standing in for every provider interface. Selected
// once at composition time; the real implementations never branch on a mock
// flag.

const (
	mockAccountID = "123456789012"
	mockRegion    = "us-east-1"
)

// mockNow anchors fixture timestamps so derived values (snapshot age) stay
// stable across calls within one process.
var mockNow = time.Now().UTC().Truncate(time.Hour)

// MockBroker returns static credentials after the same local ARN validation
// the real broker performs.
type MockBroker struct{}

func (MockBroker) AssumeRole(ctx context.Context, req AssumeRoleRequest) (*AssumedCredentials, error) {
	if err := ValidateRoleARN(req.RoleARN); err != nil {
		return nil, err
	}
	return &AssumedCredentials{
		AccessKeyID:     "ASIAMOCK00000000000",
		SecretAccessKey: "mock-secret-key",
		SessionToken:    "mock-session-token",
		Expiration:      mockNow.Add(time.Hour),
	}, nil
}

// MockProber reports every capability as granted.
type MockProber struct{}

func (MockProber) Probe(ctx context.Context) (*ProbeReport, error) {
	return &ProbeReport{
		Checks: []CapabilityCheck{
			{Capability: CapabilityEC2, OK: true},
			{Capability: CapabilityCostExplorer, OK: true},
		},
	}, nil
}

// MockInventory serves a small fixed resource set that exercises each
// built-in rule exactly once.
type MockInventory struct{}

func (MockInventory) CollectInstances(ctx context.Context, enrich bool) ([]*resource.Instance, error) {
	idle := &resource.Instance{
		Common: resource.Common{
			Region:    mockRegion,
			AccountID: mockAccountID,
			Tags:      map[string]string{"Name": "legacy-batch-worker", "Environment": "staging"},
		},
		InstanceID:   "i-0mock1dle0000001",
		InstanceType: "t3.medium",
		State:        "running",
		LaunchTime:   mockNow.Add(-90 * 24 * time.Hour),
	}
	if enrich {
		idle.CPU = &resource.CPUUtilization{Average: 2.0, Window: "7d"}
	}

	busy := &resource.Instance{
		Common: resource.Common{
			Region:    mockRegion,
			AccountID: mockAccountID,
			Tags:      map[string]string{"Name": "api-server", "Environment": "production"},
		},
		InstanceID:   "i-0mockbusy0000002",
		InstanceType: "m5.large",
		State:        "running",
		LaunchTime:   mockNow.Add(-30 * 24 * time.Hour),
	}
	if enrich {
		busy.CPU = &resource.CPUUtilization{Average: 64.2, Window: "7d"}
	}

	return []*resource.Instance{idle, busy}, nil
}

func (MockInventory) CollectVolumes(ctx context.Context) ([]*resource.Volume, error) {
	return []*resource.Volume{
		{
			Common: resource.Common{
				Region:    mockRegion,
				AccountID: mockAccountID,
			},
			VolumeID:   "vol-0mockorphan0001",
			SizeGB:     200,
			VolumeType: "gp2",
			State:      "available",
			CreateTime: mockNow.Add(-120 * 24 * time.Hour),
		},
		{
			Common: resource.Common{
				Region:    mockRegion,
				AccountID: mockAccountID,
				Tags:      map[string]string{"Name": "api-server-root"},
			},
			VolumeID:           "vol-0mockinuse00002",
			SizeGB:             100,
			VolumeType:         "gp3",
			State:              "in-use",
			Attached:           true,
			AttachedInstanceID: "i-0mockbusy0000002",
			CreateTime:         mockNow.Add(-30 * 24 * time.Hour),
			Encrypted:          true,
		},
	}, nil
}

func (MockInventory) CollectSnapshots(ctx context.Context) ([]*resource.Snapshot, error) {
	oldStart := mockNow.Add(-135 * 24 * time.Hour)
	freshStart := mockNow.Add(-3 * 24 * time.Hour)
	return []*resource.Snapshot{
		{
			Common: resource.Common{
				Region:    mockRegion,
				AccountID: mockAccountID,
			},
			SnapshotID:     "snap-0mockstale0001",
			SourceVolumeID: "vol-0mockorphan0001",
			VolumeSizeGB:   1000,
			State:          "completed",
			StartTime:      oldStart,
			AgeDays:        resource.AgeInDays(oldStart, mockNow),
			Description:    "pre-migration backup",
		},
		{
			Common: resource.Common{
				Region:    mockRegion,
				AccountID: mockAccountID,
			},
			SnapshotID:     "snap-0mockfresh0002",
			SourceVolumeID: "vol-0mockinuse00002",
			VolumeSizeGB:   50,
			State:          "completed",
			StartTime:      freshStart,
			AgeDays:        resource.AgeInDays(freshStart, mockNow),
			Encrypted:      true,
			Description:    "nightly backup",
		},
	}, nil
}

// MockCosts serves fixture spend through the same normalization path the
// real collector uses, so summary invariants hold in both modes.
type MockCosts struct{}

func (MockCosts) Collect(ctx context.Context, window Window) (*CostSummary, error) {
	if window.Start.IsZero() && window.End.IsZero() {
		window = TrailingWindow(mockNow, DefaultCostWindowDays)
	}
	if err := validateWindow(window); err != nil {
		return nil, err
	}

	// Raw totals for the queried window.
	scale := float64(window.Days()) / 30.0
	raw := map[string]float64{
		"Amazon Elastic Compute Cloud - Compute": 420.50 * scale,
		"EC2 - Other":                            96.40 * scale,
		"Amazon Simple Storage Service":          38.75 * scale,
		"AmazonCloudWatch":                       12.10 * scale,
	}

	return NewCostSummary(raw, window, "USD"), nil
}

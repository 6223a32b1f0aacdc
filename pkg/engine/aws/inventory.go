package aws

import (
	"context"
	"log/slog"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"

	"github.com/aqkprogrammer/finops-saas/pkg/resource"
)

// AccountInventory bundles the three resource collectors for one scan.
type AccountInventory struct {
	Instances *InstanceCollector
	Volumes   *VolumeCollector
	Snapshots *SnapshotCollector
}

// NewAccountInventory wires the collectors against one scan's assumed
// credentials. The CloudWatch metrics client shares the same config.
func NewAccountInventory(cfg awssdk.Config, accountID string, logger *slog.Logger) *AccountInventory {
	metrics := NewMetricsClient(cfg)
	return &AccountInventory{
		Instances: NewInstanceCollector(cfg, accountID, metrics, logger),
		Volumes:   NewVolumeCollector(cfg, accountID),
		Snapshots: NewSnapshotCollector(cfg, accountID),
	}
}

func (inv *AccountInventory) CollectInstances(ctx context.Context, enrich bool) ([]*resource.Instance, error) {
	return inv.Instances.Collect(ctx, enrich)
}

func (inv *AccountInventory) CollectVolumes(ctx context.Context) ([]*resource.Volume, error) {
	return inv.Volumes.Collect(ctx)
}

func (inv *AccountInventory) CollectSnapshots(ctx context.Context) ([]*resource.Snapshot, error) {
	return inv.Snapshots.Collect(ctx)
}

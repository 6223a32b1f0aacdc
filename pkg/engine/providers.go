package engine

import (
	"context"

	awsx "github.com/aqkprogrammer/finops-saas/pkg/engine/aws"
	"github.com/aqkprogrammer/finops-saas/pkg/engine/pricing"
	"github.com/aqkprogrammer/finops-saas/pkg/resource"
)

// Broker exchanges a customer role for scan credentials.
type Broker interface {
	AssumeRole(ctx context.Context, req awsx.AssumeRoleRequest) (*awsx.AssumedCredentials, error)
}

// Prober verifies the assumed role's read capabilities.
type Prober interface {
	Probe(ctx context.Context) (*awsx.ProbeReport, error)
}

// InventorySource collects the scanned resource types.
type InventorySource interface {
	CollectInstances(ctx context.Context, enrich bool) ([]*resource.Instance, error)
	CollectVolumes(ctx context.Context) ([]*resource.Volume, error)
	CollectSnapshots(ctx context.Context) ([]*resource.Snapshot, error)
}

// CostSource retrieves the account spend summary.
type CostSource interface {
	Collect(ctx context.Context, window awsx.Window) (*awsx.CostSummary, error)
}

// Providers bundles everything a scan needs once credentials exist.
// Pricing is optional; when nil the service's static book is used.
type Providers struct {
	Prober    Prober
	Inventory InventorySource
	Costs     CostSource
	Pricing   *pricing.Book
}

// ProviderFactory builds scan providers. The real implementation talks to
// AWS; the mock implementation serves fixtures. Both satisfy the same
// contract so the pipeline never branches on mode.
type ProviderFactory interface {
	Broker(ctx context.Context) (Broker, error)
	Providers(ctx context.Context, creds *awsx.AssumedCredentials, region, accountID string) (*Providers, error)
}

package engine

import (
	"context"

	awsx "github.com/aqkprogrammer/finops-saas/pkg/engine/aws"
)

// MockFactory serves deterministic fixtures through the production
// pipeline. Demos and tests run the exact stage sequence real scans do.
type MockFactory struct{}

func NewMockFactory() *MockFactory {
	return &MockFactory{}
}

func (f *MockFactory) Broker(ctx context.Context) (Broker, error) {
	return awsx.MockBroker{}, nil
}

func (f *MockFactory) Providers(ctx context.Context, creds *awsx.AssumedCredentials, region, accountID string) (*Providers, error) {
	return &Providers{
		Prober:    awsx.MockProber{},
		Inventory: awsx.MockInventory{},
		Costs:     awsx.MockCosts{},
	}, nil
}

package engine

import (
	"context"
	"log/slog"

	awsx "github.com/aqkprogrammer/finops-saas/pkg/engine/aws"
	"github.com/aqkprogrammer/finops-saas/pkg/engine/pricing"
)

// RealFactory builds providers against live AWS APIs. The base client is
// created on first use so construction never needs credentials.
type RealFactory struct {
	config Config
	logger *slog.Logger
	client *awsx.Client
}

func NewRealFactory(cfg Config, logger *slog.Logger) *RealFactory {
	return &RealFactory{config: cfg, logger: logger}
}

func (f *RealFactory) base(ctx context.Context) (*awsx.Client, error) {
	if f.client != nil {
		return f.client, nil
	}
	client, err := awsx.NewClient(ctx, f.config.Region)
	if err != nil {
		return nil, err
	}
	f.client = client
	return client, nil
}

// Broker validates the base session with a caller-identity call before
// handing out the assume-role broker, so dead or malformed operator
// credentials fail here instead of inside AssumeRole.
func (f *RealFactory) Broker(ctx context.Context) (Broker, error) {
	client, err := f.base(ctx)
	if err != nil {
		return nil, err
	}
	account, err := client.VerifyIdentity(ctx)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("Base session verified", "account", account)
	return awsx.NewCredentialBroker(client.Config, f.logger), nil
}

func (f *RealFactory) Providers(ctx context.Context, creds *awsx.AssumedCredentials, region, accountID string) (*Providers, error) {
	client, err := f.base(ctx)
	if err != nil {
		return nil, err
	}

	cfg := client.ConfigForCredentials(creds, region)

	p := &Providers{
		Prober:    awsx.NewProber(cfg),
		Inventory: awsx.NewAccountInventory(cfg, accountID, f.logger),
		Costs:     awsx.NewCostCollector(cfg),
	}

	if f.config.LivePricing {
		src := pricing.NewLiveSource(cfg, f.config.CacheDir)
		p.Pricing = pricing.NewBook(f.logger, pricing.WithLiveSource(src))
	}

	return p, nil
}

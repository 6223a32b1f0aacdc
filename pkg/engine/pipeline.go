package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	awsx "github.com/aqkprogrammer/finops-saas/pkg/engine/aws"
	"github.com/aqkprogrammer/finops-saas/pkg/engine/pricing"
	"github.com/aqkprogrammer/finops-saas/pkg/engine/rules"
	"github.com/aqkprogrammer/finops-saas/pkg/resource"
)

// ScanRequest identifies one account scan.
type ScanRequest struct {
	RoleARN    string
	ExternalID string
	Region     string
	CostWindow awsx.Window
}

// Scan runs the full pipeline for one request: assume role, validate
// permissions, collect inventory and spend in parallel, evaluate rules,
// price the findings. Any stage failure aborts the scan with a ScanError;
// there are no partial results.
func (s *Service) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	started := time.Now()

	region := req.Region
	if region == "" {
		region = s.config.Region
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	ctx, span := s.Tracer.Start(ctx, "Scan", trace.WithAttributes(
		attribute.String("scan.region", region),
	))
	defer span.End()

	s.Logger.Info("Starting scan", "region", region)

	// Stage: AssumingRole.
	creds, accountID, err := s.assumeRole(ctx, req)
	if err != nil {
		return nil, s.abort(ctx, span, StageAssumingRole, err)
	}

	providers, err := s.factory.Providers(ctx, creds, region, accountID)
	if err != nil {
		return nil, s.abort(ctx, span, StageAssumingRole, err)
	}

	// Stage: ValidatingPermissions.
	report, err := s.validatePermissions(ctx, providers.Prober)
	if err != nil {
		return nil, s.abort(ctx, span, StageValidatingPermissions, err)
	}

	window := req.CostWindow
	if window.Start.IsZero() && window.End.IsZero() && s.config.CostWindowDays > 0 {
		window = awsx.TrailingWindow(started, s.config.CostWindowDays)
	}

	// Stage: Collecting.
	inv, cost, err := s.collect(ctx, providers, window)
	if err != nil {
		return nil, s.abort(ctx, span, StageCollecting, err)
	}

	// Stage: Evaluating.
	matches := s.evaluate(ctx, inv)

	// Stage: Calculating.
	issues, estimates, savings := s.calculate(ctx, providers, matches)

	result := &ScanResult{
		ScanID:      newScanID(started),
		Timestamp:   started.UTC(),
		Region:      region,
		AccountID:   accountID,
		DurationMS:  time.Since(started).Milliseconds(),
		Permissions: report,
		Cost:        cost,
		Inventory: Inventory{
			InstanceCount: len(inv.instances),
			VolumeCount:   len(inv.volumes),
			SnapshotCount: len(inv.snapshots),
		},
		Issues:        issues,
		Opportunities: estimates,
		Savings:       savings,
	}

	span.SetAttributes(
		attribute.Int("scan.issues", len(result.Issues)),
		attribute.Float64("scan.monthly_savings", result.Savings.TotalMonthlySavings),
	)

	s.persist(result)

	s.Logger.Info("Scan complete",
		"scanId", result.ScanID,
		"issues", len(result.Issues),
		"monthlySavings", result.Savings.TotalMonthlySavings,
		"durationMs", result.DurationMS,
	)

	return result, nil
}

func (s *Service) assumeRole(ctx context.Context, req ScanRequest) (*awsx.AssumedCredentials, string, error) {
	ctx, span := s.Tracer.Start(ctx, "AssumeRole")
	defer span.End()

	broker, err := s.factory.Broker(ctx)
	if err != nil {
		return nil, "", err
	}

	creds, err := broker.AssumeRole(ctx, awsx.AssumeRoleRequest{
		RoleARN:         req.RoleARN,
		ExternalID:      req.ExternalID,
		DurationSeconds: s.config.SessionDurationSeconds,
	})
	if err != nil {
		return nil, "", err
	}

	return creds, awsx.AccountIDFromARN(req.RoleARN), nil
}

func (s *Service) validatePermissions(ctx context.Context, prober Prober) (*awsx.ProbeReport, error) {
	ctx, span := s.Tracer.Start(ctx, "ValidatePermissions")
	defer span.End()

	report, err := prober.Probe(ctx)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// inventory is the collected resource set for one scan.
type inventory struct {
	instances []*resource.Instance
	volumes   []*resource.Volume
	snapshots []*resource.Snapshot
}

// collect fans the three resource collectors and the cost collector out
// concurrently. The inventory is all-or-nothing: the first collector error
// cancels the rest and fails the stage.
func (s *Service) collect(ctx context.Context, providers *Providers, window awsx.Window) (*inventory, *awsx.CostSummary, error) {
	ctx, span := s.Tracer.Start(ctx, "Collect")
	defer span.End()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		inv  inventory
		cost *awsx.CostSummary
	)

	var wg sync.WaitGroup
	errCh := make(chan error, 4)

	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				s.Logger.Error("Collector failed", "collector", name, "error", err)
				errCh <- err
				cancel()
			}
		}()
	}

	run("instances", func(ctx context.Context) error {
		out, err := providers.Inventory.CollectInstances(ctx, !s.config.SkipCPUMetrics)
		inv.instances = out
		return err
	})
	run("volumes", func(ctx context.Context) error {
		out, err := providers.Inventory.CollectVolumes(ctx)
		inv.volumes = out
		return err
	})
	run("snapshots", func(ctx context.Context) error {
		out, err := providers.Inventory.CollectSnapshots(ctx)
		inv.snapshots = out
		return err
	})
	run("costs", func(ctx context.Context) error {
		out, err := providers.Costs.Collect(ctx, window)
		cost = out
		return err
	})

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, nil, err
	}

	span.SetAttributes(
		attribute.Int("collect.instances", len(inv.instances)),
		attribute.Int("collect.volumes", len(inv.volumes)),
		attribute.Int("collect.snapshots", len(inv.snapshots)),
	)

	return &inv, cost, nil
}

func (s *Service) evaluate(ctx context.Context, inv *inventory) []rules.Match {
	_, span := s.Tracer.Start(ctx, "Evaluate")
	defer span.End()

	resources := make([]resource.Resource, 0, len(inv.instances)+len(inv.volumes)+len(inv.snapshots))
	for _, r := range inv.instances {
		resources = append(resources, r)
	}
	for _, r := range inv.volumes {
		resources = append(resources, r)
	}
	for _, r := range inv.snapshots {
		resources = append(resources, r)
	}

	matches := s.rules.Evaluate(resources)
	span.SetAttributes(attribute.Int("evaluate.matches", len(matches)))
	return matches
}

func (s *Service) calculate(ctx context.Context, providers *Providers, matches []rules.Match) ([]rules.Issue, []pricing.Estimate, pricing.Savings) {
	ctx, span := s.Tracer.Start(ctx, "Calculate")
	defer span.End()

	book := providers.Pricing
	if book == nil {
		book = s.book
	}
	calc := pricing.NewCalculator(book)

	issues := make([]rules.Issue, 0, len(matches))
	estimates := make([]pricing.Estimate, 0, len(matches))
	for _, m := range matches {
		issues = append(issues, m.Issue())
		estimates = append(estimates, calc.Estimate(ctx, m))
	}

	return issues, estimates, pricing.Summarize(estimates)
}

// persist stores the result when a store is configured. Persistence is
// best-effort; a storage failure never fails a finished scan.
func (s *Service) persist(result *ScanResult) {
	if s.results == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.results.Save(ctx, result.ScanID, result); err != nil {
		s.Logger.Warn("Result persistence failed", "scanId", result.ScanID, "error", err)
	}
}

// abort converts a stage failure into the scan's single error shape,
// recording it on the trace. A deadline hit reports ScanTimeout regardless
// of what error the interrupted stage returned.
func (s *Service) abort(ctx context.Context, span trace.Span, stage Stage, err error) *ScanError {
	var scanErr *ScanError
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		scanErr = failTimeout(stage)
	} else {
		scanErr = failStage(stage, err)
	}

	span.RecordError(scanErr)
	span.SetStatus(codes.Error, string(scanErr.Code))
	span.SetAttributes(attribute.String("scan.failed_stage", string(stage)))

	s.Logger.Error("Scan failed",
		"stage", scanErr.Stage,
		"code", scanErr.Code,
		"error", err,
	)
	return scanErr
}

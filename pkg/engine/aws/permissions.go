package aws

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	ceTypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// Capability names surfaced in prober diagnostics.
const (
	CapabilityEC2          = "EC2"
	CapabilityCostExplorer = "Cost Explorer"
)

// CapabilityCheck is the outcome of one minimal-footprint probe.
type CapabilityCheck struct {
	Capability string    `json:"capability"`
	OK         bool      `json:"ok"`
	Code       ErrorCode `json:"code,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// ProbeReport aggregates every capability check for one scan.
type ProbeReport struct {
	Checks []CapabilityCheck `json:"checks"`
}

// OK reports whether every capability passed.
func (r *ProbeReport) OK() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// ValidationError carries the full itemized list of failing capabilities so
// a customer can fix all missing permissions in one pass.
type ValidationError struct {
	Checks []CapabilityCheck
}

func (e *ValidationError) Error() string {
	var failed []string
	for _, c := range e.Checks {
		if !c.OK {
			failed = append(failed, fmt.Sprintf("%s (%s): %s", c.Capability, c.Code, c.Message))
		}
	}
	return "missing permissions: " + strings.Join(failed, "; ")
}

// EC2ProbeAPI is the minimal EC2 surface the prober needs.
type EC2ProbeAPI interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// CostProbeAPI is the minimal Cost Explorer surface the prober needs.
type CostProbeAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// Prober performs read probes against each capability the scan requires,
// failing fast with an actionable diagnostic before collection starts.
type Prober struct {
	EC2   EC2ProbeAPI
	Costs CostProbeAPI
}

// NewProber builds a prober bound to one scan's assumed credentials. Cost
// Explorer is a global API served from us-east-1.
func NewProber(cfg aws.Config) *Prober {
	ceCfg := cfg.Copy()
	ceCfg.Region = "us-east-1"
	return &Prober{
		EC2:   ec2.NewFromConfig(cfg),
		Costs: costexplorer.NewFromConfig(ceCfg),
	}
}

// Probe runs every capability check independently and aggregates the
// results. When any check fails the returned error is a *ValidationError
// listing all failures, not just the first.
func (p *Prober) Probe(ctx context.Context) (*ProbeReport, error) {
	report := &ProbeReport{
		Checks: []CapabilityCheck{
			p.probeEC2(ctx),
			p.probeCostExplorer(ctx),
		},
	}

	if !report.OK() {
		return report, &ValidationError{Checks: report.Checks}
	}
	return report, nil
}

func (p *Prober) probeEC2(ctx context.Context) CapabilityCheck {
	_, err := p.EC2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		MaxResults: aws.Int32(5),
	})
	return checkResult(CapabilityEC2, err)
}

func (p *Prober) probeCostExplorer(ctx context.Context) CapabilityCheck {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -7)

	_, err := p.Costs.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod: &ceTypes.DateInterval{
			Start: aws.String(start.Format("2006-01-02")),
			End:   aws.String(end.Format("2006-01-02")),
		},
		Granularity: ceTypes.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
	})
	return checkResult(CapabilityCostExplorer, err)
}

func checkResult(capability string, err error) CapabilityCheck {
	if err == nil {
		return CapabilityCheck{Capability: capability, OK: true}
	}
	classified := classify(err, "probe failed", ErrUnknown)
	message := classified.Message
	if classified.Err != nil {
		message = fmt.Sprintf("%s: %v", classified.Message, classified.Err)
	}
	return CapabilityCheck{
		Capability: capability,
		OK:         false,
		Code:       classified.Code,
		Message:    message,
	}
}

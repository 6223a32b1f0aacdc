package pricing

import (
	"context"
	"sort"

	"github.com/aqkprogrammer/finops-saas/pkg/engine/rules"
	"github.com/aqkprogrammer/finops-saas/pkg/resource"
)

// Savings rates per rule. Stopping an idle instance keeps its EBS storage
// billing, so it recovers 90% rather than all of the instance cost;
// deletions recover the full cost.
const (
	idleInstanceSavingsRate = 0.90
	unknownRuleMonthlyCost  = 50.0
	unknownRuleSavingsRate  = 0.80
)

// Estimate is the projected monthly recovery for one matched resource.
type Estimate struct {
	RuleID                  string        `json:"ruleId"`
	RuleName                string        `json:"ruleName"`
	ResourceID              string        `json:"resourceId"`
	ResourceType            resource.Type `json:"resourceType"`
	CurrentMonthlyCost      float64       `json:"currentMonthlyCost"`
	PotentialMonthlySavings float64       `json:"potentialMonthlySavings"`
	SavingsPercentage       float64       `json:"savingsPercentage"`
}

// RuleSavings aggregates estimates for one rule.
type RuleSavings struct {
	RuleID         string  `json:"ruleId"`
	Count          int     `json:"count"`
	MonthlySavings float64 `json:"monthlySavings"`
	AnnualSavings  float64 `json:"annualSavings"`
}

// TypeSavings aggregates estimates for one resource type.
type TypeSavings struct {
	ResourceType   resource.Type `json:"resourceType"`
	Count          int           `json:"count"`
	MonthlySavings float64       `json:"monthlySavings"`
}

// Savings is the scan-level rollup.
type Savings struct {
	TotalMonthlySavings float64       `json:"totalMonthlySavings"`
	TotalAnnualSavings  float64       `json:"totalAnnualSavings"`
	ByRule              []RuleSavings `json:"byRule"`
	ByResourceType      []TypeSavings `json:"byResourceType"`
}

// Calculator converts rule matches into monetary estimates using a Book.
type Calculator struct {
	Book *Book
}

func NewCalculator(book *Book) *Calculator {
	return &Calculator{Book: book}
}

// Estimate prices one match. Unrecognized rule IDs get a conservative flat
// figure rather than failing the scan.
func (c *Calculator) Estimate(ctx context.Context, m rules.Match) Estimate {
	est := Estimate{
		RuleID:       m.Rule.ID,
		RuleName:     m.Rule.Name,
		ResourceID:   m.Resource.ID(),
		ResourceType: m.Resource.Kind(),
	}

	var cost, savings float64
	switch m.Rule.ID {
	case "idle_ec2":
		inst, ok := m.Resource.(*resource.Instance)
		if !ok {
			cost, savings = unknownEstimate()
			break
		}
		cost = c.Book.InstanceMonthly(ctx, inst.Region, inst.InstanceType)
		savings = cost * idleInstanceSavingsRate
	case "unattached_ebs":
		vol, ok := m.Resource.(*resource.Volume)
		if !ok {
			cost, savings = unknownEstimate()
			break
		}
		cost = c.Book.VolumeMonthly(ctx, vol.Region, vol.VolumeType, vol.SizeGB)
		savings = cost
	case "old_snapshot":
		snap, ok := m.Resource.(*resource.Snapshot)
		if !ok {
			cost, savings = unknownEstimate()
			break
		}
		cost = c.Book.SnapshotMonthly(snap.VolumeSizeGB)
		savings = cost
	default:
		cost, savings = unknownEstimate()
	}

	est.CurrentMonthlyCost = Round(cost)
	est.PotentialMonthlySavings = Round(savings)
	if est.CurrentMonthlyCost > 0 {
		est.SavingsPercentage = Round(est.PotentialMonthlySavings / est.CurrentMonthlyCost * 100)
	}
	return est
}

func unknownEstimate() (cost, savings float64) {
	return unknownRuleMonthlyCost, unknownRuleMonthlyCost * unknownRuleSavingsRate
}

// Summarize rolls estimates up to scan level. The annual figure is derived
// once from the monthly total, not summed per estimate, so the two totals
// always satisfy annual = monthly * 12 exactly.
func Summarize(estimates []Estimate) Savings {
	var totalMonthly float64
	byRule := make(map[string]*RuleSavings)
	byType := make(map[resource.Type]*TypeSavings)

	for _, est := range estimates {
		totalMonthly += est.PotentialMonthlySavings

		r, ok := byRule[est.RuleID]
		if !ok {
			r = &RuleSavings{RuleID: est.RuleID}
			byRule[est.RuleID] = r
		}
		r.Count++
		r.MonthlySavings += est.PotentialMonthlySavings

		t, ok := byType[est.ResourceType]
		if !ok {
			t = &TypeSavings{ResourceType: est.ResourceType}
			byType[est.ResourceType] = t
		}
		t.Count++
		t.MonthlySavings += est.PotentialMonthlySavings
	}

	s := Savings{
		TotalMonthlySavings: Round(totalMonthly),
		ByRule:              make([]RuleSavings, 0, len(byRule)),
		ByResourceType:      make([]TypeSavings, 0, len(byType)),
	}
	s.TotalAnnualSavings = Round(s.TotalMonthlySavings * 12)

	for _, r := range byRule {
		r.MonthlySavings = Round(r.MonthlySavings)
		r.AnnualSavings = Round(r.MonthlySavings * 12)
		s.ByRule = append(s.ByRule, *r)
	}
	sort.Slice(s.ByRule, func(i, j int) bool { return s.ByRule[i].RuleID < s.ByRule[j].RuleID })

	for _, t := range byType {
		t.MonthlySavings = Round(t.MonthlySavings)
		s.ByResourceType = append(s.ByResourceType, *t)
	}
	sort.Slice(s.ByResourceType, func(i, j int) bool {
		return s.ByResourceType[i].ResourceType < s.ByResourceType[j].ResourceType
	})

	return s
}

package aws

import (
	"context"
	"math"
	"sort"
	"strconv"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	ceTypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
)

const (
	// DefaultCostWindowDays is the trailing window for spend queries.
	DefaultCostWindowDays = 30
	// MaxCostWindowDays bounds explicit windows against unbounded queries.
	MaxCostWindowDays = 365
)

// Window is a half-open [Start, End) cost query interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// Days returns the whole-day length of the window, minimum 1.
func (w Window) Days() int {
	days := int(w.End.Sub(w.Start).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// TrailingWindow returns the default trailing window ending now.
func TrailingWindow(now time.Time, days int) Window {
	now = now.UTC().Truncate(24 * time.Hour)
	return Window{Start: now.AddDate(0, 0, -days), End: now}
}

// CostPeriod describes the queried window inside a CostSummary.
type CostPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// ServiceCost is one monthly-normalized per-service line item.
type ServiceCost struct {
	Service    string  `json:"service"`
	Cost       float64 `json:"cost"`
	Percentage float64 `json:"percentage"`
}

// CostSummary is the monthly-normalized spend breakdown for a scan.
// Per-service costs sum to TotalCost within rounding and percentages sum
// to ~100 whenever TotalCost is positive.
type CostSummary struct {
	TotalCost float64       `json:"totalCost"`
	Currency  string        `json:"currency"`
	Period    CostPeriod    `json:"period"`
	Services  []ServiceCost `json:"services"`
}

// CostAPI is the Cost Explorer surface the collector needs.
type CostAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// CostCollector retrieves aggregate spend grouped by service.
type CostCollector struct {
	Client CostAPI
}

// NewCostCollector binds a collector to one scan's assumed credentials.
// Cost Explorer is a global API served from us-east-1.
func NewCostCollector(cfg awssdk.Config) *CostCollector {
	ceCfg := cfg.Copy()
	ceCfg.Region = "us-east-1"
	return &CostCollector{
		Client: costexplorer.NewFromConfig(ceCfg),
	}
}

// Collect issues a single grouped-by-service query over the window (default
// trailing 30 days) and normalizes the result to a monthly figure.
func (c *CostCollector) Collect(ctx context.Context, window Window) (*CostSummary, error) {
	if window.Start.IsZero() && window.End.IsZero() {
		window = TrailingWindow(time.Now(), DefaultCostWindowDays)
	}
	if err := validateWindow(window); err != nil {
		return nil, err
	}

	out, err := c.Client.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod: &ceTypes.DateInterval{
			Start: awssdk.String(window.Start.Format("2006-01-02")),
			End:   awssdk.String(window.End.Format("2006-01-02")),
		},
		Granularity: ceTypes.GranularityMonthly,
		Metrics:     []string{"UnblendedCost"},
		GroupBy: []ceTypes.GroupDefinition{
			{Type: ceTypes.GroupDefinitionTypeDimension, Key: awssdk.String("SERVICE")},
		},
	})
	if err != nil {
		return nil, classify(err, "failed to query cost and usage", ErrUnknown)
	}

	raw := make(map[string]float64)
	currency := "USD"
	for _, bucket := range out.ResultsByTime {
		for _, group := range bucket.Groups {
			metric, ok := group.Metrics["UnblendedCost"]
			if !ok || len(group.Keys) == 0 {
				continue
			}
			amount, err := strconv.ParseFloat(awssdk.ToString(metric.Amount), 64)
			if err != nil {
				continue
			}
			if unit := awssdk.ToString(metric.Unit); unit != "" {
				currency = unit
			}
			raw[group.Keys[0]] += amount
		}
	}

	if len(raw) == 0 {
		return nil, NewError(ErrDataUnavailable, "no billing data materialized for the requested window")
	}

	return NewCostSummary(raw, window, currency), nil
}

// NewCostSummary normalizes raw per-service window totals to a 30-day
// monthly figure. Percentages are computed from the raw proportions so they
// stay accurate regardless of normalization; all money values are rounded
// half-up to 2 decimals and services are sorted descending by cost.
func NewCostSummary(raw map[string]float64, window Window, currency string) *CostSummary {
	days := window.Days()
	scale := 30.0 / float64(days)

	var rawTotal float64
	for _, v := range raw {
		rawTotal += v
	}

	services := make([]ServiceCost, 0, len(raw))
	for name, v := range raw {
		pct := 0.0
		if rawTotal > 0 {
			pct = RoundMoney(v / rawTotal * 100)
		}
		services = append(services, ServiceCost{
			Service:    name,
			Cost:       RoundMoney(v * scale),
			Percentage: pct,
		})
	}

	sort.Slice(services, func(i, j int) bool {
		if services[i].Cost != services[j].Cost {
			return services[i].Cost > services[j].Cost
		}
		return services[i].Service < services[j].Service
	})

	return &CostSummary{
		TotalCost: RoundMoney(rawTotal * scale),
		Currency:  currency,
		Period: CostPeriod{
			Start: window.Start,
			End:   window.End,
			Days:  days,
		},
		Services: services,
	}
}

// RoundMoney rounds to 2 decimal places, half away from zero.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func validateWindow(w Window) error {
	if !w.Start.Before(w.End) {
		return NewError(ErrInvalidWindow, "cost window start must precede end")
	}
	if w.Days() > MaxCostWindowDays {
		return NewError(ErrInvalidWindow, "cost window exceeds 365 days")
	}
	return nil
}

package pricing

import (
	"context"
	"log/slog"
	"math"
)

// Static on-demand price tables, us-east-1 Linux list prices. These are the
// authoritative defaults; a LiveSource may overlay fresher figures but a
// lookup never fails because the live path did.

const (
	// HoursPerMonth converts hourly list prices to monthly estimates.
	HoursPerMonth = 730

	// FallbackInstanceMonthly covers instance types absent from the table.
	FallbackInstanceMonthly = 100.0

	// SnapshotPerGBMonth is the EBS snapshot storage rate.
	SnapshotPerGBMonth = 0.05
)

// instanceMonthly maps instance type to monthly on-demand cost.
var instanceMonthly = map[string]float64{
	"t2.micro":   8.47,
	"t2.small":   16.79,
	"t2.medium":  33.87,
	"t3.micro":   7.59,
	"t3.small":   15.18,
	"t3.medium":  29.20,
	"t3.large":   60.74,
	"t3.xlarge":  121.47,
	"m5.large":   70.08,
	"m5.xlarge":  140.16,
	"m5.2xlarge": 280.32,
	"c5.large":   62.05,
	"c5.xlarge":  124.10,
	"r5.large":   91.98,
	"r5.xlarge":  183.96,
}

// volumePerGBMonth maps EBS volume type to per-GB-month storage cost.
var volumePerGBMonth = map[string]float64{
	"gp3":      0.08,
	"gp2":      0.10,
	"io1":      0.125,
	"io2":      0.125,
	"st1":      0.045,
	"sc1":      0.015,
	"standard": 0.05,
}

const defaultVolumeRate = 0.08 // unknown types priced as gp3

// Book answers monthly cost questions for scanned resources. The zero
// value is unusable; construct with NewBook.
type Book struct {
	live   *LiveSource
	logger *slog.Logger
}

// Option configures a Book.
type Option func(*Book)

// WithLiveSource overlays the static tables with AWS Pricing API lookups.
func WithLiveSource(src *LiveSource) Option {
	return func(b *Book) { b.live = src }
}

func NewBook(logger *slog.Logger, opts ...Option) *Book {
	b := &Book{logger: logger}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// InstanceMonthly returns the monthly cost for an instance type. Unknown
// types get the flat fallback; live lookup failures fall back to the table.
func (b *Book) InstanceMonthly(ctx context.Context, region, instanceType string) float64 {
	if b.live != nil {
		if price, err := b.live.InstanceMonthly(ctx, region, instanceType); err == nil {
			return price
		} else if b.logger != nil {
			b.logger.Debug("live instance price unavailable", "instanceType", instanceType, "error", err)
		}
	}
	if price, ok := instanceMonthly[instanceType]; ok {
		return price
	}
	return FallbackInstanceMonthly
}

// VolumeMonthly returns the monthly storage cost for a volume.
func (b *Book) VolumeMonthly(ctx context.Context, region, volumeType string, sizeGB int32) float64 {
	if b.live != nil {
		if rate, err := b.live.VolumeRate(ctx, region, volumeType); err == nil {
			return rate * float64(sizeGB)
		} else if b.logger != nil {
			b.logger.Debug("live volume rate unavailable", "volumeType", volumeType, "error", err)
		}
	}
	rate, ok := volumePerGBMonth[volumeType]
	if !ok {
		rate = defaultVolumeRate
	}
	return rate * float64(sizeGB)
}

// SnapshotMonthly returns the monthly storage cost for a snapshot, priced
// by its source volume size.
func (b *Book) SnapshotMonthly(sizeGB int32) float64 {
	return SnapshotPerGBMonth * float64(sizeGB)
}

// Round rounds a money value to 2 decimal places, half away from zero.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

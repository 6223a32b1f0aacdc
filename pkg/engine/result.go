package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	awsx "github.com/aqkprogrammer/finops-saas/pkg/engine/aws"
	"github.com/aqkprogrammer/finops-saas/pkg/engine/pricing"
	"github.com/aqkprogrammer/finops-saas/pkg/engine/rules"
)

// Inventory counts what one scan saw.
type Inventory struct {
	InstanceCount int `json:"instanceCount"`
	VolumeCount   int `json:"volumeCount"`
	SnapshotCount int `json:"snapshotCount"`
}

// ScanResult is the complete output of one scan.
type ScanResult struct {
	ScanID        string             `json:"scanId"`
	Timestamp     time.Time          `json:"timestamp"`
	Region        string             `json:"region"`
	AccountID     string             `json:"accountId"`
	DurationMS    int64              `json:"durationMs"`
	Permissions   *awsx.ProbeReport  `json:"permissions"`
	Cost          *awsx.CostSummary  `json:"cost"`
	Inventory     Inventory          `json:"inventory"`
	Issues        []rules.Issue      `json:"issues"`
	Opportunities []pricing.Estimate `json:"opportunities"`
	Savings       pricing.Savings    `json:"savings"`
}

// newScanID builds a unique, time-sortable scan identifier.
func newScanID(now time.Time) string {
	return fmt.Sprintf("scan-%d-%s", now.UnixNano(), uuid.NewString()[:8])
}

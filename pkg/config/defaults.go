// Package config defines default scan configuration and tunable thresholds.
package config

import "time"

const (
	DefaultRegion = "us-east-1"

	// DefaultScanTimeout bounds one full scan end to end.
	DefaultScanTimeout = 120 * time.Second
)

// ScanConfig carries the tunables a scan request can override.
type ScanConfig struct {
	// Region scoped by the scan; collectors never cross regions.
	Region string `mapstructure:"region"`
	// SessionDurationSeconds for the assumed role.
	SessionDurationSeconds int32 `mapstructure:"session_duration_seconds"`
	// Timeout for the whole scan.
	Timeout time.Duration `mapstructure:"timeout"`
	// CostWindowDays is the trailing spend window.
	CostWindowDays int `mapstructure:"cost_window_days"`
	// EnrichCPU toggles the CloudWatch utilization lookup per running instance.
	EnrichCPU bool `mapstructure:"enrich_cpu"`
	// RulesFile optionally layers custom rules over the built-ins.
	RulesFile string `mapstructure:"rules_file"`
}

// DefaultScanConfig returns the config a bare scan request runs with.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Region:         DefaultRegion,
		Timeout:        DefaultScanTimeout,
		CostWindowDays: 30,
		EnrichCPU:      true,
	}
}

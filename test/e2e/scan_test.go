//go:build e2e

package e2e

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqkprogrammer/finops-saas/pkg/engine"
)

const e2eRoleARN = "arn:aws:iam::123456789012:role/FinopsScan"

func runMockScan(t *testing.T, outputDir string) engine.ScanResult {
	t.Helper()
	out, err := runCLI(t,
		"scan",
		"--mock",
		"--role-arn", e2eRoleARN,
		"--output-dir", outputDir,
	)
	require.NoError(t, err, "scan exited non-zero")

	var result engine.ScanResult
	require.NoError(t, json.Unmarshal(out, &result), "scan output is not valid JSON: %s", out)
	return result
}

func TestMockScanProducesReport(t *testing.T) {
	outputDir := t.TempDir()
	result := runMockScan(t, outputDir)

	assert.Regexp(t, `^scan-\d+-[0-9a-f-]{8}$`, result.ScanID)
	assert.Equal(t, "123456789012", result.AccountID)
	assert.Equal(t, "us-east-1", result.Region)

	assert.Equal(t, 2, result.Inventory.InstanceCount)
	assert.Equal(t, 2, result.Inventory.VolumeCount)
	assert.Equal(t, 2, result.Inventory.SnapshotCount)

	require.Len(t, result.Issues, 3)
	ruleIDs := make([]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		ruleIDs = append(ruleIDs, issue.RuleID)
	}
	assert.ElementsMatch(t, []string{"idle_ec2", "unattached_ebs", "old_snapshot"}, ruleIDs)

	require.NotNil(t, result.Cost)
	assert.Greater(t, result.Cost.TotalCost, 0.0)
	require.NotNil(t, result.Permissions)
	assert.True(t, result.Permissions.OK())

	assert.Greater(t, result.Savings.TotalMonthlySavings, 0.0)
	assert.Greater(t, result.Savings.TotalAnnualSavings, result.Savings.TotalMonthlySavings)
}

func TestMockScanPersistsResult(t *testing.T) {
	outputDir := t.TempDir()
	result := runMockScan(t, outputDir)

	stored := filepath.Join(outputDir, "scans", result.ScanID+".json")
	data, err := os.ReadFile(stored)
	require.NoError(t, err, "result not persisted at %s", stored)

	var persisted engine.ScanResult
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, result.ScanID, persisted.ScanID)
	assert.Len(t, persisted.Issues, len(result.Issues))
}

func TestScanRequiresRoleARN(t *testing.T) {
	_, err := runCLI(t, "scan", "--mock")
	assert.Error(t, err)
}

func TestScanRejectsMalformedRoleARN(t *testing.T) {
	_, err := runCLI(t, "scan", "--mock", "--role-arn", "not-an-arn", "--output-dir", t.TempDir())
	assert.Error(t, err)
}

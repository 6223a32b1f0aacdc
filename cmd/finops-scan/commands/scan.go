package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqkprogrammer/finops-saas/pkg/engine"
	"github.com/aqkprogrammer/finops-saas/pkg/storage"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one account scan",
	Long: `Runs the full scan pipeline against a customer account: assume the
given role, validate permissions, collect resources and spend, evaluate the
waste rules, and print the result as JSON.

Example:
  finops-scan scan --role-arn arn:aws:iam::123456789012:role/FinopsScan --region us-east-1
  finops-scan scan --role-arn ... --external-id acme-7f3a --rules-file rules.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		roleARN, _ := cmd.Flags().GetString("role-arn")
		externalID, _ := cmd.Flags().GetString("external-id")
		rulesFile, _ := cmd.Flags().GetString("rules-file")
		noEnrich, _ := cmd.Flags().GetBool("no-metrics")
		livePricing, _ := cmd.Flags().GetBool("live-pricing")
		sessionDuration, _ := cmd.Flags().GetInt32("session-duration")
		costWindowDays, _ := cmd.Flags().GetInt("cost-window-days")

		engineCfg.SkipCPUMetrics = noEnrich
		engineCfg.RulesFile = rulesFile
		engineCfg.LivePricing = livePricing
		engineCfg.SessionDurationSeconds = sessionDuration
		engineCfg.CostWindowDays = costWindowDays
		engineCfg.Timeout = time.Duration(timeoutSec) * time.Second

		opts := []engine.Option{engine.WithConfig(engineCfg)}
		if outputDir != "" {
			store := resultStore(outputDir)
			opts = append(opts, engine.WithResultStore(store))
		}

		svc, err := engine.New(cmd.Context(), opts...)
		if err != nil {
			return err
		}

		result, err := svc.Scan(cmd.Context(), engine.ScanRequest{
			RoleARN:    roleARN,
			ExternalID: externalID,
			Region:     engineCfg.Region,
		})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

// resultStore maps the output target onto a storage backend: s3://bucket
// persists remotely, anything else is a local directory.
func resultStore(target string) *storage.ResultStore {
	if strings.HasPrefix(target, "s3://") {
		// The S3 backend needs base credentials; the scan command builds it
		// lazily inside the engine when configured. Fall back to local when
		// no SDK config is available.
		bucket := strings.TrimPrefix(target, "s3://")
		if cfg, err := loadBaseConfig(); err == nil {
			return storage.NewResultStore(storage.NewS3Store(cfg, bucket))
		}
		fmt.Fprintln(os.Stderr, "[WARN] S3 output unavailable, writing locally")
		target = ".finops-scan"
	}
	return storage.NewResultStore(storage.NewLocalStore(target))
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("role-arn", "", "Customer role ARN to assume (required)")
	scanCmd.Flags().String("external-id", "", "External ID for the role trust policy")
	scanCmd.Flags().String("rules-file", "", "YAML file of custom rules layered over the built-ins")
	scanCmd.Flags().Bool("no-metrics", false, "Skip CloudWatch CPU enrichment (faster, fewer API calls)")
	scanCmd.Flags().Bool("live-pricing", false, "Refresh price tables from the AWS Pricing API")
	scanCmd.Flags().Int32("session-duration", 0, "Assumed role session duration in seconds")
	scanCmd.Flags().Int("cost-window-days", 0, "Trailing cost window in days (default 30)")
	scanCmd.MarkFlagRequired("role-arn")
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	sdkconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/aqkprogrammer/finops-saas/pkg/engine"
)

var resultsCmd = &cobra.Command{
	Use:   "results [scan-id]",
	Short: "List or show persisted scan results",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := resultStore(outputDir)

		if len(args) == 0 {
			ids, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("No stored scans.")
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		}

		var result engine.ScanResult
		if err := store.Load(cmd.Context(), args[0], &result); err != nil {
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

func loadBaseConfig() (awssdk.Config, error) {
	return sdkconfig.LoadDefaultConfig(context.Background())
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aqkprogrammer/finops-saas/pkg/engine/permissions"
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Print the IAM policy the scan role needs",
	Long:  `Generates the exact read-only AWS IAM JSON policy a customer attaches to the scan role.`,
	Run: func(cmd *cobra.Command, args []string) {
		capabilities, _ := cmd.Flags().GetStringSlice("only")

		jsonBytes, err := permissions.GeneratePolicy(capabilities)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating policy: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(jsonBytes))
	},
}

func init() {
	rootCmd.AddCommand(permissionsCmd)
	permissionsCmd.Flags().StringSlice("only", nil, "Limit to capabilities (EC2, CloudWatch, CostExplorer)")
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aqkprogrammer/finops-saas/pkg/config"
	"github.com/aqkprogrammer/finops-saas/pkg/engine"
	"github.com/aqkprogrammer/finops-saas/pkg/version"
)

var (
	cfgFile    string
	engineCfg  engine.Config
	outputDir  string
	timeoutSec int
)

var rootCmd = &cobra.Command{
	Use:     "finops-scan",
	Short:   "AWS cost-optimization scanner",
	Long:    `finops-scan assumes a customer role, inventories EC2 resources and spend, and reports waste findings with projected savings.`,
	Version: version.Current,
	Run:     nil,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.finops-scan.yaml)")
	rootCmd.PersistentFlags().StringVar(&engineCfg.Region, "region", config.DefaultRegion, "AWS region to scan")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", ".finops-scan", "Directory for persisted results")
	rootCmd.PersistentFlags().StringVar(&engineCfg.OtelEndpoint, "otel-endpoint", "", "OTLP HTTP endpoint for traces")
	rootCmd.PersistentFlags().IntVar(&timeoutSec, "timeout", int(config.DefaultScanTimeout/time.Second), "Scan deadline in seconds")

	// Hidden Flags
	rootCmd.PersistentFlags().BoolVar(&engineCfg.MockMode, "mock", false, "Run against fixture data")
	rootCmd.PersistentFlags().MarkHidden("mock")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".finops-scan.yaml"))
			viper.SetConfigType("yaml")
		}
	}
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

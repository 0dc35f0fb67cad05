package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rustyeddy/mcfolio/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "mcfolio",
	Short: "Monte Carlo simulator for personal-finance portfolios",
	Long: `Mcfolio simulates personal-finance portfolios forward in time under
uncertain growth, inflation and prices.

It provides tools for:
  - Describing accounts, loans and property in a scenario file
  - Scheduling transfers, purchases, sales and mortgage payments
  - Running thousands of independent trials side by side
  - Journaling every trial to CSV or SQLite and summarizing outcomes

Every flag can also be set from the environment with the MCFOLIO_ prefix,
for example MCFOLIO_LOG_LEVEL=debug.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(viper.GetString("log_level"), viper.GetBool("log_pretty"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	viper.SetEnvPrefix("mcfolio")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error, off)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "human readable console logs")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the mcfolio CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mcfolio version %s\n", version)
		fmt.Fprintln(out, "Monte Carlo simulator for personal-finance portfolios")
		fmt.Fprintln(out, "https://github.com/rustyeddy/mcfolio")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

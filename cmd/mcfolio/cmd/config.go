package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/mcfolio/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate scenario files",
	Long: `Manage scenario files for Monte Carlo runs.

Subcommands:
  init     - Generate a default rent-versus-buy scenario
  validate - Validate an existing scenario file

Examples:
  mcfolio config init -o scenario.yaml
  mcfolio config validate -f scenario.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default scenario file",
	Long: `Create a new scenario file with default settings.

Example:
  mcfolio config init -o scenario.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a scenario file",
	Long: `Check that a scenario file loads, that every formula parses and that
every operation names an instrument of its portfolio.

Example:
  mcfolio config validate -f scenario.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "scenario.yaml", "output scenario file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to scenario file (required)")
	_ = configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created default scenario: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  mcfolio run -f %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Scenario valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Trials: %d (seed %d, %s)\n", cfg.Simulation.Trials, cfg.Simulation.Seed, cfg.Simulation.Currency)
	fmt.Fprintf(out, "  Variables: %d\n", len(cfg.Variables))
	for _, p := range cfg.Portfolios {
		fmt.Fprintf(out, "  Portfolio: %s (%d instruments, %d operations)\n", p.Name, len(p.Instruments), len(p.Operations))
	}
	journalType := cfg.Journal.Type
	if journalType == "" {
		journalType = "none"
	}
	fmt.Fprintf(out, "  Journal: %s\n", journalType)
	return nil
}

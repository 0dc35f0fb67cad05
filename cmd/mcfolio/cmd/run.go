package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/mcfolio/config"
	"github.com/rustyeddy/mcfolio/internal/logger"
	"github.com/rustyeddy/mcfolio/metrics"
	"github.com/rustyeddy/mcfolio/montecarlo"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a Monte Carlo simulation from a scenario file",
	Long: `Run every portfolio of a scenario for the configured number of trials
and print a summary of the final totals.

Trials, seed and worker count from the file can be overridden on the
command line.

Example:
  mcfolio run -f scenario.yaml --trials 5000 --seed 42`,
	RunE: runRun,
}

var (
	runConfigPath  string
	runTrials      int
	runSeed        uint64
	runWorkers     int
	runMetricsFile string
	runTimeline    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "file", "f", "", "path to scenario file (YAML or JSON) (required)")
	runCmd.Flags().IntVarP(&runTrials, "trials", "n", 0, "number of trials (overrides the file)")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "random seed (overrides the file)")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "concurrent trials (overrides the file)")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics", "", "write Prometheus metrics to this textfile (overrides the file)")
	runCmd.Flags().BoolVar(&runTimeline, "timeline", false, "print the median total at every reporting time")
	_ = runCmd.MarkFlagRequired("file")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("trials") {
		cfg.Simulation.Trials = runTrials
	}
	if flags.Changed("seed") {
		cfg.Simulation.Seed = runSeed
	}
	if flags.Changed("workers") {
		cfg.Simulation.Workers = runWorkers
	}
	if flags.Changed("metrics") {
		cfg.Metrics.Textfile = runMetricsFile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	runner, err := cfg.Runner()
	if err != nil {
		return fmt.Errorf("build scenario: %w", err)
	}

	j, err := cfg.Journal.Open()
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	runner.Journal = j

	collector := metrics.NewCollector()
	runner.Observer = collector

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Running scenario %q from %s\n", cfg.Scenario, runConfigPath)
	fmt.Fprintf(out, "  Trials: %d  Seed: %d  Portfolios: %d\n\n", cfg.Simulation.Trials, cfg.Simulation.Seed, len(cfg.Portfolios))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, runErr := runner.Run(ctx)
	if err := j.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close journal: %w", err)
	}

	if cfg.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.L().Error().Err(err).Str("path", cfg.Metrics.Textfile).Msg("write metrics")
		}
	}
	if runErr != nil {
		return fmt.Errorf("run: %w", runErr)
	}

	montecarlo.PrintSummary(out, res.RunID, res.Finals, cfg.Simulation.Currency)

	if runTimeline {
		for _, p := range runner.Portfolios {
			fmt.Fprintf(out, "\n%s\n", p.Name)
			for _, s := range res.Summaries(p.Name) {
				fmt.Fprintf(out, "  year %6.2f  p50 %s\n", s.T, montecarlo.FormatMoney(s.P50, cfg.Simulation.Currency))
			}
		}
	}
	return nil
}

package cmd

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rustyeddy/mcfolio/journal"
	"github.com/rustyeddy/mcfolio/montecarlo"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded runs",
	Long: `Query runs recorded in a SQLite journal.

Subcommands:
  runs     - List recorded runs, newest first
  values   - Print every recorded value of one portfolio as CSV
  summary  - Summarize the final totals of a run as an org-mode entry

Examples:
  mcfolio journal runs
  mcfolio journal values <run-id> rent
  mcfolio journal summary <run-id>`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalValuesCmd = &cobra.Command{
	Use:   "values <run-id> <portfolio>",
	Short: "Print the recorded values of a portfolio as CSV",
	Args:  cobra.ExactArgs(2),
	RunE:  runJournalValues,
}

var journalSummaryCmd = &cobra.Command{
	Use:   "summary <run-id>",
	Short: "Summarize a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalSummary,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalValuesCmd)
	journalCmd.AddCommand(journalSummaryCmd)

	journalCmd.PersistentFlags().StringP("db", "d", "./mcfolio.db", "path to SQLite journal DB")
	_ = viper.BindPFlag("db", journalCmd.PersistentFlags().Lookup("db"))
}

func openJournal() (*journal.SQLiteJournal, error) {
	j, err := journal.NewSQLite(viper.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns()
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s  %-20s trials=%d seed=%d\n",
			r.RunID, r.Created.Local().Format(time.DateTime), r.Scenario, r.Trials, r.Seed)
	}
	return nil
}

func runJournalValues(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	vals, err := j.ListValues(args[0], args[1])
	if err != nil {
		return fmt.Errorf("query values: %w", err)
	}

	w := csv.NewWriter(cmd.OutOrStdout())
	if err := w.Write([]string{"trial", "step", "t", "instrument", "value"}); err != nil {
		return err
	}
	for _, v := range vals {
		err := w.Write([]string{
			strconv.Itoa(v.Trial),
			strconv.Itoa(v.Step),
			strconv.FormatFloat(v.T, 'f', -1, 64),
			v.Instrument,
			strconv.FormatFloat(v.Value, 'f', 2, 64),
		})
		if err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func runJournalSummary(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	run, err := j.GetRun(args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	var summaries []journal.SummaryRecord
	for _, p := range run.Portfolios {
		totals, err := j.FinalTotals(run.RunID, p)
		if err != nil {
			return fmt.Errorf("query totals: %w", err)
		}
		summaries = append(summaries, montecarlo.SummarizeTotals(p, totals))
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatRunOrg(run, summaries))
	return nil
}

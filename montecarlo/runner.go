// Package montecarlo runs portfolios across independent trials and reduces
// each trial's history into reporting rows.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/mcfolio/expr"
	"github.com/rustyeddy/mcfolio/instrument"
	"github.com/rustyeddy/mcfolio/internal/id"
	"github.com/rustyeddy/mcfolio/internal/logger"
	"github.com/rustyeddy/mcfolio/journal"
	"github.com/rustyeddy/mcfolio/sim"
)

// Observer is told about every executed (trial, portfolio) pair.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveTrial(portfolio string, d time.Duration, final float64, err error)
}

// Options controls a run.
type Options struct {
	Trials     int
	YearLength float64 // internal time units per year; default 365
	Workers    int     // concurrent trials; default GOMAXPROCS
	Seed       uint64
}

// TrialError reports the trial and portfolio whose schedule failed.
type TrialError struct {
	Trial     int
	Portfolio string
	Err       error
}

func (e *TrialError) Error() string {
	return fmt.Sprintf("trial %d: %v", e.Trial, e.Err)
}

func (e *TrialError) Unwrap() error { return e.Err }

// Result holds the rows of every portfolio, in trial order, and the
// summary of each portfolio's final totals.
type Result struct {
	RunID  string
	Rows   map[string][]Row
	Finals []journal.SummaryRecord
}

// Summaries returns the per-time summaries of one portfolio.
func (r Result) Summaries(portfolio string) []Summary {
	return Summarize(portfolio, r.Rows[portfolio])
}

// Runner executes every portfolio once per trial. Each trial samples its
// variables once and all portfolios in that trial see the same values.
type Runner struct {
	Portfolios []sim.Portfolio
	Variables  Variables
	Options    Options

	Observer Observer        // optional
	Journal  journal.Journal // optional; written after all trials succeed
	RunID    string          // generated when empty
	Scenario string
}

func (r *Runner) Run(ctx context.Context) (Result, error) {
	if len(r.Portfolios) == 0 {
		return Result{}, errors.New("montecarlo: no portfolios")
	}
	if r.Options.Trials <= 0 {
		return Result{}, fmt.Errorf("montecarlo: trials must be positive, got %d", r.Options.Trials)
	}
	seen := map[string]bool{}
	for _, p := range r.Portfolios {
		if seen[p.Name] {
			return Result{}, fmt.Errorf("montecarlo: duplicate portfolio %q", p.Name)
		}
		seen[p.Name] = true
		if err := checkNames(p); err != nil {
			return Result{}, fmt.Errorf("montecarlo: %w", err)
		}
	}
	if err := r.Variables.Validate(); err != nil {
		return Result{}, fmt.Errorf("montecarlo: %w", err)
	}

	yearLength := r.Options.YearLength
	if yearLength <= 0 {
		yearLength = instrument.DefaultYearLength
	}
	workers := r.Options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	runID := r.RunID
	if runID == "" {
		runID = id.New()
	}
	trials := r.Options.Trials
	log := logger.L().With().Str("run_id", runID).Logger()

	// Sampling happens up front in trial order so plain func producers
	// are called deterministically.
	envs := make([]expr.Env, trials)
	for i := range envs {
		env, err := SampleEnv(r.Variables, r.Options.Seed, i)
		if err != nil {
			return Result{}, fmt.Errorf("montecarlo: trial %d: %w", i, err)
		}
		envs[i] = env
	}

	log.Info().
		Int("trials", trials).
		Int("portfolios", len(r.Portfolios)).
		Int("workers", workers).
		Uint64("seed", r.Options.Seed).
		Msg("run start")
	started := time.Now()

	engine := sim.NewEngine(yearLength)
	perTrial := make([][][]Row, trials)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for trial := 0; trial < trials; trial++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows := make([][]Row, len(r.Portfolios))
			for pi, p := range r.Portfolios {
				t0 := time.Now()
				h, err := engine.Run(p, envs[trial])
				d := time.Since(t0)
				if err != nil {
					r.observe(p.Name, d, 0, err)
					log.Error().Int("trial", trial).Str("portfolio", p.Name).Err(err).Msg("trial failed")
					return &TrialError{Trial: trial, Portfolio: p.Name, Err: err}
				}
				r.observe(p.Name, d, h.Final().Total(), nil)
				rows[pi] = Reduce(h, trial, yearLength)
			}
			perTrial[trial] = rows
			log.Debug().Int("trial", trial).Msg("trial done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{RunID: runID, Rows: make(map[string][]Row, len(r.Portfolios))}
	for pi, p := range r.Portfolios {
		var rows []Row
		for trial := range perTrial {
			rows = append(rows, perTrial[trial][pi]...)
		}
		res.Rows[p.Name] = rows
		res.Finals = append(res.Finals, Final(p.Name, rows))
	}

	log.Info().Dur("elapsed", time.Since(started)).Msg("run finished")

	if r.Journal != nil {
		if err := r.record(res, yearLength); err != nil {
			return res, fmt.Errorf("montecarlo: journal: %w", err)
		}
	}
	return res, nil
}

func (r *Runner) observe(portfolio string, d time.Duration, final float64, err error) {
	if r.Observer != nil {
		r.Observer.ObserveTrial(portfolio, d, final, err)
	}
}

func (r *Runner) record(res Result, yearLength float64) error {
	names := make([]string, len(r.Portfolios))
	for i, p := range r.Portfolios {
		names[i] = p.Name
	}
	err := r.Journal.RecordRun(journal.RunRecord{
		RunID:      res.RunID,
		Created:    time.Now().UTC(),
		Scenario:   r.Scenario,
		Portfolios: names,
		Trials:     r.Options.Trials,
		Seed:       r.Options.Seed,
		YearLength: yearLength,
	})
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := r.Journal.RecordValues(valueRecords(res.RunID, name, res.Rows[name])); err != nil {
			return err
		}
	}
	return nil
}

// Run executes portfolios for the given number of trials with default
// options and returns each portfolio's rows in trial order.
func Run(ctx context.Context, portfolios []sim.Portfolio, vars Variables, trials int) (map[string][]Row, error) {
	r := &Runner{Portfolios: portfolios, Variables: vars, Options: Options{Trials: trials}}
	res, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

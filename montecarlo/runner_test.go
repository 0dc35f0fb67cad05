package montecarlo

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/mcfolio/dist"
	"github.com/rustyeddy/mcfolio/expr"
	"github.com/rustyeddy/mcfolio/instrument"
	"github.com/rustyeddy/mcfolio/journal"
	"github.com/rustyeddy/mcfolio/sim"
)

type recordingObserver struct {
	mu     sync.Mutex
	calls  map[string]int
	failed map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{calls: map[string]int{}, failed: map[string]int{}}
}

func (o *recordingObserver) ObserveTrial(portfolio string, _ time.Duration, _ float64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls[portfolio]++
	if err != nil {
		o.failed[portfolio]++
	}
}

func savingsPortfolio(name, balance string) sim.Portfolio {
	return sim.Portfolio{
		Name: name,
		Instruments: map[string]instrument.Template{
			"checking": instrument.Cash(expr.Formula(balance), expr.Value(0)),
			"savings":  instrument.Cash(expr.Value(0), expr.Value(0)),
		},
		Schedule: []sim.Event{
			{At: 365, Op: sim.Identity{}},
			{At: 0, Op: sim.Transfer{From: "checking", To: "savings", Amount: expr.Value(200)}},
		},
	}
}

func TestRunRowsPerSnapshot(t *testing.T) {
	t.Parallel()

	rows, err := Run(context.Background(),
		[]sim.Portfolio{savingsPortfolio("p", "1000")}, Variables{}, 3)
	require.NoError(t, err)

	got := rows["p"]
	// start, transfer, implicit advance, identity
	require.Len(t, got, 12)
	for trial := 0; trial < 3; trial++ {
		tr := got[trial*4 : trial*4+4]
		for _, r := range tr {
			assert.Equal(t, trial, r.Trial)
		}
		assert.Equal(t, []float64{0, 0, 1, 1}, []float64{tr[0].T, tr[1].T, tr[2].T, tr[3].T})
		assert.Equal(t, 1000.0, tr[0].Values["checking"])
		assert.Equal(t, 800.0, tr[1].Values["checking"])
		assert.Equal(t, 200.0, tr[1].Values["savings"])
		assert.Equal(t, 1000.0, tr[3].Total)
	}

	m := got[1].Map()
	assert.Equal(t, 0, m[KeyTrial])
	assert.Equal(t, 0.0, m[KeyT])
	assert.Equal(t, 800.0, m["checking"])
	assert.Equal(t, 1000.0, m[KeyTotal])
}

func TestRunSharesDrawsAcrossPortfolios(t *testing.T) {
	t.Parallel()

	r := &Runner{
		Portfolios: []sim.Portfolio{
			savingsPortfolio("single", "start"),
			savingsPortfolio("double", "start * 2"),
		},
		Variables: Variables{"start": dist.Uniform{Lower: 1000, Upper: 2000}},
		Options:   Options{Trials: 20, Seed: 9, Workers: 4},
	}
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	single, double := res.Rows["single"], res.Rows["double"]
	require.Equal(t, len(single), len(double))
	seen := map[float64]bool{}
	for i := range single {
		assert.InDelta(t, 2*single[i].Total, double[i].Total, 1e-9)
		seen[single[i].Total] = true
	}
	assert.Greater(t, len(seen), 1, "trials should draw different values")
}

func TestRunIsReproducibleAcrossWorkerCounts(t *testing.T) {
	t.Parallel()

	run := func(workers int) map[string][]Row {
		r := &Runner{
			Portfolios: []sim.Portfolio{savingsPortfolio("p", "start")},
			Variables:  Variables{"start": dist.Normal{Mean: 5000, StdDev: 500}},
			Options:    Options{Trials: 50, Seed: 123, Workers: workers},
		}
		res, err := r.Run(context.Background())
		require.NoError(t, err)
		return res.Rows
	}
	assert.Equal(t, run(1), run(8))
}

func TestRunFuncProducersCalledInTrialOrder(t *testing.T) {
	t.Parallel()

	n := 0.0
	next := func() float64 { n++; return n * 1000 }
	r := &Runner{
		Portfolios: []sim.Portfolio{savingsPortfolio("p", "start")},
		Variables:  Variables{"start": next},
		Options:    Options{Trials: 5, Workers: 3},
	}
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	for _, row := range res.Rows["p"] {
		if row.T == 0 && row.Values["savings"] == 0 {
			assert.Equal(t, float64(row.Trial+1)*1000, row.Total)
		}
	}
}

func TestRunFailureSurfaces(t *testing.T) {
	t.Parallel()

	obs := newRecordingObserver()
	r := &Runner{
		Portfolios: []sim.Portfolio{savingsPortfolio("broke", "100")},
		Options:    Options{Trials: 4, Workers: 1},
		Observer:   obs,
	}
	_, err := r.Run(context.Background())
	require.Error(t, err)

	var te *TrialError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "broke", te.Portfolio)
	assert.Equal(t, 0, te.Trial)
	assert.ErrorIs(t, err, sim.ErrInsufficientFunds)

	var oe *sim.OpError
	assert.ErrorAs(t, err, &oe)
	assert.Equal(t, 1, obs.failed["broke"])
}

func TestRunObserverSeesEveryTrial(t *testing.T) {
	t.Parallel()

	obs := newRecordingObserver()
	r := &Runner{
		Portfolios: []sim.Portfolio{savingsPortfolio("a", "1000"), savingsPortfolio("b", "500")},
		Options:    Options{Trials: 7},
		Observer:   obs,
	}
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, obs.calls["a"])
	assert.Equal(t, 7, obs.calls["b"])
	assert.Zero(t, obs.failed["a"])
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	p := savingsPortfolio("p", "1000")
	cases := []struct {
		name string
		r    Runner
	}{
		{"no portfolios", Runner{Options: Options{Trials: 1}}},
		{"no trials", Runner{Portfolios: []sim.Portfolio{p}}},
		{"duplicate", Runner{Portfolios: []sim.Portfolio{p, p}, Options: Options{Trials: 1}}},
		{"bad binding", Runner{Portfolios: []sim.Portfolio{p}, Variables: Variables{"x": "nope"}, Options: Options{Trials: 1}}},
		{"bad sampler", Runner{Portfolios: []sim.Portfolio{p}, Variables: Variables{"x": dist.Uniform{Lower: 2, Upper: 1}}, Options: Options{Trials: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.r.Run(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestRunRejectsReservedNames(t *testing.T) {
	t.Parallel()

	held := savingsPortfolio("held", "1000")
	held.Instruments[KeyTotal] = instrument.Cash(expr.Value(1), expr.Value(0))

	bought := savingsPortfolio("bought", "1000")
	bought.Schedule = append(bought.Schedule, sim.Event{At: 10, Op: sim.BuyAsset{
		Name:            KeyT,
		PaymentAccounts: []string{"checking"},
		Cost:            expr.Value(100),
		Asset:           instrument.Land(expr.Value(100), expr.Value(0)),
	}})

	for _, p := range []sim.Portfolio{held, bought} {
		r := &Runner{Portfolios: []sim.Portfolio{p}, Options: Options{Trials: 1}}
		_, err := r.Run(context.Background())
		assert.ErrorIs(t, err, ErrReservedName, p.Name)
	}
	assert.False(t, IsReserved("checking"))
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Portfolios: []sim.Portfolio{savingsPortfolio("p", "1000")}, Options: Options{Trials: 10}}
	_, err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunWritesJournal(t *testing.T) {
	t.Parallel()

	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	r := &Runner{
		Portfolios: []sim.Portfolio{savingsPortfolio("p", "start")},
		Variables:  Variables{"start": dist.Uniform{Lower: 1000, Upper: 2000}},
		Options:    Options{Trials: 3, Seed: 5},
		Journal:    j,
		RunID:      "RUN1",
		Scenario:   "savings",
	}
	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RUN1", res.RunID)

	run, err := j.GetRun("RUN1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, run.Portfolios)
	assert.Equal(t, uint64(5), run.Seed)

	finals, err := j.FinalTotals("RUN1", "p")
	require.NoError(t, err)
	require.Len(t, finals, 3)
	for trial, v := range finals {
		assert.InDelta(t, res.Rows["p"][trial*4+3].Total, v, 1e-6)
	}

	vals, err := j.ListValues("RUN1", "p")
	require.NoError(t, err)
	// 3 trials x 4 rows x (2 instruments + Total)
	assert.Len(t, vals, 36)
}

func TestSampleEnv(t *testing.T) {
	t.Parallel()

	vars := Variables{
		"years":  30,
		"rate":   0.05,
		"renter": true,
		"growth": dist.Uniform{Lower: 0, Upper: 1},
	}
	a, err := SampleEnv(vars, 1, 2)
	require.NoError(t, err)
	b, err := SampleEnv(vars, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 30.0, a["years"])
	assert.Equal(t, 0.05, a["rate"])
	assert.Equal(t, true, a["renter"])

	_, err = SampleEnv(Variables{"bad": "x"}, 1, 0)
	assert.Error(t, err)
}

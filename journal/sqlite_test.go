package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLiteJournal, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('runs','run_values')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["runs"])
	assert.True(t, found["run_values"])
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	run := RunRecord{
		RunID:      "01RUN",
		Created:    time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
		Scenario:   "retire",
		Portfolios: []string{"rent", "buy"},
		Trials:     2,
		Seed:       1 << 63,
		YearLength: 365,
	}
	require.NoError(t, j.RecordRun(run))

	vals := []ValueRecord{
		{RunID: run.RunID, Portfolio: "rent", Trial: 1, Step: 0, T: 0, Instrument: TotalInstrument, Value: 10},
		{RunID: run.RunID, Portfolio: "rent", Trial: 1, Step: 1, T: 1, Instrument: TotalInstrument, Value: 30},
		{RunID: run.RunID, Portfolio: "rent", Trial: 0, Step: 0, T: 0, Instrument: "cash", Value: 10},
		{RunID: run.RunID, Portfolio: "rent", Trial: 0, Step: 0, T: 0, Instrument: TotalInstrument, Value: 10},
		{RunID: run.RunID, Portfolio: "rent", Trial: 0, Step: 1, T: 1, Instrument: TotalInstrument, Value: 20},
		{RunID: run.RunID, Portfolio: "buy", Trial: 0, Step: 0, T: 0, Instrument: TotalInstrument, Value: 99},
	}
	require.NoError(t, j.RecordValues(vals))

	got, err := j.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
	assert.True(t, got.Created.Equal(run.Created))
	assert.Equal(t, run.Scenario, got.Scenario)
	assert.Equal(t, run.Portfolios, got.Portfolios)
	assert.Equal(t, run.Trials, got.Trials)
	assert.Equal(t, run.Seed, got.Seed)
	assert.InDelta(t, run.YearLength, got.YearLength, 1e-9)

	rent, err := j.ListValues(run.RunID, "rent")
	require.NoError(t, err)
	require.Len(t, rent, 5)
	assert.Equal(t, 0, rent[0].Trial)
	assert.Equal(t, TotalInstrument, rent[0].Instrument)
	assert.Equal(t, "cash", rent[1].Instrument)
	assert.Equal(t, 1, rent[4].Trial)

	finals, err := j.FinalTotals(run.RunID, "rent")
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 30}, finals)
}

func TestSQLiteListRunsNewestFirst(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordRun(RunRecord{RunID: "A", Created: base, Scenario: "s", Trials: 1}))
	require.NoError(t, j.RecordRun(RunRecord{RunID: "B", Created: base.Add(time.Hour), Scenario: "s", Trials: 1}))

	runs, err := j.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "B", runs[0].RunID)
	assert.Equal(t, "A", runs[1].RunID)
	assert.Empty(t, runs[0].Portfolios)
}

func TestSQLiteGetRunMissing(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	_, err := j.GetRun("nope")
	assert.ErrorContains(t, err, "not found")
}

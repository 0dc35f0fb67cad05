package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// GetRun returns a single run record by ID.
func (j *SQLiteJournal) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`
		SELECT run_id, created, scenario, portfolios, trials, seed, year_length
		FROM runs
		WHERE run_id = ?`, runID)

	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns every run, newest first.
func (j *SQLiteJournal) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, created, scenario, portfolios, trials, seed, year_length
		FROM runs
		ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListValues returns the values recorded for one portfolio of a run,
// ordered by trial, step and instrument.
func (j *SQLiteJournal) ListValues(runID, portfolio string) ([]ValueRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, portfolio, trial, step, t, instrument, value
		FROM run_values
		WHERE run_id = ? AND portfolio = ?
		ORDER BY trial ASC, step ASC, instrument ASC`, runID, portfolio)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ValueRecord
	for rows.Next() {
		var v ValueRecord
		if err := rows.Scan(&v.RunID, &v.Portfolio, &v.Trial, &v.Step, &v.T, &v.Instrument, &v.Value); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// FinalTotals returns, per trial, the Total of the last recorded step.
func (j *SQLiteJournal) FinalTotals(runID, portfolio string) ([]float64, error) {
	rows, err := j.db.Query(`
		SELECT v.value
		FROM run_values v
		JOIN (
			SELECT trial, MAX(step) AS step
			FROM run_values
			WHERE run_id = ? AND portfolio = ?
			GROUP BY trial
		) last ON last.trial = v.trial AND last.step = v.step
		WHERE v.run_id = ? AND v.portfolio = ? AND v.instrument = ?
		ORDER BY v.trial ASC`, runID, portfolio, runID, portfolio, TotalInstrument)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		rec        RunRecord
		portfolios string
		seed       int64
	)
	if err := s.Scan(&rec.RunID, &rec.Created, &rec.Scenario, &portfolios, &rec.Trials, &seed, &rec.YearLength); err != nil {
		return RunRecord{}, err
	}
	if portfolios != "" {
		rec.Portfolios = strings.Split(portfolios, ",")
	}
	rec.Seed = uint64(seed)
	return rec, nil
}

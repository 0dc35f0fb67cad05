package journal

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, scenario, portfolios, trials, seed, year_length)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Scenario, strings.Join(r.Portfolios, ","),
		r.Trials, int64(r.Seed), r.YearLength,
	)
	return err
}

// RecordValues inserts all records in a single transaction.
func (j *SQLiteJournal) RecordValues(recs []ValueRecord) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO run_values
		(run_id, portfolio, trial, step, t, instrument, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, v := range recs {
		if _, err := stmt.Exec(v.RunID, v.Portfolio, v.Trial, v.Step, v.T, v.Instrument, v.Value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert value %s/%s trial %d: %w", v.Portfolio, v.Instrument, v.Trial, err)
		}
	}
	return tx.Commit()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

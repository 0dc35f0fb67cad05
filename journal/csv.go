package journal

import (
	"encoding/csv"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	runsHeader   = []string{"run_id", "created", "scenario", "portfolios", "trials", "seed", "year_length"}
	valuesHeader = []string{"run_id", "portfolio", "trial", "step", "t", "instrument", "value"}
)

// CSVJournal writes runs and values to two CSV files in long format.
type CSVJournal struct {
	runs   *csv.Writer
	values *csv.Writer
	rf, vf *os.File
}

func NewCSV(runsPath, valuesPath string) (*CSVJournal, error) {
	rf, err := os.Create(runsPath)
	if err != nil {
		return nil, err
	}
	vf, err := os.Create(valuesPath)
	if err != nil {
		_ = rf.Close()
		return nil, err
	}

	rw := csv.NewWriter(rf)
	vw := csv.NewWriter(vf)
	if err := writeHeader(rw, runsHeader); err != nil {
		_ = rf.Close()
		_ = vf.Close()
		return nil, err
	}
	if err := writeHeader(vw, valuesHeader); err != nil {
		_ = rf.Close()
		_ = vf.Close()
		return nil, err
	}

	return &CSVJournal{rw, vw, rf, vf}, nil
}

func writeHeader(w *csv.Writer, header []string) error {
	if err := w.Write(header); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) RecordRun(r RunRecord) error {
	err := j.runs.Write([]string{
		r.RunID,
		r.Created.UTC().Format(time.RFC3339),
		r.Scenario,
		strings.Join(r.Portfolios, ";"),
		strconv.Itoa(r.Trials),
		strconv.FormatUint(r.Seed, 10),
		f(r.YearLength),
	})
	if err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSVJournal) RecordValues(recs []ValueRecord) error {
	for _, v := range recs {
		err := j.values.Write([]string{
			v.RunID,
			v.Portfolio,
			strconv.Itoa(v.Trial),
			strconv.Itoa(v.Step),
			f(v.T),
			v.Instrument,
			f(v.Value),
		})
		if err != nil {
			return err
		}
	}
	j.values.Flush()
	return j.values.Error()
}

// Close flushes both writers and closes both files, reporting the first error.
func (j *CSVJournal) Close() error {
	j.runs.Flush()
	j.values.Flush()
	return errors.Join(j.runs.Error(), j.values.Error(), j.rf.Close(), j.vf.Close())
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

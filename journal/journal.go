// Package journal persists simulation runs and the values they report.
package journal

import "time"

// TotalInstrument is the instrument name under which a snapshot's total is recorded.
const TotalInstrument = "Total"

// RunRecord describes one Monte Carlo run.
type RunRecord struct {
	RunID      string
	Created    time.Time
	Scenario   string
	Portfolios []string
	Trials     int
	Seed       uint64
	YearLength float64
}

// ValueRecord is one instrument's value in one reported snapshot.
type ValueRecord struct {
	RunID      string
	Portfolio  string
	Trial      int
	Step       int
	T          float64 // years
	Instrument string
	Value      float64
}

// SummaryRecord aggregates the final totals of a portfolio across trials.
type SummaryRecord struct {
	Portfolio string
	Trials    int
	Mean      float64
	P5        float64
	P50       float64
	P95       float64
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordValues([]ValueRecord) error
	Close() error
}

// Discard is a Journal that records nothing.
type Discard struct{}

func (Discard) RecordRun(RunRecord) error        { return nil }
func (Discard) RecordValues([]ValueRecord) error { return nil }
func (Discard) Close() error                     { return nil }

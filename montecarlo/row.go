package montecarlo

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/mcfolio/journal"
	"github.com/rustyeddy/mcfolio/sim"
)

// Reserved row keys. Instruments may not use these names.
const (
	KeyTrial = "trial"
	KeyT     = "t"
	KeyTotal = journal.TotalInstrument
)

var ErrReservedName = errors.New("reserved instrument name")

// IsReserved reports whether name collides with a row key.
func IsReserved(name string) bool {
	return name == KeyTrial || name == KeyT || name == KeyTotal
}

// checkNames rejects instruments, including those bought later, whose
// names would shadow a row key.
func checkNames(p sim.Portfolio) error {
	for name := range p.Instruments {
		if IsReserved(name) {
			return fmt.Errorf("%w %q in portfolio %q", ErrReservedName, name, p.Name)
		}
	}
	for _, ev := range p.Schedule {
		var name string
		switch op := ev.Op.(type) {
		case sim.BuyAsset:
			name = op.Name
		case *sim.BuyAsset:
			name = op.Name
		}
		if IsReserved(name) {
			return fmt.Errorf("%w %q in portfolio %q", ErrReservedName, name, p.Name)
		}
	}
	return nil
}

// Row reports one snapshot of one trial.
type Row struct {
	Trial  int
	T      float64 // years
	Values map[string]float64
	Total  float64
}

// Map returns the row keyed by trial, t, each instrument name and Total.
// Instrument names must not be reserved; Runner.Run rejects them.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Values)+3)
	for name, v := range r.Values {
		m[name] = v
	}
	m[KeyTrial] = r.Trial
	m[KeyT] = r.T
	m[KeyTotal] = r.Total
	return m
}

// Reduce turns a history into one row per snapshot, with time expressed
// in years of yearLength.
func Reduce(h sim.History, trial int, yearLength float64) []Row {
	rows := make([]Row, len(h))
	for i, s := range h {
		rows[i] = Row{
			Trial:  trial,
			T:      s.Time / yearLength,
			Values: s.Values(),
			Total:  s.Total(),
		}
	}
	return rows
}

func valueRecords(runID, portfolio string, rows []Row) []journal.ValueRecord {
	var out []journal.ValueRecord
	step, trial := 0, -1
	for _, r := range rows {
		if r.Trial != trial {
			trial, step = r.Trial, 0
		}
		for _, name := range sortedKeys(r.Values) {
			out = append(out, journal.ValueRecord{
				RunID: runID, Portfolio: portfolio, Trial: r.Trial, Step: step,
				T: r.T, Instrument: name, Value: r.Values[name],
			})
		}
		out = append(out, journal.ValueRecord{
			RunID: runID, Portfolio: portfolio, Trial: r.Trial, Step: step,
			T: r.T, Instrument: KeyTotal, Value: r.Total,
		})
		step++
	}
	return out
}

// Package sim replays a portfolio's schedule of operations over its
// instruments, producing the history of snapshots for one trial.
package sim

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/mcfolio/expr"
	"github.com/rustyeddy/mcfolio/instrument"
)

// Event is an operation scheduled at a point in simulated time.
type Event struct {
	At float64
	Op Op
}

// Portfolio is a named set of instrument templates and the operations to
// replay against them. Templates and events are never modified by a run.
type Portfolio struct {
	Name        string
	Instruments map[string]instrument.Template
	Schedule    []Event
}

// OpError reports which scheduled operation failed.
type OpError struct {
	Op   string
	Time float64
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s at t=%g: %v", e.Op, e.Time, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Engine executes schedules. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	YearLength float64
}

func NewEngine(yearLength float64) *Engine {
	if yearLength <= 0 {
		yearLength = instrument.DefaultYearLength
	}
	return &Engine{YearLength: yearLength}
}

// Run instantiates p's instruments against env, sorts the schedule by time
// (stable, so ties keep their order) and replays it.
func (e *Engine) Run(p Portfolio, env expr.Env) (History, error) {
	start, err := Instantiate(p.Instruments, env)
	if err != nil {
		return nil, fmt.Errorf("portfolio %q: %w", p.Name, err)
	}
	events := make([]Event, len(p.Schedule))
	copy(events, p.Schedule)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At < events[j].At })

	h, err := e.Replay(start, events, env)
	if err != nil {
		return nil, fmt.Errorf("portfolio %q: %w", p.Name, err)
	}
	return h, nil
}

// Replay applies events in the order given, starting the clock at the first
// event's timestamp. Gaps between events are filled with a TimeAdvance; an
// event earlier than the clock is rejected.
func (e *Engine) Replay(start Snapshot, events []Event, env expr.Env) (History, error) {
	h := make(History, 0, 2*len(events)+1)
	h = append(h, start)
	if len(events) == 0 {
		return h, nil
	}

	clock := events[0].At
	for _, ev := range events {
		dt := ev.At - clock
		if dt < 0 {
			return nil, &OpError{Op: ev.Op.String(), Time: ev.At,
				Err: fmt.Errorf("%w: clock is at %g", ErrNonMonotonic, clock)}
		}
		if dt > 0 {
			next, err := TimeAdvance{DT: dt, YearLength: e.YearLength}.Apply(h[len(h)-1], env)
			if err != nil {
				return nil, &OpError{Op: "advance", Time: ev.At, Err: err}
			}
			h = append(h, next)
			clock += dt
		}
		next, err := ev.Op.Apply(h[len(h)-1], env)
		if err != nil {
			return nil, &OpError{Op: ev.Op.String(), Time: ev.At, Err: err}
		}
		h = append(h, next)
	}
	return h, nil
}

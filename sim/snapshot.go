package sim

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/mcfolio/expr"
	"github.com/rustyeddy/mcfolio/instrument"
)

// Snapshot is the full set of instruments at one point of simulated time.
// A snapshot owns its instruments; no two snapshots share one.
type Snapshot struct {
	Time        float64
	Instruments map[string]instrument.Instrument
}

// Instantiate builds the starting snapshot at time 0 from templates.
func Instantiate(templates map[string]instrument.Template, env expr.Env) (Snapshot, error) {
	s := Snapshot{Instruments: make(map[string]instrument.Instrument, len(templates))}
	for name, t := range templates {
		in, err := t.Instantiate(env)
		if err != nil {
			return Snapshot{}, fmt.Errorf("instrument %q: %w", name, err)
		}
		s.Instruments[name] = in
	}
	return s, nil
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Time: s.Time, Instruments: make(map[string]instrument.Instrument, len(s.Instruments))}
	for name, in := range s.Instruments {
		out.Instruments[name] = in.Clone()
	}
	return out
}

// Names returns the instrument names in sorted order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.Instruments))
	for name := range s.Instruments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values returns each instrument's current value by name.
func (s Snapshot) Values() map[string]float64 {
	out := make(map[string]float64, len(s.Instruments))
	for name, in := range s.Instruments {
		out[name] = in.Value()
	}
	return out
}

// Total sums every instrument's value, in name order.
func (s Snapshot) Total() float64 {
	var total float64
	for _, name := range s.Names() {
		total += s.Instruments[name].Value()
	}
	return total
}

func (s Snapshot) lookup(name string) (instrument.Instrument, error) {
	in, ok := s.Instruments[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownInstrument, name)
	}
	return in, nil
}

func (s Snapshot) holder(name string) (instrument.Holder, error) {
	in, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	h, ok := in.(instrument.Holder)
	if !ok {
		return nil, fmt.Errorf("%w: %q is a %s, not an account", ErrWrongKind, name, in.Kind())
	}
	return h, nil
}

func (s Snapshot) saleable(name string) (instrument.Saleable, error) {
	in, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	a, ok := in.(instrument.Saleable)
	if !ok {
		return nil, fmt.Errorf("%w: %q is a %s, not a sellable asset", ErrWrongKind, name, in.Kind())
	}
	return a, nil
}

func (s Snapshot) debt(name string) (instrument.Debt, error) {
	in, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	d, ok := in.(instrument.Debt)
	if !ok {
		return nil, fmt.Errorf("%w: %q is a %s, not a loan", ErrWrongKind, name, in.Kind())
	}
	return d, nil
}

// History is the ordered sequence of snapshots produced by one schedule run.
type History []Snapshot

// Final returns the last snapshot.
func (h History) Final() Snapshot {
	if len(h) == 0 {
		return Snapshot{}
	}
	return h[len(h)-1]
}

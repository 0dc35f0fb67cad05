package config

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/mcfolio/expr"
	"github.com/rustyeddy/mcfolio/instrument"
	"github.com/rustyeddy/mcfolio/montecarlo"
	"github.com/rustyeddy/mcfolio/sim"
)

func (p PortfolioConfig) validate(vars map[string]VariableConfig) error {
	if len(p.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	known := map[string]bool{}
	for _, name := range sortedNames(p.Instruments) {
		ic := p.Instruments[name]
		if montecarlo.IsReserved(name) {
			return fmt.Errorf("instrument name %q is reserved", name)
		}
		if err := ic.validate(); err != nil {
			return fmt.Errorf("instrument %q: %w", name, err)
		}
		if err := checkParams(ic.params(), vars); err != nil {
			return fmt.Errorf("instrument %q %w", name, err)
		}
		known[name] = true
	}
	for _, oc := range p.Operations {
		if oc.Buy != nil {
			if montecarlo.IsReserved(oc.Buy.Name) {
				return fmt.Errorf("instrument name %q is reserved", oc.Buy.Name)
			}
			known[oc.Buy.Name] = true
		}
	}

	for i, oc := range p.Operations {
		if err := oc.validate(); err != nil {
			return fmt.Errorf("operations[%d]: %w", i, err)
		}
		for _, ref := range oc.refs() {
			if !known[ref] {
				return fmt.Errorf("operations[%d]: unknown instrument %q", i, ref)
			}
		}
		if err := checkParams(oc.params(), vars); err != nil {
			return fmt.Errorf("operations[%d] %w", i, err)
		}
	}
	return nil
}

// checkParams verifies every formula parses and only names declared variables.
func checkParams(params map[string]expr.Param, vars map[string]VariableConfig) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p := params[k]
		if !p.IsFormula() {
			continue
		}
		names, err := expr.Variables(p.Source())
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		for _, n := range names {
			if _, ok := vars[n]; !ok {
				return fmt.Errorf("%s: %w %q", k, expr.ErrUnknownVariable, n)
			}
		}
	}
	return nil
}

// Portfolio builds the simulation portfolio, expanding repeated operations.
func (p PortfolioConfig) Portfolio(yearLength float64) (sim.Portfolio, error) {
	out := sim.Portfolio{
		Name:        p.Name,
		Instruments: make(map[string]instrument.Template, len(p.Instruments)),
	}
	for name, ic := range p.Instruments {
		t, err := ic.Template()
		if err != nil {
			return sim.Portfolio{}, fmt.Errorf("instrument %q: %w", name, err)
		}
		out.Instruments[name] = t
	}
	for i, oc := range p.Operations {
		events, err := oc.Events(yearLength)
		if err != nil {
			return sim.Portfolio{}, fmt.Errorf("operations[%d]: %w", i, err)
		}
		out.Schedule = append(out.Schedule, events...)
	}
	return out, nil
}

// BuildVariables converts the variable section into runner bindings.
func (c *Config) BuildVariables() (montecarlo.Variables, error) {
	vars := make(montecarlo.Variables, len(c.Variables))
	for name, v := range c.Variables {
		b, err := v.Binding()
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		vars[name] = b
	}
	return vars, nil
}

// Runner builds a runner for the scenario. Journal and Observer are left
// for the caller to attach.
func (c *Config) Runner() (*montecarlo.Runner, error) {
	vars, err := c.BuildVariables()
	if err != nil {
		return nil, err
	}
	portfolios := make([]sim.Portfolio, 0, len(c.Portfolios))
	for _, pc := range c.Portfolios {
		p, err := pc.Portfolio(c.Simulation.YearLength)
		if err != nil {
			return nil, fmt.Errorf("portfolio %q: %w", pc.Name, err)
		}
		portfolios = append(portfolios, p)
	}
	return &montecarlo.Runner{
		Portfolios: portfolios,
		Variables:  vars,
		Options: montecarlo.Options{
			Trials:     c.Simulation.Trials,
			YearLength: c.Simulation.YearLength,
			Workers:    c.Simulation.Workers,
			Seed:       c.Simulation.Seed,
		},
		Scenario: c.Scenario,
	}, nil
}

func sortedNames(m map[string]InstrumentConfig) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

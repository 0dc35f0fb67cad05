package montecarlo

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/mcfolio/dist"
	"github.com/rustyeddy/mcfolio/expr"
)

// Variables binds names to literal values (float64, int, bool) or to
// producers (dist.Sampler or func() float64) sampled once per trial.
type Variables map[string]any

// Names returns the variable names in sorted order.
func (v Variables) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every binding has a supported type and that
// sampler parameters are sane.
func (v Variables) Validate() error {
	for _, name := range v.Names() {
		switch b := v[name].(type) {
		case float64, int, bool, func() float64:
		case dist.Sampler:
			if err := dist.Validate(b); err != nil {
				return fmt.Errorf("variable %q: %w", name, err)
			}
		default:
			return fmt.Errorf("variable %q: unsupported binding %T", name, b)
		}
	}
	return nil
}

// SampleEnv resolves every binding for one trial. Samplers draw from the
// trial's own RNG in name order, so a trial's values depend only on seed
// and trial index.
func SampleEnv(vars Variables, seed uint64, trial int) (expr.Env, error) {
	r := dist.NewRand(seed, trial)
	env := make(expr.Env, len(vars))
	for _, name := range vars.Names() {
		switch b := vars[name].(type) {
		case float64:
			env[name] = b
		case int:
			env[name] = float64(b)
		case bool:
			env[name] = b
		case func() float64:
			env[name] = b()
		case dist.Sampler:
			env[name] = b.Sample(r)
		default:
			return nil, fmt.Errorf("variable %q: unsupported binding %T", name, b)
		}
	}
	return env, nil
}

// Package dist provides the random variables sampled once per trial.
package dist

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Sampler draws one value from a distribution using the trial's RNG.
type Sampler interface {
	Sample(r *rand.Rand) float64
}

// NewRand returns the RNG for one trial. Runs with the same seed draw the
// same values for the same trial regardless of scheduling order.
func NewRand(seed uint64, trial int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(trial)))
}

// Uniform draws from [Lower, Upper).
type Uniform struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

func (u Uniform) Sample(r *rand.Rand) float64 {
	return u.Lower + r.Float64()*(u.Upper-u.Lower)
}

// Normal draws from a normal distribution.
type Normal struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
}

func (n Normal) Sample(r *rand.Rand) float64 {
	return n.Mean + n.StdDev*r.NormFloat64()
}

// LogNormal draws exp(X) where X is normal with Mu and Sigma.
type LogNormal struct {
	Mu    float64 `json:"mu" yaml:"mu"`
	Sigma float64 `json:"sigma" yaml:"sigma"`
}

func (l LogNormal) Sample(r *rand.Rand) float64 {
	return math.Exp(l.Mu + l.Sigma*r.NormFloat64())
}

// Triangular draws from a triangular distribution on [Lower, Upper] peaking at Mode.
type Triangular struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Mode  float64 `json:"mode" yaml:"mode"`
	Upper float64 `json:"upper" yaml:"upper"`
}

func (t Triangular) Sample(r *rand.Rand) float64 {
	span := t.Upper - t.Lower
	if span <= 0 {
		return t.Lower
	}
	u := r.Float64()
	f := (t.Mode - t.Lower) / span
	if u < f {
		return t.Lower + math.Sqrt(u*span*(t.Mode-t.Lower))
	}
	return t.Upper - math.Sqrt((1-u)*span*(t.Upper-t.Mode))
}

// Choice picks one of Values, weighted by Weights when given.
type Choice struct {
	Values  []float64 `json:"values" yaml:"values"`
	Weights []float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
}

func (c Choice) Sample(r *rand.Rand) float64 {
	if len(c.Values) == 0 {
		return 0
	}
	if len(c.Weights) != len(c.Values) {
		return c.Values[r.IntN(len(c.Values))]
	}
	var total float64
	for _, w := range c.Weights {
		total += w
	}
	x := r.Float64() * total
	for i, w := range c.Weights {
		if x < w {
			return c.Values[i]
		}
		x -= w
	}
	return c.Values[len(c.Values)-1]
}

// Validate checks a sampler's parameters.
func Validate(s Sampler) error {
	switch d := s.(type) {
	case Uniform:
		if d.Upper < d.Lower {
			return fmt.Errorf("uniform: upper %g below lower %g", d.Upper, d.Lower)
		}
	case Normal:
		if d.StdDev < 0 {
			return fmt.Errorf("normal: negative stddev %g", d.StdDev)
		}
	case LogNormal:
		if d.Sigma < 0 {
			return fmt.Errorf("lognormal: negative sigma %g", d.Sigma)
		}
	case Triangular:
		if !(d.Lower <= d.Mode && d.Mode <= d.Upper) {
			return fmt.Errorf("triangular: need lower <= mode <= upper, got %g, %g, %g", d.Lower, d.Mode, d.Upper)
		}
	case Choice:
		if len(d.Values) == 0 {
			return fmt.Errorf("choice: no values")
		}
		if len(d.Weights) > 0 && len(d.Weights) != len(d.Values) {
			return fmt.Errorf("choice: %d weights for %d values", len(d.Weights), len(d.Values))
		}
		for _, w := range d.Weights {
			if w < 0 {
				return fmt.Errorf("choice: negative weight %g", w)
			}
		}
	}
	return nil
}

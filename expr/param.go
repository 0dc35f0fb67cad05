package expr

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Param is either a literal (number or boolean) or a formula resolved
// against a trial's variables. The zero Param is unset and resolves to 0.
type Param struct {
	lit    any
	source string
}

// Value returns a literal numeric parameter.
func Value(v float64) Param { return Param{lit: v} }

// Flag returns a literal boolean parameter.
func Flag(b bool) Param { return Param{lit: b} }

// Formula returns a parameter evaluated against the trial's variables.
func Formula(src string) Param { return Param{source: src} }

// IsSet reports whether the parameter carries a value or a formula.
func (p Param) IsSet() bool { return p.lit != nil || p.source != "" }

// IsZero reports an unset parameter, so encoders can omit it.
func (p Param) IsZero() bool { return !p.IsSet() }

// IsFormula reports whether the parameter is deferred.
func (p Param) IsFormula() bool { return p.source != "" }

// Source returns the formula text, or "" for literals.
func (p Param) Source() string { return p.source }

func (p Param) String() string {
	switch {
	case p.source != "":
		return p.source
	case p.lit == nil:
		return "0"
	}
	return fmt.Sprint(p.lit)
}

// Resolve returns p's literal unchanged, or evaluates its formula against env.
func Resolve(p Param, env Env) (any, error) {
	if p.source == "" {
		if p.lit == nil {
			return 0.0, nil
		}
		return p.lit, nil
	}
	return Eval(p.source, env)
}

// Float resolves p as a number.
func (p Param) Float(env Env) (float64, error) {
	v, err := Resolve(p, env)
	if err != nil {
		return 0, err
	}
	f, err := ToFloat(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", p, err)
	}
	return f, nil
}

// Bool resolves p as a boolean.
func (p Param) Bool(env Env) (bool, error) {
	v, err := Resolve(p, env)
	if err != nil {
		return false, err
	}
	b, err := ToBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", p, err)
	}
	return b, nil
}

// Int resolves p as a number rounded to the nearest integer.
func (p Param) Int(env Env) (int, error) {
	f, err := p.Float(env)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f)), nil
}

func (p *Param) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: parameter must be a number, boolean or expression", n.Line)
	}
	switch n.Tag {
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*p = Value(f)
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		*p = Flag(b)
	default:
		*p = Formula(n.Value)
	}
	return nil
}

func (p Param) MarshalYAML() (any, error) {
	if p.source != "" {
		return p.source, nil
	}
	if p.lit == nil {
		return 0.0, nil
	}
	return p.lit, nil
}

func (p *Param) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*p = Value(x)
	case bool:
		*p = Flag(x)
	case string:
		*p = Formula(x)
	case nil:
		*p = Param{}
	default:
		return fmt.Errorf("parameter must be a number, boolean or expression, got %T", v)
	}
	return nil
}

func (p Param) MarshalJSON() ([]byte, error) {
	v, _ := p.MarshalYAML()
	return json.Marshal(v)
}

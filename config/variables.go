package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/mcfolio/dist"
)

// VariableConfig is either a literal (number or boolean) or exactly one
// distribution sampled once per trial. In files a literal is written bare:
//
//	years: 30
//	growth: {uniform: {lower: 0.02, upper: 0.08}}
type VariableConfig struct {
	Value      any              `json:"-" yaml:"-"`
	Uniform    *dist.Uniform    `json:"uniform,omitempty" yaml:"uniform,omitempty"`
	Normal     *dist.Normal     `json:"normal,omitempty" yaml:"normal,omitempty"`
	LogNormal  *dist.LogNormal  `json:"lognormal,omitempty" yaml:"lognormal,omitempty"`
	Triangular *dist.Triangular `json:"triangular,omitempty" yaml:"triangular,omitempty"`
	Choice     *dist.Choice     `json:"choice,omitempty" yaml:"choice,omitempty"`
}

type plainVariable VariableConfig

// Binding returns the literal or sampler this variable stands for.
func (v VariableConfig) Binding() (any, error) {
	var out []any
	if v.Value != nil {
		out = append(out, v.Value)
	}
	if v.Uniform != nil {
		out = append(out, *v.Uniform)
	}
	if v.Normal != nil {
		out = append(out, *v.Normal)
	}
	if v.LogNormal != nil {
		out = append(out, *v.LogNormal)
	}
	if v.Triangular != nil {
		out = append(out, *v.Triangular)
	}
	if v.Choice != nil {
		out = append(out, *v.Choice)
	}
	switch len(out) {
	case 0:
		return nil, fmt.Errorf("no value or distribution given")
	case 1:
		return out[0], nil
	default:
		return nil, fmt.Errorf("exactly one value or distribution allowed, got %d", len(out))
	}
}

func (v VariableConfig) Validate() error {
	b, err := v.Binding()
	if err != nil {
		return err
	}
	switch x := b.(type) {
	case float64, bool:
		return nil
	case dist.Sampler:
		return dist.Validate(x)
	default:
		return fmt.Errorf("unsupported value %T", b)
	}
}

func (v *VariableConfig) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		switch n.Tag {
		case "!!int", "!!float":
			f, err := strconv.ParseFloat(n.Value, 64)
			if err != nil {
				return fmt.Errorf("line %d: %w", n.Line, err)
			}
			*v = VariableConfig{Value: f}
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return err
			}
			*v = VariableConfig{Value: b}
		default:
			return fmt.Errorf("line %d: variable must be a number, boolean or distribution", n.Line)
		}
		return nil
	}
	var p plainVariable
	if err := n.Decode(&p); err != nil {
		return err
	}
	*v = VariableConfig(p)
	return nil
}

func (v VariableConfig) MarshalYAML() (any, error) {
	if v.Value != nil {
		return v.Value, nil
	}
	return plainVariable(v), nil
}

func (v *VariableConfig) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		var p plainVariable
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*v = VariableConfig(p)
		return nil
	}
	var x any
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	switch x.(type) {
	case float64, bool:
		*v = VariableConfig{Value: x}
		return nil
	default:
		return fmt.Errorf("variable must be a number, boolean or distribution, got %T", x)
	}
}

func (v VariableConfig) MarshalJSON() ([]byte, error) {
	if v.Value != nil {
		return json.Marshal(v.Value)
	}
	return json.Marshal(plainVariable(v))
}

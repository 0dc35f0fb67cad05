// Package expr resolves parameters that are either literal values or
// formulas over a trial's sampled variables.
package expr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"text/scanner"

	"github.com/PaesslerAG/gval"
)

var (
	ErrUnknownVariable = errors.New("unknown variable")
	ErrMalformed       = errors.New("malformed expression")
	ErrType            = errors.New("unexpected value type")
)

// Env maps variable names to the values sampled for one trial.
// Values are float64, int or bool.
type Env map[string]any

// identifiers that are part of the language rather than variables
var keywords = map[string]bool{
	"true":  true,
	"false": true,
}

var functions = map[string]func(args ...any) (any, error){
	"exp":   unary(math.Exp),
	"log":   unary(math.Log),
	"sqrt":  unary(math.Sqrt),
	"abs":   unary(math.Abs),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"pow":   binary(math.Pow),
	"min":   binary(math.Min),
	"max":   binary(math.Max),
}

var language = func() gval.Language {
	ext := make([]gval.Language, 0, len(functions))
	for name, fn := range functions {
		ext = append(ext, gval.Function(name, fn))
	}
	return gval.Full(ext...)
}()

type compiled struct {
	eval gval.Evaluable
	vars []string
}

var cache sync.Map // source -> *compiled

// Check compiles src and reports whether it is a well formed expression
// using only whitelisted operators and functions.
func Check(src string) error {
	_, err := compile(src)
	return err
}

// Variables returns the variable names referenced by src.
func Variables(src string) ([]string, error) {
	c, err := compile(src)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.vars...), nil
}

// Eval evaluates src against env.
func Eval(src string, env Env) (any, error) {
	c, err := compile(src)
	if err != nil {
		return nil, err
	}
	for _, name := range c.vars {
		if _, ok := env[name]; !ok {
			return nil, fmt.Errorf("%w %q in %q", ErrUnknownVariable, name, src)
		}
	}
	v, err := c.eval(context.Background(), map[string]any(env))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, src, err)
	}
	if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return nil, fmt.Errorf("%w: %q evaluates to %v", ErrMalformed, src, f)
	}
	return v, nil
}

func compile(src string) (*compiled, error) {
	if c, ok := cache.Load(src); ok {
		return c.(*compiled), nil
	}
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrMalformed)
	}
	vars, err := scanIdentifiers(src)
	if err != nil {
		return nil, err
	}
	ev, err := language.NewEvaluable(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, src, err)
	}
	c, _ := cache.LoadOrStore(src, &compiled{eval: ev, vars: vars})
	return c.(*compiled), nil
}

// scanIdentifiers walks the tokens of src, rejecting selectors, indexing and
// literals of composite types, and unknown functions. It returns the distinct
// variable names in order of first appearance.
func scanIdentifiers(src string) ([]string, error) {
	var s scanner.Scanner
	s.Init(strings.NewReader(src))
	s.Mode = scanner.ScanIdents | scanner.ScanFloats | scanner.ScanInts |
		scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	var scanErr error
	s.Error = func(_ *scanner.Scanner, msg string) {
		if scanErr == nil {
			scanErr = fmt.Errorf("%w: %q: %s", ErrMalformed, src, msg)
		}
	}

	type token struct {
		kind rune
		text string
	}
	var toks []token
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		toks = append(toks, token{tok, s.TokenText()})
	}
	if scanErr != nil {
		return nil, scanErr
	}

	seen := map[string]bool{}
	var vars []string
	for i, t := range toks {
		switch t.kind {
		case '.', '[', ']', '{', '}':
			return nil, fmt.Errorf("%w: %q: %q not allowed", ErrMalformed, src, t.text)
		case scanner.Ident:
			if keywords[t.text] {
				continue
			}
			if i+1 < len(toks) && toks[i+1].kind == '(' {
				if _, ok := functions[t.text]; !ok {
					return nil, fmt.Errorf("%w: %q: unknown function %q", ErrMalformed, src, t.text)
				}
				continue
			}
			if !seen[t.text] {
				seen[t.text] = true
				vars = append(vars, t.text)
			}
		}
	}
	return vars, nil
}

// ToFloat converts an evaluation result to a float64.
func ToFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %T is not a number", ErrType, v)
}

// ToBool converts an evaluation result to a bool. Numbers are true when non-zero.
func ToBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	f, err := ToFloat(v)
	if err != nil {
		return false, fmt.Errorf("%w: %T is not a boolean", ErrType, v)
	}
	return f != 0, nil
}

func unary(fn func(float64) float64) func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		x, err := ToFloat(args[0])
		if err != nil {
			return nil, err
		}
		return fn(x), nil
	}
}

func binary(fn func(float64, float64) float64) func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
		}
		x, err := ToFloat(args[0])
		if err != nil {
			return nil, err
		}
		y, err := ToFloat(args[1])
		if err != nil {
			return nil, err
		}
		return fn(x, y), nil
	}
}

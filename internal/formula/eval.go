package formula

import (
	"fmt"
	"math"
	"strings"
)

// Vars binds variable names to values for one evaluation.
type Vars map[string]float64

type function struct {
	minArgs, maxArgs int // maxArgs < 0 means variadic
	call             func(args []float64) float64
}

func (f function) accepts(n int) bool {
	return n >= f.minArgs && (f.maxArgs < 0 || n <= f.maxArgs)
}

var functions = map[string]function{
	"min": {1, -1, func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m
	}},
	"max": {1, -1, func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m
	}},
	"abs":   {1, 1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"floor": {1, 1, func(a []float64) float64 { return math.Floor(a[0]) }},
	"ceil":  {1, 1, func(a []float64) float64 { return math.Ceil(a[0]) }},
	"round": {1, 1, func(a []float64) float64 { return math.Floor(a[0] + 0.5) }},
	"sqrt":  {1, 1, func(a []float64) float64 { return math.Sqrt(a[0]) }},
	"pow":   {2, 2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
}

// lookupFunc resolves a function name. Catalogs written for the JavaScript
// service use the Math. prefix, so it is accepted and ignored.
func lookupFunc(name string) (function, bool) {
	fn, ok := functions[strings.TrimPrefix(name, "Math.")]
	return fn, ok
}

// Eval evaluates the formula with vars bound. Division by zero follows
// IEEE semantics and may return ±Inf or NaN; callers decide how to clamp.
func (f *Formula) Eval(vars Vars) (float64, error) {
	return evalExpr(f.expr, vars)
}

func evalExpr(e *Expression, vars Vars) (float64, error) {
	v, err := evalTerm(e.Left, vars)
	if err != nil {
		return 0, err
	}
	for _, r := range e.Right {
		rhs, err := evalTerm(r.Term, vars)
		if err != nil {
			return 0, err
		}
		if r.Op == "+" {
			v += rhs
		} else {
			v -= rhs
		}
	}
	return v, nil
}

func evalTerm(t *Term, vars Vars) (float64, error) {
	v, err := evalUnary(t.Left, vars)
	if err != nil {
		return 0, err
	}
	for _, r := range t.Right {
		rhs, err := evalUnary(r.Unary, vars)
		if err != nil {
			return 0, err
		}
		switch r.Op {
		case "*":
			v *= rhs
		case "/":
			v /= rhs
		case "%":
			v = math.Mod(v, rhs)
		}
	}
	return v, nil
}

func evalUnary(u *Unary, vars Vars) (float64, error) {
	switch {
	case u.Negate != nil:
		v, err := evalUnary(u.Negate, vars)
		return -v, err
	case u.Plus != nil:
		return evalUnary(u.Plus, vars)
	}
	p := u.Primary
	switch {
	case p.Number != nil:
		return *p.Number, nil
	case p.Sub != nil:
		return evalExpr(p.Sub, vars)
	}
	s := p.Symbol
	if s.Call == nil {
		v, ok := vars[s.Name]
		if !ok {
			return 0, fmt.Errorf("unbound variable %q", s.Name)
		}
		return v, nil
	}
	fn, ok := lookupFunc(s.Name)
	if !ok || !fn.accepts(len(s.Call.Args)) {
		return 0, fmt.Errorf("invalid call to %q", s.Name)
	}
	args := make([]float64, len(s.Call.Args))
	for i, a := range s.Call.Args {
		v, err := evalExpr(a, vars)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	return fn.call(args), nil
}

package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/youruser/beebot/internal/formula"
)

// Variables a formula may reference: the effective size of the base image.
const (
	VarWidth  = "imgWidth"
	VarHeight = "imgHeight"
)

// Value is an anchor field: a literal number or a formula over the base
// image size.
type Value struct {
	Number  float64
	Formula *formula.Formula
}

// Num returns a literal Value.
func Num(v float64) Value { return Value{Number: v} }

// Expr compiles src into a formula Value.
func Expr(src string) (Value, error) {
	f, err := formula.Compile(src, VarWidth, VarHeight)
	if err != nil {
		return Value{}, err
	}
	return Value{Formula: f}, nil
}

// IsFormula reports whether the value needs evaluation.
func (v Value) IsFormula() bool { return v.Formula != nil }

// Eval returns the numeric value for an image of the given size.
func (v Value) Eval(width, height float64) (float64, error) {
	if v.Formula == nil {
		return v.Number, nil
	}
	return v.Formula.Eval(formula.Vars{VarWidth: width, VarHeight: height})
}

// UnmarshalJSON accepts a number or a string. Numeric strings are read as
// literals, anything else is compiled as a formula.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*v = Num(n)
			return nil
		}
		parsed, err := Expr(s)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("anchor value must be a number or formula: %w", err)
	}
	*v = Num(n)
	return nil
}

// MarshalJSON writes formulas back as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Formula != nil {
		return json.Marshal(v.Formula.String())
	}
	return json.Marshal(v.Number)
}

// Anchor is the placement rule for one axis. Position and Size are in
// units of the rendered base image, Offset in template pixels. When
// Absolute is set the template is drawn at exactly Offset.
type Anchor struct {
	Position Value `json:"position"`
	Offset   Value `json:"offset"`
	Size     Value `json:"size"`
	Absolute bool  `json:"absolute,omitempty"`
}

// Placement pairs the anchors of both axes.
type Placement struct {
	X Anchor `json:"x"`
	Y Anchor `json:"y"`
}

// Axis is an Anchor with every field evaluated.
type Axis struct {
	Position float64 `json:"position"`
	Offset   float64 `json:"offset"`
	Size     float64 `json:"size"`
	Absolute bool    `json:"absolute"`
}

// Resolved is a Placement evaluated for one render.
type Resolved struct {
	X Axis `json:"x"`
	Y Axis `json:"y"`
}

// Resolve evaluates both anchors for a base image of width × height.
func (p Placement) Resolve(width, height float64) (Resolved, error) {
	x, err := p.X.resolve(width, height)
	if err != nil {
		return Resolved{}, fmt.Errorf("anchor x: %w", err)
	}
	y, err := p.Y.resolve(width, height)
	if err != nil {
		return Resolved{}, fmt.Errorf("anchor y: %w", err)
	}
	return Resolved{X: x, Y: y}, nil
}

func (a Anchor) resolve(width, height float64) (Axis, error) {
	out := Axis{Absolute: a.Absolute}
	fields := []struct {
		name string
		in   Value
		out  *float64
	}{
		{"position", a.Position, &out.Position},
		{"offset", a.Offset, &out.Offset},
		{"size", a.Size, &out.Size},
	}
	for _, f := range fields {
		v, err := f.in.Eval(width, height)
		if err != nil {
			return Axis{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.out = v
	}
	return out, nil
}

// formulas returns every formula-valued field, keyed by its path.
func (p Placement) formulas() map[string]*formula.Formula {
	out := map[string]*formula.Formula{}
	for axis, a := range map[string]Anchor{"x": p.X, "y": p.Y} {
		for name, v := range map[string]Value{"position": a.Position, "offset": a.Offset, "size": a.Size} {
			if v.Formula != nil {
				out[axis+"."+name] = v.Formula
			}
		}
	}
	return out
}

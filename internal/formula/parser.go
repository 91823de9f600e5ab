// Package formula parses and evaluates the arithmetic expressions allowed in
// template anchor fields. Only numbers, a fixed set of variables and a fixed
// set of math functions are reachable from an expression.
package formula

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	formulaLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Number", Pattern: `(?:\d+\.\d*|\.\d+|\d+)(?:[eE][+-]?\d+)?`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*`},
		{Name: "Punct", Pattern: `[-+*/%(),]`},
	})

	formulaParser = participle.MustBuild[Expression](
		participle.Lexer(formulaLexer),
		participle.Elide("Whitespace"),
	)
)

// Expression is a sum of terms.
type Expression struct {
	Pos   lexer.Position
	Left  *Term     `parser:"@@"`
	Right []*OpTerm `parser:"@@*"`
}

// OpTerm is one additive operator and its right operand.
type OpTerm struct {
	Op   string `parser:"@('+' | '-')"`
	Term *Term  `parser:"@@"`
}

// Term is a product of unary operands.
type Term struct {
	Left  *Unary     `parser:"@@"`
	Right []*OpUnary `parser:"@@*"`
}

// OpUnary is one multiplicative operator and its right operand.
type OpUnary struct {
	Op    string `parser:"@('*' | '/' | '%')"`
	Unary *Unary `parser:"@@"`
}

// Unary is an optionally signed primary.
type Unary struct {
	Negate  *Unary   `parser:"  '-' @@"`
	Plus    *Unary   `parser:"| '+' @@"`
	Primary *Primary `parser:"| @@"`
}

// Primary is a literal, a variable or call, or a parenthesised expression.
type Primary struct {
	Number *float64    `parser:"  @Number"`
	Symbol *Symbol     `parser:"| @@"`
	Sub    *Expression `parser:"| '(' @@ ')'"`
}

// Symbol is a variable reference, or a function call when Call is set.
type Symbol struct {
	Pos  lexer.Position
	Name string    `parser:"@Ident"`
	Call *CallArgs `parser:"@@?"`
}

// CallArgs holds the argument list of a function call.
type CallArgs struct {
	Open bool          `parser:"@'('"`
	Args []*Expression `parser:"( @@ ( ',' @@ )* )? ')'"`
}

// SyntaxError reports a formula that does not parse or references
// something outside the allowed variables and functions.
type SyntaxError struct {
	Source string
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("formula %q: %s", e.Source, e.Msg)
}

// Formula is a parsed expression together with its source text.
type Formula struct {
	src  string
	expr *Expression
}

// Parse builds a Formula from src. It checks syntax only; use Validate or
// Compile to check variable and function names.
func Parse(src string) (*Formula, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &SyntaxError{Source: src, Msg: "empty expression"}
	}
	expr, err := formulaParser.ParseString("", src)
	if err != nil {
		return nil, &SyntaxError{Source: src, Msg: err.Error()}
	}
	return &Formula{src: src, expr: expr}, nil
}

// Compile parses src and validates it against vars.
func Compile(src string, vars ...string) (*Formula, error) {
	f, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(vars...); err != nil {
		return nil, err
	}
	return f, nil
}

// String returns the source text.
func (f *Formula) String() string { return f.src }

// Variables lists the distinct variable names the formula references.
func (f *Formula) Variables() []string {
	seen := map[string]bool{}
	var out []string
	walkSymbols(f.expr, func(s *Symbol) {
		if s.Call == nil && !seen[s.Name] {
			seen[s.Name] = true
			out = append(out, s.Name)
		}
	})
	return out
}

// Validate checks that every variable is one of vars and every call names
// a known function with a valid argument count.
func (f *Formula) Validate(vars ...string) error {
	allowed := make(map[string]struct{}, len(vars))
	for _, v := range vars {
		allowed[v] = struct{}{}
	}
	var err error
	walkSymbols(f.expr, func(s *Symbol) {
		if err != nil {
			return
		}
		if s.Call == nil {
			if _, ok := allowed[s.Name]; !ok {
				err = &SyntaxError{Source: f.src, Msg: fmt.Sprintf("unknown variable %q at %s", s.Name, s.Pos)}
			}
			return
		}
		fn, ok := lookupFunc(s.Name)
		if !ok {
			err = &SyntaxError{Source: f.src, Msg: fmt.Sprintf("unknown function %q at %s", s.Name, s.Pos)}
			return
		}
		if !fn.accepts(len(s.Call.Args)) {
			err = &SyntaxError{Source: f.src, Msg: fmt.Sprintf("%s: wrong number of arguments (%d)", s.Name, len(s.Call.Args))}
		}
	})
	return err
}

func walkSymbols(e *Expression, visit func(*Symbol)) {
	if e == nil {
		return
	}
	walkTerm(e.Left, visit)
	for _, r := range e.Right {
		walkTerm(r.Term, visit)
	}
}

func walkTerm(t *Term, visit func(*Symbol)) {
	walkUnary(t.Left, visit)
	for _, r := range t.Right {
		walkUnary(r.Unary, visit)
	}
}

func walkUnary(u *Unary, visit func(*Symbol)) {
	switch {
	case u.Negate != nil:
		walkUnary(u.Negate, visit)
	case u.Plus != nil:
		walkUnary(u.Plus, visit)
	case u.Primary != nil:
		p := u.Primary
		switch {
		case p.Symbol != nil:
			visit(p.Symbol)
			if p.Symbol.Call != nil {
				for _, a := range p.Symbol.Call.Args {
					walkSymbols(a, visit)
				}
			}
		case p.Sub != nil:
			walkSymbols(p.Sub, visit)
		}
	}
}

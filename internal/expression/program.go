// Package expression implements the small formula language used by pattern
// definitions. Sources are compiled once into an immutable Program and then
// evaluated against a read-only Context for every bar.
package expression

import (
	"math"

	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// Program is a compiled expression. The zero value is empty and evaluates to null.
type Program struct {
	source string
	root   node
}

// Compile parses src into a Program.
func Compile(src string) (Program, error) {
	root, err := parse(src)
	if err != nil {
		return Program{}, err
	}

	return Program{source: src, root: root}, nil
}

// MustCompile is like Compile but panics on a syntax error.
func MustCompile(src string) Program {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}

	return p
}

// Source returns the text the program was compiled from.
func (p Program) Source() string {
	return p.source
}

// IsEmpty reports whether the program holds no expression.
func (p Program) IsEmpty() bool {
	return p.root == nil
}

// Eval evaluates the program.
func (p Program) Eval(ctx *Context) (Value, error) {
	if p.root == nil {
		return Null(), nil
	}

	if ctx == nil {
		ctx = &Context{}
	}

	v, err := p.root.eval(ctx)
	if err != nil {
		return Null(), errors.Wrapf(errors.GetCode(err), err, "evaluate %q", p.source)
	}

	return v, nil
}

// EvalFloat evaluates the program and requires a finite numeric result.
func (p Program) EvalFloat(ctx *Context) (float64, error) {
	v, err := p.Eval(ctx)
	if err != nil {
		return 0, err
	}

	if v.kind != KindNumber {
		return 0, errors.Newf(errors.ErrCodeExpressionTypeError, "%q evaluated to %s, expected number", p.source, v.kind)
	}

	if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
		return 0, errors.Newf(errors.ErrCodeExpressionEval, "%q evaluated to %g", p.source, v.num)
	}

	return v.num, nil
}

// EvalBool evaluates the program and returns its truthiness.
func (p Program) EvalBool(ctx *Context) (bool, error) {
	v, err := p.Eval(ctx)
	if err != nil {
		return false, err
	}

	return v.Truthy(), nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Program) MarshalText() ([]byte, error) {
	return []byte(p.source), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so programs can be
// decoded straight from JSON and YAML definitions.
func (p *Program) UnmarshalText(text []byte) error {
	compiled, err := Compile(string(text))
	if err != nil {
		return err
	}

	*p = compiled

	return nil
}

package expression

import (
	"math"

	"github.com/rxtech-lab/argo-options/pkg/errors"
)

func (n *numberLit) eval(*Context) (Value, error) { return Number(n.value), nil }

func (n *stringLit) eval(*Context) (Value, error) { return String(n.value), nil }

func (n *boolLit) eval(*Context) (Value, error) { return Bool(n.value), nil }

func (n *nullLit) eval(*Context) (Value, error) { return Null(), nil }

func (n *ident) eval(ctx *Context) (Value, error) { return ctx.lookup(n.name) }

func (n *member) eval(ctx *Context) (Value, error) {
	target, err := n.target.eval(ctx)
	if err != nil {
		return Null(), err
	}

	switch target.kind {
	case KindBar:
		if v, ok := barAttr(target.bar, n.name); ok {
			return v, nil
		}
	case KindObject:
		if v, ok := target.obj.Get(n.name); ok {
			return v, nil
		}
	case KindNull:
		return Null(), errors.Newf(errors.ErrCodeDataNotFound, "cannot read %q of unavailable value", n.name)
	}

	return Null(), errors.Newf(errors.ErrCodeUnknownIdentifier, "%s has no attribute %q", target.kind, n.name)
}

func (n *index) eval(ctx *Context) (Value, error) {
	target, err := n.target.eval(ctx)
	if err != nil {
		return Null(), err
	}

	if target.kind != KindSeries {
		return Null(), errors.Newf(errors.ErrCodeExpressionTypeError, "cannot index %s", target.kind)
	}

	idxVal, err := n.index.eval(ctx)
	if err != nil {
		return Null(), err
	}

	i, err := asInt(idxVal)
	if err != nil {
		return Null(), err
	}

	if i < 0 {
		i += len(target.series)
	}

	if i < 0 || i >= len(target.series) {
		return Null(), errors.Newf(errors.ErrCodeDataNotFound, "history index out of range (len %d)", len(target.series))
	}

	return BarValue(target.series[i]), nil
}

func (n *unary) eval(ctx *Context) (Value, error) {
	v, err := n.operand.eval(ctx)
	if err != nil {
		return Null(), err
	}

	if n.op == "!" {
		return Bool(!v.Truthy()), nil
	}

	f, err := v.Float()
	if err != nil {
		return Null(), err
	}

	return Number(-f), nil
}

func (n *logical) eval(ctx *Context) (Value, error) {
	left, err := n.left.eval(ctx)
	if err != nil {
		return Null(), err
	}

	if n.and && !left.Truthy() {
		return Bool(false), nil
	}

	if !n.and && left.Truthy() {
		return Bool(true), nil
	}

	right, err := n.right.eval(ctx)
	if err != nil {
		return Null(), err
	}

	return Bool(right.Truthy()), nil
}

func (n *binary) eval(ctx *Context) (Value, error) {
	left, err := n.left.eval(ctx)
	if err != nil {
		return Null(), err
	}

	right, err := n.right.eval(ctx)
	if err != nil {
		return Null(), err
	}

	switch n.op {
	case "==", "!=":
		eq, err := equal(left, right)
		if err != nil {
			return Null(), err
		}

		return Bool(eq == (n.op == "==")), nil
	}

	l, err := left.Float()
	if err != nil {
		return Null(), err
	}

	r, err := right.Float()
	if err != nil {
		return Null(), err
	}

	switch n.op {
	case "+":
		return Number(l + r), nil
	case "-":
		return Number(l - r), nil
	case "*":
		return Number(l * r), nil
	case "/":
		if r == 0 {
			return Null(), errors.New(errors.ErrCodeExpressionEval, "division by zero")
		}

		return Number(l / r), nil
	case "%":
		if r == 0 {
			return Null(), errors.New(errors.ErrCodeExpressionEval, "modulo by zero")
		}

		return Number(math.Mod(l, r)), nil
	case "<":
		return Bool(l < r), nil
	case "<=":
		return Bool(l <= r), nil
	case ">":
		return Bool(l > r), nil
	case ">=":
		return Bool(l >= r), nil
	}

	return Null(), errors.Newf(errors.ErrCodeExpressionEval, "unknown operator %q", n.op)
}

func (n *call) eval(ctx *Context) (Value, error) {
	args := make([]Value, len(n.args))

	for i, a := range n.args {
		v, err := a.eval(ctx)
		if err != nil {
			return Null(), err
		}

		args[i] = v
	}

	return callFunction(ctx, n.name, args)
}

func equal(left, right Value) (bool, error) {
	if left.kind == KindNull || right.kind == KindNull {
		return left.kind == right.kind, nil
	}

	if left.kind == KindString || right.kind == KindString {
		if left.kind != right.kind {
			return false, nil
		}

		return left.str == right.str, nil
	}

	l, err := left.Float()
	if err != nil {
		return false, err
	}

	r, err := right.Float()
	if err != nil {
		return false, err
	}

	return l == r, nil
}

func asInt(v Value) (int, error) {
	f, err := v.Float()
	if err != nil {
		return 0, err
	}

	if f != math.Trunc(f) {
		return 0, errors.Newf(errors.ErrCodeExpressionTypeError, "expected integer, got %g", f)
	}

	return int(f), nil
}

package expression

// node is an element of the parsed expression tree.
type node interface {
	eval(ctx *Context) (Value, error)
}

type numberLit struct{ value float64 }

type stringLit struct{ value string }

type boolLit struct{ value bool }

type nullLit struct{}

type ident struct{ name string }

type member struct {
	target node
	name   string
}

type index struct {
	target node
	index  node
}

type unary struct {
	op      string
	operand node
}

type binary struct {
	op          string
	left, right node
}

type logical struct {
	and         bool
	left, right node
}

type call struct {
	name string
	args []node
}

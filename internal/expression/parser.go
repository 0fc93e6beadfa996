package expression

import (
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

type parser struct {
	tokens []token
	pos    int
	src    string
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}

	return t
}

func (p *parser) isOp(ops ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp && t.kind != tokIdent {
		return "", false
	}

	for _, op := range ops {
		if t.text == op {
			return op, true
		}
	}

	return "", false
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return errors.Wrapf(errors.ErrCodeExpressionSyntax,
		errors.Newf(errors.ErrCodeExpressionSyntax, format, args...),
		"cannot parse %q at position %d", p.src, t.pos)
}

func parse(src string) (node, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens, src: src}

	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}

	return root, nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for {
		if _, ok := p.isOp("||", "or"); !ok {
			return left, nil
		}

		p.next()

		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}

		left = &logical{and: false, left: left, right: right}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for {
		if _, ok := p.isOp("&&", "and"); !ok {
			return left, nil
		}

		p.next()

		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		left = &logical{and: true, left: left, right: right}
	}
}

func (p *parser) parseNot() (node, error) {
	if _, ok := p.isOp("not"); ok {
		p.next()

		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		return &unary{op: "!", operand: operand}, nil
	}

	return p.parseComparison()
}

// parseComparison chains comparisons so that a < b < c reads as a < b and b < c.
func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	var result node

	for {
		op, ok := p.isOp("<", "<=", ">", ">=", "==", "!=")
		if !ok {
			break
		}

		p.next()

		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}

		cmp := &binary{op: op, left: left, right: right}
		if result == nil {
			result = cmp
		} else {
			result = &logical{and: true, left: result, right: cmp}
		}

		left = right
	}

	if result == nil {
		return left, nil
	}

	return result, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.isOp("+", "-")
		if !ok {
			return left, nil
		}

		p.next()

		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}

		left = &binary{op: op, left: left, right: right}
	}
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.isOp("*", "/", "%")
		if !ok {
			return left, nil
		}

		p.next()

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		left = &binary{op: op, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if op, ok := p.isOp("-", "+", "!"); ok && p.peek().kind == tokOp {
		p.next()

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		if op == "+" {
			return operand, nil
		}

		return &unary{op: op, operand: operand}, nil
	}

	return p.parsePostfix()
}

func (p *parser) parsePostfix() (node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()

		switch t.kind {
		case tokDot:
			p.next()

			name := p.next()
			if name.kind != tokIdent {
				return nil, p.errorf(name, "expected attribute name after '.'")
			}

			expr = &member{target: expr, name: name.text}

		case tokLBracket:
			p.next()

			idx, err := p.parseOr()
			if err != nil {
				return nil, err
			}

			if closing := p.next(); closing.kind != tokRBracket {
				return nil, p.errorf(closing, "expected ']'")
			}

			expr = &index{target: expr, index: idx}

		case tokLParen:
			callee, ok := expr.(*ident)
			if !ok {
				return nil, p.errorf(t, "only named functions can be called")
			}

			p.next()

			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}

			expr = &call{name: callee.name, args: args}

		default:
			return expr, nil
		}
	}
}

func (p *parser) parseArgs() ([]node, error) {
	var args []node

	if p.peek().kind == tokRParen {
		p.next()

		return args, nil
	}

	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		t := p.next()

		switch t.kind {
		case tokComma:
			continue
		case tokRParen:
			return args, nil
		default:
			return nil, p.errorf(t, "expected ',' or ')' in argument list")
		}
	}
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()

	switch t.kind {
	case tokNumber:
		return &numberLit{value: t.num}, nil
	case tokString:
		return &stringLit{value: t.text}, nil
	case tokIdent:
		switch t.text {
		case "true", "True":
			return &boolLit{value: true}, nil
		case "false", "False":
			return &boolLit{value: false}, nil
		case "null", "None", "nil":
			return &nullLit{}, nil
		case "and", "or", "not":
			return nil, p.errorf(t, "unexpected keyword %q", t.text)
		}

		return &ident{name: t.text}, nil
	case tokLParen:
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')'")
		}

		return expr, nil
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of expression")
	default:
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
}

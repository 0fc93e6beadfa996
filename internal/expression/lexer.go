package expression

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/rxtech-lab/argo-options/pkg/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokDot
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

var twoCharOps = []string{"<=", ">=", "==", "!=", "&&", "||"}

// lex splits an expression into tokens.
func lex(src string) ([]token, error) {
	var tokens []token

	i := 0
	for i < len(src) {
		c := rune(src[i])

		switch {
		case unicode.IsSpace(c):
			i++

		case unicode.IsDigit(c) || (c == '.' && i+1 < len(src) && unicode.IsDigit(rune(src[i+1]))):
			start := i
			for i < len(src) && (unicode.IsDigit(rune(src[i])) || src[i] == '.') {
				i++
			}

			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}

				if j < len(src) && unicode.IsDigit(rune(src[j])) {
					i = j
					for i < len(src) && unicode.IsDigit(rune(src[i])) {
						i++
					}
				}
			}

			n, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, errors.Newf(errors.ErrCodeExpressionSyntax, "invalid number %q at %d", src[start:i], start)
			}

			tokens = append(tokens, token{kind: tokNumber, text: src[start:i], num: n, pos: start})

		case c == '_' || unicode.IsLetter(c):
			start := i
			for i < len(src) && (src[i] == '_' || unicode.IsLetter(rune(src[i])) || unicode.IsDigit(rune(src[i]))) {
				i++
			}

			tokens = append(tokens, token{kind: tokIdent, text: src[start:i], pos: start})

		case c == '"' || c == '\'':
			start := i
			i++

			var sb strings.Builder
			for i < len(src) && rune(src[i]) != c {
				if src[i] == '\\' && i+1 < len(src) {
					i++
				}

				sb.WriteByte(src[i])
				i++
			}

			if i >= len(src) {
				return nil, errors.Newf(errors.ErrCodeExpressionSyntax, "unterminated string at %d", start)
			}

			i++
			tokens = append(tokens, token{kind: tokString, text: sb.String(), pos: start})

		default:
			start := i
			if i+1 < len(src) {
				pair := src[i : i+2]
				matched := false

				for _, op := range twoCharOps {
					if pair == op {
						tokens = append(tokens, token{kind: tokOp, text: op, pos: start})
						i += 2
						matched = true

						break
					}
				}

				if matched {
					continue
				}
			}

			i++

			switch c {
			case '(':
				tokens = append(tokens, token{kind: tokLParen, text: "(", pos: start})
			case ')':
				tokens = append(tokens, token{kind: tokRParen, text: ")", pos: start})
			case '[':
				tokens = append(tokens, token{kind: tokLBracket, text: "[", pos: start})
			case ']':
				tokens = append(tokens, token{kind: tokRBracket, text: "]", pos: start})
			case ',':
				tokens = append(tokens, token{kind: tokComma, text: ",", pos: start})
			case '.':
				tokens = append(tokens, token{kind: tokDot, text: ".", pos: start})
			case '+', '-', '*', '/', '%', '<', '>', '!':
				tokens = append(tokens, token{kind: tokOp, text: string(c), pos: start})
			default:
				return nil, errors.Newf(errors.ErrCodeExpressionSyntax, "unexpected character %q at %d", c, start)
			}
		}
	}

	tokens = append(tokens, token{kind: tokEOF, pos: len(src)})

	return tokens, nil
}

package sym

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// ErrSyntax is returned for malformed expressions.
var ErrSyntax = errors.New("syntax error")

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(s string) ([]token, error) {
	var toks []token
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == 'π':
			toks = append(toks, token{kind: tokIdent, text: "pi", pos: i})
			i++
		case unicode.IsDigit(r) || r == '.':
			j := i
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			if j < len(rs) && (rs[j] == 'e' || rs[j] == 'E') {
				k := j + 1
				if k < len(rs) && (rs[k] == '+' || rs[k] == '-') {
					k++
				}
				if k < len(rs) && unicode.IsDigit(rs[k]) {
					for k < len(rs) && unicode.IsDigit(rs[k]) {
						k++
					}
					j = k
				}
			}
			toks = append(toks, token{kind: tokNum, text: string(rs[i:j]), pos: i})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(rs[i:j]), pos: i})
			i = j
		case strings.ContainsRune("+-*/^()", r):
			toks = append(toks, token{kind: tokOp, text: string(r), pos: i})
			i++
		default:
			return nil, errors.Wrapf(ErrSyntax, "unexpected %q at %d", r, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(rs)}), nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(op string) bool {
	if t := p.peek(); t.kind == tokOp && t.text == op {
		p.pos++
		return true
	}
	return false
}

// Parse reads an infix expression over numbers, identifiers and pi with
// + - * / ^ and parentheses. Identifiers other than pi become symbols.
//
// Accepted forms: "pi/2", "-3*pi/4", "2*theta + phi/pi", "(a+b)*c", "x^2".
func Parse(s string) (Expr, error) {
	toks, err := tokenize(s)
	if err != nil {
		return Expr{}, err
	}
	p := &parser{toks: toks}
	e, err := p.sum()
	if err != nil {
		return Expr{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return Expr{}, errors.Wrapf(ErrSyntax, "unexpected %q at %d", t.text, t.pos)
	}
	return e, nil
}

// MustParse is Parse for expressions known to be valid.
func MustParse(s string) Expr {
	e, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) sum() (Expr, error) {
	acc, err := p.product()
	if err != nil {
		return Expr{}, err
	}
	for {
		switch {
		case p.accept("+"):
			rhs, err := p.product()
			if err != nil {
				return Expr{}, err
			}
			acc = acc.Add(rhs)
		case p.accept("-"):
			rhs, err := p.product()
			if err != nil {
				return Expr{}, err
			}
			acc = acc.Sub(rhs)
		default:
			return acc, nil
		}
	}
}

func (p *parser) product() (Expr, error) {
	acc, err := p.unary()
	if err != nil {
		return Expr{}, err
	}
	for {
		switch {
		case p.accept("*"):
			rhs, err := p.unary()
			if err != nil {
				return Expr{}, err
			}
			acc = acc.Mul(rhs)
		case p.accept("/"):
			rhs, err := p.unary()
			if err != nil {
				return Expr{}, err
			}
			if rhs.IsZero() {
				return Expr{}, errors.Wrap(ErrSyntax, "division by zero")
			}
			acc, err = acc.Div(rhs)
			if err != nil {
				return Expr{}, err
			}
		default:
			return acc, nil
		}
	}
}

func (p *parser) unary() (Expr, error) {
	switch {
	case p.accept("-"):
		e, err := p.unary()
		return e.Neg(), err
	case p.accept("+"):
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	base, err := p.primary()
	if err != nil {
		return Expr{}, err
	}
	if !p.accept("^") {
		return base, nil
	}
	exp, err := p.unary()
	if err != nil {
		return Expr{}, err
	}
	n, ok := exp.Float()
	if !ok {
		return Expr{}, errors.Wrap(ErrSyntax, "symbolic exponent")
	}
	if b, ok := base.Float(); ok && n != math.Trunc(n) {
		return Num(math.Pow(b, n)), nil
	}
	if n != math.Trunc(n) {
		return Expr{}, errors.Wrapf(ErrSyntax, "non-integer exponent %g", n)
	}
	return base.Pow(int(n))
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return Expr{}, errors.Wrapf(ErrSyntax, "bad number %q", t.text)
		}
		return Num(v), nil
	case tokIdent:
		if strings.ToLower(t.text) == "pi" {
			return Pi(), nil
		}
		if p.peek().kind == tokOp && p.peek().text == "(" {
			return Expr{}, errors.Wrapf(ErrSyntax, "function %s is not supported", t.text)
		}
		return Symbol(t.text), nil
	case tokOp:
		if t.text == "(" {
			e, err := p.sum()
			if err != nil {
				return Expr{}, err
			}
			if !p.accept(")") {
				return Expr{}, errors.Wrapf(ErrSyntax, "missing ) at %d", p.peek().pos)
			}
			return e, nil
		}
	}
	if t.kind == tokEOF {
		return Expr{}, errors.Wrap(ErrSyntax, "unexpected end of expression")
	}
	return Expr{}, errors.Wrapf(ErrSyntax, "unexpected %q at %d", t.text, t.pos)
}

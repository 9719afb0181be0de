package symbolic

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// ============================================================
// Infix parser
// ============================================================
//
//	expr  := term (('+' | '-') term)*
//	term  := unary (('*' | '/') unary)*
//	unary := ('+' | '-') unary | power
//	power := atom (('^' | '**') unary)?
//	atom  := number | name | name '(' expr ')' | '(' expr ')'
//
// Names are Unicode identifiers; D[f] names a derivative of f. Decimal
// literals are read as exact rationals.

var knownFuncs = map[string]func(Expr) Expr{
	"sin":  SinOf,
	"cos":  CosOf,
	"tan":  TanOf,
	"exp":  ExpOf,
	"ln":   LnOf,
	"log":  LnOf,
	"sqrt": SqrtOf,
	"abs":  AbsOf,
	"asin": AsinOf,
	"acos": AcosOf,
	"atan": AtanOf,
	"sinh": SinhOf,
	"cosh": CoshOf,
	"tanh": TanhOf,
}

// Parse reads an infix expression such as "1 - 2*M/r" or "r^2*sin(θ)^2".
func Parse(src string) (Expr, error) {
	p := &parser{src: []rune(src)}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q", string(p.peek()))
	}
	return e, nil
}

// MustParse is Parse that panics on error. Intended for literals in code.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err.Error())
	}
	return e
}

type parser struct {
	src []rune
	pos int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: at offset %d: %s", ErrParse, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() rune { return p.src[p.pos] }

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.pos++
	}
}

// accept consumes tok if it is next.
func (p *parser) accept(tok string) bool {
	p.skipSpace()
	r := []rune(tok)
	if p.pos+len(r) > len(p.src) {
		return false
	}
	for i, c := range r {
		if p.src[p.pos+i] != c {
			return false
		}
	}
	p.pos += len(r)
	return true
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	terms := []Expr{left}
	for {
		switch {
		case p.accept("+"):
			t, err := p.term()
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		case p.accept("-"):
			t, err := p.term()
			if err != nil {
				return nil, err
			}
			terms = append(terms, MulOf(N(-1), t))
		default:
			if len(terms) == 1 {
				return terms[0], nil
			}
			return AddOf(terms...), nil
		}
	}
}

func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	factors := []Expr{left}
	for {
		p.skipSpace()
		if !p.eof() && p.peek() == '*' && !(p.pos+1 < len(p.src) && p.src[p.pos+1] == '*') {
			p.pos++
			f, err := p.unary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
			continue
		}
		if p.accept("/") {
			f, err := p.unary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, PowOf(f, N(-1)))
			continue
		}
		if len(factors) == 1 {
			return factors[0], nil
		}
		return MulOf(factors...), nil
	}
}

func (p *parser) unary() (Expr, error) {
	if p.accept("-") {
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return MulOf(N(-1), e), nil
	}
	if p.accept("+") {
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	base, err := p.atom()
	if err != nil {
		return nil, err
	}
	if p.accept("**") || p.accept("^") {
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil
	}
	return base, nil
}

func (p *parser) atom() (Expr, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("unexpected end of input")
	}
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if !p.accept(")") {
			return nil, p.errorf("missing ')'")
		}
		return e, nil
	case unicode.IsDigit(c) || c == '.':
		return p.number()
	case unicode.IsLetter(c) || c == '_':
		return p.name()
	}
	return nil, p.errorf("unexpected %q", string(c))
}

func (p *parser) number() (Expr, error) {
	start := p.pos
	for !p.eof() && (unicode.IsDigit(p.peek()) || p.peek() == '.') {
		p.pos++
	}
	if !p.eof() && (p.peek() == 'e' || p.peek() == 'E') {
		save := p.pos
		p.pos++
		if !p.eof() && (p.peek() == '+' || p.peek() == '-') {
			p.pos++
		}
		digits := p.pos
		for !p.eof() && unicode.IsDigit(p.peek()) {
			p.pos++
		}
		if p.pos == digits {
			p.pos = save
		}
	}
	lit := string(p.src[start:p.pos])
	r, ok := new(big.Rat).SetString(lit)
	if !ok {
		return nil, p.errorf("bad number %q", lit)
	}
	return NRat(r), nil
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if !(unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '\'') {
			break
		}
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *parser) name() (Expr, error) {
	name := p.ident()
	if name == "D" && !p.eof() && p.peek() == '[' {
		p.pos++
		inner := p.ident()
		if inner == "" || p.eof() || p.peek() != ']' {
			return nil, p.errorf("malformed derivative name")
		}
		p.pos++
		name = "D[" + inner + "]"
	}
	p.skipSpace()
	if p.eof() || p.peek() != '(' {
		if strings.HasPrefix(name, "D[") {
			return nil, p.errorf("%s must be applied to an argument", name)
		}
		return S(name), nil
	}
	p.pos++
	arg, err := p.expr()
	if err != nil {
		return nil, err
	}
	if !p.accept(")") {
		return nil, p.errorf("missing ')' after %s argument", name)
	}
	if fn, ok := knownFuncs[name]; ok {
		return fn(arg), nil
	}
	return FuncOf(name, arg), nil
}

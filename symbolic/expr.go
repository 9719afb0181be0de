// Package symbolic is the computer-algebra kernel behind the tensor engine.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat), never floating point
//   - Deterministic simplification and stable output
//   - A canonical rational-function form so that zero tests are exact
//   - JSON, LaTeX and plain-text codecs for tool and CLI surfaces
package symbolic

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is an immutable expression tree. Constructors (AddOf, MulOf, PowOf
// and the function helpers) return simplified trees.
type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Eval() (*Num, bool)
	Equal(other Expr) bool
	toJSON() map[string]interface{}
}

func mapExprs(es []Expr, fn func(Expr) Expr) []Expr {
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = fn(e)
	}
	return out
}

func equalExprs(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func treeList(es []Expr) []map[string]interface{} {
	out := make([]map[string]interface{}, len(es))
	for i, e := range es {
		out[i] = e.toJSON()
	}
	return out
}

// ============================================================
// Num: exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NRat wraps a copy of r.
func NRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.IsInt() && n.val.Num().IsInt64() && n.val.Num().Int64() == 1 }
func (n *Num) IsNegOne() bool        { return n.val.IsInt() && n.val.Num().IsInt64() && n.val.Num().Int64() == -1 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }

// Rat returns a copy of the value.
func (n *Num) Rat() *big.Rat { return new(big.Rat).Set(n.val) }

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	if n.val.Sign() < 0 {
		sign = "-"
	}
	num := new(big.Int).Abs(n.val.Num())
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, num, n.val.Denom())
}

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }

// ratPow raises a non-zero r to the integer power e.
func ratPow(r *big.Rat, e int64) *Num {
	k := big.NewInt(e)
	if e < 0 {
		k.Neg(k)
	}
	num := new(big.Int).Exp(r.Num(), k, nil)
	den := new(big.Int).Exp(r.Denom(), k, nil)
	if e < 0 {
		num, den = den, num
	}
	return &Num{val: new(big.Rat).SetFrac(num, den)}
}

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym { return &Sym{name: name} }

func (s *Sym) Simplify() Expr        { return s }
func (s *Sym) String() string        { return s.name }
func (s *Sym) LaTeX() string         { return s.name }
func (s *Sym) Eval() (*Num, bool)    { return nil, false }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) Name() string          { return s.name }

func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}

func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}

func (s *Sym) Diff(varName string) Expr {
	if s.name == varName {
		return N(1)
	}
	return N(0)
}

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// SubOf returns a - b.
func SubOf(a, b Expr) Expr { return AddOf(a, MulOf(N(-1), b)) }

// sumCollector merges like terms. Symbols come first in name order, other
// terms in first-seen order, the constant last.
type sumCollector struct {
	constant *Num
	coeffs   map[string]*Num
	rests    map[string]Expr
	syms     []string
	others   []string
}

func newSumCollector() *sumCollector {
	return &sumCollector{constant: N(0), coeffs: map[string]*Num{}, rests: map[string]Expr{}}
}

func (c *sumCollector) add(t Expr) {
	if v, ok := t.(*Num); ok {
		c.constant = numAdd(c.constant, v)
		return
	}
	coeff, rest := extractCoefficient(t)
	key := rest.String()
	if _, seen := c.coeffs[key]; !seen {
		if _, isSym := rest.(*Sym); isSym {
			c.syms = append(c.syms, key)
		} else {
			c.others = append(c.others, key)
		}
		c.coeffs[key] = N(0)
		c.rests[key] = rest
	}
	c.coeffs[key] = numAdd(c.coeffs[key], coeff)
}

func (c *sumCollector) result() Expr {
	sort.Strings(c.syms)
	var out []Expr
	for _, key := range append(c.syms, c.others...) {
		switch coeff := c.coeffs[key]; {
		case coeff.IsZero():
		case coeff.IsOne():
			out = append(out, c.rests[key])
		default:
			out = append(out, MulOf(coeff, c.rests[key]))
		}
	}
	if !c.constant.IsZero() {
		out = append(out, c.constant)
	}
	switch len(out) {
	case 0:
		return N(0)
	case 1:
		return out[0]
	}
	return &Add{terms: out}
}

func (a *Add) Simplify() Expr {
	c := newSumCollector()
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			for _, it := range inner.terms {
				c.add(it)
			}
			continue
		}
		c.add(s)
	}
	return c.result()
}

// joinSigned joins rendered terms with + and folds a leading minus into -.
func joinSigned(parts []string) string {
	var sb strings.Builder
	for i, s := range parts {
		switch {
		case i == 0:
			sb.WriteString(s)
		case strings.HasPrefix(s, "-"):
			sb.WriteString(" - ")
			sb.WriteString(s[1:])
		default:
			sb.WriteString(" + ")
			sb.WriteString(s)
		}
	}
	return sb.String()
}

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return joinSigned(parts)
}

func (a *Add) LaTeX() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.LaTeX()
	}
	return joinSigned(parts)
}

func (a *Add) Sub(varName string, value Expr) Expr {
	return AddOf(mapExprs(a.terms, func(t Expr) Expr { return t.Sub(varName, value) })...)
}

func (a *Add) Diff(varName string) Expr {
	return AddOf(mapExprs(a.terms, func(t Expr) Expr { return t.Diff(varName) })...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && equalExprs(a.terms, o.terms)
}

func (a *Add) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "add", "terms": treeList(a.terms)}
}

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// DivOf returns a / b.
func DivOf(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

// productCollector groups factors by base and adds their exponents.
type productCollector struct {
	coeff *Num
	bases map[string]Expr
	exps  map[string][]Expr
	order []string
}

func (c *productCollector) add(f Expr) {
	if v, ok := f.(*Num); ok {
		c.coeff = numMul(c.coeff, v)
		return
	}
	base, exp := f, Expr(N(1))
	if p, ok := f.(*Pow); ok {
		base, exp = p.base, p.exp
	}
	key := base.String()
	if _, seen := c.bases[key]; !seen {
		c.bases[key] = base
		c.order = append(c.order, key)
	}
	c.exps[key] = append(c.exps[key], exp)
}

// powers rebuilds one power per base. Powers may fold to numbers or
// distribute over products, so numeric parts go back into the coefficient.
func (c *productCollector) powers() []Expr {
	var out []Expr
	for _, key := range c.order {
		exp := c.exps[key][0]
		if len(c.exps[key]) > 1 {
			exp = AddOf(c.exps[key]...)
		}
		switch v := PowOf(c.bases[key], exp).(type) {
		case *Num:
			c.coeff = numMul(c.coeff, v)
		case *Mul:
			for _, inner := range v.factors {
				if n, ok := inner.(*Num); ok {
					c.coeff = numMul(c.coeff, n)
				} else {
					out = append(out, inner)
				}
			}
		default:
			out = append(out, v)
		}
	}
	return out
}

func (m *Mul) Simplify() Expr {
	c := &productCollector{coeff: N(1), bases: map[string]Expr{}, exps: map[string][]Expr{}}
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			for _, g := range inner.factors {
				c.add(g)
			}
			continue
		}
		c.add(s)
	}
	if c.coeff.IsZero() {
		return N(0)
	}
	others := c.powers()
	if len(others) == 0 {
		return c.coeff
	}

	keys := make([]string, len(others))
	for i, e := range others {
		keys[i] = e.String()
	}
	sort.Stable(byKey{exprs: others, keys: keys})

	if c.coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{c.coeff}, others...)}
}

// byKey sorts expressions by precomputed string keys.
type byKey struct {
	exprs []Expr
	keys  []string
}

func (b byKey) Len() int           { return len(b.exprs) }
func (b byKey) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b byKey) Swap(i, j int) {
	b.exprs[i], b.exprs[j] = b.exprs[j], b.exprs[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}

// renderProduct prints factors joined by sep, a leading -1 as a minus sign
// and sums wrapped by group.
func renderProduct(factors []Expr, sep string, render func(Expr) string, group func(string) string) string {
	prefix := ""
	if c, ok := factors[0].(*Num); ok && c.IsNegOne() && len(factors) > 1 {
		prefix = "-"
		factors = factors[1:]
	}
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = render(f)
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = group(parts[i])
		}
	}
	return prefix + strings.Join(parts, sep)
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	return renderProduct(m.factors, "*", Expr.String, func(s string) string { return "(" + s + ")" })
}

func (m *Mul) LaTeX() string {
	return renderProduct(m.factors, " ", Expr.LaTeX, func(s string) string { return "\\left(" + s + "\\right)" })
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	return MulOf(mapExprs(m.factors, func(f Expr) Expr { return f.Sub(varName, value) })...)
}

// Diff applies the product rule.
func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, len(m.factors))
	for i := range m.factors {
		factors := append([]Expr(nil), m.factors...)
		factors[i] = factors[i].Diff(varName)
		terms[i] = MulOf(factors...)
	}
	return AddOf(terms...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && equalExprs(m.factors, o.factors)
}

func (m *Mul) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "mul", "factors": treeList(m.factors)}
}

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

// maxFoldExponent bounds exact folding of numeric powers.
const maxFoldExponent = 64

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()
	en, expNum := exp.(*Num)
	intExp := expNum && en.IsInteger()

	switch {
	case expNum && en.IsZero():
		return N(1)
	case expNum && en.IsOne():
		return base
	}

	if bn, ok := base.(*Num); ok {
		switch {
		case bn.IsZero():
			// 0^0 and 0^negative stay unevaluated
			if expNum && (en.IsZero() || en.IsNegative()) {
				return &Pow{base: base, exp: exp}
			}
			return N(0)
		case bn.IsOne():
			return N(1)
		case intExp && en.val.Num().IsInt64():
			if e := en.val.Num().Int64(); e >= -maxFoldExponent && e <= maxFoldExponent {
				return ratPow(bn.val, e)
			}
		}
	}

	if intExp {
		switch b := base.(type) {
		case *Pow:
			// (x^a)^n = x^(a*n) only holds for integer n
			return PowOf(b.base, MulOf(b.exp, exp))
		case *Mul:
			return MulOf(mapExprs(b.factors, func(f Expr) Expr { return PowOf(f, en) })...)
		}
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	expStr := p.exp.String()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	case *Num:
		if !b.IsInteger() || b.IsNegative() {
			baseStr = "(" + baseStr + ")"
		}
	}
	switch e := p.exp.(type) {
	case *Sym:
	case *Num:
		if !e.IsInteger() {
			expStr = "(" + expStr + ")"
		}
	default:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	baseStr := p.base.LaTeX()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	if _, ok := p.exp.(*Num); ok {
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), du)
	}
	dv := p.exp.Diff(varName)
	if _, ok := p.base.(*Num); ok {
		return MulOf(p, LnOf(p.base), dv)
	}
	// d(u^v) = u^v (v' ln u + v u'/u)
	return MulOf(p, AddOf(
		MulOf(dv, LnOf(p.base)),
		MulOf(p.exp, du, PowOf(p.base, N(-1))),
	))
}

// Eval only succeeds for exact results: numeric base with integer exponent.
func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 || !e.IsInteger() {
		return nil, false
	}
	if b.IsZero() && e.val.Sign() <= 0 {
		return nil, false
	}
	v, ok := PowOf(b, e).(*Num)
	return v, ok
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}

// ============================================================
// Func: named function applications
// ============================================================

type Func struct {
	name string
	arg  Expr
}

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

// FuncOf applies an arbitrary named function, e.g. a scale factor a(t).
// Its derivative is the opaque function D[name].
func FuncOf(name string, arg Expr) Expr { return funcOf(name, arg).Simplify() }

func SinOf(arg Expr) Expr  { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr  { return funcOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr  { return funcOf("tan", arg).Simplify() }
func ExpOf(arg Expr) Expr  { return funcOf("exp", arg).Simplify() }
func LnOf(arg Expr) Expr   { return funcOf("ln", arg).Simplify() }
func SqrtOf(arg Expr) Expr { return PowOf(arg, F(1, 2)) }
func AbsOf(arg Expr) Expr  { return funcOf("abs", arg).Simplify() }
func AsinOf(arg Expr) Expr { return funcOf("asin", arg).Simplify() }
func AcosOf(arg Expr) Expr { return funcOf("acos", arg).Simplify() }
func AtanOf(arg Expr) Expr { return funcOf("atan", arg).Simplify() }
func SinhOf(arg Expr) Expr { return funcOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr { return funcOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr { return funcOf("tanh", arg).Simplify() }

// valueAtZero holds f(0) for the functions where it is exact.
var valueAtZero = map[string]int64{
	"sin": 0, "tan": 0, "sinh": 0, "tanh": 0, "asin": 0, "atan": 0,
	"cos": 1, "cosh": 1, "exp": 1,
}

// inverses pairs functions that cancel when composed.
var inverses = map[string]string{"exp": "ln", "ln": "exp"}

// Simplify folds only exact identities; numeric arguments are never
// evaluated to floating point.
func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	if v, ok := valueAtZero[f.name]; ok && isNumEqual(arg, 0) {
		return N(v)
	}
	if inv, ok := inverses[f.name]; ok {
		if inner, ok := arg.(*Func); ok && inner.name == inv {
			return inner.arg
		}
	}
	switch f.name {
	case "ln":
		if isNumEqual(arg, 1) {
			return N(0)
		}
	case "abs":
		if n, ok := arg.(*Num); ok {
			return NRat(new(big.Rat).Abs(n.val))
		}
		if m, ok := arg.(*Mul); ok && len(m.factors) >= 2 {
			if c, ok := m.factors[0].(*Num); ok && c.IsNegOne() {
				return AbsOf(MulOf(m.factors[1:]...))
			}
		}
	}
	return &Func{name: f.name, arg: arg}
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

var latexFuncs = map[string]string{
	"sin": `\sin`, "cos": `\cos`, "tan": `\tan`, "exp": `\exp`, "ln": `\ln`,
	"sinh": `\sinh`, "cosh": `\cosh`, "tanh": `\tanh`,
	"asin": `\arcsin`, "acos": `\arccos`, "atan": `\arctan`,
}

func (f *Func) LaTeX() string {
	arg := "\\left(" + f.arg.LaTeX() + "\\right)"
	if cmd, ok := latexFuncs[f.name]; ok {
		return cmd + arg
	}
	switch {
	case f.name == "abs":
		return "\\left|" + f.arg.LaTeX() + "\\right|"
	case strings.HasPrefix(f.name, "D["):
		return f.name[2:len(f.name)-1] + "'" + arg
	}
	return "\\operatorname{" + f.name + "}" + arg
}

func (f *Func) Sub(varName string, value Expr) Expr {
	return funcOf(f.name, f.arg.Sub(varName, value)).Simplify()
}

// oneMinusSquare is 1 - u^2.
func oneMinusSquare(u Expr) Expr { return AddOf(N(1), MulOf(N(-1), PowOf(u, N(2)))) }

// derivatives maps a function to f'(u).
var derivatives = map[string]func(u Expr) Expr{
	"sin":  func(u Expr) Expr { return CosOf(u) },
	"cos":  func(u Expr) Expr { return MulOf(N(-1), SinOf(u)) },
	"tan":  func(u Expr) Expr { return AddOf(N(1), PowOf(TanOf(u), N(2))) },
	"exp":  func(u Expr) Expr { return ExpOf(u) },
	"ln":   func(u Expr) Expr { return PowOf(u, N(-1)) },
	"asin": func(u Expr) Expr { return PowOf(oneMinusSquare(u), F(-1, 2)) },
	"acos": func(u Expr) Expr { return MulOf(N(-1), PowOf(oneMinusSquare(u), F(-1, 2))) },
	"atan": func(u Expr) Expr { return PowOf(AddOf(N(1), PowOf(u, N(2))), N(-1)) },
	"sinh": func(u Expr) Expr { return CoshOf(u) },
	"cosh": func(u Expr) Expr { return SinhOf(u) },
	"tanh": func(u Expr) Expr { return oneMinusSquare(TanhOf(u)) },
	"abs":  func(u Expr) Expr { return funcOf("sign", u) },
}

// Diff applies the chain rule. Unknown functions differentiate to D[name].
func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	if isNumEqual(du, 0) {
		return N(0)
	}
	if d, ok := derivatives[f.name]; ok {
		return MulOf(d(f.arg), du)
	}
	return MulOf(funcOf("D["+f.name+"]", f.arg), du)
}

func (f *Func) Eval() (*Num, bool) { return nil, false }

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "arg": f.arg.toJSON()}
}

func (f *Func) Name() string { return f.name }
func (f *Func) Arg() Expr    { return f.arg }

func isNumEqual(e Expr, v int64) bool {
	n, ok := e.(*Num)
	return ok && n.val.IsInt() && n.val.Num().IsInt64() && n.val.Num().Int64() == v
}

// extractCoefficient splits c*rest into c and rest.
func extractCoefficient(e Expr) (*Num, Expr) {
	m, ok := e.(*Mul)
	if !ok || len(m.factors) < 2 {
		return N(1), e
	}
	coeff, ok := m.factors[0].(*Num)
	if !ok {
		return N(1), e
	}
	if len(m.factors) == 2 {
		return coeff, m.factors[1]
	}
	return coeff, &Mul{factors: m.factors[1:]}
}

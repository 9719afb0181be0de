package symbolic

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Kernels and monomials
// ============================================================

// kernel is an indivisible factor of the polynomial ring: a symbol, a
// function application or a fractional power. A kernel may carry one
// reduction rule kernel^ruleExp -> ruleRepl.
type kernel struct {
	key      string
	expr     Expr
	ruleExp  int
	ruleRepl poly
}

func newKernel(e Expr) *kernel {
	k := &kernel{key: e.String(), expr: e}
	switch v := e.(type) {
	case *Func:
		switch v.name {
		case "sin":
			cos := newKernel(&Func{name: "cos", arg: v.arg})
			k.ruleExp = 2
			k.ruleRepl = constPoly(big.NewRat(1, 1)).sub(kernelPoly(cos, 2))
		case "cosh":
			sinh := newKernel(&Func{name: "sinh", arg: v.arg})
			k.ruleExp = 2
			k.ruleRepl = constPoly(big.NewRat(1, 1)).add(kernelPoly(sinh, 2))
		}
	case *Pow:
		en, ok := v.exp.(*Num)
		if !ok || en.IsInteger() || en.val.Num().Cmp(big.NewInt(1)) != 0 {
			break
		}
		if br, err := toRational(v.base); err == nil && len(br.den) == 0 {
			k.ruleExp = int(en.val.Denom().Int64())
			k.ruleRepl = br.num
		}
	}
	return k
}

// squarePartner returns the rule kernel whose replacement is written in
// terms of k: cos(u) -> sin(u), sinh(u) -> cosh(u).
func squarePartner(k *kernel) *kernel {
	f, ok := k.expr.(*Func)
	if !ok {
		return nil
	}
	switch f.name {
	case "cos":
		return newKernel(&Func{name: "sin", arg: f.arg})
	case "sinh":
		return newKernel(&Func{name: "cosh", arg: f.arg})
	}
	return nil
}

type power struct {
	k   *kernel
	exp int
}

// monomial is sorted by kernel key; every exponent is positive.
type monomial []power

func (m monomial) key() string {
	var sb strings.Builder
	for i, p := range m {
		if i > 0 {
			sb.WriteByte(0)
		}
		sb.WriteString(p.k.key)
		sb.WriteByte(1)
		sb.WriteString(strconv.Itoa(p.exp))
	}
	return sb.String()
}

func monoMul(a, b monomial) monomial {
	out := make(monomial, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].k.key == b[j].k.key:
			out = append(out, power{k: a[i].k, exp: a[i].exp + b[j].exp})
			i++
			j++
		case a[i].k.key < b[j].k.key:
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

func monoDiv(a, b monomial) (monomial, bool) {
	out := make(monomial, 0, len(a))
	j := 0
	for i := range a {
		if j < len(b) && b[j].k.key < a[i].k.key {
			return nil, false
		}
		if j < len(b) && a[i].k.key == b[j].k.key {
			d := a[i].exp - b[j].exp
			if d < 0 {
				return nil, false
			}
			if d > 0 {
				out = append(out, power{k: a[i].k, exp: d})
			}
			j++
			continue
		}
		out = append(out, a[i])
	}
	if j < len(b) {
		return nil, false
	}
	return out, true
}

func monoGCD(a, b monomial) monomial {
	out := monomial{}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].k.key == b[j].k.key:
			e := a[i].exp
			if b[j].exp < e {
				e = b[j].exp
			}
			out = append(out, power{k: a[i].k, exp: e})
			i++
			j++
		case a[i].k.key < b[j].k.key:
			i++
		default:
			j++
		}
	}
	return out
}

// monoCmp is lexicographic order with kernels ranked by ascending key.
func monoCmp(a, b monomial) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].k.key == b[j].k.key:
			if a[i].exp != b[j].exp {
				if a[i].exp > b[j].exp {
					return 1
				}
				return -1
			}
			i++
			j++
		case a[i].k.key < b[j].k.key:
			return 1
		default:
			return -1
		}
	}
	switch {
	case i < len(a):
		return 1
	case j < len(b):
		return -1
	}
	return 0
}

// ============================================================
// Polynomials with exact rational coefficients
// ============================================================

type term struct {
	mono  monomial
	coeff *big.Rat
}

type poly map[string]term

func constPoly(c *big.Rat) poly {
	p := poly{}
	if c.Sign() != 0 {
		p[""] = term{coeff: new(big.Rat).Set(c)}
	}
	return p
}

func kernelPoly(k *kernel, exp int) poly {
	m := monomial{{k: k, exp: exp}}
	return poly{m.key(): term{mono: m, coeff: big.NewRat(1, 1)}}
}

func (p poly) addTerm(t term) {
	key := t.mono.key()
	if old, ok := p[key]; ok {
		sum := new(big.Rat).Add(old.coeff, t.coeff)
		if sum.Sign() == 0 {
			delete(p, key)
		} else {
			p[key] = term{mono: old.mono, coeff: sum}
		}
		return
	}
	if t.coeff.Sign() != 0 {
		p[key] = term{mono: t.mono, coeff: new(big.Rat).Set(t.coeff)}
	}
}

func (p poly) clone() poly {
	out := make(poly, len(p))
	for k, t := range p {
		out[k] = t
	}
	return out
}

func (p poly) add(q poly) poly {
	out := p.clone()
	for _, t := range q {
		out.addTerm(t)
	}
	return out
}

func (p poly) scale(c *big.Rat) poly {
	out := poly{}
	if c.Sign() == 0 {
		return out
	}
	for k, t := range p {
		out[k] = term{mono: t.mono, coeff: new(big.Rat).Mul(t.coeff, c)}
	}
	return out
}

func (p poly) neg() poly       { return p.scale(big.NewRat(-1, 1)) }
func (p poly) sub(q poly) poly { return p.add(q.neg()) }
func (p poly) isZero() bool    { return len(p) == 0 }
func (p poly) mul(q poly) poly { return p.mulRaw(q).reduce() }
func (p poly) constant() (*big.Rat, bool) {
	switch len(p) {
	case 0:
		return new(big.Rat), true
	case 1:
		if t, ok := p[""]; ok {
			return t.coeff, true
		}
	}
	return nil, false
}

func (p poly) mulRaw(q poly) poly {
	out := poly{}
	for _, a := range p {
		for _, b := range q {
			out.addTerm(term{mono: monoMul(a.mono, b.mono), coeff: new(big.Rat).Mul(a.coeff, b.coeff)})
		}
	}
	return out
}

func (p poly) mulTerm(t term) poly {
	out := poly{}
	for _, a := range p {
		out.addTerm(term{mono: monoMul(a.mono, t.mono), coeff: new(big.Rat).Mul(a.coeff, t.coeff)})
	}
	return out
}

func (p poly) pow(n int) poly {
	result := constPoly(big.NewRat(1, 1))
	base := p
	for n > 0 {
		if n&1 == 1 {
			result = result.mul(base)
		}
		n >>= 1
		if n > 0 {
			base = base.mul(base)
		}
	}
	return result
}

// sorted returns the terms in descending monomial order.
func (p poly) sorted() []term {
	ts := make([]term, 0, len(p))
	for _, t := range p {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return monoCmp(ts[i].mono, ts[j].mono) > 0 })
	return ts
}

func (p poly) leading() term {
	var lt term
	first := true
	for _, t := range p {
		if first || monoCmp(t.mono, lt.mono) > 0 {
			lt = t
			first = false
		}
	}
	return lt
}

func (p poly) key() string {
	ts := p.sorted()
	var sb strings.Builder
	for i, t := range ts {
		if i > 0 {
			sb.WriteByte(2)
		}
		sb.WriteString(t.coeff.RatString())
		sb.WriteByte(3)
		sb.WriteString(t.mono.key())
	}
	return sb.String()
}

func (p poly) monomialContent() monomial {
	var content monomial
	first := true
	for _, t := range p {
		if first {
			content = append(monomial{}, t.mono...)
			first = false
			continue
		}
		content = monoGCD(content, t.mono)
		if len(content) == 0 {
			break
		}
	}
	return content
}

func (p poly) divMono(m monomial) poly {
	if len(m) == 0 {
		return p
	}
	out := poly{}
	for _, t := range p {
		q, ok := monoDiv(t.mono, m)
		if !ok {
			panic("symbolic: monomial does not divide polynomial")
		}
		out.addTerm(term{mono: q, coeff: t.coeff})
	}
	return out
}

// divExact divides in the plain polynomial ring and fails unless the
// remainder is zero.
func (p poly) divExact(d poly) (poly, bool) {
	if d.isZero() {
		panic("symbolic: polynomial division by zero")
	}
	lt := d.leading()
	q := poly{}
	r := p
	for !r.isZero() {
		rt := r.leading()
		m, ok := monoDiv(rt.mono, lt.mono)
		if !ok {
			return nil, false
		}
		t := term{mono: m, coeff: new(big.Rat).Quo(rt.coeff, lt.coeff)}
		q.addTerm(t)
		r = r.sub(d.mulTerm(t))
	}
	return q, true
}

func (p poly) hasRuleKernel() bool {
	for _, t := range p {
		for _, pw := range t.mono {
			if pw.k.ruleExp > 0 && pw.exp >= pw.k.ruleExp {
				return true
			}
		}
	}
	return false
}

// reduce rewrites every kernel^ruleExp with its replacement until no rule
// applies: sin^2 -> 1-cos^2, cosh^2 -> 1+sinh^2, (x^(1/q))^q -> x.
func (p poly) reduce() poly {
	for p.hasRuleKernel() {
		out := poly{}
		for _, t := range p {
			idx := -1
			for i, pw := range t.mono {
				if pw.k.ruleExp > 0 && pw.exp >= pw.k.ruleExp {
					idx = i
					break
				}
			}
			if idx < 0 {
				out.addTerm(t)
				continue
			}
			pw := t.mono[idx]
			rest := make(monomial, 0, len(t.mono))
			rest = append(rest, t.mono[:idx]...)
			if left := pw.exp - pw.k.ruleExp; left > 0 {
				rest = append(rest, power{k: pw.k, exp: left})
			}
			rest = append(rest, t.mono[idx+1:]...)
			for _, rt := range pw.k.ruleRepl.mulTerm(term{mono: rest, coeff: t.coeff}) {
				out.addTerm(rt)
			}
		}
		p = out
	}
	return p
}

func (p poly) kernels() []*kernel {
	seen := map[string]*kernel{}
	for _, t := range p {
		for _, pw := range t.mono {
			seen[pw.k.key] = pw.k
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*kernel, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out
}

func (p poly) toExpr() Expr {
	ts := p.sorted()
	if len(ts) == 0 {
		return N(0)
	}
	terms := make([]Expr, 0, len(ts))
	for _, t := range ts {
		factors := []Expr{NRat(t.coeff)}
		for _, pw := range t.mono {
			factors = append(factors, PowOf(pw.k.expr, N(int64(pw.exp))))
		}
		terms = append(terms, MulOf(factors...))
	}
	return AddOf(terms...)
}

// ============================================================
// Rational functions with a factored denominator
// ============================================================

// denFactor is either a kernel (k != nil) or a monic polynomial.
type denFactor struct {
	key string
	k   *kernel
	p   poly
	exp int
}

func kernelFactor(k *kernel, exp int) denFactor {
	return denFactor{key: "k\x00" + k.key, k: k, exp: exp}
}

func polyFactor(p poly, exp int) denFactor {
	return denFactor{key: "p\x00" + p.key(), p: p, exp: exp}
}

func (f denFactor) poly() poly {
	if f.k != nil {
		return kernelPoly(f.k, 1)
	}
	return f.p
}

func (f denFactor) toExpr() Expr {
	if f.k != nil {
		return f.k.expr
	}
	return f.p.toExpr()
}

type rational struct {
	num poly
	den []denFactor
}

func ratConst(c *big.Rat) rational { return rational{num: constPoly(c)} }
func ratKernel(k *kernel) rational { return rational{num: kernelPoly(k, 1)} }

func (r rational) constant() (*big.Rat, bool) {
	if len(r.den) != 0 {
		return nil, false
	}
	return r.num.constant()
}

func (r rational) neg() rational { return rational{num: r.num.neg(), den: r.den} }

func (r rational) mul(s rational) rational {
	if r.num.isZero() || s.num.isZero() {
		return ratConst(new(big.Rat))
	}
	den := mergeDen(r.den, s.den, func(a, b int) int { return a + b })
	return rational{num: r.num.mul(s.num), den: den}.cancel()
}

func (r rational) add(s rational) rational {
	if r.num.isZero() {
		return s
	}
	if s.num.isZero() {
		return r
	}
	lcm := mergeDen(r.den, s.den, func(a, b int) int {
		if a > b {
			return a
		}
		return b
	})
	a := r.num.mul(cofactor(lcm, r.den))
	b := s.num.mul(cofactor(lcm, s.den))
	return rational{num: a.add(b), den: lcm}.cancel()
}

func (r rational) inv() (rational, error) {
	if r.num.isZero() {
		return rational{}, ErrDivisionByZero
	}
	c, factors := factorize(r.num)
	num := constPoly(new(big.Rat).Inv(c))
	for _, f := range r.den {
		num = num.mul(f.poly().pow(f.exp))
	}
	return rational{num: num, den: factors}.cancel(), nil
}

func (r rational) pow(n int) (rational, error) {
	if n < 0 {
		inv, err := r.inv()
		if err != nil {
			return rational{}, err
		}
		r, n = inv, -n
	}
	result := ratConst(big.NewRat(1, 1))
	base := r
	for n > 0 {
		if n&1 == 1 {
			result = result.mul(base)
		}
		n >>= 1
		if n > 0 {
			base = base.mul(base)
		}
	}
	return result, nil
}

// cancel divides the numerator by every denominator factor it contains.
func (r rational) cancel() rational {
	if r.num.isZero() {
		return ratConst(new(big.Rat))
	}
	num := r.num
	den := make([]denFactor, 0, len(r.den))
	for _, f := range r.den {
		exp := f.exp
		fp := f.poly()
		for exp > 0 {
			q, ok := num.divExact(fp)
			if !ok {
				break
			}
			num, exp = q, exp-1
		}
		if f.k != nil && f.k.ruleExp > 0 {
			for exp > 0 {
				q, ok := num.divExact(f.k.ruleRepl)
				if !ok {
					break
				}
				if exp >= f.k.ruleExp {
					num, exp = q, exp-f.k.ruleExp
				} else {
					num, exp = q.mul(kernelPoly(f.k, f.k.ruleExp-exp)), 0
				}
			}
		}
		if exp > 0 {
			f.exp = exp
			den = append(den, f)
		}
	}
	return rational{num: num, den: den}
}

func mergeDen(a, b []denFactor, combine func(x, y int) int) []denFactor {
	out := make([]denFactor, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].key == b[j].key:
			f := a[i]
			f.exp = combine(a[i].exp, b[j].exp)
			out = append(out, f)
			i++
			j++
		case a[i].key < b[j].key:
			f := a[i]
			f.exp = combine(a[i].exp, 0)
			out = append(out, f)
			i++
		default:
			f := b[j]
			f.exp = combine(0, b[j].exp)
			out = append(out, f)
			j++
		}
	}
	for ; i < len(a); i++ {
		f := a[i]
		f.exp = combine(a[i].exp, 0)
		out = append(out, f)
	}
	for ; j < len(b); j++ {
		f := b[j]
		f.exp = combine(0, b[j].exp)
		out = append(out, f)
	}
	return out
}

// cofactor is the product of lcm/den over all factors.
func cofactor(lcm, den []denFactor) poly {
	have := make(map[string]int, len(den))
	for _, f := range den {
		have[f.key] = f.exp
	}
	out := constPoly(big.NewRat(1, 1))
	for _, f := range lcm {
		if d := f.exp - have[f.key]; d > 0 {
			out = out.mul(f.poly().pow(d))
		}
	}
	return out
}

func addFactor(fs []denFactor, f denFactor) []denFactor {
	for i := range fs {
		if fs[i].key == f.key {
			fs[i].exp += f.exp
			return fs
		}
	}
	return append(fs, f)
}

// factorize splits p into c * monomial * rule squares * monic remainder.
func factorize(p poly) (*big.Rat, []denFactor) {
	content := p.monomialContent()
	q := p.divMono(content)
	var factors []denFactor
	for _, pw := range content {
		factors = addFactor(factors, kernelFactor(pw.k, pw.exp))
	}
	for _, k := range q.kernels() {
		partner := squarePartner(k)
		if partner == nil {
			continue
		}
		for {
			if _, isConst := q.constant(); isConst {
				break
			}
			d, ok := q.divExact(partner.ruleRepl)
			if !ok {
				break
			}
			q = d
			factors = addFactor(factors, kernelFactor(partner, partner.ruleExp))
		}
	}
	c := new(big.Rat).Set(q.leading().coeff)
	q = q.scale(new(big.Rat).Inv(c))
	if _, isConst := q.constant(); !isConst {
		factors = addFactor(factors, polyFactor(q, 1))
	}
	sort.Slice(factors, func(i, j int) bool { return factors[i].key < factors[j].key })
	return c, factors
}

func (r rational) toExpr() Expr {
	num := r.num.toExpr()
	if len(r.den) == 0 {
		return num
	}
	factors := []Expr{num}
	for _, f := range r.den {
		factors = append(factors, PowOf(f.toExpr(), N(int64(-f.exp))))
	}
	return MulOf(factors...)
}

// ============================================================
// Expr <-> rational conversion
// ============================================================

func toRational(e Expr) (rational, error) {
	switch v := e.(type) {
	case *Num:
		return ratConst(v.val), nil
	case *Sym:
		return ratKernel(newKernel(v)), nil
	case *Add:
		acc := ratConst(new(big.Rat))
		for _, t := range v.terms {
			r, err := toRational(t)
			if err != nil {
				return rational{}, err
			}
			acc = acc.add(r)
		}
		return acc, nil
	case *Mul:
		acc := ratConst(big.NewRat(1, 1))
		for _, f := range v.factors {
			r, err := toRational(f)
			if err != nil {
				return rational{}, err
			}
			acc = acc.mul(r)
		}
		return acc, nil
	case *Pow:
		return powToRational(v)
	case *Func:
		return funcToRational(v)
	}
	return rational{}, fmt.Errorf("symbolic: cannot normalize %T", e)
}

func powToRational(v *Pow) (rational, error) {
	exp := v.exp.Simplify()
	en, ok := exp.(*Num)
	if !ok {
		base, err := Normalize(v.base)
		if err != nil {
			return rational{}, err
		}
		expc, err := Normalize(exp)
		if err != nil {
			return rational{}, err
		}
		s := PowOf(base, expc)
		if p, isPow := s.(*Pow); isPow {
			return ratKernel(newKernel(p)), nil
		}
		return toRational(s)
	}
	br, err := toRational(v.base)
	if err != nil {
		return rational{}, err
	}
	if en.IsInteger() {
		if !en.val.Num().IsInt64() {
			return rational{}, fmt.Errorf("symbolic: exponent %s out of range", en)
		}
		return br.pow(int(en.val.Num().Int64()))
	}
	p, q := en.val.Num(), en.val.Denom()
	if !p.IsInt64() || !q.IsInt64() {
		return rational{}, fmt.Errorf("symbolic: exponent %s out of range", en)
	}
	if br.num.isZero() {
		if p.Sign() > 0 {
			return ratConst(new(big.Rat)), nil
		}
		return rational{}, ErrDivisionByZero
	}
	if c, isConst := br.constant(); isConst {
		if root, exact := ratSqrt(c); exact && q.Int64() == 2 {
			return ratConst(root).pow(int(p.Int64()))
		}
	}
	// q-th powers in the rational content come out of the radical
	scale := big.NewRat(1, 1)
	if s := rootContent(br.num.content(), q.Int64()); s.Cmp(scale) != 0 {
		sq := new(big.Rat).Set(s)
		for i := int64(1); i < q.Int64(); i++ {
			sq.Mul(sq, s)
		}
		br = rational{num: br.num.scale(new(big.Rat).Inv(sq)), den: br.den}
		scale = s
	}
	k := newKernel(&Pow{base: br.toExpr(), exp: F(1, q.Int64())})
	return ratConst(scale).mul(ratKernel(k)).pow(int(p.Int64()))
}

// content returns the positive rational gcd of the coefficients of p.
func (p poly) content() *big.Rat {
	num, den := new(big.Int), big.NewInt(1)
	for _, t := range p {
		num.GCD(nil, nil, num, new(big.Int).Abs(t.coeff.Num()))
		d := t.coeff.Denom()
		g := new(big.Int).GCD(nil, nil, den, d)
		den.Mul(den, new(big.Int).Quo(d, g))
	}
	if num.Sign() == 0 {
		return big.NewRat(1, 1)
	}
	return new(big.Rat).SetFrac(num, den)
}

// maxRootTrial bounds the trial division in intRoot.
const maxRootTrial = 1 << 12

// rootContent returns the largest s such that s^q divides c, looking at
// prime factors below maxRootTrial.
func rootContent(c *big.Rat, q int64) *big.Rat {
	return new(big.Rat).SetFrac(intRoot(c.Num(), q), intRoot(c.Denom(), q))
}

func intRoot(n *big.Int, q int64) *big.Int {
	out, m := big.NewInt(1), new(big.Int).Abs(n)
	rem := new(big.Int)
	for f := int64(2); f < maxRootTrial; f++ {
		bf := big.NewInt(f)
		if new(big.Int).Mul(bf, bf).Cmp(m) > 0 {
			break
		}
		count := int64(0)
		for {
			quo, r := new(big.Int).QuoRem(m, bf, rem)
			if r.Sign() != 0 {
				break
			}
			m = quo
			count++
		}
		for i := int64(0); i < count/q; i++ {
			out.Mul(out, bf)
		}
	}
	return out
}

// ratSqrt returns the exact square root of a non-negative perfect square.
func ratSqrt(c *big.Rat) (*big.Rat, bool) {
	if c.Sign() < 0 {
		return nil, false
	}
	n, d := c.Num(), c.Denom()
	sn, sd := new(big.Int).Sqrt(n), new(big.Int).Sqrt(d)
	if new(big.Int).Mul(sn, sn).Cmp(n) != 0 || new(big.Int).Mul(sd, sd).Cmp(d) != 0 {
		return nil, false
	}
	return new(big.Rat).SetFrac(sn, sd), true
}

func funcToRational(v *Func) (rational, error) {
	argR, err := toRational(v.arg)
	if err != nil {
		return rational{}, err
	}
	arg := argR.toExpr()
	negative := !argR.num.isZero() && argR.num.leading().coeff.Sign() < 0
	switch v.name {
	case "tan":
		return toRational(MulOf(funcOf("sin", arg), PowOf(funcOf("cos", arg), N(-1))))
	case "tanh":
		return toRational(MulOf(funcOf("sinh", arg), PowOf(funcOf("cosh", arg), N(-1))))
	case "sin", "sinh", "asin", "atan":
		if negative {
			return toRational(MulOf(N(-1), funcOf(v.name, argR.neg().toExpr())))
		}
	case "cos", "cosh", "abs":
		if negative {
			return toRational(funcOf(v.name, argR.neg().toExpr()))
		}
	}
	s := funcOf(v.name, arg).Simplify()
	if f, ok := s.(*Func); ok {
		return ratKernel(newKernel(f)), nil
	}
	return toRational(s)
}

// ============================================================
// Public canonical-form API
// ============================================================

// Normalize rewrites e into its canonical rational form: an expanded
// numerator over a factored denominator with every exact cancellation
// performed.
func Normalize(e Expr) (Expr, error) {
	r, err := toRational(e)
	if err != nil {
		return nil, err
	}
	return r.toExpr(), nil
}

// Canonicalize is Normalize for expressions known to be well defined.
// It panics on division by zero.
func Canonicalize(e Expr) Expr {
	out, err := Normalize(e)
	if err != nil {
		panic(err.Error())
	}
	return out
}

// IsZero reports whether e is identically zero.
func IsZero(e Expr) bool {
	r, err := toRational(e)
	return err == nil && r.num.isZero()
}

// Equivalent reports whether a - b is identically zero.
func Equivalent(a, b Expr) bool { return IsZero(SubOf(a, b)) }

// ConstantValue returns the exact value of e when it does not depend on any
// kernel.
func ConstantValue(e Expr) (*Num, bool) {
	r, err := toRational(e)
	if err != nil {
		return nil, false
	}
	c, ok := r.constant()
	if !ok {
		return nil, false
	}
	return NRat(c), true
}

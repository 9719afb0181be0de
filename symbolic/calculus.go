package symbolic

import "sort"

// ============================================================
// Differentiation and substitution helpers
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }

// Diff is the partial derivative of expr with respect to varName.
func Diff(expr Expr, varName string) Expr { return expr.Diff(varName).Simplify() }

// PDiff is the canonical partial derivative ∂expr/∂varName.
func PDiff(expr Expr, varName string) Expr { return Canonicalize(expr.Diff(varName)) }

// Sub substitutes value for every occurrence of varName.
func Sub(expr Expr, varName string, value Expr) Expr { return expr.Sub(varName, value).Simplify() }

// SubAll applies every substitution in bindings. Names are substituted in
// sorted order so results are reproducible.
func SubAll(expr Expr, bindings map[string]Expr) Expr {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		expr = expr.Sub(name, bindings[name])
	}
	return expr.Simplify()
}

// Gradient returns the canonical partial derivatives of expr, one per
// coordinate.
func Gradient(expr Expr, coords []string) []Expr {
	out := make([]Expr, len(coords))
	for i, c := range coords {
		out[i] = PDiff(expr, c)
	}
	return out
}

// Jacobian returns the len(exprs) x len(coords) matrix of partials.
func Jacobian(exprs []Expr, coords []string) *Matrix {
	m := NewMatrix(len(exprs), len(coords))
	for i, e := range exprs {
		for j, c := range coords {
			m.Set(i, j, PDiff(e, c))
		}
	}
	return m
}

// ============================================================
// Free Symbols
// ============================================================

// FreeSymbols returns the set of symbol names occurring in e.
func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

// SortedSymbols is FreeSymbols as a sorted slice.
func SortedSymbols(e Expr) []string {
	set := FreeSymbols(e)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

package symbolic_test

import (
	"strings"
	"testing"

	"github.com/physicsuniverse/Covariant-Derivative/symbolic"
)

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := symbolic.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_Rational(t *testing.T) {
	n := symbolic.F(2, 6)
	if n.String() != "1/3" {
		t.Errorf("want 1/3, got %s", n.String())
	}
}

func TestNum_LaTeX_Rational(t *testing.T) {
	if l := symbolic.F(-2, 5).LaTeX(); l != `-\frac{2}{5}` {
		t.Errorf(`want -\frac{2}{5}, got %s`, l)
	}
}

// ============================================================
// Add / Mul / Pow tests
// ============================================================

func TestAdd_Ordering(t *testing.T) {
	expr := symbolic.AddOf(symbolic.N(3), symbolic.S("x"))
	if symbolic.String(expr) != "x + 3" {
		t.Errorf("want 'x + 3', got %s", symbolic.String(expr))
	}
}

func TestAdd_LikeTerms(t *testing.T) {
	x := symbolic.S("x")
	expr := symbolic.AddOf(symbolic.MulOf(symbolic.N(2), symbolic.SinOf(x)), symbolic.MulOf(symbolic.N(-2), symbolic.SinOf(x)))
	if symbolic.String(expr) != "0" {
		t.Errorf("2sin(x) - 2sin(x) should be 0, got %s", symbolic.String(expr))
	}
}

func TestAdd_NegativeTermPrinting(t *testing.T) {
	expr := symbolic.SubOf(symbolic.N(1), symbolic.MulOf(symbolic.N(2), symbolic.S("M")))
	if s := symbolic.String(expr); s != "1 - 2*M" && s != "-2*M + 1" {
		t.Errorf("unexpected rendering %s", s)
	}
}

func TestMul_ZeroCollapse(t *testing.T) {
	expr := symbolic.MulOf(symbolic.N(0), symbolic.S("x"))
	if symbolic.String(expr) != "0" {
		t.Errorf("0*x should be 0, got %s", symbolic.String(expr))
	}
}

func TestMul_MergesPowers(t *testing.T) {
	r := symbolic.S("r")
	expr := symbolic.MulOf(symbolic.PowOf(r, symbolic.N(2)), symbolic.PowOf(r, symbolic.N(-2)))
	if symbolic.String(expr) != "1" {
		t.Errorf("r^2*r^-2 should be 1, got %s", symbolic.String(expr))
	}
}

func TestPow_NumericFold(t *testing.T) {
	if s := symbolic.String(symbolic.PowOf(symbolic.N(2), symbolic.N(-3))); s != "1/8" {
		t.Errorf("2^-3 should be 1/8, got %s", s)
	}
}

func TestPow_NegativeRationalBase(t *testing.T) {
	if s := symbolic.String(symbolic.PowOf(symbolic.F(-2, 3), symbolic.N(3))); s != "-8/27" {
		t.Errorf("(-2/3)^3 should be -8/27, got %s", s)
	}
	if s := symbolic.String(symbolic.PowOf(symbolic.F(-2, 3), symbolic.N(-2))); s != "9/4" {
		t.Errorf("(-2/3)^-2 should be 9/4, got %s", s)
	}
}

func TestPow_DistributesIntegerExponent(t *testing.T) {
	r := symbolic.S("r")
	expr := symbolic.PowOf(symbolic.MulOf(symbolic.N(2), r), symbolic.N(2))
	if s := symbolic.String(expr); s != "4*r^2" {
		t.Errorf("(2r)^2 should be 4*r^2, got %s", s)
	}
}

func TestPow_FractionalExponentKept(t *testing.T) {
	x := symbolic.S("x")
	expr := symbolic.PowOf(symbolic.PowOf(x, symbolic.N(2)), symbolic.F(1, 2))
	if symbolic.String(expr) != "(x^2)^(1/2)" {
		t.Errorf("(x^2)^(1/2) must not collapse to x, got %s", symbolic.String(expr))
	}
}

func TestPow_LaTeX(t *testing.T) {
	expr := symbolic.PowOf(symbolic.S("x"), symbolic.N(2))
	if expr.LaTeX() != "x^{2}" {
		t.Errorf("want x^{2}, got %s", expr.LaTeX())
	}
}

// ============================================================
// Func tests
// ============================================================

func TestFunc_Sin_Diff(t *testing.T) {
	d := symbolic.Diff(symbolic.SinOf(symbolic.S("x")), "x")
	if symbolic.String(d) != "cos(x)" {
		t.Errorf("d/dx(sin(x)) should be cos(x), got %s", symbolic.String(d))
	}
}

func TestFunc_ChainRule(t *testing.T) {
	r := symbolic.S("r")
	d := symbolic.PDiff(symbolic.ExpOf(symbolic.PowOf(r, symbolic.N(2))), "r")
	want := symbolic.MulOf(symbolic.N(2), r, symbolic.ExpOf(symbolic.PowOf(r, symbolic.N(2))))
	if !symbolic.Equivalent(d, want) {
		t.Errorf("d/dr exp(r^2) = %s, want %s", d, want)
	}
}

func TestFunc_GenericDerivative(t *testing.T) {
	d := symbolic.Diff(symbolic.FuncOf("f", symbolic.S("r")), "r")
	if symbolic.String(d) != "D[f](r)" {
		t.Errorf("want D[f](r), got %s", symbolic.String(d))
	}
	if l := d.LaTeX(); !strings.Contains(l, "f'") {
		t.Errorf("LaTeX of D[f](r) should use prime notation, got %s", l)
	}
}

func TestFunc_ExactIdentities(t *testing.T) {
	x := symbolic.S("x")
	cases := map[string]symbolic.Expr{
		"0": symbolic.SinOf(symbolic.N(0)),
		"1": symbolic.CoshOf(symbolic.N(0)),
		"x": symbolic.LnOf(symbolic.ExpOf(x)),
		"3": symbolic.AbsOf(symbolic.N(-3)),
	}
	for want, e := range cases {
		if s := symbolic.String(e); s != want {
			t.Errorf("want %s, got %s", want, s)
		}
	}
}

func TestFunc_NoFloatFolding(t *testing.T) {
	if s := symbolic.String(symbolic.SinOf(symbolic.N(1))); s != "sin(1)" {
		t.Errorf("sin(1) must stay exact, got %s", s)
	}
}

// ============================================================
// FreeSymbols / determinism
// ============================================================

func TestFreeSymbols(t *testing.T) {
	expr := symbolic.AddOf(symbolic.S("r"), symbolic.SinOf(symbolic.S("θ")), symbolic.N(1))
	got := symbolic.SortedSymbols(expr)
	if len(got) != 2 || got[0] != "r" || got[1] != "θ" {
		t.Errorf("want [r θ], got %v", got)
	}
}

func TestDeterminism(t *testing.T) {
	expected := symbolic.String(symbolic.AddOf(symbolic.S("z"), symbolic.S("a"), symbolic.S("m"), symbolic.N(1)))
	for i := 0; i < 10; i++ {
		result := symbolic.String(symbolic.AddOf(symbolic.S("m"), symbolic.N(1), symbolic.S("z"), symbolic.S("a")))
		if result != expected {
			t.Errorf("non-deterministic output on iteration %d: %s != %s", i, result, expected)
		}
	}
}

package geometry

import (
	"fmt"
	"time"

	"github.com/physicsuniverse/Covariant-Derivative/symbolic"
	"github.com/physicsuniverse/Covariant-Derivative/tensor"
)

// Curvature bundles every curvature quantity of one metric. Computing them
// together shares the connection and the Riemann tensor.
type Curvature struct {
	Christoffel *tensor.Array
	Riemann     *tensor.Array
	Ricci       *tensor.Array
	Scalar      symbolic.Expr
	Einstein    *tensor.Array
}

// riemannFrom builds R[ρ,σ,μ,ν] from the connection.
func riemannFrom(gamma *tensor.Array, coords []string) *tensor.Array {
	// dΓ[ρ,ν,σ,μ] = ∂_μ Γ^ρ_{νσ}, rearranged to [ρ,σ,μ,ν]
	a := gamma.Gradient(coords).Permute(0, 2, 3, 1)
	// Γ·Γ[ρ,μ,ν,σ] = Γ^ρ_{μλ} Γ^λ_{νσ}, rearranged to [ρ,σ,μ,ν]
	b := tensor.Dot(gamma, gamma, 2, 0).Permute(0, 3, 1, 2)
	c := a.Add(b)
	return c.Sub(c.SwapAxes(2, 3)).Simplify()
}

// Riemann returns R^ρ_{σμν} laid out as [ρ,σ,μ,ν].
func (e *Engine) Riemann(m Metric) (*tensor.Array, error) {
	gamma, err := e.Christoffel(m)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	r := riemannFrom(gamma, m.coords)
	e.stage("riemann", m, start)
	return r, nil
}

// RiemannLower returns R_{ρσμν} = g_{ρλ} R^λ_{σμν}.
func (e *Engine) RiemannLower(m Metric) (*tensor.Array, error) {
	r, err := e.Riemann(m)
	if err != nil {
		return nil, err
	}
	return lowerFirst(m, r), nil
}

func lowerFirst(m Metric, r *tensor.Array) *tensor.Array {
	return tensor.Dot(m.Array(), r, 1, 0).Simplify()
}

func ricciFrom(r *tensor.Array) *tensor.Array { return r.Trace(0, 2).Simplify() }

// Ricci returns Ric_{σν} = R^ρ_{σρν}.
func (e *Engine) Ricci(m Metric) (*tensor.Array, error) {
	r, err := e.Riemann(m)
	if err != nil {
		return nil, err
	}
	return ricciFrom(r), nil
}

func scalarFrom(ginv, ric *tensor.Array) symbolic.Expr {
	return symbolic.Canonicalize(tensor.Dot(ginv, ric, 1, 0).Trace(0, 1).Value())
}

// RicciScalar returns R = g^{σν} Ric_{σν}.
func (e *Engine) RicciScalar(m Metric) (symbolic.Expr, error) {
	ric, err := e.Ricci(m)
	if err != nil {
		return nil, err
	}
	ginv, err := m.InverseArray()
	if err != nil {
		return nil, err
	}
	return scalarFrom(ginv, ric), nil
}

func einsteinFrom(m Metric, ric *tensor.Array, scalar symbolic.Expr) *tensor.Array {
	return ric.Sub(m.Array().Scale(symbolic.MulOf(half, scalar))).Simplify()
}

// Einstein returns G_{μν} = Ric_{μν} − ½ R g_{μν}.
func (e *Engine) Einstein(m Metric) (*tensor.Array, error) {
	c, err := e.Curvature(m)
	if err != nil {
		return nil, err
	}
	return c.Einstein, nil
}

// Curvature computes the connection, Riemann, Ricci, scalar and Einstein
// tensors in one pass.
func (e *Engine) Curvature(m Metric) (*Curvature, error) {
	gamma, err := e.Christoffel(m)
	if err != nil {
		return nil, err
	}
	ginv, err := m.InverseArray()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	r := riemannFrom(gamma, m.coords)
	ric := ricciFrom(r)
	scalar := scalarFrom(ginv, ric)
	e.stage("curvature", m, start)
	return &Curvature{
		Christoffel: gamma,
		Riemann:     r,
		Ricci:       ric,
		Scalar:      scalar,
		Einstein:    einsteinFrom(m, ric, scalar),
	}, nil
}

// antisymLast returns (X − X with axes 2,3 swapped)/2.
func antisymLast(x *tensor.Array) *tensor.Array {
	return x.Sub(x.SwapAxes(2, 3)).Scale(half)
}

// Weyl returns the fully lower conformal tensor
//
//	C = R − 2/(n−2)(g_{ρ[μ}R_{ν]σ} − g_{σ[μ}R_{ν]ρ}) + 2R/((n−1)(n−2)) g_{ρ[μ}g_{ν]σ}
//
// It is only defined for n ≥ 3.
func (e *Engine) Weyl(m Metric) (*tensor.Array, error) {
	n := m.Dim()
	if n < 3 {
		return nil, fmt.Errorf("%w: Weyl tensor needs n >= 3, got %d", ErrUnsupportedDimension, n)
	}
	c, err := e.Curvature(m)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	g := m.Array()
	rlow := lowerFirst(m, c.Riemann)

	// g_{ac} Ric_{bd} laid out as [a,b,c,d]
	w1 := antisymLast(tensor.Outer(g, c.Ricci).Permute(0, 2, 1, 3))
	gRic := w1.Sub(w1.SwapAxes(0, 1))
	// g_{ac} g_{bd} laid out as [a,b,c,d]
	gg := antisymLast(tensor.Outer(g, g).Permute(0, 2, 1, 3))

	nn := int64(n)
	weyl := rlow.
		Sub(gRic.Scale(symbolic.F(2, nn-2))).
		Add(gg.Scale(symbolic.MulOf(symbolic.F(2, (nn-1)*(nn-2)), c.Scalar))).
		Simplify()
	e.stage("weyl", m, start)
	return weyl, nil
}

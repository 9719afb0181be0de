package geometry

import (
	"time"

	"github.com/physicsuniverse/Covariant-Derivative/symbolic"
	"github.com/physicsuniverse/Covariant-Derivative/tensor"
)

var half = symbolic.F(1, 2)

// Christoffel returns Γ[μ,ν,ρ] = ½ g^{μσ}(∂_ν g_{σρ} + ∂_ρ g_{νσ} − ∂_σ g_{νρ}).
func (e *Engine) Christoffel(m Metric) (*tensor.Array, error) {
	if e.cache == nil {
		return e.christoffel(m)
	}
	return e.cache.christoffel(m, func() (*tensor.Array, error) { return e.christoffel(m) })
}

func (e *Engine) christoffel(m Metric) (*tensor.Array, error) {
	start := time.Now()
	ginv, err := m.InverseArray()
	if err != nil {
		return nil, err
	}
	// dg[a,b,c] = ∂_c g_ab
	dg := m.Array().Gradient(m.coords)
	// s[σ,ν,ρ] = ∂_ν g_σρ + ∂_ρ g_νσ − ∂_σ g_νρ
	s := dg.Permute(0, 2, 1).Add(dg.Permute(1, 0, 2)).Sub(dg.Permute(2, 0, 1))
	gamma := tensor.Dot(ginv, s, 1, 0).Scale(half).Simplify()
	e.stage("christoffel", m, start)
	return gamma, nil
}

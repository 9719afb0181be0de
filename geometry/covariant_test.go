package geometry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physicsuniverse/Covariant-Derivative/geometry"
	"github.com/physicsuniverse/Covariant-Derivative/symbolic"
	"github.com/physicsuniverse/Covariant-Derivative/tensor"
)

func vector(t *testing.T, idx tensor.Index, entries ...string) tensor.Tensor {
	t.Helper()
	exprs := make([]symbolic.Expr, len(entries))
	for i, s := range entries {
		exprs[i] = symbolic.MustParse(s)
	}
	arr, err := tensor.FromSlice([]int{len(entries)}, exprs)
	require.NoError(t, err)
	v, err := tensor.New(arr, idx)
	require.NoError(t, err)
	return v
}

func TestParseDerivativeIndex(t *testing.T) {
	tests := []struct {
		in   string
		want geometry.DerivativeIndex
	}{
		{"mu", geometry.Lower("mu")},
		{"_mu", geometry.Lower("mu")},
		{"-mu", geometry.Raised("mu")},
		{"^ν", geometry.Raised("ν")},
		{" - a ", geometry.Raised("a")},
	}
	for _, tt := range tests {
		got, err := geometry.ParseDerivativeIndex(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	for _, bad := range []string{"", "-", "--mu", "m u"} {
		_, err := geometry.ParseDerivativeIndex(bad)
		require.ErrorIs(t, err, geometry.ErrInvalidIndexLabel, bad)
	}
	assert.Equal(t, "-mu", geometry.Raised("mu").String())
	assert.Equal(t, "^mu", geometry.Raised("mu").Index().String())
}

func TestCovariantDerivative_MetricCompatibility(t *testing.T) {
	for name, m := range map[string]geometry.Metric{
		"polar":         polar(t),
		"sphere":        sphere(t),
		"sheared":       sheared(t),
		"ads3":          ads3(t),
		"schwarzschild": schwarzschild(t),
	} {
		t.Run(name, func(t *testing.T) {
			g, err := m.MetricTensor("a", "b")
			require.NoError(t, err)
			dg, err := geometry.CovariantDerivative(m, geometry.Lower("c"), g)
			require.NoError(t, err)
			assert.Equal(t, "_c_a_b", dg.Signature.String())
			assert.True(t, dg.Array.IsZero(), "∇g = %v", dg.Array)

			ginv, err := m.InverseTensor("a", "b")
			require.NoError(t, err)
			dginv, err := geometry.CovariantDerivative(m, geometry.Lower("c"), ginv)
			require.NoError(t, err)
			assert.True(t, dginv.Array.IsZero(), "∇g⁻¹ = %v", dginv.Array)
		})
	}
}

func TestCovariantDerivative_KroneckerDelta(t *testing.T) {
	m := schwarzschild(t)
	delta, err := tensor.New(tensor.FromMatrix(symbolic.Identity(4)), tensor.Up("a"), tensor.Down("b"))
	require.NoError(t, err)
	d, err := geometry.CovariantDerivative(m, geometry.Lower("c"), delta)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 4}, d.Array.Shape())
	assert.True(t, d.Array.IsZero())
}

// metricProduct lays g_{ac} g^{bd} out as [a,b,c,d].
func metricProduct(t *testing.T, m geometry.Metric) tensor.Tensor {
	t.Helper()
	ginv, err := m.Inverse()
	require.NoError(t, err)
	n := m.Dim()
	arr := tensor.NewArray(n, n, n, n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			for c := 0; c < n; c++ {
				for d := 0; d < n; d++ {
					arr.Set(symbolic.MulOf(m.At(a, c), ginv.Get(b, d)), a, b, c, d)
				}
			}
		}
	}
	out, err := tensor.New(arr, tensor.Down("a"), tensor.Up("b"), tensor.Down("c"), tensor.Up("d"))
	require.NoError(t, err)
	return out
}

func TestCovariantDerivative_MixedRankFour(t *testing.T) {
	for name, m := range map[string]geometry.Metric{
		"polar":   polar(t),
		"sphere":  sphere(t),
		"sheared": sheared(t),
	} {
		t.Run(name, func(t *testing.T) {
			d, err := geometry.CovariantDerivative(m, geometry.Lower("e"), metricProduct(t, m))
			require.NoError(t, err)
			assert.Equal(t, "_e_a^b_c^d", d.Signature.String())
			assert.True(t, d.Array.IsZero(), "∇(g⊗g⁻¹) = %v", d.Array)
		})
	}
}

func TestCovariantDerivative_UpperMiddleSlot(t *testing.T) {
	m := polar(t)
	v := vector(t, tensor.Up("b"), "r", "1")
	dv, err := geometry.CovariantDerivative(m, geometry.Lower("e"), v)
	require.NoError(t, err)

	// T_a^b_c = g_{ac} V^b, so ∇_e T_a^b_c = g_{ac} ∇_e V^b
	arr := tensor.NewArray(2, 2, 2)
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			for c := 0; c < 2; c++ {
				arr.Set(symbolic.MulOf(m.At(a, c), v.Array.At(b)), a, b, c)
			}
		}
	}
	gv, err := tensor.New(arr, tensor.Down("a"), tensor.Up("b"), tensor.Down("c"))
	require.NoError(t, err)
	d, err := geometry.CovariantDerivative(m, geometry.Lower("e"), gv)
	require.NoError(t, err)
	assert.Equal(t, "_e_a^b_c", d.Signature.String())
	for e := 0; e < 2; e++ {
		for a := 0; a < 2; a++ {
			for b := 0; b < 2; b++ {
				for c := 0; c < 2; c++ {
					want := symbolic.MulOf(m.At(a, c), dv.Array.At(e, b))
					assert.True(t, symbolic.Equivalent(d.Array.At(e, a, b, c), want), "[%d,%d,%d,%d]", e, a, b, c)
				}
			}
		}
	}
}

func TestCovariantDerivative_Scalar(t *testing.T) {
	m := polar(t)
	f := symbolic.MustParse("r^2*sin(θ)")
	s, err := tensor.New(tensor.Scalar(f))
	require.NoError(t, err)

	d, err := geometry.CovariantDerivative(m, geometry.Lower("mu"), s)
	require.NoError(t, err)
	assert.Equal(t, "_mu", d.Signature.String())
	assert.True(t, d.Array.Equivalent(tensor.Scalar(f).Gradient(m.Coords())))

	up, err := geometry.CovariantDerivative(m, geometry.Raised("mu"), s)
	require.NoError(t, err)
	assert.Equal(t, "^mu", up.Signature.String())
	assert.True(t, symbolic.Equivalent(up.Array.At(0), symbolic.MustParse("2*r*sin(θ)")))
	assert.True(t, symbolic.Equivalent(up.Array.At(1), symbolic.MustParse("cos(θ)")))
}

func TestCovariantDerivative_Vector(t *testing.T) {
	m := polar(t)
	v := vector(t, tensor.Up("a"), "r", "1")
	d, err := geometry.CovariantDerivative(m, geometry.Lower("b"), v)
	require.NoError(t, err)
	assert.Equal(t, "_b^a", d.Signature.String())
	// ∇_r V^r = 1, ∇_θ V^r = -r, ∇_r V^θ = 1/r, ∇_θ V^θ = 1
	assert.True(t, symbolic.Equivalent(d.Array.At(0, 0), symbolic.N(1)))
	assert.True(t, symbolic.Equivalent(d.Array.At(1, 0), symbolic.MustParse("-r")))
	assert.True(t, symbolic.Equivalent(d.Array.At(0, 1), symbolic.MustParse("1/r")))
	assert.True(t, symbolic.Equivalent(d.Array.At(1, 1), symbolic.N(1)))
}

func TestCovariantDerivative_Divergence(t *testing.T) {
	m := polar(t)
	// ∇_μ V^μ = (1/r) ∂_r(r V^r) + ∂_θ V^θ
	v := vector(t, tensor.Up("mu"), "r^2", "sin(θ)")
	div, err := geometry.CovariantDerivative(m, geometry.Lower("mu"), v)
	require.NoError(t, err)
	assert.Equal(t, 0, div.Rank())
	assert.True(t, symbolic.Equivalent(div.Array.Value(), symbolic.MustParse("3*r + cos(θ)")), "div = %v", div.Array)

	// same field with a lower index; the pair is contracted through g⁻¹
	w := vector(t, tensor.Down("mu"), "r^2", "r^2*sin(θ)")
	div2, err := geometry.CovariantDerivative(m, geometry.Lower("mu"), w)
	require.NoError(t, err)
	assert.Equal(t, 0, div2.Rank())
	assert.True(t, symbolic.Equivalent(div2.Array.Value(), div.Array.Value()))

	// and with a raised derivative against the lower index
	div3, err := geometry.CovariantDerivative(m, geometry.Raised("mu"), w)
	require.NoError(t, err)
	assert.True(t, symbolic.Equivalent(div3.Array.Value(), div.Array.Value()))
}

func TestCovariantDerivative_ContractsInputPairs(t *testing.T) {
	m := polar(t)
	arr := tensor.NewArray(2, 2, 2)
	arr.Set(symbolic.S("r"), 0, 0, 1)
	arr.Set(symbolic.S("r"), 1, 1, 1)
	tt, err := tensor.New(arr, tensor.Up("a"), tensor.Down("a"), tensor.Down("b"))
	require.NoError(t, err)
	d, err := geometry.CovariantDerivative(m, geometry.Lower("c"), tt)
	require.NoError(t, err)
	// T^a_a_b = (0, 2r) is contracted before differentiating
	assert.Equal(t, "_c_b", d.Signature.String())
}

func TestCovariantDerivative_Errors(t *testing.T) {
	m := polar(t)
	v := vector(t, tensor.Up("a"), "r", "1")

	_, err := geometry.CovariantDerivative(m, geometry.Lower(""), v)
	require.ErrorIs(t, err, geometry.ErrInvalidIndexLabel)

	pair, err := tensor.New(tensor.NewArray(2, 2), tensor.Up("a"), tensor.Down("a"))
	require.NoError(t, err)
	_, err = geometry.CovariantDerivative(m, geometry.Lower("a"), pair)
	require.ErrorIs(t, err, geometry.ErrAmbiguousContraction)

	v3 := vector(t, tensor.Up("a"), "1", "2", "3")
	_, err = geometry.CovariantDerivative(m, geometry.Lower("b"), v3)
	require.ErrorIs(t, err, geometry.ErrDimensionMismatch)

	broken := tensor.Tensor{Array: tensor.NewArray(2, 2), Signature: tensor.Signature{tensor.Up("a")}}
	_, err = geometry.CovariantDerivative(m, geometry.Lower("b"), broken)
	require.ErrorIs(t, err, geometry.ErrUnsupportedTensorStructure)

	unknown := tensor.Tensor{Array: tensor.NewArray(2), Signature: tensor.Signature{{Label: "a"}}}
	_, err = geometry.CovariantDerivative(m, geometry.Lower("b"), unknown)
	require.ErrorIs(t, err, geometry.ErrInvalidIndexLabel)

	same, err := tensor.New(tensor.NewArray(2, 2), tensor.Down("a"), tensor.Down("a"))
	require.NoError(t, err)
	_, err = geometry.CovariantDerivative(m, geometry.Lower("b"), same)
	require.ErrorIs(t, err, geometry.ErrInvalidIndexLabel)

	undefined := vector(t, tensor.Up("a"), "1/(r-r)", "1")
	_, err = geometry.CovariantDerivative(m, geometry.Lower("b"), undefined)
	require.ErrorIs(t, err, symbolic.ErrDivisionByZero)
}

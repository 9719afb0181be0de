package tensor_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physicsuniverse/Covariant-Derivative/symbolic"
	"github.com/physicsuniverse/Covariant-Derivative/tensor"
)

func TestParseVariance(t *testing.T) {
	for _, s := range []string{"upper", "UP", "contravariant", "^"} {
		v, err := tensor.ParseVariance(s)
		require.NoError(t, err)
		assert.Equal(t, tensor.Upper, v)
	}
	for _, s := range []string{"lower", "down", "covariant", "_"} {
		v, err := tensor.ParseVariance(s)
		require.NoError(t, err)
		assert.Equal(t, tensor.Lower, v)
	}
	_, err := tensor.ParseVariance("sideways")
	require.ErrorIs(t, err, tensor.ErrInvalidIndexLabel)
}

func TestSignature_Validate(t *testing.T) {
	tests := []struct {
		name string
		sig  tensor.Signature
		err  error
	}{
		{"ok", tensor.Signature{tensor.Up("a"), tensor.Down("b")}, nil},
		{"pair", tensor.Signature{tensor.Up("a"), tensor.Down("a")}, nil},
		{"empty label", tensor.Signature{tensor.Up("")}, tensor.ErrInvalidIndexLabel},
		{"no variance", tensor.Signature{{Label: "a"}}, tensor.ErrInvalidIndexLabel},
		{"triple", tensor.Signature{tensor.Up("a"), tensor.Down("a"), tensor.Down("a")}, tensor.ErrAmbiguousContraction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sig.Validate()
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestTensor_Structure(t *testing.T) {
	a := tensor.NewArray(3, 3)
	_, err := tensor.New(a, tensor.Down("a"))
	require.ErrorIs(t, err, tensor.ErrUnsupportedTensorStructure)

	tt, err := tensor.New(a, tensor.Down("a"), tensor.Down("b"))
	require.NoError(t, err)
	require.NoError(t, tt.Validate(3))
	require.ErrorIs(t, tt.Validate(4), tensor.ErrDimensionMismatch)
}

func TestTensor_Contract(t *testing.T) {
	x := symbolic.S("x")
	a, _ := tensor.FromSlice([]int{2, 2}, []symbolic.Expr{x, symbolic.N(5), symbolic.N(7), symbolic.N(1)})

	mixed, err := tensor.New(a, tensor.Up("a"), tensor.Down("a"))
	require.NoError(t, err)
	c, err := mixed.Contract()
	require.NoError(t, err)
	assert.Equal(t, 0, c.Rank())
	assert.True(t, symbolic.Equivalent(c.Array.Value(), symbolic.AddOf(x, symbolic.N(1))))

	same, err := tensor.New(a, tensor.Down("a"), tensor.Down("a"))
	require.NoError(t, err)
	_, err = same.Contract()
	require.ErrorIs(t, err, tensor.ErrInvalidIndexLabel)

	free, err := tensor.New(a, tensor.Up("a"), tensor.Down("b"))
	require.NoError(t, err)
	c, err = free.Contract()
	require.NoError(t, err)
	assert.Equal(t, 2, c.Rank())
}

func TestTensor_ContractRank4(t *testing.T) {
	a := tensor.NewArray(2, 2, 2, 2)
	a.Set(symbolic.N(1), 0, 1, 0, 1)
	a.Set(symbolic.N(2), 1, 1, 1, 1)
	a.Set(symbolic.N(4), 1, 0, 1, 0)
	tt, err := tensor.New(a, tensor.Up("i"), tensor.Up("j"), tensor.Down("i"), tensor.Down("j"))
	require.NoError(t, err)
	c, err := tt.Contract()
	require.NoError(t, err)
	assert.Equal(t, 0, c.Rank())
	assert.Equal(t, "7", symbolic.Canonicalize(c.Array.Value()).String())
}

func TestTensor_JSON(t *testing.T) {
	in := `{"shape":[2],"entries":["r", 2],"signature":[{"label":"mu","variance":"upper"}]}`
	var tt tensor.Tensor
	require.NoError(t, json.Unmarshal([]byte(in), &tt))
	assert.Equal(t, tensor.Signature{tensor.Up("mu")}, tt.Signature)

	out, err := json.Marshal(tt)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"variance":"upper"`)

	bad := `{"shape":[2],"entries":["r", 2],"signature":[]}`
	require.ErrorIs(t, json.Unmarshal([]byte(bad), &tt), tensor.ErrUnsupportedTensorStructure)
}

func TestParseIndex(t *testing.T) {
	idx, err := tensor.ParseIndex("^mu")
	require.NoError(t, err)
	assert.Equal(t, tensor.Up("mu"), idx)

	idx, err = tensor.ParseIndex(" _ν ")
	require.NoError(t, err)
	assert.Equal(t, tensor.Down("ν"), idx)

	for _, bad := range []string{"", "mu", "^", "_ "} {
		_, err := tensor.ParseIndex(bad)
		require.ErrorIs(t, err, tensor.ErrInvalidIndexLabel, bad)
	}
}

// Package geometry derives the Levi-Civita connection and curvature of a
// symbolic metric, and applies the covariant derivative to tensors with
// explicit index signatures.
//
// Conventions:
//   - Γ[μ,ν,ρ] = Γ^μ_{νρ}
//   - R[ρ,σ,μ,ν] = R^ρ_{σμν} = ∂_μΓ^ρ_{νσ} − ∂_νΓ^ρ_{μσ} + Γ^ρ_{μλ}Γ^λ_{νσ} − Γ^ρ_{νλ}Γ^λ_{μσ}
//   - Ric_{σν} = R^ρ_{σρν}
//
// Every result is in canonical form (see symbolic.Canonicalize), so zero
// entries print as 0.
package geometry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/physicsuniverse/Covariant-Derivative/symbolic"
	"github.com/physicsuniverse/Covariant-Derivative/tensor"
)

// Metric is a symmetric n x n matrix over an ordered coordinate basis.
type Metric struct {
	g      *symbolic.Matrix
	coords []string
}

// NewMetric validates g against coords and stores it in canonical form.
func NewMetric(g *symbolic.Matrix, coords []string) (Metric, error) {
	if g == nil {
		return Metric{}, fmt.Errorf("%w: nil metric", ErrInvalidMetric)
	}
	if !g.IsSquare() {
		return Metric{}, fmt.Errorf("%w: metric is %dx%d", ErrDimensionMismatch, g.Rows(), g.Cols())
	}
	if g.Rows() != len(coords) {
		return Metric{}, fmt.Errorf("%w: %dx%d metric over %d coordinates", ErrDimensionMismatch, g.Rows(), g.Cols(), len(coords))
	}
	seen := make(map[string]bool, len(coords))
	for _, c := range coords {
		if strings.TrimSpace(c) == "" {
			return Metric{}, fmt.Errorf("%w: empty coordinate label", ErrInvalidMetric)
		}
		if seen[c] {
			return Metric{}, fmt.Errorf("%w: coordinate %q repeated", ErrInvalidMetric, c)
		}
		seen[c] = true
	}
	canon, err := g.Normalize()
	if err != nil {
		return Metric{}, fmt.Errorf("%w: %v", ErrInvalidMetric, err)
	}
	if !canon.IsSymmetric() {
		return Metric{}, fmt.Errorf("%w: metric is not symmetric", ErrInvalidMetric)
	}
	return Metric{g: canon, coords: append([]string(nil), coords...)}, nil
}

// DiagonalMetric is NewMetric for a diagonal matrix.
func DiagonalMetric(coords []string, diag ...symbolic.Expr) (Metric, error) {
	if len(diag) == 0 {
		return Metric{}, fmt.Errorf("%w: empty diagonal", ErrInvalidMetric)
	}
	return NewMetric(symbolic.Diagonal(diag...), coords)
}

func (m Metric) Dim() int                  { return len(m.coords) }
func (m Metric) Coords() []string          { return append([]string(nil), m.coords...) }
func (m Metric) Matrix() *symbolic.Matrix  { return m.g }
func (m Metric) At(i, j int) symbolic.Expr { return m.g.Get(i, j) }
func (m Metric) String() string            { return m.g.String() }

// Array returns g_{ab} as a rank-2 array.
func (m Metric) Array() *tensor.Array { return tensor.FromMatrix(m.g) }

// Inverse computes g^{ab}. It is not memoized.
func (m Metric) Inverse() (*symbolic.Matrix, error) {
	inv, err := m.g.Inverse()
	if errors.Is(err, symbolic.ErrSingular) {
		return nil, fmt.Errorf("%w: det g is identically zero", ErrSingularMetric)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularMetric, err)
	}
	return inv, nil
}

// InverseArray is Inverse as a rank-2 array.
func (m Metric) InverseArray() (*tensor.Array, error) {
	inv, err := m.Inverse()
	if err != nil {
		return nil, err
	}
	return tensor.FromMatrix(inv), nil
}

// MetricTensor returns g with two lower slots labelled a and b.
func (m Metric) MetricTensor(a, b string) (tensor.Tensor, error) {
	return tensor.New(m.Array(), tensor.Down(a), tensor.Down(b))
}

// InverseTensor returns g^{-1} with two upper slots labelled a and b.
func (m Metric) InverseTensor(a, b string) (tensor.Tensor, error) {
	inv, err := m.InverseArray()
	if err != nil {
		return tensor.Tensor{}, err
	}
	return tensor.New(inv, tensor.Up(a), tensor.Up(b))
}

// Lower turns upper slot `slot` of t into a lower slot: T_{..a..} = g_{ab} T^{..b..}.
func (m Metric) Lower(t tensor.Tensor, slot int) (tensor.Tensor, error) {
	if err := m.checkSlot(t, slot, tensor.Upper); err != nil {
		return tensor.Tensor{}, err
	}
	return reindex(m.Array(), t, slot, tensor.Lower), nil
}

// Raise turns lower slot `slot` of t into an upper slot: T^{..a..} = g^{ab} T_{..b..}.
func (m Metric) Raise(t tensor.Tensor, slot int) (tensor.Tensor, error) {
	if err := m.checkSlot(t, slot, tensor.Lower); err != nil {
		return tensor.Tensor{}, err
	}
	inv, err := m.InverseArray()
	if err != nil {
		return tensor.Tensor{}, err
	}
	return reindex(inv, t, slot, tensor.Upper), nil
}

func (m Metric) checkSlot(t tensor.Tensor, slot int, want tensor.Variance) error {
	if err := t.Validate(m.Dim()); err != nil {
		return err
	}
	if slot < 0 || slot >= t.Rank() {
		return fmt.Errorf("%w: slot %d of a rank %d tensor", ErrUnsupportedTensorStructure, slot, t.Rank())
	}
	if got := t.Signature[slot].Variance; got != want {
		return fmt.Errorf("%w: slot %s is already %s", ErrInvalidIndexLabel, t.Signature[slot], got)
	}
	return nil
}

// reindex contracts the second axis of a rank-2 metric array with slot and
// puts the new axis back where slot was.
func reindex(metric *tensor.Array, t tensor.Tensor, slot int, v tensor.Variance) tensor.Tensor {
	arr := tensor.Dot(metric, t.Array, 1, slot).MoveAxis(0, slot).Simplify()
	sig := append(tensor.Signature(nil), t.Signature...)
	sig[slot] = tensor.Index{Label: sig[slot].Label, Variance: v}
	return tensor.Tensor{Array: arr, Signature: sig}
}

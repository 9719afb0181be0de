package geometry

import (
	"errors"

	"github.com/physicsuniverse/Covariant-Derivative/tensor"
)

var (
	// ErrSingularMetric is returned when the metric determinant is
	// identically zero.
	ErrSingularMetric = errors.New("geometry: singular metric")

	// ErrUnsupportedDimension is returned by Weyl below three dimensions.
	ErrUnsupportedDimension = errors.New("geometry: unsupported dimension")

	// ErrInvalidMetric reports a non-symmetric metric or a malformed
	// coordinate basis.
	ErrInvalidMetric = errors.New("geometry: invalid metric")
)

// Index and shape failures are shared with package tensor so errors.Is
// matches regardless of which layer detected them.
var (
	ErrDimensionMismatch          = tensor.ErrDimensionMismatch
	ErrInvalidIndexLabel          = tensor.ErrInvalidIndexLabel
	ErrAmbiguousContraction       = tensor.ErrAmbiguousContraction
	ErrUnsupportedTensorStructure = tensor.ErrUnsupportedTensorStructure
)

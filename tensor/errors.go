package tensor

import "errors"

var (
	// ErrShape reports malformed array shapes or entry counts.
	ErrShape = errors.New("tensor: bad shape")

	// ErrInvalidIndexLabel is returned for an empty label or a slot whose
	// variance is neither upper nor lower.
	ErrInvalidIndexLabel = errors.New("tensor: invalid index label")

	// ErrAmbiguousContraction is returned when a label occurs more than twice.
	ErrAmbiguousContraction = errors.New("tensor: ambiguous contraction")

	// ErrUnsupportedTensorStructure is returned when a signature does not
	// describe the array it is attached to.
	ErrUnsupportedTensorStructure = errors.New("tensor: unsupported tensor structure")

	// ErrDimensionMismatch is returned when an axis extent disagrees with
	// the coordinate dimension.
	ErrDimensionMismatch = errors.New("tensor: dimension mismatch")
)

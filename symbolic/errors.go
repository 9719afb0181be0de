package symbolic

import "errors"

var (
	// ErrDivisionByZero is returned when an expression divides by an
	// identically zero quantity.
	ErrDivisionByZero = errors.New("symbolic: division by zero")

	// ErrSingular is returned by Matrix.Inverse for a zero determinant.
	ErrSingular = errors.New("symbolic: matrix is singular")

	// ErrShape reports a malformed or non-square matrix.
	ErrShape = errors.New("symbolic: bad matrix shape")

	// ErrParse wraps every parser failure.
	ErrParse = errors.New("symbolic: parse error")

	// ErrInvalidJSON wraps every expression-tree decoding failure.
	ErrInvalidJSON = errors.New("symbolic: invalid expression json")
)

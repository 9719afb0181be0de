// Package tensor provides n-dimensional symbolic arrays, the axis
// rearrangement and contraction primitives the curvature pipeline is built
// from, and index signatures for tensors with named slots.
package tensor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/physicsuniverse/Covariant-Derivative/symbolic"
)

// ============================================================
// Array: dense row-major symbolic array
// ============================================================

// Array is an immutable-by-convention n-dimensional grid of expressions.
// A rank-0 array holds exactly one entry.
type Array struct {
	shape   []int
	strides []int
	data    []symbolic.Expr
}

func stridesFor(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for k := len(shape) - 1; k >= 0; k-- {
		strides[k] = acc
		acc *= shape[k]
	}
	return strides
}

func sizeOf(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// NewArray returns a zero-filled array of the given shape.
func NewArray(shape ...int) *Array {
	for _, d := range shape {
		if d <= 0 {
			panic(fmt.Sprintf("tensor: invalid shape %v", shape))
		}
	}
	data := make([]symbolic.Expr, sizeOf(shape))
	for i := range data {
		data[i] = symbolic.N(0)
	}
	return &Array{shape: append([]int(nil), shape...), strides: stridesFor(shape), data: data}
}

// Scalar wraps e as a rank-0 array.
func Scalar(e symbolic.Expr) *Array {
	return &Array{shape: []int{}, strides: []int{}, data: []symbolic.Expr{e}}
}

// FromSlice builds an array from row-major entries.
func FromSlice(shape []int, entries []symbolic.Expr) (*Array, error) {
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("%w: non-positive dimension in %v", ErrShape, shape)
		}
	}
	if len(entries) != sizeOf(shape) {
		return nil, fmt.Errorf("%w: shape %v needs %d entries, got %d", ErrShape, shape, sizeOf(shape), len(entries))
	}
	return &Array{
		shape:   append([]int(nil), shape...),
		strides: stridesFor(shape),
		data:    append([]symbolic.Expr(nil), entries...),
	}, nil
}

// FromMatrix converts a symbolic matrix to a rank-2 array.
func FromMatrix(m *symbolic.Matrix) *Array {
	a := NewArray(m.Rows(), m.Cols())
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			a.data[i*m.Cols()+j] = m.Get(i, j)
		}
	}
	return a
}

// ToMatrix converts a rank-2 array back to a matrix.
func (a *Array) ToMatrix() (*symbolic.Matrix, error) {
	if a.Rank() != 2 {
		return nil, fmt.Errorf("%w: rank %d array is not a matrix", ErrShape, a.Rank())
	}
	m := symbolic.NewMatrix(a.shape[0], a.shape[1])
	for i := 0; i < a.shape[0]; i++ {
		for j := 0; j < a.shape[1]; j++ {
			m.Set(i, j, a.data[i*a.shape[1]+j])
		}
	}
	return m, nil
}

func (a *Array) Shape() []int { return append([]int{}, a.shape...) }
func (a *Array) Rank() int    { return len(a.shape) }
func (a *Array) Len() int     { return len(a.data) }

// Dim returns the extent of axis k.
func (a *Array) Dim(k int) int {
	a.checkAxis(k)
	return a.shape[k]
}

// Entries returns a copy of the row-major entries.
func (a *Array) Entries() []symbolic.Expr { return append([]symbolic.Expr(nil), a.data...) }

func (a *Array) checkAxis(k int) {
	if k < 0 || k >= len(a.shape) {
		panic(fmt.Sprintf("tensor: axis %d out of range for rank %d", k, len(a.shape)))
	}
}

func (a *Array) offset(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank %d array", len(idx), len(a.shape)))
	}
	off := 0
	for k, i := range idx {
		if i < 0 || i >= a.shape[k] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, a.shape))
		}
		off += i * a.strides[k]
	}
	return off
}

// At returns the entry at idx.
func (a *Array) At(idx ...int) symbolic.Expr { return a.data[a.offset(idx)] }

// Set stores e at idx. Arrays are shared freely, so Set is meant for
// arrays the caller has just built.
func (a *Array) Set(e symbolic.Expr, idx ...int) { a.data[a.offset(idx)] = e }

// Value returns the entry of a rank-0 array.
func (a *Array) Value() symbolic.Expr {
	if len(a.shape) != 0 {
		panic(fmt.Sprintf("tensor: Value on rank %d array", len(a.shape)))
	}
	return a.data[0]
}

// ============================================================
// Elementwise operations
// ============================================================

// Map applies fn to every entry.
func (a *Array) Map(fn func(symbolic.Expr) symbolic.Expr) *Array {
	out := &Array{shape: a.shape, strides: a.strides, data: make([]symbolic.Expr, len(a.data))}
	for i, e := range a.data {
		out.data[i] = fn(e)
	}
	return out
}

func (a *Array) zip(b *Array, op string, fn func(x, y symbolic.Expr) symbolic.Expr) *Array {
	if !sameShape(a.shape, b.shape) {
		panic(fmt.Sprintf("tensor: %s of shapes %v and %v", op, a.shape, b.shape))
	}
	out := &Array{shape: a.shape, strides: a.strides, data: make([]symbolic.Expr, len(a.data))}
	for i := range a.data {
		out.data[i] = fn(a.data[i], b.data[i])
	}
	return out
}

func (a *Array) Add(b *Array) *Array { return a.zip(b, "Add", addExpr) }

func (a *Array) Sub(b *Array) *Array {
	return a.zip(b, "Sub", func(x, y symbolic.Expr) symbolic.Expr { return addExpr(x, negExpr(y)) })
}

func (a *Array) Scale(s symbolic.Expr) *Array {
	return a.Map(func(e symbolic.Expr) symbolic.Expr { return mulExpr(s, e) })
}

func (a *Array) Neg() *Array { return a.Map(negExpr) }

// Simplify canonicalizes every entry.
func (a *Array) Simplify() *Array { return a.Map(symbolic.Canonicalize) }

// Normalize is Simplify for entries that may not be well defined.
func (a *Array) Normalize() (*Array, error) {
	out := &Array{shape: a.shape, strides: a.strides, data: make([]symbolic.Expr, len(a.data))}
	for i, e := range a.data {
		n, err := symbolic.Normalize(e)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out.data[i] = n
	}
	return out, nil
}

// IsZero reports whether every entry is identically zero.
func (a *Array) IsZero() bool {
	for _, e := range a.data {
		if !symbolic.IsZero(e) {
			return false
		}
	}
	return true
}

// Equivalent reports shape equality and entry-wise equivalence.
func (a *Array) Equivalent(b *Array) bool {
	if !sameShape(a.shape, b.shape) {
		return false
	}
	for i := range a.data {
		if !symbolic.Equivalent(a.data[i], b.data[i]) {
			return false
		}
	}
	return true
}

func (a *Array) String() string {
	if len(a.shape) == 0 {
		return a.data[0].String()
	}
	var sb strings.Builder
	a.writeNested(&sb, 0, 0)
	return sb.String()
}

func (a *Array) writeNested(sb *strings.Builder, axis, off int) {
	sb.WriteString("[")
	for i := 0; i < a.shape[axis]; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		if axis == len(a.shape)-1 {
			sb.WriteString(a.data[off+i].String())
		} else {
			a.writeNested(sb, axis+1, off+i*a.strides[axis])
		}
	}
	sb.WriteString("]")
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isLiteralZero(e symbolic.Expr) bool {
	n, ok := e.(*symbolic.Num)
	return ok && n.IsZero()
}

func addExpr(x, y symbolic.Expr) symbolic.Expr {
	switch {
	case isLiteralZero(x):
		return y
	case isLiteralZero(y):
		return x
	}
	return symbolic.AddOf(x, y)
}

func mulExpr(x, y symbolic.Expr) symbolic.Expr {
	if isLiteralZero(x) || isLiteralZero(y) {
		return symbolic.N(0)
	}
	return symbolic.MulOf(x, y)
}

func negExpr(x symbolic.Expr) symbolic.Expr { return mulExpr(symbolic.N(-1), x) }

// ============================================================
// JSON
// ============================================================

type arrayJSON struct {
	Shape   []int         `json:"shape"`
	Entries []interface{} `json:"entries"`
}

// MarshalJSON writes {"shape":[..],"entries":["..."]} with entries in
// parseable infix form.
func (a *Array) MarshalJSON() ([]byte, error) {
	entries := make([]interface{}, len(a.data))
	for i, e := range a.data {
		entries[i] = e.String()
	}
	return json.Marshal(arrayJSON{Shape: a.Shape(), Entries: entries})
}

// UnmarshalJSON accepts entries as infix strings, numbers or expression
// trees.
func (a *Array) UnmarshalJSON(b []byte) error {
	var raw arrayJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrShape, err)
	}
	if raw.Shape == nil {
		raw.Shape = []int{}
	}
	entries := make([]symbolic.Expr, len(raw.Entries))
	for i, v := range raw.Entries {
		e, err := symbolic.FromValue(v)
		if err != nil {
			return fmt.Errorf("entries[%d]: %w", i, err)
		}
		entries[i] = e
	}
	out, err := FromSlice(raw.Shape, entries)
	if err != nil {
		return err
	}
	*a = *out
	return nil
}

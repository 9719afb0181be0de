package tensor

import (
	"fmt"

	"github.com/physicsuniverse/Covariant-Derivative/symbolic"
)

// ============================================================
// Axis rearrangement
// ============================================================

// Permute returns the array whose axis k is axis perm[k] of a. The result is
// produced in one pass by walking the output and reading the source through
// permuted strides.
func (a *Array) Permute(perm ...int) *Array {
	r := a.Rank()
	if len(perm) != r {
		panic(fmt.Sprintf("tensor: permutation %v for rank %d", perm, r))
	}
	seen := make([]bool, r)
	shape := make([]int, r)
	srcStrides := make([]int, r)
	identity := true
	for k, p := range perm {
		if p < 0 || p >= r || seen[p] {
			panic(fmt.Sprintf("tensor: invalid permutation %v", perm))
		}
		seen[p] = true
		shape[k] = a.shape[p]
		srcStrides[k] = a.strides[p]
		if p != k {
			identity = false
		}
	}
	if identity {
		return a
	}
	out := &Array{shape: shape, strides: stridesFor(shape), data: make([]symbolic.Expr, len(a.data))}
	idx := make([]int, r)
	src := 0
	for i := range out.data {
		out.data[i] = a.data[src]
		// odometer increment over the output index, tracking the source offset
		for k := r - 1; k >= 0; k-- {
			idx[k]++
			src += srcStrides[k]
			if idx[k] < shape[k] {
				break
			}
			src -= idx[k] * srcStrides[k]
			idx[k] = 0
		}
	}
	return out
}

// RotatePrefix cyclically rotates the first i axes so that axis i-1 becomes
// axis 0 and axes 0..i-2 shift right by one. Later axes are untouched.
func (a *Array) RotatePrefix(i int) *Array {
	if i < 1 || i > a.Rank() {
		panic(fmt.Sprintf("tensor: prefix length %d out of range for rank %d", i, a.Rank()))
	}
	perm := make([]int, a.Rank())
	perm[0] = i - 1
	for k := 1; k < i; k++ {
		perm[k] = k - 1
	}
	for k := i; k < a.Rank(); k++ {
		perm[k] = k
	}
	return a.Permute(perm...)
}

// MoveAxis moves axis from to position to, keeping the relative order of
// the others.
func (a *Array) MoveAxis(from, to int) *Array {
	a.checkAxis(from)
	a.checkAxis(to)
	rest := make([]int, 0, a.Rank()-1)
	for k := 0; k < a.Rank(); k++ {
		if k != from {
			rest = append(rest, k)
		}
	}
	perm := make([]int, 0, a.Rank())
	perm = append(perm, rest[:to]...)
	perm = append(perm, from)
	perm = append(perm, rest[to:]...)
	return a.Permute(perm...)
}

// SwapAxes exchanges axes i and j.
func (a *Array) SwapAxes(i, j int) *Array {
	a.checkAxis(i)
	a.checkAxis(j)
	perm := make([]int, a.Rank())
	for k := range perm {
		perm[k] = k
	}
	perm[i], perm[j] = j, i
	return a.Permute(perm...)
}

// ============================================================
// Products and contractions
// ============================================================

// Outer returns the tensor product: axes of a followed by axes of b.
func Outer(a, b *Array) *Array {
	shape := append(a.Shape(), b.shape...)
	out := &Array{shape: shape, strides: stridesFor(shape), data: make([]symbolic.Expr, len(a.data)*len(b.data))}
	for i, x := range a.data {
		for j, y := range b.data {
			out.data[i*len(b.data)+j] = mulExpr(x, y)
		}
	}
	return out
}

// Dot contracts axis i of a with axis j of b. The result's axes are the
// remaining axes of a in order followed by the remaining axes of b.
func Dot(a, b *Array, i, j int) *Array {
	a.checkAxis(i)
	b.checkAxis(j)
	if a.shape[i] != b.shape[j] {
		panic(fmt.Sprintf("tensor: Dot axis %d of %v against axis %d of %v", i, a.shape, j, b.shape))
	}
	k := a.shape[i]
	left := a.MoveAxis(i, a.Rank()-1)
	right := b.MoveAxis(j, 0)
	rows := len(left.data) / k
	cols := len(right.data) / k

	shape := append(left.Shape()[:left.Rank()-1], right.shape[1:]...)
	out := &Array{shape: shape, strides: stridesFor(shape), data: make([]symbolic.Expr, rows*cols)}
	for p := 0; p < rows; p++ {
		for q := 0; q < cols; q++ {
			terms := make([]symbolic.Expr, 0, k)
			for s := 0; s < k; s++ {
				x, y := left.data[p*k+s], right.data[s*cols+q]
				if isLiteralZero(x) || isLiteralZero(y) {
					continue
				}
				terms = append(terms, symbolic.MulOf(x, y))
			}
			out.data[p*cols+q] = sumOf(terms)
		}
	}
	return out
}

// Trace sums over the diagonal of axes i and j, removing both.
func (a *Array) Trace(i, j int) *Array {
	a.checkAxis(i)
	a.checkAxis(j)
	if i == j {
		panic(fmt.Sprintf("tensor: Trace over a single axis %d", i))
	}
	if a.shape[i] != a.shape[j] {
		panic(fmt.Sprintf("tensor: Trace of axes %d and %d with extents %d and %d", i, j, a.shape[i], a.shape[j]))
	}
	if i > j {
		i, j = j, i
	}
	// bring the traced pair to the end: [rest..., i, j]
	perm := make([]int, 0, a.Rank())
	for k := 0; k < a.Rank(); k++ {
		if k != i && k != j {
			perm = append(perm, k)
		}
	}
	moved := a.Permute(append(perm, i, j)...)
	n := a.shape[i]
	block := n * n
	shape := moved.Shape()[:moved.Rank()-2]
	out := &Array{shape: shape, strides: stridesFor(shape), data: make([]symbolic.Expr, len(a.data)/block)}
	for p := range out.data {
		terms := make([]symbolic.Expr, 0, n)
		for s := 0; s < n; s++ {
			if e := moved.data[p*block+s*n+s]; !isLiteralZero(e) {
				terms = append(terms, e)
			}
		}
		out.data[p] = sumOf(terms)
	}
	return out
}

// Gradient differentiates every entry with respect to each coordinate,
// appending one trailing axis of extent len(coords).
func (a *Array) Gradient(coords []string) *Array {
	n := len(coords)
	if n == 0 {
		panic("tensor: Gradient with no coordinates")
	}
	shape := append(a.Shape(), n)
	out := &Array{shape: shape, strides: stridesFor(shape), data: make([]symbolic.Expr, len(a.data)*n)}
	for i, e := range a.data {
		for c, name := range coords {
			if isLiteralZero(e) {
				out.data[i*n+c] = symbolic.N(0)
				continue
			}
			out.data[i*n+c] = symbolic.Diff(e, name)
		}
	}
	return out
}

func sumOf(terms []symbolic.Expr) symbolic.Expr {
	switch len(terms) {
	case 0:
		return symbolic.N(0)
	case 1:
		return terms[0]
	}
	return symbolic.AddOf(terms...)
}

package symbolic

import (
	"fmt"
	"strings"
)

// ============================================================
// Matrix: dense symbolic matrix, row-major
// ============================================================

// Matrix is a rows x cols grid of expressions stored row-major.
type Matrix struct {
	rows, cols int
	data       []Expr
}

// NewMatrix returns a zero-filled matrix.
func NewMatrix(rows, cols int) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("symbolic: invalid matrix shape %dx%d", rows, cols))
	}
	data := make([]Expr, rows*cols)
	for i := range data {
		data[i] = N(0)
	}
	return &Matrix{rows: rows, cols: cols, data: data}
}

// MatrixFromRows builds a matrix from a rectangular slice of rows.
func MatrixFromRows(rows [][]Expr) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrShape)
	}
	m := NewMatrix(len(rows), len(rows[0]))
	for i, row := range rows {
		if len(row) != m.cols {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrShape, i, len(row), m.cols)
		}
		copy(m.data[i*m.cols:], row)
	}
	return m, nil
}

// MatrixFromSlice builds a rows x cols matrix from row-major entries.
func MatrixFromSlice(rows, cols int, entries []Expr) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: invalid matrix shape %dx%d", ErrShape, rows, cols)
	}
	if len(entries) != rows*cols {
		return nil, fmt.Errorf("%w: %dx%d matrix needs %d entries, got %d", ErrShape, rows, cols, rows*cols, len(entries))
	}
	return &Matrix{rows: rows, cols: cols, data: append([]Expr(nil), entries...)}, nil
}

// Diagonal returns the square matrix with the given diagonal.
func Diagonal(entries ...Expr) *Matrix {
	m := NewMatrix(len(entries), len(entries))
	for i, e := range entries {
		m.data[i*m.cols+i] = e
	}
	return m
}

// Identity returns the n x n identity.
func Identity(n int) *Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = N(1)
	}
	return m
}

func (m *Matrix) checkBounds(row, col int) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("symbolic: matrix index out of range [%d,%d] for %dx%d", row, col, m.rows, m.cols))
	}
}

func (m *Matrix) Get(row, col int) Expr {
	m.checkBounds(row, col)
	return m.data[row*m.cols+col]
}

func (m *Matrix) Set(row, col int, val Expr) {
	m.checkBounds(row, col)
	m.data[row*m.cols+col] = val
}

func (m *Matrix) Rows() int      { return m.rows }
func (m *Matrix) Cols() int      { return m.cols }
func (m *Matrix) IsSquare() bool { return m.rows == m.cols }

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []Expr {
	m.checkBounds(i, 0)
	return append([]Expr(nil), m.data[i*m.cols:(i+1)*m.cols]...)
}

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[")
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.data[i*m.cols+j].String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

func (m *Matrix) LaTeX() string {
	var sb strings.Builder
	sb.WriteString("\\begin{pmatrix}")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString(" \\\\ ")
		}
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(" & ")
			}
			sb.WriteString(m.data[i*m.cols+j].LaTeX())
		}
	}
	sb.WriteString("\\end{pmatrix}")
	return sb.String()
}

// Map applies fn to every entry.
func (m *Matrix) Map(fn func(Expr) Expr) *Matrix {
	out := &Matrix{rows: m.rows, cols: m.cols, data: make([]Expr, len(m.data))}
	for i, e := range m.data {
		out.data[i] = fn(e)
	}
	return out
}

func (m *Matrix) zip(other *Matrix, op string, fn func(a, b Expr) Expr) *Matrix {
	if m.rows != other.rows || m.cols != other.cols {
		panic(fmt.Sprintf("symbolic: %s of %dx%d and %dx%d matrices", op, m.rows, m.cols, other.rows, other.cols))
	}
	out := &Matrix{rows: m.rows, cols: m.cols, data: make([]Expr, len(m.data))}
	for i := range m.data {
		out.data[i] = Canonicalize(fn(m.data[i], other.data[i]))
	}
	return out
}

func (m *Matrix) MatAdd(other *Matrix) *Matrix {
	return m.zip(other, "MatAdd", func(a, b Expr) Expr { return AddOf(a, b) })
}

func (m *Matrix) MatSub(other *Matrix) *Matrix { return m.zip(other, "MatSub", SubOf) }

// Scale multiplies every entry by s.
func (m *Matrix) Scale(s Expr) *Matrix {
	return m.Map(func(e Expr) Expr { return Canonicalize(MulOf(s, e)) })
}

// Trace sums the diagonal of a square matrix.
func (m *Matrix) Trace() Expr {
	if !m.IsSquare() {
		panic("symbolic: Trace requires a square matrix")
	}
	terms := make([]Expr, m.rows)
	for i := range terms {
		terms[i] = m.data[i*m.cols+i]
	}
	return Canonicalize(AddOf(terms...))
}

func (m *Matrix) Transpose() *Matrix {
	out := NewMatrix(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return out
}

func (m *Matrix) MatMul(other *Matrix) *Matrix {
	if m.cols != other.rows {
		panic("symbolic: matrix dimension mismatch in MatMul")
	}
	out := NewMatrix(m.rows, other.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < other.cols; j++ {
			terms := make([]Expr, m.cols)
			for k := 0; k < m.cols; k++ {
				terms[k] = MulOf(m.data[i*m.cols+k], other.data[k*other.cols+j])
			}
			out.data[i*out.cols+j] = Canonicalize(AddOf(terms...))
		}
	}
	return out
}

// Canonical returns the matrix with every entry in canonical form.
func (m *Matrix) Canonical() *Matrix { return m.Map(Canonicalize) }

// Normalize is Canonical for entries that may not be well defined. It
// reports the first entry that fails.
func (m *Matrix) Normalize() (*Matrix, error) {
	out := &Matrix{rows: m.rows, cols: m.cols, data: make([]Expr, len(m.data))}
	for i, e := range m.data {
		n, err := Normalize(e)
		if err != nil {
			return nil, fmt.Errorf("entry [%d,%d]: %w", i/m.cols, i%m.cols, err)
		}
		out.data[i] = n
	}
	return out, nil
}

// ApplyDiff differentiates every entry with respect to varName.
func (m *Matrix) ApplyDiff(varName string) *Matrix {
	return m.Map(func(e Expr) Expr { return e.Diff(varName) })
}

// ApplySub substitutes value for varName in every entry.
func (m *Matrix) ApplySub(varName string, value Expr) *Matrix {
	return m.Map(func(e Expr) Expr { return e.Sub(varName, value) })
}

// IsSymmetric reports whether m equals its transpose entry by entry.
func (m *Matrix) IsSymmetric() bool {
	if !m.IsSquare() {
		return false
	}
	for i := 0; i < m.rows; i++ {
		for j := i + 1; j < m.cols; j++ {
			if !Equivalent(m.data[i*m.cols+j], m.data[j*m.cols+i]) {
				return false
			}
		}
	}
	return true
}

// Equivalent reports entry-wise equivalence of two matrices.
func (m *Matrix) Equivalent(other *Matrix) bool {
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	for i := range m.data {
		if !Equivalent(m.data[i], other.data[i]) {
			return false
		}
	}
	return true
}

// Det is the cofactor-expansion determinant.
func (m *Matrix) Det() Expr {
	if !m.IsSquare() {
		panic("symbolic: Det requires a square matrix")
	}
	return matDet(m.rowSlices(), m.rows)
}

func (m *Matrix) rowSlices() [][]Expr {
	rows := make([][]Expr, m.rows)
	for i := range rows {
		rows[i] = m.data[i*m.cols : (i+1)*m.cols]
	}
	return rows
}

func matDet(data [][]Expr, n int) Expr {
	switch n {
	case 1:
		return data[0][0]
	case 2:
		return SubOf(MulOf(data[0][0], data[1][1]), MulOf(data[0][1], data[1][0]))
	}
	terms := make([]Expr, 0, n)
	for j := 0; j < n; j++ {
		if isNumEqual(data[0][j], 0) {
			continue
		}
		sign := N(1)
		if j%2 == 1 {
			sign = N(-1)
		}
		terms = append(terms, MulOf(sign, data[0][j], matDet(makeMinor(data, n, 0, j), n-1)))
	}
	return AddOf(terms...)
}

func makeMinor(data [][]Expr, n, skipRow, skipCol int) [][]Expr {
	minor := make([][]Expr, 0, n-1)
	for i := 0; i < n; i++ {
		if i == skipRow {
			continue
		}
		row := make([]Expr, 0, n-1)
		for j := 0; j < n; j++ {
			if j != skipCol {
				row = append(row, data[i][j])
			}
		}
		minor = append(minor, row)
	}
	return minor
}

// Inverse returns the canonical symbolic inverse via the adjugate. It fails
// with ErrSingular when the determinant is identically zero.
func (m *Matrix) Inverse() (*Matrix, error) {
	if !m.IsSquare() {
		return nil, fmt.Errorf("%w: Inverse requires a square matrix, got %dx%d", ErrShape, m.rows, m.cols)
	}
	detR, err := toRational(m.Det())
	if err != nil {
		return nil, err
	}
	if detR.num.isZero() {
		return nil, ErrSingular
	}
	detInv, err := detR.inv()
	if err != nil {
		return nil, err
	}
	n := m.rows
	if n == 1 {
		return &Matrix{rows: 1, cols: 1, data: []Expr{detInv.toExpr()}}, nil
	}
	rows := m.rowSlices()
	out := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cof, err := toRational(matDet(makeMinor(rows, n, i, j), n-1))
			if err != nil {
				return nil, err
			}
			if (i+j)%2 == 1 {
				cof = cof.neg()
			}
			// adjugate is the transposed cofactor matrix
			out.data[j*n+i] = cof.mul(detInv).toExpr()
		}
	}
	return out, nil
}

package tensor

import (
	"fmt"
	"strings"
)

// Matrix is a dense row-major grid of float32 values.
//
// Element (i, j) lives at Data[i*Cols+j]. A Matrix with Rows == 1 doubles as a
// row vector, which is how a flat sequence is handed to matrix operations.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

// NewMatrix creates a zero-filled rows x cols matrix.
//
// Panics if either dimension is negative.
func NewMatrix(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("tensor: invalid matrix dimensions %dx%d", rows, cols))
	}
	return &Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]float32, rows*cols),
	}
}

// FromSlice creates a rows x cols matrix holding a copy of data.
//
// Returns an error if len(data) != rows*cols.
func FromSlice(data []float32, rows, cols int) (*Matrix, error) {
	if err := (Shape{rows, cols}).Validate(); err != nil {
		return nil, err
	}
	if len(data) != rows*cols {
		return nil, mismatch("from slice", Shape{len(data)}, Shape{rows, cols})
	}
	m := NewMatrix(rows, cols)
	copy(m.Data, data)
	return m, nil
}

// FromRows creates a matrix from a slice of equally sized rows.
func FromRows(rows [][]float32) (*Matrix, error) {
	if len(rows) == 0 {
		return NewMatrix(0, 0), nil
	}
	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, mismatch(fmt.Sprintf("from rows: row %d", i), Shape{len(row)}, Shape{cols})
		}
		copy(m.Data[i*cols:], row)
	}
	return m, nil
}

// Shape returns [Rows, Cols].
func (m *Matrix) Shape() Shape {
	return Shape{m.Rows, m.Cols}
}

// At returns element (i, j).
func (m *Matrix) At(i, j int) float32 {
	return m.Data[i*m.Cols+j]
}

// Set assigns element (i, j).
func (m *Matrix) Set(i, j int, v float32) {
	m.Data[i*m.Cols+j] = v
}

// Row returns row i as a slice sharing the matrix storage.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Clone returns a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	c := NewMatrix(m.Rows, m.Cols)
	copy(c.Data, m.Data)
	return c
}

// SameShape reports whether m and other have identical dimensions.
func (m *Matrix) SameShape(other *Matrix) bool {
	return m.Rows == other.Rows && m.Cols == other.Cols
}

// Zero resets every element to 0 in place.
func (m *Matrix) Zero() {
	for i := range m.Data {
		m.Data[i] = 0
	}
}

// AddInPlace accumulates other into m element-wise.
func (m *Matrix) AddInPlace(other *Matrix) error {
	if !m.SameShape(other) {
		return mismatch("add in place", m.Shape(), other.Shape())
	}
	for i, v := range other.Data {
		m.Data[i] += v
	}
	return nil
}

// String formats the matrix one row per line.
func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < m.Rows; i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%v", m.Row(i))
	}
	sb.WriteString("]")
	return sb.String()
}

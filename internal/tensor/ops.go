package tensor

import (
	"runtime"

	"github.com/VeryJokerJal/TransformerLib/internal/parallel"
)

// Dot returns the dot product of two equally sized vectors.
func Dot(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, mismatch("dot", Shape{len(a)}, Shape{len(b)})
	}
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum, nil
}

// matmulParallel splits MatMul by output row once the product is large enough.
var matmulParallel = parallel.Config{
	Enabled:      runtime.NumCPU() > 1,
	NumWorkers:   runtime.NumCPU(),
	MinChunkSize: 8,
}

// matmulParallelWork is the m*k*n size below which MatMul stays on one goroutine.
const matmulParallelWork = 1 << 18

// MatMul performs matrix multiplication: (M, K) @ (K, N) -> (M, N).
//
// Uses the i-k-j loop order so the inner loop walks both b and the result
// contiguously. Large products are split by output row across goroutines;
// every row is computed the same way either way.
func MatMul(a, b *Matrix) (*Matrix, error) {
	if a.Cols != b.Rows {
		return nil, mismatch("matmul", a.Shape(), b.Shape())
	}
	m, k, n := a.Rows, a.Cols, b.Cols
	c := NewMatrix(m, n)

	rows := func(start, end int) {
		for i := start; i < end; i++ {
			cRow := c.Data[i*n : (i+1)*n]
			for p := 0; p < k; p++ {
				aik := a.Data[i*k+p]
				bRow := b.Data[p*n : (p+1)*n]
				for j, bv := range bRow {
					cRow[j] += aik * bv
				}
			}
		}
	}

	if m*k*n < matmulParallelWork {
		rows(0, m)
	} else {
		parallel.Chunks(m, rows, matmulParallel)
	}
	return c, nil
}

// VecMatMul multiplies a vector by a matrix, treating v as a single-row matrix.
func VecMatMul(v []float32, m *Matrix) ([]float32, error) {
	out, err := MatMul(Row(v), m)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Transpose returns the (Cols, Rows) transpose of m.
func Transpose(m *Matrix) *Matrix {
	t := NewMatrix(m.Cols, m.Rows)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			t.Data[j*m.Rows+i] = m.Data[i*m.Cols+j]
		}
	}
	return t
}

// Scale multiplies every element of m by s.
func Scale(m *Matrix, s float32) *Matrix {
	out := NewMatrix(m.Rows, m.Cols)
	for i, v := range m.Data {
		out.Data[i] = v * s
	}
	return out
}

// Add returns a + b element-wise.
func Add(a, b *Matrix) (*Matrix, error) {
	if !a.SameShape(b) {
		return nil, mismatch("add", a.Shape(), b.Shape())
	}
	out := NewMatrix(a.Rows, a.Cols)
	for i := range a.Data {
		out.Data[i] = a.Data[i] + b.Data[i]
	}
	return out, nil
}

// Sub returns a - b element-wise.
func Sub(a, b *Matrix) (*Matrix, error) {
	if !a.SameShape(b) {
		return nil, mismatch("sub", a.Shape(), b.Shape())
	}
	out := NewMatrix(a.Rows, a.Cols)
	for i := range a.Data {
		out.Data[i] = a.Data[i] - b.Data[i]
	}
	return out, nil
}

// Hadamard returns the element-wise product a * b.
func Hadamard(a, b *Matrix) (*Matrix, error) {
	if !a.SameShape(b) {
		return nil, mismatch("hadamard", a.Shape(), b.Shape())
	}
	out := NewMatrix(a.Rows, a.Cols)
	for i := range a.Data {
		out.Data[i] = a.Data[i] * b.Data[i]
	}
	return out, nil
}

// AddRowVector adds the 1 x Cols vector v to every row of m.
func AddRowVector(m, v *Matrix) (*Matrix, error) {
	if v.Rows != 1 || v.Cols != m.Cols {
		return nil, mismatch("add row vector", m.Shape(), v.Shape())
	}
	out := m.Clone()
	for i := 0; i < m.Rows; i++ {
		row := out.Row(i)
		for j, bv := range v.Data {
			row[j] += bv
		}
	}
	return out, nil
}

// SumRows collapses m to a 1 x Cols vector of column sums.
func SumRows(m *Matrix) *Matrix {
	out := NewMatrix(1, m.Cols)
	for i := 0; i < m.Rows; i++ {
		for j, v := range m.Row(i) {
			out.Data[j] += v
		}
	}
	return out
}

// SliceCols copies columns [start, end) of m into a new matrix.
func SliceCols(m *Matrix, start, end int) (*Matrix, error) {
	if start < 0 || end > m.Cols || start > end {
		return nil, mismatch("slice cols", m.Shape(), Shape{start, end})
	}
	width := end - start
	out := NewMatrix(m.Rows, width)
	for i := 0; i < m.Rows; i++ {
		copy(out.Data[i*width:(i+1)*width], m.Data[i*m.Cols+start:i*m.Cols+end])
	}
	return out, nil
}

// PasteCols writes src into dst starting at column start, in place.
func PasteCols(dst, src *Matrix, start int) error {
	if src.Rows != dst.Rows || start < 0 || start+src.Cols > dst.Cols {
		return mismatch("paste cols", dst.Shape(), src.Shape())
	}
	for i := 0; i < src.Rows; i++ {
		copy(dst.Data[i*dst.Cols+start:i*dst.Cols+start+src.Cols], src.Row(i))
	}
	return nil
}

// Argmax returns the index of the largest element of v, or -1 for an empty v.
func Argmax(v []float32) int {
	if len(v) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func mustRows(t *testing.T, rows [][]float32) *Matrix {
	t.Helper()
	m, err := FromRows(rows)
	require.NoError(t, err)
	return m
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func TestDot(t *testing.T) {
	got, err := Dot([]float32{1, 2, 3}, []float32{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, float32(32), got)

	_, err = Dot([]float32{1, 2}, []float32{1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestMatMul_PropagatesNonFinite(t *testing.T) {
	inf := float32(math.Inf(1))
	a := mustRows(t, [][]float32{{0, 1}})
	b := mustRows(t, [][]float32{{inf}, {2}})

	c, err := MatMul(a, b)
	require.NoError(t, err)

	dot, err := Dot(a.Row(0), []float32{inf, 2})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(float64(dot)))
	assert.True(t, math.IsNaN(float64(c.At(0, 0))), "0*Inf must stay NaN, got %v", c.At(0, 0))
}

func TestMatMul_Reference(t *testing.T) {
	a := mustRows(t, [][]float32{{1, 2}, {3, 4}})
	b := mustRows(t, [][]float32{{5, 6}, {7, 8}})

	c, err := MatMul(a, b)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 2}, c.Shape())
	assert.Equal(t, []float32{19, 22, 43, 50}, c.Data)
}

func TestMatMul_Rectangular(t *testing.T) {
	// [2,3] @ [3,1]
	a := mustRows(t, [][]float32{{1, 0, 2}, {-1, 3, 1}})
	b := mustRows(t, [][]float32{{3}, {2}, {1}})

	c, err := MatMul(a, b)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 1}, c.Shape())
	assert.Equal(t, []float32{5, 4}, c.Data)
}

func TestMatMul_ShapeMismatch(t *testing.T) {
	a := NewMatrix(2, 3)
	b := NewMatrix(4, 5)

	_, err := MatMul(a, b)
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Contains(t, err.Error(), "[2 3]")
	assert.Contains(t, err.Error(), "[4 5]")
}

func TestVecMatMul(t *testing.T) {
	m := mustRows(t, [][]float32{{1, 2}, {3, 4}})

	got, err := VecMatMul([]float32{1, 1}, m)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 6}, got)

	_, err = VecMatMul([]float32{1, 1, 1}, m)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestTranspose(t *testing.T) {
	m := mustRows(t, [][]float32{{1, 2, 3}, {4, 5, 6}})

	tr := Transpose(m)
	assert.Equal(t, Shape{3, 2}, tr.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, tr.Data)
	assert.Equal(t, m.Data, Transpose(tr).Data)
}

func TestScale(t *testing.T) {
	m := mustRows(t, [][]float32{{1, -2}, {0.5, 4}})

	got := Scale(m, 2)
	assert.Equal(t, []float32{2, -4, 1, 8}, got.Data)
	assert.Equal(t, []float32{1, -2, 0.5, 4}, m.Data, "operand must not change")
}

func TestElementwise(t *testing.T) {
	a := mustRows(t, [][]float32{{1, 2}, {3, 4}})
	b := mustRows(t, [][]float32{{4, 3}, {2, 1}})

	sum, err := Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 5, 5, 5}, sum.Data)

	diff, err := Sub(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{-3, -1, 1, 3}, diff.Data)

	prod, err := Hadamard(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 6, 6, 4}, prod.Data)

	_, err = Add(a, NewMatrix(1, 2))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRowVectorHelpers(t *testing.T) {
	m := mustRows(t, [][]float32{{1, 2}, {3, 4}})
	bias := Row([]float32{10, 20})

	out, err := AddRowVector(m, bias)
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 22, 13, 24}, out.Data)

	assert.Equal(t, []float32{4, 6}, SumRows(m).Data)

	_, err = AddRowVector(m, Row([]float32{1}))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSliceAndPasteCols(t *testing.T) {
	m := mustRows(t, [][]float32{{1, 2, 3, 4}, {5, 6, 7, 8}})

	part, err := SliceCols(m, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3, 6, 7}, part.Data)

	dst := NewMatrix(2, 4)
	require.NoError(t, PasteCols(dst, part, 2))
	assert.Equal(t, []float32{0, 0, 2, 3, 0, 0, 6, 7}, dst.Data)

	_, err = SliceCols(m, 3, 5)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.ErrorIs(t, PasteCols(dst, part, 3), ErrShapeMismatch)
}

func TestFlattenReshape(t *testing.T) {
	m := mustRows(t, [][]float32{{1, 2}, {3, 4}, {5, 6}})

	flat := Flatten(m)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, flat)

	row := Row(flat)
	assert.Equal(t, Shape{1, 6}, row.Shape())

	back, err := Reshape(flat, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, m.Data, back.Data)

	_, err = Reshape(flat, 4, 2)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestArgmax(t *testing.T) {
	assert.Equal(t, 2, Argmax([]float32{0.1, 0.2, 0.7}))
	assert.Equal(t, 0, Argmax([]float32{3, 3, 1}))
	assert.Equal(t, -1, Argmax(nil))
}

func TestMatMul_MatchesGonumDot(t *testing.T) {
	a := mustRows(t, [][]float32{{0.5, -1, 2}, {3, 0.25, -0.75}})
	b := mustRows(t, [][]float32{{1, 2}, {-3, 0.5}, {4, -1}})

	c, err := MatMul(a, b)
	require.NoError(t, err)

	bt := Transpose(b)
	for i := 0; i < a.Rows; i++ {
		for j := 0; j < b.Cols; j++ {
			want := floats.Dot(toFloat64(a.Row(i)), toFloat64(bt.Row(j)))
			assert.InDelta(t, want, float64(c.At(i, j)), 1e-5)
		}
	}
}

func TestMatMul_LargeSplitMatchesReference(t *testing.T) {
	m, k, n := 128, 64, 64
	require.GreaterOrEqual(t, m*k*n, matmulParallelWork)

	a, b := NewMatrix(m, k), NewMatrix(k, n)
	for i := range a.Data {
		a.Data[i] = float32(i%7) - 3
	}
	for i := range b.Data {
		b.Data[i] = float32(i%5)*0.5 - 1
	}

	c, err := MatMul(a, b)
	require.NoError(t, err)

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var want float32
			for p := 0; p < k; p++ {
				want += a.At(i, p) * b.At(p, j)
			}
			require.InDelta(t, want, c.At(i, j), 1e-3, "c[%d][%d]", i, j)
		}
	}
}

func TestFromSlice_Errors(t *testing.T) {
	_, err := FromSlice([]float32{1, 2}, -1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid dimension")

	_, err = FromSlice([]float32{1, 2, 3}, 2, 2)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

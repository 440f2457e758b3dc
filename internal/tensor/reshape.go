package tensor

// Flatten returns the row-major contents of m as a new 1-D slice.
func Flatten(m *Matrix) []float32 {
	out := make([]float32, len(m.Data))
	copy(out, m.Data)
	return out
}

// Row reshapes v into a 1 x len(v) matrix holding a copy of v.
func Row(v []float32) *Matrix {
	m := NewMatrix(1, len(v))
	copy(m.Data, v)
	return m
}

// Reshape lays v out as a rows x cols matrix.
//
// Returns an error wrapping ErrShapeMismatch unless rows*cols == len(v).
func Reshape(v []float32, rows, cols int) (*Matrix, error) {
	return FromSlice(v, rows, cols)
}

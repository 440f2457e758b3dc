package tensor

import "math"

// Softmax normalizes v into a probability distribution.
//
//	softmax(x)_i = exp(x_i - max(x)) / Σ_j exp(x_j - max(x))
//
// The global maximum is subtracted before exponentiating, so large magnitudes
// never overflow. An empty input yields an empty output.
func Softmax(v []float32) []float32 {
	out := make([]float32, len(v))
	softmaxInto(out, v)
	return out
}

// SoftmaxRows applies Softmax independently to every row of m.
func SoftmaxRows(m *Matrix) *Matrix {
	out := NewMatrix(m.Rows, m.Cols)
	for i := 0; i < m.Rows; i++ {
		softmaxInto(out.Row(i), m.Row(i))
	}
	return out
}

func softmaxInto(dst, src []float32) {
	if len(src) == 0 {
		return
	}
	maxVal := src[0]
	for _, x := range src[1:] {
		if x > maxVal {
			maxVal = x
		}
	}
	var sum float64
	for i, x := range src {
		e := math.Exp(float64(x - maxVal))
		dst[i] = float32(e)
		sum += e
	}
	inv := float32(1.0 / sum)
	for i := range dst {
		dst[i] *= inv
	}
}

// SoftmaxBackward maps a gradient with respect to row-wise softmax output back
// to the softmax input.
//
// For each row with probabilities p and incoming gradient g:
//
//	∂L/∂x_j = p_j * (g_j - Σ_i g_i * p_i)
func SoftmaxBackward(probs, grad *Matrix) (*Matrix, error) {
	if !probs.SameShape(grad) {
		return nil, mismatch("softmax backward", probs.Shape(), grad.Shape())
	}
	out := NewMatrix(probs.Rows, probs.Cols)
	for i := 0; i < probs.Rows; i++ {
		p, g, dst := probs.Row(i), grad.Row(i), out.Row(i)
		var dot float32
		for j := range p {
			dot += g[j] * p[j]
		}
		for j := range p {
			dst[j] = p[j] * (g[j] - dot)
		}
	}
	return out, nil
}

// ReLU applies max(0, x) element-wise to a vector.
func ReLU(v []float32) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		if x > 0 {
			out[i] = x
		}
	}
	return out
}

// ReLUMatrix applies max(0, x) element-wise to a matrix.
func ReLUMatrix(m *Matrix) *Matrix {
	return &Matrix{Rows: m.Rows, Cols: m.Cols, Data: ReLU(m.Data)}
}

package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

const (
	gradEps = 1e-3
	gradTol = 2e-2
)

func mustRows(t *testing.T, rows [][]float32) *tensor.Matrix {
	t.Helper()
	m, err := tensor.FromRows(rows)
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

// weightedSum is the scalar probe loss Σ y ⊙ r; its gradient w.r.t. y is r.
func weightedSum(y, r *tensor.Matrix) float64 {
	var s float64
	for i, v := range y.Data {
		s += float64(v) * float64(r.Data[i])
	}
	return s
}

// numericGrad estimates d(Σ f() ⊙ r)/dv by central differences, perturbing v in place.
func numericGrad(t *testing.T, v []float32, r *tensor.Matrix, f func() *tensor.Matrix) []float32 {
	t.Helper()
	grad := make([]float32, len(v))
	for i := range v {
		orig := v[i]

		v[i] = orig + gradEps
		plus := weightedSum(f(), r)
		v[i] = orig - gradEps
		minus := weightedSum(f(), r)
		v[i] = orig

		grad[i] = float32((plus - minus) / (2 * gradEps))
	}
	return grad
}

func assertGradClose(t *testing.T, want, got []float32, what string) {
	t.Helper()
	require.Len(t, got, len(want), what)
	for i := range want {
		tol := gradTol * (1 + math.Abs(float64(want[i])))
		require.InDeltaf(t, want[i], got[i], tol, "%s[%d]: numeric %v, analytic %v", what, i, want[i], got[i])
	}
}

// checkLayerGradients compares Backward against finite differences for the
// input and every parameter of layer.
func checkLayerGradients(t *testing.T, layer Layer, x *tensor.Matrix, seed uint64) {
	t.Helper()

	out, ctx, err := layer.Forward(x)
	require.NoError(t, err)
	probe := Normal(out.Rows, out.Cols, 1, NewRand(seed))

	dx, err := layer.Backward(ctx, probe)
	require.NoError(t, err)

	forward := func() *tensor.Matrix {
		y, _, err := layer.Forward(x)
		require.NoError(t, err)
		return y
	}

	assertGradClose(t, numericGrad(t, x.Data, probe, forward), dx.Data, "input")
	for _, p := range layer.Parameters() {
		analytic := append([]float32(nil), p.Grad().Data...)
		assertGradClose(t, numericGrad(t, p.Value().Data, probe, forward), analytic, p.Name())
	}
}

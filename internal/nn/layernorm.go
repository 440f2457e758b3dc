package nn

import (
	"fmt"
	"math"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// DefaultLayerNormEpsilon is the variance floor used by NewLayerNorm.
const DefaultLayerNormEpsilon = 1e-5

// LayerNorm applies Layer Normalization over each row of its input.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// Where:
//   - mean and (population) variance are computed per row
//   - gamma is the learnable scale [1, d_model], initialized to ones
//   - beta is the learnable shift [1, d_model], initialized to zeros
//   - eps keeps a constant row (variance 0) from dividing by zero
//
// Example:
//
//	ln := nn.NewLayerNorm(16)
//	y, ctx, err := ln.Forward(x)   // [seq, 16] -> [seq, 16]
//	dx, err := ln.Backward(ctx, dy)
type LayerNorm struct {
	Gamma   *Parameter // learnable scale [1, d_model]
	Beta    *Parameter // learnable shift [1, d_model]
	Epsilon float32
	Dim     int
}

// LayerNormContext caches the statistics of one Forward call.
type LayerNormContext struct {
	Normalized *tensor.Matrix // pre-affine values x̂
	Mean       []float64      // per row
	Variance   []float64      // per row
	InvStd     []float32      // per row: 1 / sqrt(var + eps)
}

// NewLayerNorm creates a new LayerNorm layer over dim features with eps = 1e-5.
//
// Panics if dim is not positive.
func NewLayerNorm(dim int) *LayerNorm {
	if dim <= 0 {
		panic(fmt.Sprintf("LayerNorm: dim must be positive, got %d", dim))
	}
	return &LayerNorm{
		Gamma:   NewParameter("layernorm.gamma", Ones(1, dim)),
		Beta:    NewParameter("layernorm.beta", Zeros(1, dim)),
		Epsilon: DefaultLayerNormEpsilon,
		Dim:     dim,
	}
}

// Forward normalizes every row of x.
//
// Algorithm (per row):
//  1. mean = Σx / d
//  2. variance = Σ(x - mean)² / d
//  3. x̂ = (x - mean) / sqrt(variance + eps)
//  4. y = gamma * x̂ + beta
func (l *LayerNorm) Forward(x *tensor.Matrix) (*tensor.Matrix, Context, error) {
	if x.Rows == 0 || x.Cols == 0 {
		return nil, nil, fmt.Errorf("layernorm: %w", ErrEmptyInput)
	}
	if x.Cols != l.Dim {
		return nil, nil, fmt.Errorf("layernorm: input %v, features %d: %w",
			x.Shape(), l.Dim, tensor.ErrShapeMismatch)
	}

	ctx := &LayerNormContext{
		Normalized: tensor.NewMatrix(x.Rows, x.Cols),
		Mean:       make([]float64, x.Rows),
		Variance:   make([]float64, x.Rows),
		InvStd:     make([]float32, x.Rows),
	}
	out := tensor.NewMatrix(x.Rows, x.Cols)
	gamma, beta := l.Gamma.Value().Data, l.Beta.Value().Data
	d := float64(x.Cols)

	// Moments are accumulated in float64 so squared deviations of large
	// finite inputs do not overflow.
	for i := 0; i < x.Rows; i++ {
		row := x.Row(i)

		var mean float64
		for _, v := range row {
			mean += float64(v)
		}
		mean /= d

		var variance float64
		for _, v := range row {
			diff := float64(v) - mean
			variance += diff * diff
		}
		variance /= d

		invStd := 1.0 / math.Sqrt(variance+float64(l.Epsilon))

		xHat, y := ctx.Normalized.Row(i), out.Row(i)
		for j, v := range row {
			xHat[j] = float32((float64(v) - mean) * invStd)
			y[j] = gamma[j]*xHat[j] + beta[j]
		}

		ctx.Mean[i] = mean
		ctx.Variance[i] = variance
		ctx.InvStd[i] = float32(invStd)
	}

	return out, ctx, nil
}

// Backward reconstructs dLoss/dX from the cached statistics.
//
//	dgamma += Σ_rows dy * x̂
//	dbeta  += Σ_rows dy
//	ĝ       = dy * gamma
//	dx      = invStd / d * (d * ĝ - Σĝ - x̂ * Σ(ĝ * x̂))
func (l *LayerNorm) Backward(ctx Context, grad *tensor.Matrix) (*tensor.Matrix, error) {
	c, err := contextAs[*LayerNormContext](ctx, "layernorm")
	if err != nil {
		return nil, err
	}
	if !grad.SameShape(c.Normalized) {
		return nil, fmt.Errorf("layernorm backward: grad %v, forward %v: %w",
			grad.Shape(), c.Normalized.Shape(), tensor.ErrShapeMismatch)
	}

	gamma := l.Gamma.Value().Data
	dGamma := tensor.NewMatrix(1, l.Dim)
	dBeta := tensor.NewMatrix(1, l.Dim)
	dx := tensor.NewMatrix(grad.Rows, grad.Cols)
	d := float32(l.Dim)
	gHat := make([]float32, l.Dim)

	for i := 0; i < grad.Rows; i++ {
		dy, xHat := grad.Row(i), c.Normalized.Row(i)

		var sumG, sumGX float32
		for j := range dy {
			dGamma.Data[j] += dy[j] * xHat[j]
			dBeta.Data[j] += dy[j]

			gHat[j] = dy[j] * gamma[j]
			sumG += gHat[j]
			sumGX += gHat[j] * xHat[j]
		}

		scale := c.InvStd[i] / d
		out := dx.Row(i)
		for j := range dy {
			out[j] = scale * (d*gHat[j] - sumG - xHat[j]*sumGX)
		}
	}

	if err := l.Gamma.AccumulateGrad(dGamma); err != nil {
		return nil, err
	}
	if err := l.Beta.AccumulateGrad(dBeta); err != nil {
		return nil, err
	}
	return dx, nil
}

// UpdateWeights applies gamma -= lr * dgamma and beta -= lr * dbeta.
func (l *LayerNorm) UpdateWeights(lr float32) {
	stepAll(l.Parameters(), lr)
}

// Parameters returns [gamma, beta].
func (l *LayerNorm) Parameters() []*Parameter {
	return []*Parameter{l.Gamma, l.Beta}
}

package nn

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// Linear implements a fully connected layer: y = x @ W + b.
//
// Weights are stored as [in_features, out_features] so that a [seq, in]
// input multiplies directly. The model uses a Linear layer to project decoder
// states onto the vocabulary before the softmax.
//
// Example:
//
//	head := nn.NewLinear(16, 1000, true, rng)
//	logits, ctx, err := head.Forward(h)  // [seq, 16] -> [seq, 1000]
type Linear struct {
	Weight      *Parameter // [in_features, out_features]
	Bias        *Parameter // [1, out_features], nil when disabled
	InFeatures  int
	OutFeatures int
}

// LinearContext caches the input of one Forward call.
type LinearContext struct {
	Input *tensor.Matrix
}

// NewLinear creates a new Linear layer.
//
// Weights are initialized using Xavier/Glorot uniform distribution.
// Biases, when enabled, are initialized to zeros.
//
// Parameters:
//   - inFeatures: Number of input features
//   - outFeatures: Number of output features
//   - useBias: Whether to learn an additive bias
//   - rng: Source of randomness for initialization
func NewLinear(inFeatures, outFeatures int, useBias bool, rng *rand.Rand) *Linear {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("Linear: features must be positive, got %d -> %d", inFeatures, outFeatures))
	}
	l := &Linear{
		Weight:      NewParameter("linear.weight", Xavier(inFeatures, outFeatures, rng)),
		InFeatures:  inFeatures,
		OutFeatures: outFeatures,
	}
	if useBias {
		l.Bias = NewParameter("linear.bias", Zeros(1, outFeatures))
	}
	return l
}

// Forward computes x @ W (+ b).
func (l *Linear) Forward(x *tensor.Matrix) (*tensor.Matrix, Context, error) {
	out, err := tensor.MatMul(x, l.Weight.Value())
	if err != nil {
		return nil, nil, fmt.Errorf("linear: %w", err)
	}
	if l.Bias != nil {
		out, err = tensor.AddRowVector(out, l.Bias.Value())
		if err != nil {
			return nil, nil, fmt.Errorf("linear bias: %w", err)
		}
	}
	return out, &LinearContext{Input: x}, nil
}

// Backward accumulates dW = xᵀ @ dy and db = Σ_rows dy, and returns dy @ Wᵀ.
func (l *Linear) Backward(ctx Context, grad *tensor.Matrix) (*tensor.Matrix, error) {
	c, err := contextAs[*LinearContext](ctx, "linear")
	if err != nil {
		return nil, err
	}

	dW, err := tensor.MatMul(tensor.Transpose(c.Input), grad)
	if err != nil {
		return nil, fmt.Errorf("linear backward: %w", err)
	}
	if err := l.Weight.AccumulateGrad(dW); err != nil {
		return nil, fmt.Errorf("linear backward: %w", err)
	}
	if l.Bias != nil {
		if err := l.Bias.AccumulateGrad(tensor.SumRows(grad)); err != nil {
			return nil, fmt.Errorf("linear backward: %w", err)
		}
	}

	dx, err := tensor.MatMul(grad, tensor.Transpose(l.Weight.Value()))
	if err != nil {
		return nil, fmt.Errorf("linear backward: %w", err)
	}
	return dx, nil
}

// UpdateWeights applies one gradient descent step to weight and bias.
func (l *Linear) UpdateWeights(lr float32) {
	stepAll(l.Parameters(), lr)
}

// Parameters returns [weight] or [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	if l.Bias == nil {
		return []*Parameter{l.Weight}
	}
	return []*Parameter{l.Weight, l.Bias}
}

package nn

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// FeedForward implements the position-wise two-layer network of a transformer block.
//
// Architecture:
//
//	FFN(x) = ReLU(x @ W1) @ W2
//
// Where:
//   - W1: [input_dim → hidden_dim] (expansion)
//   - ReLU: max(0, x)
//   - W2: [hidden_dim → input_dim] (projection back)
//
// Example:
//
//	ffn := nn.NewFeedForward(16, 64, rng)
//	y, ctx, err := ffn.Forward(x)  // [seq, 16] -> [seq, 16]
type FeedForward struct {
	W1        *Parameter // [input_dim, hidden_dim]
	W2        *Parameter // [hidden_dim, input_dim]
	InputDim  int
	HiddenDim int
}

// FeedForwardContext caches the activations of one Forward call.
type FeedForwardContext struct {
	Input     *tensor.Matrix // x
	Hidden    *tensor.Matrix // x @ W1, before ReLU
	Activated *tensor.Matrix // ReLU(x @ W1)
}

// NewFeedForward creates a new FeedForward layer with Xavier-initialized weights.
//
// Panics if either dimension is not positive.
func NewFeedForward(inputDim, hiddenDim int, rng *rand.Rand) *FeedForward {
	if inputDim <= 0 || hiddenDim <= 0 {
		panic(fmt.Sprintf("FeedForward: dimensions must be positive, got %d, %d", inputDim, hiddenDim))
	}
	return &FeedForward{
		W1:        NewParameter("ffn.w1", Xavier(inputDim, hiddenDim, rng)),
		W2:        NewParameter("ffn.w2", Xavier(hiddenDim, inputDim, rng)),
		InputDim:  inputDim,
		HiddenDim: hiddenDim,
	}
}

// Forward computes the FFN output.
//
// Algorithm:
//  1. Expand: h = x @ W1
//  2. Activate: r = ReLU(h)
//  3. Project: y = r @ W2
func (f *FeedForward) Forward(x *tensor.Matrix) (*tensor.Matrix, Context, error) {
	hidden, err := tensor.MatMul(x, f.W1.Value())
	if err != nil {
		return nil, nil, fmt.Errorf("feedforward expand: %w", err)
	}
	activated := tensor.ReLUMatrix(hidden)

	out, err := tensor.MatMul(activated, f.W2.Value())
	if err != nil {
		return nil, nil, fmt.Errorf("feedforward project: %w", err)
	}

	return out, &FeedForwardContext{Input: x, Hidden: hidden, Activated: activated}, nil
}

// Backward runs the standard two-layer backward pass.
//
//	dW2 += rᵀ @ dy
//	dr   = dy @ W2ᵀ
//	dh   = dr where h > 0, else 0
//	dW1 += xᵀ @ dh
//	dx   = dh @ W1ᵀ
func (f *FeedForward) Backward(ctx Context, grad *tensor.Matrix) (*tensor.Matrix, error) {
	c, err := contextAs[*FeedForwardContext](ctx, "feedforward")
	if err != nil {
		return nil, err
	}

	dW2, err := tensor.MatMul(tensor.Transpose(c.Activated), grad)
	if err != nil {
		return nil, fmt.Errorf("feedforward backward: %w", err)
	}
	dHidden, err := tensor.MatMul(grad, tensor.Transpose(f.W2.Value()))
	if err != nil {
		return nil, fmt.Errorf("feedforward backward: %w", err)
	}

	// ReLU derivative.
	for i, h := range c.Hidden.Data {
		if h <= 0 {
			dHidden.Data[i] = 0
		}
	}

	dW1, err := tensor.MatMul(tensor.Transpose(c.Input), dHidden)
	if err != nil {
		return nil, fmt.Errorf("feedforward backward: %w", err)
	}
	dx, err := tensor.MatMul(dHidden, tensor.Transpose(f.W1.Value()))
	if err != nil {
		return nil, fmt.Errorf("feedforward backward: %w", err)
	}

	if err := f.W1.AccumulateGrad(dW1); err != nil {
		return nil, err
	}
	if err := f.W2.AccumulateGrad(dW2); err != nil {
		return nil, err
	}
	return dx, nil
}

// UpdateWeights applies one gradient descent step to W1 and W2.
func (f *FeedForward) UpdateWeights(lr float32) {
	stepAll(f.Parameters(), lr)
}

// Parameters returns [W1, W2].
func (f *FeedForward) Parameters() []*Parameter {
	return []*Parameter{f.W1, f.W2}
}

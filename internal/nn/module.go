package nn

import (
	"errors"
	"fmt"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// Common errors.
var (
	ErrOutOfRange      = errors.New("index out of range")
	ErrContextMismatch = errors.New("backward called with a context from a different layer")
	ErrEmptyInput      = errors.New("empty input")
)

// Context carries the activations produced by one Forward call.
//
// It is handed back, unchanged, to Backward on the same layer. A context is
// only meaningful to the layer type that created it.
type Context any

// Layer is the common capability shared by every network component.
//
// Every layer must implement:
//   - Forward: compute the output and the context needed for the backward pass
//   - Backward: accumulate parameter gradients and return dLoss/dInput
//   - UpdateWeights: apply W -= lr * grad to every parameter, clearing gradients
//   - Parameters: list trainable parameters (empty for parameter-free layers)
//
// Layers compose through Pipeline:
//
//	block := nn.NewPipeline(
//	    nn.NewMultiHeadAttention(16, 2, rng),
//	    nn.NewLayerNorm(16),
//	)
type Layer interface {
	// Forward computes the layer output for x ([seq, features]).
	Forward(x *tensor.Matrix) (*tensor.Matrix, Context, error)

	// Backward propagates grad (dLoss/dOutput) through the activations in ctx.
	Backward(ctx Context, grad *tensor.Matrix) (*tensor.Matrix, error)

	// UpdateWeights applies one gradient descent step with learning rate lr.
	UpdateWeights(lr float32)

	// Parameters returns all trainable parameters of this layer.
	Parameters() []*Parameter
}

// contextAs recovers the concrete context type a layer expects.
func contextAs[T any](ctx Context, layer string) (T, error) {
	c, ok := ctx.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: got %T: %w", layer, ctx, ErrContextMismatch)
	}
	return c, nil
}

// stepAll applies Parameter.Step to every parameter.
func stepAll(params []*Parameter, lr float32) {
	for _, p := range params {
		p.Step(lr)
	}
}

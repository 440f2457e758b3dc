package nn

import (
	"golang.org/x/exp/rand"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// Encoder is one transformer encoder block.
//
// Architecture:
//
//	x → SelfAttention → LayerNorm → FeedForward → LayerNorm
//
// The block is a Pipeline of its four sublayers; Backward threads the
// gradient through them in reverse.
//
// Example:
//
//	enc := nn.NewEncoder(2, 16, 64, rng)
//	memory, ctx, err := enc.Forward(x)  // [seq, 16] -> [seq, 16]
type Encoder struct {
	SelfAttention *MultiHeadAttention
	Norm1         *LayerNorm
	FFN           *FeedForward
	Norm2         *LayerNorm

	pipeline *Pipeline
}

// NewEncoder creates a new encoder block.
//
// Parameters:
//   - numHeads: Number of attention heads (must divide embedDim)
//   - embedDim: Model dimension
//   - hiddenDim: Feed-forward hidden dimension
//   - rng: Source of randomness for initialization
func NewEncoder(numHeads, embedDim, hiddenDim int, rng *rand.Rand) *Encoder {
	e := &Encoder{
		SelfAttention: NewMultiHeadAttention(embedDim, numHeads, rng),
		Norm1:         NewLayerNorm(embedDim),
		FFN:           NewFeedForward(embedDim, hiddenDim, rng),
		Norm2:         NewLayerNorm(embedDim),
	}
	e.pipeline = NewPipeline(e.SelfAttention, e.Norm1, e.FFN, e.Norm2)
	return e
}

// Forward runs the block over x.
func (e *Encoder) Forward(x *tensor.Matrix) (*tensor.Matrix, Context, error) {
	return e.pipeline.Forward(x)
}

// Backward returns dLoss/dx.
func (e *Encoder) Backward(ctx Context, grad *tensor.Matrix) (*tensor.Matrix, error) {
	return e.pipeline.Backward(ctx, grad)
}

// UpdateWeights steps every sublayer.
func (e *Encoder) UpdateWeights(lr float32) {
	e.pipeline.UpdateWeights(lr)
}

// Parameters returns the parameters of the attention, norm, FFN and norm sublayers, in that order.
func (e *Encoder) Parameters() []*Parameter {
	return e.pipeline.Parameters()
}

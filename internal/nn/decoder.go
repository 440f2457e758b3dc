package nn

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// Decoder is one transformer decoder block.
//
// Architecture:
//
//	x → SelfAttention → LayerNorm → CrossAttention(memory) → LayerNorm → FeedForward → LayerNorm
//
// The memory is the encoder output. It is either bound with SetEncoderOutput
// (so that Decoder satisfies Layer) or passed explicitly to ForwardWithMemory.
// Either way the context records the memory that was used, and Backward
// reports the gradient with respect to it.
//
// Example:
//
//	dec := nn.NewDecoder(2, 16, 64, rng)
//	y, dctx, err := dec.ForwardWithMemory(targetEmbeddings, memory)
//	dx, dmem, err := dec.BackwardWithMemory(dctx, dy)
type Decoder struct {
	SelfAttention  *MultiHeadAttention
	Norm1          *LayerNorm
	CrossAttention *MultiHeadAttention
	Norm2          *LayerNorm
	FFN            *FeedForward
	Norm3          *LayerNorm

	prefix *Pipeline // SelfAttention, Norm1
	suffix *Pipeline // Norm2, FFN, Norm3
	memory *tensor.Matrix
}

// DecoderContext caches the activations of one decoder call.
type DecoderContext struct {
	Prefix Context
	Cross  *AttentionContext
	Suffix Context

	// Memory is the encoder output the call attended to.
	Memory *tensor.Matrix

	// MemoryGrad is dLoss/dMemory, filled in by Backward.
	MemoryGrad *tensor.Matrix
}

// NewDecoder creates a new decoder block.
//
// Parameters:
//   - numHeads: Number of attention heads (must divide embedDim)
//   - embedDim: Model dimension
//   - hiddenDim: Feed-forward hidden dimension
//   - rng: Source of randomness for initialization
func NewDecoder(numHeads, embedDim, hiddenDim int, rng *rand.Rand) *Decoder {
	d := &Decoder{
		SelfAttention:  NewMultiHeadAttention(embedDim, numHeads, rng),
		Norm1:          NewLayerNorm(embedDim),
		CrossAttention: NewMultiHeadAttention(embedDim, numHeads, rng),
		Norm2:          NewLayerNorm(embedDim),
		FFN:            NewFeedForward(embedDim, hiddenDim, rng),
		Norm3:          NewLayerNorm(embedDim),
	}
	d.prefix = NewPipeline(d.SelfAttention, d.Norm1)
	d.suffix = NewPipeline(d.Norm2, d.FFN, d.Norm3)
	return d
}

// SetEncoderOutput binds the memory used by Forward.
func (d *Decoder) SetEncoderOutput(memory *tensor.Matrix) {
	d.memory = memory
}

// Forward runs the block over x using the memory bound by SetEncoderOutput.
func (d *Decoder) Forward(x *tensor.Matrix) (*tensor.Matrix, Context, error) {
	if d.memory == nil {
		return nil, nil, fmt.Errorf("decoder: no encoder output bound: %w", ErrEmptyInput)
	}
	return d.ForwardWithMemory(x, d.memory)
}

// ForwardWithMemory runs the block over x, attending to memory.
func (d *Decoder) ForwardWithMemory(x, memory *tensor.Matrix) (*tensor.Matrix, *DecoderContext, error) {
	h, prefix, err := d.prefix.Forward(x)
	if err != nil {
		return nil, nil, fmt.Errorf("decoder self-attention: %w", err)
	}
	h, cross, err := d.CrossAttention.ForwardCross(h, memory)
	if err != nil {
		return nil, nil, fmt.Errorf("decoder cross-attention: %w", err)
	}
	out, suffix, err := d.suffix.Forward(h)
	if err != nil {
		return nil, nil, fmt.Errorf("decoder feed-forward: %w", err)
	}

	return out, &DecoderContext{
		Prefix: prefix,
		Cross:  cross,
		Suffix: suffix,
		Memory: memory,
	}, nil
}

// Backward returns dLoss/dx and stores dLoss/dMemory in the context.
func (d *Decoder) Backward(ctx Context, grad *tensor.Matrix) (*tensor.Matrix, error) {
	c, err := contextAs[*DecoderContext](ctx, "decoder")
	if err != nil {
		return nil, err
	}
	dx, _, err := d.BackwardWithMemory(c, grad)
	return dx, err
}

// BackwardWithMemory returns dLoss/dx and dLoss/dMemory.
func (d *Decoder) BackwardWithMemory(c *DecoderContext, grad *tensor.Matrix) (*tensor.Matrix, *tensor.Matrix, error) {
	if c == nil {
		return nil, nil, fmt.Errorf("decoder: nil context: %w", ErrContextMismatch)
	}

	g, err := d.suffix.Backward(c.Suffix, grad)
	if err != nil {
		return nil, nil, fmt.Errorf("decoder feed-forward backward: %w", err)
	}
	g, dMemory, err := d.CrossAttention.BackwardCross(c.Cross, g)
	if err != nil {
		return nil, nil, fmt.Errorf("decoder cross-attention backward: %w", err)
	}
	dx, err := d.prefix.Backward(c.Prefix, g)
	if err != nil {
		return nil, nil, fmt.Errorf("decoder self-attention backward: %w", err)
	}

	c.MemoryGrad = dMemory
	return dx, dMemory, nil
}

// UpdateWeights steps every sublayer.
func (d *Decoder) UpdateWeights(lr float32) {
	d.prefix.UpdateWeights(lr)
	d.CrossAttention.UpdateWeights(lr)
	d.suffix.UpdateWeights(lr)
}

// Parameters returns all parameters in sublayer order.
func (d *Decoder) Parameters() []*Parameter {
	params := d.prefix.Parameters()
	params = append(params, d.CrossAttention.Parameters()...)
	return append(params, d.suffix.Parameters()...)
}

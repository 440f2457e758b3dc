package nn

import (
	"fmt"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// Pipeline is a container layer that chains multiple layers together.
//
// Each layer's output becomes the next layer's input. Backward walks the
// layers in reverse, feeding each one the context it produced in Forward.
//
// Example:
//
//	encoder := nn.NewPipeline(
//	    nn.NewMultiHeadAttention(16, 2, rng),
//	    nn.NewLayerNorm(16),
//	    nn.NewFeedForward(16, 64, rng),
//	    nn.NewLayerNorm(16),
//	)
//
//	out, ctx, err := encoder.Forward(x)
//	dx, err := encoder.Backward(ctx, grad)
type Pipeline struct {
	layers []Layer
}

// PipelineContext holds one context per stage, in forward order.
type PipelineContext struct {
	Stages []Context
}

// NewPipeline creates a new Pipeline from layers, applied in order.
func NewPipeline(layers ...Layer) *Pipeline {
	return &Pipeline{layers: layers}
}

// Forward applies all layers in sequence.
func (p *Pipeline) Forward(x *tensor.Matrix) (*tensor.Matrix, Context, error) {
	ctx := &PipelineContext{Stages: make([]Context, len(p.layers))}
	out := x

	for i, layer := range p.layers {
		next, stage, err := layer.Forward(out)
		if err != nil {
			return nil, nil, fmt.Errorf("pipeline stage %d (%T): %w", i, layer, err)
		}
		ctx.Stages[i] = stage
		out = next
	}

	return out, ctx, nil
}

// Backward propagates grad through the layers in reverse order.
func (p *Pipeline) Backward(ctx Context, grad *tensor.Matrix) (*tensor.Matrix, error) {
	pc, err := contextAs[*PipelineContext](ctx, "pipeline")
	if err != nil {
		return nil, err
	}
	if len(pc.Stages) != len(p.layers) {
		return nil, fmt.Errorf("pipeline: %d stages recorded for %d layers: %w",
			len(pc.Stages), len(p.layers), ErrContextMismatch)
	}

	for i := len(p.layers) - 1; i >= 0; i-- {
		grad, err = p.layers[i].Backward(pc.Stages[i], grad)
		if err != nil {
			return nil, fmt.Errorf("pipeline stage %d (%T) backward: %w", i, p.layers[i], err)
		}
	}

	return grad, nil
}

// UpdateWeights delegates to every layer.
func (p *Pipeline) UpdateWeights(lr float32) {
	for _, layer := range p.layers {
		layer.UpdateWeights(lr)
	}
}

// Parameters returns the parameters of all layers, in layer order.
func (p *Pipeline) Parameters() []*Parameter {
	var params []*Parameter
	for _, layer := range p.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// Layers returns the layers of the pipeline.
func (p *Pipeline) Layers() []Layer {
	return p.layers
}

// Len returns the number of layers.
func (p *Pipeline) Len() int {
	return len(p.layers)
}

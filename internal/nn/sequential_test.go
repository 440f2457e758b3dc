package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

func TestPipeline_ForwardBackward(t *testing.T) {
	rng := NewRand(1)
	lin := NewLinear(3, 4, true, rng)
	norm := NewLayerNorm(4)
	p := NewPipeline(lin, norm)
	assert.Equal(t, 2, p.Len())

	x := Normal(2, 3, 1, rng)
	y, ctx, err := p.Forward(x)
	require.NoError(t, err)

	h, _, err := lin.Forward(x)
	require.NoError(t, err)
	want, _, err := norm.Forward(h)
	require.NoError(t, err)
	assert.Equal(t, want.Data, y.Data)

	dx, err := p.Backward(ctx, Normal(2, 4, 1, rng))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, dx.Shape())
}

func TestPipeline_Gradients(t *testing.T) {
	rng := NewRand(2)
	p := NewPipeline(NewLinear(3, 4, true, rng), NewLayerNorm(4), NewLinear(4, 2, false, rng))
	checkLayerGradients(t, p, Normal(3, 3, 1, rng), 3)
}

func TestPipeline_Parameters(t *testing.T) {
	rng := NewRand(1)
	lin := NewLinear(3, 4, true, rng)
	norm := NewLayerNorm(4)
	p := NewPipeline(lin, NewSinusoidalPositionalEncoding(4, 4), norm)

	params := p.Parameters()
	require.Len(t, params, 4)
	assert.Same(t, lin.Weight, params[0])
	assert.Same(t, lin.Bias, params[1])
	assert.Same(t, norm.Gamma, params[2])
	assert.Same(t, norm.Beta, params[3])
}

func TestPipeline_ContextMismatch(t *testing.T) {
	rng := NewRand(1)
	p := NewPipeline(NewLinear(2, 2, false, rng), NewLayerNorm(2))
	other := NewPipeline(NewLayerNorm(2))

	_, ctx, err := other.Forward(mustRows(t, [][]float32{{1, 2}}))
	require.NoError(t, err)

	_, err = p.Backward(ctx, mustRows(t, [][]float32{{1, 1}}))
	assert.ErrorIs(t, err, ErrContextMismatch)

	_, err = p.Backward(&LinearContext{}, mustRows(t, [][]float32{{1, 1}}))
	assert.ErrorIs(t, err, ErrContextMismatch)
}

func TestPipeline_UpdateWeights(t *testing.T) {
	rng := NewRand(1)
	lin := NewLinear(2, 2, true, rng)
	p := NewPipeline(lin)

	_, ctx, err := p.Forward(mustRows(t, [][]float32{{1, 1}}))
	require.NoError(t, err)
	_, err = p.Backward(ctx, mustRows(t, [][]float32{{1, 1}}))
	require.NoError(t, err)

	p.UpdateWeights(1)
	assert.Equal(t, []float32{-1, -1}, lin.Bias.Value().Data)
}

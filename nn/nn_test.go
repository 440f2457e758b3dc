// Copyright 2025 The TransformerLib Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeryJokerJal/TransformerLib/nn"
	"github.com/VeryJokerJal/TransformerLib/tensor"
)

// TestLayerInterface verifies that concrete types implement Layer.
func TestLayerInterface(t *testing.T) {
	rng := nn.NewRand(1)

	tests := []struct {
		name  string
		layer nn.Layer
	}{
		{"Linear", nn.NewLinear(8, 8, true, rng)},
		{"LayerNorm", nn.NewLayerNorm(8)},
		{"PositionalEncoding", nn.NewSinusoidalPositionalEncoding(4, 8)},
		{"MultiHeadAttention", nn.NewMultiHeadAttention(8, 2, rng)},
		{"FeedForward", nn.NewFeedForward(8, 16, rng)},
		{"Encoder", nn.NewEncoder(2, 8, 16, rng)},
		{"Pipeline", nn.NewPipeline(nn.NewLinear(8, 8, false, rng), nn.NewLayerNorm(8))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := tensor.NewMatrix(3, 8)
			for i := range x.Data {
				x.Data[i] = float32(i%5) - 2
			}

			out, ctx, err := tt.layer.Forward(x)
			require.NoError(t, err)
			assert.Equal(t, tensor.Shape{3, 8}, out.Shape())

			dx, err := tt.layer.Backward(ctx, out)
			require.NoError(t, err)
			assert.Equal(t, tensor.Shape{3, 8}, dx.Shape())

			tt.layer.UpdateWeights(0.01)
			for _, p := range tt.layer.Parameters() {
				assert.NotEmpty(t, p.Name())
			}
		})
	}
}

func TestDecoderAsLayer(t *testing.T) {
	rng := nn.NewRand(2)
	dec := nn.NewDecoder(2, 8, 16, rng)
	dec.SetEncoderOutput(tensor.NewMatrix(5, 8))

	var layer nn.Layer = dec
	out, _, err := layer.Forward(tensor.NewMatrix(3, 8))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 8}, out.Shape())
}

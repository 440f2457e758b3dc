package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

func TestPositionalEncoding_Table(t *testing.T) {
	pe := NewSinusoidalPositionalEncoding(8, 4)

	pos0, err := pe.At(0)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0, 1}, pos0)

	pos1, err := pe.At(1)
	require.NoError(t, err)
	want := []float32{
		float32(math.Sin(1)),
		float32(math.Cos(1)),
		float32(math.Sin(1e-4)),
		float32(math.Cos(1e-4)),
	}
	assert.InDeltaSlice(t, want, pos1, 1e-6)
}

func TestPositionalEncoding_Forward(t *testing.T) {
	pe := NewSinusoidalPositionalEncoding(4, 4)
	x := tensor.NewMatrix(2, 4)
	for i := range x.Data {
		x.Data[i] = 1
	}

	y, ctx, err := pe.Forward(x)
	require.NoError(t, err)
	assert.Nil(t, ctx)

	for k, v := range y.Data {
		assert.InDelta(t, 1+pe.Encoding.At(k/4, k%4), v, 1e-7)
	}
	assert.Equal(t, float32(1), x.Data[0], "input must not be modified")
}

func TestPositionalEncoding_Errors(t *testing.T) {
	pe := NewSinusoidalPositionalEncoding(2, 4)

	_, _, err := pe.Forward(tensor.NewMatrix(3, 4))
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, _, err = pe.Forward(tensor.NewMatrix(1, 3))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	_, err = pe.At(2)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestPositionalEncoding_BackwardIdentity(t *testing.T) {
	pe := NewSinusoidalPositionalEncoding(2, 2)
	g := mustRows(t, [][]float32{{1, 2}, {3, 4}})

	dx, err := pe.Backward(nil, g)
	require.NoError(t, err)
	assert.Equal(t, g.Data, dx.Data)
	assert.Empty(t, pe.Parameters())
}

package nn

import (
	"fmt"
	"math"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// SinusoidalPositionalEncoding adds a fixed sinusoidal position signal to embeddings.
//
// Mathematical formulation, for dimension i of position pos:
//
//	i even: PE(pos, i) = sin(pos / 10000^(2i/d))
//	i odd:  PE(pos, i) = cos(pos / 10000^(2(i-1)/d))
//
// The table is pre-computed for MaxLen positions. The layer has no learnable
// parameters: Backward is the identity and UpdateWeights does nothing.
//
// Example:
//
//	pe := nn.NewSinusoidalPositionalEncoding(128, 16)
//	x, _, err := pe.Forward(embeddings)  // [seq, 16], seq <= 128
type SinusoidalPositionalEncoding struct {
	Encoding *tensor.Matrix // [max_len, dim] - pre-computed encodings
	MaxLen   int            // Maximum sequence length
	Dim      int            // Embedding dimension
}

// NewSinusoidalPositionalEncoding creates the encoding table.
//
// Panics if maxLen or dim is not positive.
func NewSinusoidalPositionalEncoding(maxLen, dim int) *SinusoidalPositionalEncoding {
	if maxLen <= 0 {
		panic(fmt.Sprintf("SinusoidalPositionalEncoding: maxLen must be positive, got %d", maxLen))
	}
	if dim <= 0 {
		panic(fmt.Sprintf("SinusoidalPositionalEncoding: dim must be positive, got %d", dim))
	}

	enc := tensor.NewMatrix(maxLen, dim)
	for pos := 0; pos < maxLen; pos++ {
		for i := 0; i < dim; i++ {
			if i%2 == 0 {
				angle := float64(pos) / math.Pow(10000.0, 2.0*float64(i)/float64(dim))
				enc.Set(pos, i, float32(math.Sin(angle)))
			} else {
				angle := float64(pos) / math.Pow(10000.0, 2.0*float64(i-1)/float64(dim))
				enc.Set(pos, i, float32(math.Cos(angle)))
			}
		}
	}

	return &SinusoidalPositionalEncoding{
		Encoding: enc,
		MaxLen:   maxLen,
		Dim:      dim,
	}
}

// At returns a copy of the encoding row for pos.
func (s *SinusoidalPositionalEncoding) At(pos int) ([]float32, error) {
	if pos < 0 || pos >= s.MaxLen {
		return nil, fmt.Errorf("positional encoding: position %d (max %d): %w", pos, s.MaxLen, ErrOutOfRange)
	}
	row := make([]float32, s.Dim)
	copy(row, s.Encoding.Row(pos))
	return row, nil
}

// Forward adds the encoding to x.
//
// Element k of the flattened input is addressed as position k / Dim and
// dimension k % Dim. Fails with ErrOutOfRange if the input spans more than
// MaxLen positions.
func (s *SinusoidalPositionalEncoding) Forward(x *tensor.Matrix) (*tensor.Matrix, Context, error) {
	if x.Cols != s.Dim {
		return nil, nil, fmt.Errorf("positional encoding: input %v, dim %d: %w",
			x.Shape(), s.Dim, tensor.ErrShapeMismatch)
	}
	if x.Rows > s.MaxLen {
		return nil, nil, fmt.Errorf("positional encoding: %d positions (max %d): %w",
			x.Rows, s.MaxLen, ErrOutOfRange)
	}

	out := tensor.NewMatrix(x.Rows, x.Cols)
	for k, v := range x.Data {
		pos, dim := k/s.Dim, k%s.Dim
		out.Data[k] = v + s.Encoding.At(pos, dim)
	}
	return out, nil, nil
}

// Backward passes the gradient through unchanged.
func (s *SinusoidalPositionalEncoding) Backward(_ Context, grad *tensor.Matrix) (*tensor.Matrix, error) {
	return grad, nil
}

// UpdateWeights is a no-op: the encoding is fixed.
func (s *SinusoidalPositionalEncoding) UpdateWeights(float32) {}

// Parameters returns nil.
func (s *SinusoidalPositionalEncoding) Parameters() []*Parameter {
	return nil
}

package nn

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// Embedding is a lookup table that maps token ids to dense vectors.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim] learnable parameter
//   - Forward: ids [n] -> embeddings [n, EmbedDim] (flat length n*EmbedDim)
//   - Backward: gradients scatter-add to the weight rows of the ids seen
//
// Example:
//
//	embed := nn.NewEmbedding(1000, 16, 0, rng)
//	x, ctx, err := embed.Lookup([]int32{4, 8, 15})  // [3, 16]
//	mass, err := embed.Backward(ctx, dx)            // [1, 1000]
//	embed.UpdateWeights(0.001)
type Embedding struct {
	Weight   *Parameter // Embedding weight matrix [NumEmbed, EmbedDim]
	NumEmbed int        // Number of embeddings (vocabulary size)
	EmbedDim int        // Embedding dimension (vector size)
}

// EmbeddingContext records which ids the forward pass looked up.
type EmbeddingContext struct {
	IDs []int32
}

// NewEmbedding creates a new Embedding layer.
//
// Weights are drawn from N(0, std²). A non-positive std selects 1/sqrt(embeddingDim).
//
// Panics if either dimension is not positive.
func NewEmbedding(numEmbeddings, embeddingDim int, std float64, rng *rand.Rand) *Embedding {
	if numEmbeddings <= 0 || embeddingDim <= 0 {
		panic(fmt.Sprintf("Embedding: dimensions must be positive, got %dx%d", numEmbeddings, embeddingDim))
	}
	if std <= 0 {
		std = 1 / math.Sqrt(float64(embeddingDim))
	}
	return &Embedding{
		Weight:   NewParameter("embedding.weight", Normal(numEmbeddings, embeddingDim, std, rng)),
		NumEmbed: numEmbeddings,
		EmbedDim: embeddingDim,
	}
}

// Forward performs the lookup for ids given as numeric input.
//
// x holds one id per element (typically a [1, n] row). A value that is not a
// whole number fails with ErrOutOfRange. This form lets Embedding sit in a Pipeline.
func (e *Embedding) Forward(x *tensor.Matrix) (*tensor.Matrix, Context, error) {
	ids := make([]int32, len(x.Data))
	for i, v := range x.Data {
		if v < 0 || v >= float32(e.NumEmbed) || v != float32(int32(v)) {
			return nil, nil, fmt.Errorf("embedding: id %v at position %d (vocab %d): %w",
				v, i, e.NumEmbed, ErrOutOfRange)
		}
		ids[i] = int32(v)
	}
	out, ctx, err := e.Lookup(ids)
	if err != nil {
		return nil, nil, err
	}
	return out, ctx, nil
}

// Lookup returns the [len(ids), EmbedDim] matrix of embedding rows.
//
// Fails with ErrOutOfRange when an id is outside [0, NumEmbed).
func (e *Embedding) Lookup(ids []int32) (*tensor.Matrix, *EmbeddingContext, error) {
	out := tensor.NewMatrix(len(ids), e.EmbedDim)
	w := e.Weight.Value()

	for i, id := range ids {
		if id < 0 || int(id) >= e.NumEmbed {
			return nil, nil, fmt.Errorf("embedding: id %d at position %d (vocab %d): %w",
				id, i, e.NumEmbed, ErrOutOfRange)
		}
		copy(out.Row(i), w.Row(int(id)))
	}

	cached := make([]int32, len(ids))
	copy(cached, ids)
	return out, &EmbeddingContext{IDs: cached}, nil
}

// Backward scatter-adds grad rows into the weight gradient.
//
// For each position i, grad[i] flows back to Weight[ids[i]]; repeated ids
// accumulate. The returned [1, NumEmbed] vector is indexed by vocabulary and
// holds the summed gradient mass each id received (ids are discrete, so there
// is no gradient with respect to the input positions).
func (e *Embedding) Backward(ctx Context, grad *tensor.Matrix) (*tensor.Matrix, error) {
	c, err := contextAs[*EmbeddingContext](ctx, "embedding")
	if err != nil {
		return nil, err
	}
	if grad.Rows != len(c.IDs) || grad.Cols != e.EmbedDim {
		return nil, fmt.Errorf("embedding backward: grad %v for %d ids: %w",
			grad.Shape(), len(c.IDs), tensor.ErrShapeMismatch)
	}

	mass := tensor.NewMatrix(1, e.NumEmbed)
	for i, id := range c.IDs {
		row := grad.Row(i)
		e.Weight.AccumulateRow(int(id), row)
		for _, g := range row {
			mass.Data[id] += g
		}
	}
	return mass, nil
}

// UpdateWeights subtracts lr * grad from every row that received gradient.
func (e *Embedding) UpdateWeights(lr float32) {
	e.Weight.Step(lr)
}

// Parameters returns [weight].
func (e *Embedding) Parameters() []*Parameter {
	return []*Parameter{e.Weight}
}

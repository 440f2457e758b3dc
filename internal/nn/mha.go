package nn

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// MultiHeadAttention implements scaled dot-product attention split across heads.
//
// Architecture:
//
//	Q = query @ WQ,  K = memory @ WK,  V = memory @ WV
//	head_h = softmax(Q_h @ K_hᵀ * scale) @ V_h       for each head h
//	out = concat(head_1, ..., head_H) @ WO
//
// Where:
//   - Q_h, K_h, V_h are the columns [h*head_dim, (h+1)*head_dim) of Q, K, V
//   - scale = 1 / sqrt(head_dim)
//   - softmax is applied per row of the score matrix
//
// Self-attention uses the same input for query and memory (Forward).
// Cross-attention takes the memory separately (ForwardCross), as in the
// decoder's attention over encoder output. There is no causal mask.
//
// Example:
//
//	mha := nn.NewMultiHeadAttention(16, 2, rng)
//	y, ctx, err := mha.Forward(x)                      // self-attention
//	y, actx, err := mha.ForwardCross(x, encoderOutput) // cross-attention
type MultiHeadAttention struct {
	WQ *Parameter // Query projection [embed_dim, embed_dim]
	WK *Parameter // Key projection [embed_dim, embed_dim]
	WV *Parameter // Value projection [embed_dim, embed_dim]
	WO *Parameter // Output projection [embed_dim, embed_dim]

	NumHeads int
	HeadDim  int
	EmbedDim int

	scale float32
}

// AttentionContext caches the activations of one attention call.
type AttentionContext struct {
	Query   *tensor.Matrix   // query input [n_q, embed_dim]
	Memory  *tensor.Matrix   // key/value input [n_kv, embed_dim]
	Q, K, V *tensor.Matrix   // projections
	Heads   *tensor.Matrix   // concatenated head outputs [n_q, embed_dim]
	Weights []*tensor.Matrix // per-head attention weights [n_q, n_kv]

	self bool
}

// NewMultiHeadAttention creates a new multi-head attention layer.
//
// All four projections are Xavier-initialized.
//
// Panics if embedDim or numHeads is not positive, or if embedDim is not
// divisible by numHeads.
func NewMultiHeadAttention(embedDim, numHeads int, rng *rand.Rand) *MultiHeadAttention {
	if embedDim <= 0 || numHeads <= 0 {
		panic(fmt.Sprintf("MultiHeadAttention: dimensions must be positive, got embed_dim=%d, heads=%d",
			embedDim, numHeads))
	}
	if embedDim%numHeads != 0 {
		panic(fmt.Sprintf("MultiHeadAttention: embed_dim (%d) must be divisible by num_heads (%d)",
			embedDim, numHeads))
	}

	headDim := embedDim / numHeads
	return &MultiHeadAttention{
		WQ:       NewParameter("attention.wq", Xavier(embedDim, embedDim, rng)),
		WK:       NewParameter("attention.wk", Xavier(embedDim, embedDim, rng)),
		WV:       NewParameter("attention.wv", Xavier(embedDim, embedDim, rng)),
		WO:       NewParameter("attention.wo", Xavier(embedDim, embedDim, rng)),
		NumHeads: numHeads,
		HeadDim:  headDim,
		EmbedDim: embedDim,
		scale:    float32(1.0 / math.Sqrt(float64(headDim))),
	}
}

// Scale returns the score scaling factor 1/sqrt(head_dim).
func (m *MultiHeadAttention) Scale() float32 {
	return m.scale
}

// Forward computes self-attention over x.
func (m *MultiHeadAttention) Forward(x *tensor.Matrix) (*tensor.Matrix, Context, error) {
	out, ctx, err := m.attend(x, x)
	if err != nil {
		return nil, nil, err
	}
	ctx.self = true
	return out, ctx, nil
}

// ForwardCross computes attention of query over memory.
//
// query is [n_q, embed_dim] and memory is [n_kv, embed_dim]; the output is
// [n_q, embed_dim].
func (m *MultiHeadAttention) ForwardCross(query, memory *tensor.Matrix) (*tensor.Matrix, *AttentionContext, error) {
	return m.attend(query, memory)
}

func (m *MultiHeadAttention) attend(query, memory *tensor.Matrix) (*tensor.Matrix, *AttentionContext, error) {
	if query.Rows == 0 || memory.Rows == 0 {
		return nil, nil, fmt.Errorf("attention: %w", ErrEmptyInput)
	}
	if query.Cols != m.EmbedDim || memory.Cols != m.EmbedDim {
		return nil, nil, fmt.Errorf("attention: query %v, memory %v, embed_dim %d: %w",
			query.Shape(), memory.Shape(), m.EmbedDim, tensor.ErrShapeMismatch)
	}

	q, err := tensor.MatMul(query, m.WQ.Value())
	if err != nil {
		return nil, nil, fmt.Errorf("attention query projection: %w", err)
	}
	k, err := tensor.MatMul(memory, m.WK.Value())
	if err != nil {
		return nil, nil, fmt.Errorf("attention key projection: %w", err)
	}
	v, err := tensor.MatMul(memory, m.WV.Value())
	if err != nil {
		return nil, nil, fmt.Errorf("attention value projection: %w", err)
	}

	ctx := &AttentionContext{
		Query:   query,
		Memory:  memory,
		Q:       q,
		K:       k,
		V:       v,
		Heads:   tensor.NewMatrix(query.Rows, m.EmbedDim),
		Weights: make([]*tensor.Matrix, m.NumHeads),
	}

	for h := 0; h < m.NumHeads; h++ {
		qh, kh, vh, err := m.headSlices(ctx, h)
		if err != nil {
			return nil, nil, err
		}

		scores, err := tensor.MatMul(qh, tensor.Transpose(kh))
		if err != nil {
			return nil, nil, fmt.Errorf("attention head %d scores: %w", h, err)
		}
		weights := tensor.SoftmaxRows(tensor.Scale(scores, m.scale))

		head, err := tensor.MatMul(weights, vh)
		if err != nil {
			return nil, nil, fmt.Errorf("attention head %d output: %w", h, err)
		}
		if err := tensor.PasteCols(ctx.Heads, head, h*m.HeadDim); err != nil {
			return nil, nil, fmt.Errorf("attention head %d concat: %w", h, err)
		}
		ctx.Weights[h] = weights
	}

	out, err := tensor.MatMul(ctx.Heads, m.WO.Value())
	if err != nil {
		return nil, nil, fmt.Errorf("attention output projection: %w", err)
	}
	return out, ctx, nil
}

// Backward propagates grad through self- or cross-attention.
//
// For a self-attention context the query and memory gradients are summed,
// since both came from the same input. For a cross-attention context only
// the query gradient is returned; use BackwardCross to recover both.
func (m *MultiHeadAttention) Backward(ctx Context, grad *tensor.Matrix) (*tensor.Matrix, error) {
	c, err := contextAs[*AttentionContext](ctx, "attention")
	if err != nil {
		return nil, err
	}
	dq, dkv, err := m.BackwardCross(c, grad)
	if err != nil {
		return nil, err
	}
	if !c.self {
		return dq, nil
	}
	return tensor.Add(dq, dkv)
}

// BackwardCross returns the gradients with respect to the query and the memory.
//
// Per head h, with A the attention weights and dH the head output gradient:
//
//	dV_h = Aᵀ @ dH
//	dA   = dH @ V_hᵀ
//	dS   = softmax_backward(A, dA) * scale
//	dQ_h = dS @ K_h
//	dK_h = dSᵀ @ Q_h
//
// Projection gradients accumulate into WQ, WK, WV and WO.
func (m *MultiHeadAttention) BackwardCross(c *AttentionContext, grad *tensor.Matrix) (*tensor.Matrix, *tensor.Matrix, error) {
	if c == nil {
		return nil, nil, fmt.Errorf("attention: nil context: %w", ErrContextMismatch)
	}
	if grad.Rows != c.Query.Rows || grad.Cols != m.EmbedDim {
		return nil, nil, fmt.Errorf("attention backward: grad %v, output [%d %d]: %w",
			grad.Shape(), c.Query.Rows, m.EmbedDim, tensor.ErrShapeMismatch)
	}

	// Output projection.
	dWO, err := tensor.MatMul(tensor.Transpose(c.Heads), grad)
	if err != nil {
		return nil, nil, fmt.Errorf("attention backward: %w", err)
	}
	dHeads, err := tensor.MatMul(grad, tensor.Transpose(m.WO.Value()))
	if err != nil {
		return nil, nil, fmt.Errorf("attention backward: %w", err)
	}

	dQ := tensor.NewMatrix(c.Q.Rows, c.Q.Cols)
	dK := tensor.NewMatrix(c.K.Rows, c.K.Cols)
	dV := tensor.NewMatrix(c.V.Rows, c.V.Cols)

	for h := 0; h < m.NumHeads; h++ {
		if err := m.headBackward(c, h, dHeads, dQ, dK, dV); err != nil {
			return nil, nil, err
		}
	}

	// Input projections.
	dWQ, err := tensor.MatMul(tensor.Transpose(c.Query), dQ)
	if err != nil {
		return nil, nil, fmt.Errorf("attention backward: %w", err)
	}
	dWK, err := tensor.MatMul(tensor.Transpose(c.Memory), dK)
	if err != nil {
		return nil, nil, fmt.Errorf("attention backward: %w", err)
	}
	dWV, err := tensor.MatMul(tensor.Transpose(c.Memory), dV)
	if err != nil {
		return nil, nil, fmt.Errorf("attention backward: %w", err)
	}

	dQuery, err := tensor.MatMul(dQ, tensor.Transpose(m.WQ.Value()))
	if err != nil {
		return nil, nil, fmt.Errorf("attention backward: %w", err)
	}
	dMemK, err := tensor.MatMul(dK, tensor.Transpose(m.WK.Value()))
	if err != nil {
		return nil, nil, fmt.Errorf("attention backward: %w", err)
	}
	dMemV, err := tensor.MatMul(dV, tensor.Transpose(m.WV.Value()))
	if err != nil {
		return nil, nil, fmt.Errorf("attention backward: %w", err)
	}
	dMemory, err := tensor.Add(dMemK, dMemV)
	if err != nil {
		return nil, nil, fmt.Errorf("attention backward: %w", err)
	}

	for _, pg := range []struct {
		p *Parameter
		g *tensor.Matrix
	}{{m.WQ, dWQ}, {m.WK, dWK}, {m.WV, dWV}, {m.WO, dWO}} {
		if err := pg.p.AccumulateGrad(pg.g); err != nil {
			return nil, nil, fmt.Errorf("attention backward %s: %w", pg.p.Name(), err)
		}
	}

	return dQuery, dMemory, nil
}

func (m *MultiHeadAttention) headBackward(c *AttentionContext, h int, dHeads, dQ, dK, dV *tensor.Matrix) error {
	start, end := h*m.HeadDim, (h+1)*m.HeadDim
	qh, kh, vh, err := m.headSlices(c, h)
	if err != nil {
		return err
	}
	dHead, err := tensor.SliceCols(dHeads, start, end)
	if err != nil {
		return fmt.Errorf("attention head %d backward: %w", h, err)
	}
	weights := c.Weights[h]

	dVh, err := tensor.MatMul(tensor.Transpose(weights), dHead)
	if err != nil {
		return fmt.Errorf("attention head %d backward: %w", h, err)
	}
	dWeights, err := tensor.MatMul(dHead, tensor.Transpose(vh))
	if err != nil {
		return fmt.Errorf("attention head %d backward: %w", h, err)
	}
	dScores, err := tensor.SoftmaxBackward(weights, dWeights)
	if err != nil {
		return fmt.Errorf("attention head %d backward: %w", h, err)
	}
	dScores = tensor.Scale(dScores, m.scale)

	dQh, err := tensor.MatMul(dScores, kh)
	if err != nil {
		return fmt.Errorf("attention head %d backward: %w", h, err)
	}
	dKh, err := tensor.MatMul(tensor.Transpose(dScores), qh)
	if err != nil {
		return fmt.Errorf("attention head %d backward: %w", h, err)
	}

	for _, pair := range []struct{ dst, src *tensor.Matrix }{{dQ, dQh}, {dK, dKh}, {dV, dVh}} {
		if err := tensor.PasteCols(pair.dst, pair.src, start); err != nil {
			return fmt.Errorf("attention head %d backward: %w", h, err)
		}
	}
	return nil
}

func (m *MultiHeadAttention) headSlices(c *AttentionContext, h int) (q, k, v *tensor.Matrix, err error) {
	start, end := h*m.HeadDim, (h+1)*m.HeadDim
	if q, err = tensor.SliceCols(c.Q, start, end); err != nil {
		return nil, nil, nil, fmt.Errorf("attention head %d: %w", h, err)
	}
	if k, err = tensor.SliceCols(c.K, start, end); err != nil {
		return nil, nil, nil, fmt.Errorf("attention head %d: %w", h, err)
	}
	if v, err = tensor.SliceCols(c.V, start, end); err != nil {
		return nil, nil, nil, fmt.Errorf("attention head %d: %w", h, err)
	}
	return q, k, v, nil
}

// UpdateWeights applies one gradient descent step to all four projections.
func (m *MultiHeadAttention) UpdateWeights(lr float32) {
	stepAll(m.Parameters(), lr)
}

// Parameters returns [WQ, WK, WV, WO].
func (m *MultiHeadAttention) Parameters() []*Parameter {
	return []*Parameter{m.WQ, m.WK, m.WV, m.WO}
}

package nn

import (
	"sync"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// Parameter represents a trainable weight matrix of a layer.
//
// The gradient buffer has the same shape as the value and is filled by the
// owning layer's Backward. Gradients accumulate until Step or ZeroGrad.
//
// Accumulation is guarded by a mutex, so concurrent Backward calls on a shared
// layer are safe. Step and ZeroGrad must not run concurrently with Backward.
//
// Example:
//
//	w := nn.NewParameter("ffn.w1", nn.Xavier(16, 64, rng))
//	_ = w.AccumulateGrad(dW)
//	w.Step(0.001) // w -= 0.001 * dW, gradient cleared
type Parameter struct {
	name  string
	value *tensor.Matrix
	grad  *tensor.Matrix

	mu    sync.Mutex
	dense bool             // whole-matrix gradient present
	rows  map[int]struct{} // rows touched by AccumulateRow
}

// NewParameter creates a new trainable parameter around value.
//
// The parameter takes ownership of value; it is updated in place.
func NewParameter(name string, value *tensor.Matrix) *Parameter {
	return &Parameter{
		name:  name,
		value: value,
		grad:  tensor.NewMatrix(value.Rows, value.Cols),
		rows:  make(map[int]struct{}),
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Value returns the parameter matrix.
func (p *Parameter) Value() *tensor.Matrix {
	return p.value
}

// Grad returns the accumulated gradient.
func (p *Parameter) Grad() *tensor.Matrix {
	return p.grad
}

// NumElements returns the number of scalar weights.
func (p *Parameter) NumElements() int {
	return len(p.value.Data)
}

// AccumulateGrad adds g to the gradient buffer.
func (p *Parameter) AccumulateGrad(g *tensor.Matrix) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.grad.AddInPlace(g); err != nil {
		return err
	}
	p.dense = true
	return nil
}

// AccumulateRow adds g to a single gradient row and records the row as touched.
//
// Used by sparse writers such as Embedding so that Step only visits the rows
// that received gradient.
func (p *Parameter) AccumulateRow(row int, g []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dst := p.grad.Row(row)
	for i, v := range g {
		dst[i] += v
	}
	p.rows[row] = struct{}{}
}

// Step applies plain gradient descent (value -= lr * grad) and clears the gradient.
func (p *Parameter) Step(lr float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.visit(func(value, grad []float32) {
		for i, g := range grad {
			value[i] -= lr * g
			grad[i] = 0
		}
	})
	p.reset()
}

// ZeroGrad clears the gradient without touching the value.
func (p *Parameter) ZeroGrad() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.visit(func(_, grad []float32) {
		for i := range grad {
			grad[i] = 0
		}
	})
	p.reset()
}

// visit calls f on the value/gradient ranges that currently hold gradient:
// the whole matrix if any dense gradient was accumulated, otherwise the touched rows.
func (p *Parameter) visit(f func(value, grad []float32)) {
	if p.dense {
		f(p.value.Data, p.grad.Data)
		return
	}
	for row := range p.rows {
		f(p.value.Row(row), p.grad.Row(row))
	}
}

func (p *Parameter) reset() {
	p.dense = false
	clear(p.rows)
}

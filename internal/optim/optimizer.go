// Package optim implements optimization algorithms for training the transformer.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with optional momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers read the gradients that Backward accumulated into each
// nn.Parameter and update the parameter values in place.
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR: 0.001,
//	})
//
//	for _, example := range corpus {
//	    out, ctx, _ := layer.Forward(x)
//	    _, _ = layer.Backward(ctx, lossGrad(out))
//
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"github.com/VeryJokerJal/TransformerLib/internal/nn"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - ZeroGrad: Clear gradients before next iteration
//   - GetLR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step applies the accumulated gradients to all parameters.
	Step()

	// ZeroGrad clears all parameter gradients.
	//
	// Call after Step so that the next Backward starts from zero.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

func zeroAll(params []*nn.Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

package nn

import (
	"fmt"
	"math"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// ProbabilityFloor bounds probabilities away from zero before taking logs.
const ProbabilityFloor = 1e-9

// NLLLoss computes the mean negative log-likelihood of targets under probs.
//
// Mathematical Formulation:
//
//	L = -(1/n) * Σ_i log(max(probs[i, targets[i]], floor))
//
// Parameters:
//   - probs: Softmax output with shape [n, num_classes]
//   - targets: One class index per row (values in range [0, num_classes-1])
//
// Fails with ErrShapeMismatch when len(targets) != n and ErrOutOfRange for an
// invalid target.
func NLLLoss(probs *tensor.Matrix, targets []int32) (float32, error) {
	if err := checkTargets(probs, targets); err != nil {
		return 0, err
	}

	var sum float64
	for i, t := range targets {
		sum -= math.Log(float64(floorProb(probs.At(i, int(t)))))
	}
	return float32(sum / float64(len(targets))), nil
}

// NLLLossGrad returns dL/dprobs for NLLLoss.
//
// Gradient:
//
//	∂L/∂probs[i, j] = -1 / (n * max(probs[i, j], floor))   if j == targets[i]
//	                 = 0                                  otherwise
//
// Chain with tensor.SoftmaxBackward to obtain the gradient for the logits.
func NLLLossGrad(probs *tensor.Matrix, targets []int32) (*tensor.Matrix, error) {
	if err := checkTargets(probs, targets); err != nil {
		return nil, err
	}

	grad := tensor.NewMatrix(probs.Rows, probs.Cols)
	n := float32(len(targets))
	for i, t := range targets {
		grad.Set(i, int(t), -1/(n*floorProb(probs.At(i, int(t)))))
	}
	return grad, nil
}

func checkTargets(probs *tensor.Matrix, targets []int32) error {
	if len(targets) == 0 {
		return fmt.Errorf("nll loss: %w", ErrEmptyInput)
	}
	if probs.Rows != len(targets) {
		return fmt.Errorf("nll loss: probs %v for %d targets: %w",
			probs.Shape(), len(targets), tensor.ErrShapeMismatch)
	}
	for i, t := range targets {
		if t < 0 || int(t) >= probs.Cols {
			return fmt.Errorf("nll loss: target %d at position %d (classes %d): %w",
				t, i, probs.Cols, ErrOutOfRange)
		}
	}
	return nil
}

func floorProb(p float32) float32 {
	if p < ProbabilityFloor {
		return ProbabilityFloor
	}
	return p
}

package tensor

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when operand dimensions are incompatible.
var ErrShapeMismatch = errors.New("shape mismatch")

// Shape represents the dimensions of a vector or matrix.
type Shape []int

// Validate checks that no dimension is negative.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
	}
	return nil
}

// mismatch builds an error naming the operation and both conflicting shapes.
func mismatch(op string, a, b Shape) error {
	return fmt.Errorf("%s: %v vs %v: %w", op, a, b, ErrShapeMismatch)
}

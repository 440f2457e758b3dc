// Package tensor implements the numeric kernel used by every layer.
//
// The kernel works on two containers:
//   - []float32: a 1-D sequence of values (vectors, flattened sequences)
//   - *Matrix: a dense row-major 2-D grid (a sequence of n embeddings is an n x d Matrix)
//
// All functions are pure: they never modify their operands and always allocate
// their result. Shape mismatches are reported as errors wrapping ErrShapeMismatch,
// operands are never truncated or padded.
//
// Example:
//
//	a, _ := tensor.FromRows([][]float32{{1, 2}, {3, 4}})
//	b, _ := tensor.FromRows([][]float32{{5, 6}, {7, 8}})
//	c, err := tensor.MatMul(a, b) // [[19 22] [43 50]]
package tensor

// Copyright 2025 The TransformerLib Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the row-major float32 matrix used by every layer.
//
// # Overview
//
// A sequence of n embedded tokens is an n x d Matrix. This package provides:
//   - Matrix: row-major storage with Rows, Cols and flat Data
//   - Shape-checked arithmetic (MatMul, Add, Sub, Hadamard)
//   - Numerically stable softmax and its backward pass
//
// # Basic Usage
//
//	a, _ := tensor.FromRows([][]float32{{1, 2}, {3, 4}})
//	b, _ := tensor.FromRows([][]float32{{5, 6}, {7, 8}})
//	c, err := tensor.MatMul(a, b)  // [[19 22] [43 50]]
//
// Operand mismatches are reported as errors wrapping ErrShapeMismatch;
// nothing is truncated or padded.
package tensor

import (
	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// ErrShapeMismatch is wrapped by every operation that rejects its operand shapes.
var ErrShapeMismatch = tensor.ErrShapeMismatch

// Matrix is a row-major rows x cols grid of float32 values.
type Matrix = tensor.Matrix

// Shape is the dimension list of a matrix.
type Shape = tensor.Shape

// NewMatrix creates a zero-filled matrix.
func NewMatrix(rows, cols int) *Matrix {
	return tensor.NewMatrix(rows, cols)
}

// FromSlice copies data into a new rows x cols matrix.
func FromSlice(data []float32, rows, cols int) (*Matrix, error) {
	return tensor.FromSlice(data, rows, cols)
}

// FromRows builds a matrix from equal-length rows.
func FromRows(rows [][]float32) (*Matrix, error) {
	return tensor.FromRows(rows)
}

// MatMul computes a @ b.
func MatMul(a, b *Matrix) (*Matrix, error) {
	return tensor.MatMul(a, b)
}

// Transpose returns mᵀ.
func Transpose(m *Matrix) *Matrix {
	return tensor.Transpose(m)
}

// Softmax returns the softmax of v.
func Softmax(v []float32) []float32 {
	return tensor.Softmax(v)
}

// SoftmaxRows applies softmax to every row of m.
func SoftmaxRows(m *Matrix) *Matrix {
	return tensor.SoftmaxRows(m)
}

// Argmax returns the index of the largest element of v, or -1 if v is empty.
func Argmax(v []float32) int {
	return tensor.Argmax(v)
}

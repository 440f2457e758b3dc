// Copyright 2025 The TransformerLib Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"golang.org/x/exp/rand"

	"github.com/VeryJokerJal/TransformerLib/internal/nn"
	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// Errors reported by layers.
var (
	ErrOutOfRange      = nn.ErrOutOfRange
	ErrContextMismatch = nn.ErrContextMismatch
	ErrEmptyInput      = nn.ErrEmptyInput
)

// Layer is the common interface of every network component.
type Layer = nn.Layer

// Context carries the activations of one Forward call to the matching Backward.
type Context = nn.Context

// Parameter represents a trainable weight matrix and its accumulated gradient.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with the given name and value.
func NewParameter(name string, value *tensor.Matrix) *Parameter {
	return nn.NewParameter(name, value)
}

// NewRand returns a deterministic random source for weight initialization.
func NewRand(seed uint64) *rand.Rand {
	return nn.NewRand(seed)
}

// Composition

// Pipeline chains layers; Backward runs them in reverse.
type Pipeline = nn.Pipeline

// NewPipeline creates a new Pipeline from layers, applied in order.
//
// Example:
//
//	block := nn.NewPipeline(
//	    nn.NewMultiHeadAttention(16, 2, rng),
//	    nn.NewLayerNorm(16),
//	)
func NewPipeline(layers ...Layer) *Pipeline {
	return nn.NewPipeline(layers...)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewLinear creates a new linear layer with Xavier initialization.
func NewLinear(inFeatures, outFeatures int, useBias bool, rng *rand.Rand) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, useBias, rng)
}

// LayerNorm normalizes each row to zero mean and unit variance, then applies gamma and beta.
type LayerNorm = nn.LayerNorm

// NewLayerNorm creates a new LayerNorm over dim features.
func NewLayerNorm(dim int) *LayerNorm {
	return nn.NewLayerNorm(dim)
}

// Embedding maps token ids to dense vectors.
type Embedding = nn.Embedding

// NewEmbedding creates a new embedding table initialized from N(0, std²).
//
// A non-positive std selects 1/sqrt(embeddingDim).
func NewEmbedding(numEmbeddings, embeddingDim int, std float64, rng *rand.Rand) *Embedding {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, std, rng)
}

// SinusoidalPositionalEncoding adds fixed sin/cos position signals.
type SinusoidalPositionalEncoding = nn.SinusoidalPositionalEncoding

// NewSinusoidalPositionalEncoding pre-computes the encoding for maxLen positions.
func NewSinusoidalPositionalEncoding(maxLen, dim int) *SinusoidalPositionalEncoding {
	return nn.NewSinusoidalPositionalEncoding(maxLen, dim)
}

// MultiHeadAttention implements scaled dot-product attention across heads.
type MultiHeadAttention = nn.MultiHeadAttention

// NewMultiHeadAttention creates a new attention layer; numHeads must divide embedDim.
func NewMultiHeadAttention(embedDim, numHeads int, rng *rand.Rand) *MultiHeadAttention {
	return nn.NewMultiHeadAttention(embedDim, numHeads, rng)
}

// FeedForward is the position-wise ReLU network of a transformer block.
type FeedForward = nn.FeedForward

// NewFeedForward creates a new feed-forward layer.
func NewFeedForward(inputDim, hiddenDim int, rng *rand.Rand) *FeedForward {
	return nn.NewFeedForward(inputDim, hiddenDim, rng)
}

// Blocks

// Encoder is one encoder block: attention, norm, feed-forward, norm.
type Encoder = nn.Encoder

// NewEncoder creates a new encoder block.
func NewEncoder(numHeads, embedDim, hiddenDim int, rng *rand.Rand) *Encoder {
	return nn.NewEncoder(numHeads, embedDim, hiddenDim, rng)
}

// Decoder is one decoder block with cross-attention over encoder output.
type Decoder = nn.Decoder

// NewDecoder creates a new decoder block.
func NewDecoder(numHeads, embedDim, hiddenDim int, rng *rand.Rand) *Decoder {
	return nn.NewDecoder(numHeads, embedDim, hiddenDim, rng)
}

// Loss

// NLLLoss computes the mean negative log-likelihood of targets under probs.
func NLLLoss(probs *tensor.Matrix, targets []int32) (float32, error) {
	return nn.NLLLoss(probs, targets)
}

// NLLLossGrad returns the gradient of NLLLoss with respect to probs.
func NLLLossGrad(probs *tensor.Matrix, targets []int32) (*tensor.Matrix, error) {
	return nn.NLLLossGrad(probs, targets)
}

// Package nn implements the transformer layers with hand-derived gradients.
//
// This package provides the building blocks of the encoder/decoder network:
//   - Layer interface: Forward / Backward / UpdateWeights / Parameters
//   - Parameter: a weight matrix with its accumulated gradient
//   - Pipeline: ordered composition of layers
//   - Embedding, PositionalEncoding, MultiHeadAttention, FeedForward,
//     LayerNorm, Linear
//   - Encoder, Decoder: attention/normalization/feed-forward blocks
//   - NLLLoss: negative log-likelihood over softmax probabilities
//
// Layers keep no per-call state. Forward returns the output together with a
// Context describing the activations it produced; the matching Backward call
// receives that Context back, accumulates parameter gradients, and returns the
// gradient with respect to the layer input. UpdateWeights applies
// W -= lr * grad and clears the gradient.
//
// Example:
//
//	rng := nn.NewRand(42)
//	ffn := nn.NewFeedForward(16, 64, rng)
//	out, ctx, err := ffn.Forward(x)
//	// ... compute dLoss/dOut into grad ...
//	dx, err := ffn.Backward(ctx, grad)
//	ffn.UpdateWeights(0.001)
package nn

// Copyright 2025 The TransformerLib Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the transformer layers with hand-derived gradients.
//
// # Overview
//
// Every layer implements Layer:
//
//	Forward(x) (out, ctx, err)      // ctx holds the activations Backward needs
//	Backward(ctx, grad) (dx, err)   // accumulates parameter gradients
//	UpdateWeights(lr)               // W -= lr * grad, gradients cleared
//	Parameters() []*Parameter
//
// Layers hold no per-call state, so the context of one Forward call can
// never be confused with another's.
//
// # Basic Usage
//
//	rng := nn.NewRand(42)
//	enc := nn.NewEncoder(2, 16, 64, rng)
//
//	out, ctx, err := enc.Forward(x)
//	dx, err := enc.Backward(ctx, grad)
//	enc.UpdateWeights(0.001)
package nn

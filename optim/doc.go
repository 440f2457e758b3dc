// Copyright 2025 The TransformerLib Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers that consume the gradients accumulated
// by nn layers.
//
// Available optimizers:
//   - SGD: plain gradient descent, optionally with momentum
//   - Adam: adaptive moments with bias correction
//
// A plain SGD step is exactly Layer.UpdateWeights with the same learning rate.
package optim

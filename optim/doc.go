// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for depth-aware layers.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/depthconv/nn"
//	    "github.com/born-ml/depthconv/optim"
//	)
//
//	func train(conv *nn.DepthConv2D) {
//	    optimizer := optim.NewAdam(conv.Parameters(), optim.AdamConfig{LR: 0.001})
//	    for step := 0; step < steps; step++ {
//	        out, _ := conv.Forward(image, depth)
//	        _, grad, _ := nn.MSELoss{}.Forward(out, target)
//	        conv.Backward(grad)
//	        optimizer.Step()
//	        optimizer.ZeroGrad()
//	    }
//	}
package optim

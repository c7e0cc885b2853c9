// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides a trainable depth-aware convolution layer.
//
// # Overview
//
// This package contains:
//   - Layers: DepthConv2D
//   - Utilities: Module interface, Parameter
//   - Initialization: Xavier, Zeros
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/depthconv/nn"
//	)
//
//	func main() {
//	    conv := nn.NewDepthConv2D(3, 16, 3, 3, nn.WithPadding(1, 1))
//
//	    out, err := conv.Forward(image, depth)
//	    ...
//	    gradInput, err := conv.Backward(gradOut)
//	    for _, p := range conv.Parameters() {
//	        update(p.Tensor(), p.Grad())
//	    }
//	    conv.ZeroGrad()
//	}
package nn

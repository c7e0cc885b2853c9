// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense tensors consumed by the depthconv engine.
//
// # Overview
//
// Tensors are dense, row-major and live on the CPU. A tensor carries its
// runtime element type; the engine accepts:
//   - Float32 and Float64, computed natively
//   - Float16, computed in float32 and converted back
//
// # Basic Usage
//
//	import "github.com/born-ml/depthconv/tensor"
//
//	func main() {
//	    image, _ := tensor.Randn(tensor.Shape{1, 3, 32, 32}, tensor.Float32, rng)
//	    depth, _ := tensor.Full(tensor.Shape{1, 1, 32, 32}, tensor.Float32, 2.5)
//	    ...
//	}
//
// # Views
//
// Select, Reshape, Squeeze0 and Unsqueeze0 return views sharing the backing
// buffer. Permute returns a strided view which must be made Contiguous before
// it is handed to the engine.
package tensor

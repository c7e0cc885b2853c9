// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for plain convolutions.
//
// # Overview
//
// This package implements:
//   - Conv2D with stride, padding and dilation on both axes
//   - Conv2DInputBackward and Conv2DKernelBackward
//   - Pad2D and TransposeFlip kernel helpers
//   - MatMul on gonum BLAS
//
// The depthconv engine builds its backward-input pass on Pad2D and
// TransposeFlip, and its tests compare NoGate results against Conv2D.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/depthconv/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    p := cpu.ConvParams{StrideH: 1, StrideW: 1, PadH: 1, PadW: 1, DilationH: 1, DilationW: 1}
//	    out, err := backend.Conv2D(input, kernel, bias, p)
//	}
package cpu

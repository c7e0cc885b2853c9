// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package depthconv provides a depth-aware 2D convolution engine.
//
// # Overview
//
// A depth-aware convolution samples the same patches as an ordinary
// convolution, but scales every tap by a gate weight computed from the depth
// difference between the tap and the patch centre:
//
//	out[n,o,y,x] = bias[o] + sum_{c,i,j} W[o,c,i,j] * gate(D[tap] - D[centre]) * X[n,c,tap]
//
// With the default ExpGate the weight is exp(-|delta|/alpha), so pixels at a
// different depth than the centre contribute less.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/depthconv/depthconv"
//	    "github.com/born-ml/depthconv/tensor"
//	)
//
//	p := depthconv.SquareParams(3, 1, 1, 1) // kernel, stride, pad, dilation
//	out, err := depthconv.Forward(image, depth, weight, bias, 8.0, p)
//
//	grads, err := depthconv.Backward(image, depth, gradOut, weight, 8.0, p, 1)
//	// grads.Input, grads.Weight, grads.Bias
//
// # Errors
//
// Every entry point validates its operands before allocating and reports
// failures as *Error. Match them with errors.Is against ErrInvalidShape,
// ErrInvalidOperand and ErrArithmeticOverflow, or with errors.As to inspect
// the failing Rule.
package depthconv

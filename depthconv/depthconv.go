// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package depthconv

import (
	"github.com/born-ml/depthconv/internal/depthconv"
	"github.com/born-ml/depthconv/internal/tensor"
)

// Params holds the integer geometry of a depth-aware convolution.
type Params = depthconv.Params

// SquareParams builds Params with the same value on both spatial axes.
func SquareParams(kernel, stride, pad, dilation int) Params {
	return depthconv.SquareParams(kernel, stride, pad, dilation)
}

// LegacyFullPadding returns the symmetric padding ((k-1)*d+1)/2 older callers
// used for the full convolution of the input gradient.
func LegacyFullPadding(kernel, dilation int) int {
	return depthconv.LegacyFullPadding(kernel, dilation)
}

// Engine

// Config controls how an Engine executes.
type Config = depthconv.Config

// Engine runs depth-aware convolutions.
type Engine = depthconv.Engine

// Gradients holds the results of a backward pass.
type Gradients = depthconv.Gradients

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return depthconv.DefaultConfig()
}

// New creates an Engine.
//
// Example:
//
//	cfg := depthconv.DefaultConfig()
//	cfg.Gate = depthconv.NoGate{}
//	engine := depthconv.New(cfg)
func New(cfg Config) *Engine {
	return depthconv.New(cfg)
}

// Forward runs a depth-aware convolution on the default engine.
//
// input is [N, C, H, W] or [C, H, W]; depth is [N, 1, H, W] or [1, H, W];
// weight is [OutC, C, kH, kW]; bias is [OutC] or nil.
func Forward(input, depth, weight, bias *tensor.RawTensor, alpha float64, p Params) (*tensor.RawTensor, error) {
	return depthconv.Forward(input, depth, weight, bias, alpha, p)
}

// Backward computes the input, weight and bias gradients on the default engine.
// The bias gradient is scaled by scale.
func Backward(input, depth, gradOutput, weight *tensor.RawTensor, alpha float64, p Params, scale float64) (*Gradients, error) {
	return depthconv.Backward(input, depth, gradOutput, weight, alpha, p, scale)
}

// Gating

// Gate is the depth-similarity law applied to every sampled tap.
type Gate = depthconv.Gate

// ExpGate attenuates a tap by exp(-|delta| / alpha).
type ExpGate = depthconv.ExpGate

// NoGate weights every tap with 1.
type NoGate = depthconv.NoGate

// GatedIm2Col builds the gated column matrix [C*kH*kW, outH*outW] of a single
// [C, H, W] feature map and its [1, H, W] depth.
func GatedIm2Col(feature, depth *tensor.RawTensor, alpha float64, p Params, gate Gate) (*tensor.RawTensor, error) {
	return depthconv.GatedIm2Col(feature, depth, alpha, p, gate)
}

// PadWithin inserts factor-1 zeros between neighbouring elements of the two
// trailing axes of a 4D tensor.
func PadWithin(t *tensor.RawTensor, factorH, factorW int) (*tensor.RawTensor, error) {
	return depthconv.PadWithin(t, factorH, factorW)
}

// Validation

// CheckForward validates the operands of a forward or backward call.
func CheckForward(input, depth, weight *tensor.RawTensor, p Params) error {
	return depthconv.CheckForward(input, depth, weight, p)
}

// CheckBias validates an optional bias against weight.
func CheckBias(weight, bias *tensor.RawTensor) error {
	return depthconv.CheckBias(weight, bias)
}

// CheckGradOutput validates gradOutput against the forward geometry.
func CheckGradOutput(input, weight, gradOutput *tensor.RawTensor, p Params) error {
	return depthconv.CheckGradOutput(input, weight, gradOutput, p)
}

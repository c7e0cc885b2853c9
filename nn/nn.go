// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/depthconv/internal/nn"
	"github.com/born-ml/depthconv/internal/tensor"
)

// Module is the common interface of depth-aware layers.
type Module = nn.Module

// Parameter represents a trainable parameter in a neural network.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	return nn.NewParameter(name, t)
}

// Layers

// DepthConv2D represents a depth-aware 2D convolutional layer.
type DepthConv2D = nn.DepthConv2D

// Option configures a DepthConv2D.
type Option = nn.Option

// ErrNoForward is returned by DepthConv2D.Backward before any forward pass.
var ErrNoForward = nn.ErrNoForward

// NewDepthConv2D creates a new depth-aware convolutional layer.
//
// Example:
//
//	conv := nn.NewDepthConv2D(3, 32, 3, 3, nn.WithPadding(1, 1), nn.WithAlpha(8))
func NewDepthConv2D(inChannels, outChannels, kernelH, kernelW int, opts ...Option) *DepthConv2D {
	return nn.NewDepthConv2D(inChannels, outChannels, kernelH, kernelW, opts...)
}

// Options

var (
	WithStride   = nn.WithStride   // WithStride sets the stride.
	WithPadding  = nn.WithPadding  // WithPadding sets the zero padding.
	WithDilation = nn.WithDilation // WithDilation sets the dilation.
	WithAlpha    = nn.WithAlpha    // WithAlpha sets the depth-gating scale.
	WithoutBias  = nn.WithoutBias  // WithoutBias drops the bias term.
	WithEngine   = nn.WithEngine   // WithEngine selects the engine running the layer.
)

// WithRand draws the initial weights from rng.
func WithRand(rng *rand.Rand) Option {
	return nn.WithRand(rng)
}

// Initialization

// Xavier creates a Float32 tensor with Xavier/Glorot uniform initialization.
func Xavier(fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand) *tensor.RawTensor {
	return nn.Xavier(fanIn, fanOut, shape, rng)
}

// Zeros creates a Float32 tensor filled with zeros.
func Zeros(shape tensor.Shape) *tensor.RawTensor {
	return nn.Zeros(shape)
}

// Losses

// MSELoss computes Mean Squared Error loss and its gradient.
type MSELoss = nn.MSELoss

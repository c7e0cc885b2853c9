// Package nn wraps the depth-aware convolution engine in a trainable layer.
//
// This package provides:
//   - Module interface: Base interface for depth-aware layers
//   - Parameter: Trainable parameters with gradient accumulation
//   - DepthConv2D: Depth-aware 2D convolution
//   - Xavier, Zeros: Parameter initializers
package nn

import (
	"github.com/born-ml/depthconv/internal/tensor"
)

// Module is the base interface for layers that consume a feature map together
// with its depth map.
type Module interface {
	// Forward computes the output of the module given a feature map and the
	// depth map aligned with it.
	Forward(input, depth *tensor.RawTensor) (*tensor.RawTensor, error)

	// Backward propagates the gradient of the loss with respect to the last
	// output, accumulates parameter gradients and returns the gradient with
	// respect to the last input.
	Backward(gradOutput *tensor.RawTensor) (*tensor.RawTensor, error)

	// Parameters returns all trainable parameters of this module.
	Parameters() []*Parameter
}

var _ Module = (*DepthConv2D)(nil)

// Package optim implements optimizers for the parameters of depth-aware layers.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers read the gradients accumulated in each nn.Parameter by the
// layer's Backward pass.
//
// Example usage:
//
//	optimizer := optim.NewAdam(conv.Parameters(), optim.AdamConfig{LR: 0.001})
//
//	for step := range steps {
//	    out, _ := conv.Forward(image, depth)
//	    _, grad, _ := mse.Forward(out, target)
//	    conv.Backward(grad)
//
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"fmt"

	"github.com/born-ml/depthconv/internal/nn"
	"github.com/born-ml/depthconv/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies the accumulated gradients to all parameters in place.
	// Parameters without a gradient are skipped.
	Step() error

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // Learning rate
}

// float32Values returns the parameter data and gradient, or nil slices when
// the parameter has no gradient yet.
func float32Values(param *nn.Parameter) (data, grad []float32, err error) {
	if param.Grad() == nil {
		return nil, nil, nil
	}
	if param.Tensor().DType() != tensor.Float32 {
		return nil, nil, fmt.Errorf("optim: parameter %s has dtype %s, only float32 is supported",
			param.Name(), param.Tensor().DType())
	}
	return param.Tensor().AsFloat32(), param.Grad().AsFloat32(), nil
}

package nn

import (
	"fmt"

	"github.com/born-ml/depthconv/internal/tensor"
)

// Parameter represents a trainable parameter of a layer.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
//
//	// After a backward pass
//	grad := weight.Grad()
type Parameter struct {
	name   string            // Parameter name (e.g., "weight", "bias")
	tensor *tensor.RawTensor // The parameter tensor
	grad   *tensor.RawTensor // Accumulated gradient, nil before the first backward pass
}

// NewParameter creates a new trainable parameter.
//
// The parameter tensor should be initialized before creating the Parameter.
// Gradient will be allocated during the first backward pass.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.RawTensor {
	return p.tensor
}

// Grad returns the gradient tensor.
//
// Returns nil if no gradient has been computed yet (before backward pass).
func (p *Parameter) Grad() *tensor.RawTensor {
	return p.grad
}

// AccumulateGrad adds grad to the stored gradient, allocating it on first use.
func (p *Parameter) AccumulateGrad(grad *tensor.RawTensor) error {
	if !grad.Shape().Equal(p.tensor.Shape()) {
		return fmt.Errorf("%s: gradient shape %v does not match parameter shape %v", p.name, grad.Shape(), p.tensor.Shape())
	}
	if grad.DType() != p.tensor.DType() {
		return fmt.Errorf("%s: gradient dtype %s does not match parameter dtype %s", p.name, grad.DType(), p.tensor.DType())
	}
	if p.grad == nil {
		g, err := grad.Clone()
		if err != nil {
			return err
		}
		p.grad = g
		return nil
	}

	switch grad.DType() {
	case tensor.Float32:
		addInto(p.grad.AsFloat32(), grad.AsFloat32())
	case tensor.Float64:
		addInto(p.grad.AsFloat64(), grad.AsFloat64())
	default:
		return fmt.Errorf("%s: unsupported gradient dtype %s", p.name, grad.DType())
	}
	return nil
}

func addInto[T tensor.Float](dst, src []T) {
	for i, v := range src {
		dst[i] += v
	}
}

// ZeroGrad clears the gradient tensor.
//
// This should be called before each training iteration to avoid
// accumulating gradients from previous iterations.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

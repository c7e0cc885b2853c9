package depthconv

import (
	"github.com/pkg/errors"

	"github.com/born-ml/depthconv/internal/parallel"
	"github.com/born-ml/depthconv/internal/tensor"
)

// Gradients holds the results of Backward.
type Gradients struct {
	Input  *tensor.RawTensor // Same shape as the forward input.
	Weight *tensor.RawTensor // [OutC, InC, kH, kW], summed over the batch.
	Bias   *tensor.RawTensor // [OutC]
}

// Backward computes the gradients of a depth-aware convolution with respect to
// its input, weight and bias, given the gradient of the loss with respect to
// its output. gradOutput has the forward output's shape. scale multiplies the
// bias gradient.
//
// Depth is treated as a constant: no gradient flows into it.
func (e *Engine) Backward(input, depth, gradOutput, weight *tensor.RawTensor, alpha float64, p Params, scale float64) (*Gradients, error) {
	tr := e.newTracer("backward")
	grads, err := e.backward(tr, input, depth, gradOutput, weight, alpha, p, scale)
	tr.done(err)
	if err != nil {
		return nil, errors.Wrap(err, "depthconv backward")
	}
	return grads, nil
}

func (e *Engine) backward(tr *tracer, input, depth, gradOutput, weight *tensor.RawTensor, alpha float64, p Params, scale float64) (*Gradients, error) {
	if err := CheckForward(input, depth, weight, p); err != nil {
		return nil, err
	}
	if err := CheckGradOutput(input, weight, gradOutput, p); err != nil {
		return nil, err
	}
	if err := checkOperands(
		[]string{"input", "input_depth", "gradOutput", "weight"},
		input, depth, gradOutput, weight,
	); err != nil {
		return nil, err
	}

	in, dep, err := batchOperands(input, depth)
	if err != nil {
		return nil, err
	}
	grad, err := asBatched(gradOutput)
	if err != nil {
		return nil, err
	}

	dtype := input.DType()
	promoted, err := promote(in.t, dep.t, grad.t, weight)
	if err != nil {
		return nil, err
	}
	x, d, gy, w := promoted[0], promoted[1], promoted[2], promoted[3]
	tr.tensor("gradOutput", gy)

	var grads Gradients
	group := parallel.NewGroup(e.cfg.Parallel)
	group.Go(func() error {
		var err error
		grads.Input, err = e.inputGrad(tr, gy, d, w, alpha, p)
		return errors.WithMessage(err, "input gradient")
	})
	group.Go(func() error {
		var err error
		grads.Weight, err = e.weightGrad(tr, x, d, gy, w, alpha, p)
		return errors.WithMessage(err, "weight gradient")
	})
	group.Go(func() error {
		var err error
		grads.Bias, err = biasGrad(gy, scale)
		return errors.WithMessage(err, "bias gradient")
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	tr.tensor("gradInput", grads.Input)
	tr.tensor("gradWeight", grads.Weight)
	tr.tensor("gradBias", grads.Bias)

	if grads.Input, err = demote(grads.Input, dtype); err != nil {
		return nil, err
	}
	if grads.Weight, err = demote(grads.Weight, dtype); err != nil {
		return nil, err
	}
	if grads.Bias, err = demote(grads.Bias, dtype); err != nil {
		return nil, err
	}
	if grads.Input, err = in.strip(grads.Input); err != nil {
		return nil, err
	}
	return &grads, nil
}

// Forward runs Engine.Forward on an engine with DefaultConfig.
func Forward(input, depth, weight, bias *tensor.RawTensor, alpha float64, p Params) (*tensor.RawTensor, error) {
	return defaultEngine.Forward(input, depth, weight, bias, alpha, p)
}

// Backward runs Engine.Backward on an engine with DefaultConfig.
func Backward(input, depth, gradOutput, weight *tensor.RawTensor, alpha float64, p Params, scale float64) (*Gradients, error) {
	return defaultEngine.Backward(input, depth, gradOutput, weight, alpha, p, scale)
}

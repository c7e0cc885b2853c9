package cpu

import (
	"fmt"

	"github.com/born-ml/depthconv/internal/tensor"
)

// Conv2DInputBackward computes the gradient of a direct convolution w.r.t. its input
// by scattering every output gradient back onto the input positions it was read from.
//
// References:
//   - "A guide to convolution arithmetic for deep learning" (Dumoulin & Visin, 2016)
func (cpu *CPUBackend) Conv2DInputBackward(inputShape tensor.Shape, kernel, grad *tensor.RawTensor, p ConvParams) (*tensor.RawTensor, error) {
	g, err := backwardGeom(inputShape, kernel, grad, p)
	if err != nil {
		return nil, fmt.Errorf("Conv2DInputBackward: %w", err)
	}

	inputGrad, err := tensor.NewRaw(inputShape, grad.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("Conv2DInputBackward: failed to create gradient tensor: %w", err)
	}

	switch grad.DType() {
	case tensor.Float32:
		conv2dInputBackward(g, inputGrad.AsFloat32(), grad.AsFloat32(), kernel.AsFloat32())
	case tensor.Float64:
		conv2dInputBackward(g, inputGrad.AsFloat64(), grad.AsFloat64(), kernel.AsFloat64())
	default:
		return nil, fmt.Errorf("Conv2DInputBackward: unsupported dtype %s", grad.DType())
	}
	return inputGrad, nil
}

// Conv2DKernelBackward computes the gradient of a direct convolution w.r.t. its kernel:
//
//	dKernel[co, ci, kh, kw] = sum_{n, oh, ow} grad[n, co, oh, ow] * input[n, ci, h, w]
//
// where (h, w) is the input position tap (kh, kw) read for output (oh, ow).
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, p ConvParams) (*tensor.RawTensor, error) {
	g, err := backwardGeom(input.Shape(), kernel, grad, p)
	if err != nil {
		return nil, fmt.Errorf("Conv2DKernelBackward: %w", err)
	}

	kernelGrad, err := tensor.NewRaw(kernel.Shape(), grad.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("Conv2DKernelBackward: failed to create gradient tensor: %w", err)
	}

	switch grad.DType() {
	case tensor.Float32:
		conv2dKernelBackward(g, kernelGrad.AsFloat32(), grad.AsFloat32(), input.AsFloat32())
	case tensor.Float64:
		conv2dKernelBackward(g, kernelGrad.AsFloat64(), grad.AsFloat64(), input.AsFloat64())
	default:
		return nil, fmt.Errorf("Conv2DKernelBackward: unsupported dtype %s", grad.DType())
	}
	return kernelGrad, nil
}

func backwardGeom(inputShape tensor.Shape, kernel, grad *tensor.RawTensor, p ConvParams) (convGeom, error) {
	kernelShape := kernel.Shape()
	gradShape := grad.Shape()
	if len(inputShape) != 4 || len(kernelShape) != 4 || len(gradShape) != 4 {
		return convGeom{}, fmt.Errorf("expected 4D input/kernel/grad, got %v %v %v", inputShape, kernelShape, gradShape)
	}
	g := convGeom{
		N: inputShape[0], CIn: inputShape[1], H: inputShape[2], W: inputShape[3],
		COut: kernelShape[0], KH: kernelShape[2], KW: kernelShape[3],
		HOut: gradShape[2], WOut: gradShape[3],
		p: p,
	}
	if gradShape[0] != g.N || gradShape[1] != g.COut {
		return convGeom{}, fmt.Errorf("grad shape %v does not match batch %d / out channels %d", gradShape, g.N, g.COut)
	}
	return g, nil
}

//nolint:gocognit // high complexity inherent to convolution backprop
func conv2dInputBackward[T tensor.Float](g convGeom, inputGrad, grad, kernel []T) {
	for n := 0; n < g.N; n++ {
		inputGradBatch := inputGrad[n*g.CIn*g.H*g.W : (n+1)*g.CIn*g.H*g.W]
		gradBatch := grad[n*g.COut*g.HOut*g.WOut : (n+1)*g.COut*g.HOut*g.WOut]

		for co := 0; co < g.COut; co++ {
			kernelCOut := kernel[co*g.CIn*g.KH*g.KW : (co+1)*g.CIn*g.KH*g.KW]
			for oh := 0; oh < g.HOut; oh++ {
				for ow := 0; ow < g.WOut; ow++ {
					gradVal := gradBatch[(co*g.HOut+oh)*g.WOut+ow]
					for ci := 0; ci < g.CIn; ci++ {
						for kh := 0; kh < g.KH; kh++ {
							for kw := 0; kw < g.KW; kw++ {
								h, w, ok := g.inputPos(oh, ow, kh, kw)
								if !ok {
									continue
								}
								inputGradBatch[(ci*g.H+h)*g.W+w] += gradVal * kernelCOut[(ci*g.KH+kh)*g.KW+kw]
							}
						}
					}
				}
			}
		}
	}
}

//nolint:gocognit // high complexity inherent to convolution backprop
func conv2dKernelBackward[T tensor.Float](g convGeom, kernelGrad, grad, input []T) {
	for co := 0; co < g.COut; co++ {
		for ci := 0; ci < g.CIn; ci++ {
			for kh := 0; kh < g.KH; kh++ {
				for kw := 0; kw < g.KW; kw++ {
					var sum T
					for n := 0; n < g.N; n++ {
						for oh := 0; oh < g.HOut; oh++ {
							for ow := 0; ow < g.WOut; ow++ {
								h, w, ok := g.inputPos(oh, ow, kh, kw)
								if !ok {
									continue
								}
								sum += grad[((n*g.COut+co)*g.HOut+oh)*g.WOut+ow] * input[((n*g.CIn+ci)*g.H+h)*g.W+w]
							}
						}
					}
					kernelGrad[((co*g.CIn+ci)*g.KH+kh)*g.KW+kw] = sum
				}
			}
		}
	}
}

package cpu

import (
	"fmt"

	"github.com/born-ml/depthconv/internal/parallel"
	"github.com/born-ml/depthconv/internal/tensor"
)

// ConvParams describes the stride, padding and dilation of a 2D convolution.
type ConvParams struct {
	StrideH, StrideW     int
	PadH, PadW           int
	DilationH, DilationW int
}

// OutputSize applies the dilated-convolution size law to one spatial axis.
func OutputSize(in, kernel, stride, pad, dilation int) int {
	return (in+2*pad-(dilation*(kernel-1)+1))/stride + 1
}

// Conv2D performs a direct (ungated) 2D convolution.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Bias shape:   [C_out] or nil
// Output shape: [N, C_out, H_out, W_out]
//
// Every output element is accumulated straight from its patch, without im2col,
// so it can serve as an independent oracle for the im2col-based engine.
func (cpu *CPUBackend) Conv2D(input, kernel, bias *tensor.RawTensor, p ConvParams) (*tensor.RawTensor, error) {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		return nil, fmt.Errorf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape))
	}
	if len(kernelShape) != 4 {
		return nil, fmt.Errorf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape))
	}

	N, CIn, H, W := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	COut, CInK, KH, KW := kernelShape[0], kernelShape[1], kernelShape[2], kernelShape[3]

	if CIn != CInK {
		return nil, fmt.Errorf("conv2d: input channels %d != kernel channels %d", CIn, CInK)
	}

	HOut := OutputSize(H, KH, p.StrideH, p.PadH, p.DilationH)
	WOut := OutputSize(W, KW, p.StrideW, p.PadW, p.DilationW)
	if HOut <= 0 || WOut <= 0 {
		return nil, fmt.Errorf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding/dilation)", HOut, WOut)
	}

	output, err := tensor.NewRaw(tensor.Shape{N, COut, HOut, WOut}, input.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("conv2d: failed to create output tensor: %w", err)
	}

	g := convGeom{N: N, CIn: CIn, H: H, W: W, COut: COut, KH: KH, KW: KW, HOut: HOut, WOut: WOut, p: p}
	switch input.DType() {
	case tensor.Float32:
		conv2dDirect(g, output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), biasValues[float32](bias), cpu.parallel)
	case tensor.Float64:
		conv2dDirect(g, output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), biasValues[float64](bias), cpu.parallel)
	default:
		return nil, fmt.Errorf("conv2d: unsupported dtype %s", input.DType())
	}

	return output, nil
}

// convGeom bundles the sizes shared by the reference kernels.
type convGeom struct {
	N, CIn, H, W, COut, KH, KW, HOut, WOut int
	p                                      ConvParams
}

// inputPos maps an output position and kernel tap to an input position.
func (g convGeom) inputPos(outH, outW, kh, kw int) (int, int, bool) {
	h := outH*g.p.StrideH - g.p.PadH + kh*g.p.DilationH
	w := outW*g.p.StrideW - g.p.PadW + kw*g.p.DilationW
	return h, w, h >= 0 && h < g.H && w >= 0 && w < g.W
}

func biasValues[T tensor.Float](bias *tensor.RawTensor) []T {
	if bias == nil {
		return nil
	}
	return tensor.Values[T](bias)
}

// conv2dDirect computes batch elements independently, fanned out per cfg.
func conv2dDirect[T tensor.Float](g convGeom, out, in, kernel, bias []T, cfg parallel.Config) {
	parallel.ForBatch(g.N, func(n int) {
		for co := 0; co < g.COut; co++ {
			var b T
			if bias != nil {
				b = bias[co]
			}
			for oh := 0; oh < g.HOut; oh++ {
				for ow := 0; ow < g.WOut; ow++ {
					sum := b
					for ci := 0; ci < g.CIn; ci++ {
						for kh := 0; kh < g.KH; kh++ {
							for kw := 0; kw < g.KW; kw++ {
								h, w, ok := g.inputPos(oh, ow, kh, kw)
								if !ok {
									continue
								}
								sum += in[((n*g.CIn+ci)*g.H+h)*g.W+w] * kernel[((co*g.CIn+ci)*g.KH+kh)*g.KW+kw]
							}
						}
					}
					out[((n*g.COut+co)*g.HOut+oh)*g.WOut+ow] = sum
				}
			}
		}
	}, cfg)
}

package cpu

import (
	"fmt"

	"github.com/born-ml/depthconv/internal/tensor"
)

// Padding2D is the amount of zero padding added on each spatial side of a
// [N, C, H, W] tensor. Negative amounts crop instead.
type Padding2D struct {
	Top, Bottom, Left, Right int
}

// Pad2D zero-pads (or crops) the two trailing axes of a rank-4 tensor.
func (cpu *CPUBackend) Pad2D(t *tensor.RawTensor, p Padding2D) (*tensor.RawTensor, error) {
	shape := t.Shape()
	if len(shape) != 4 {
		return nil, fmt.Errorf("pad2d: expected 4D tensor, got %dD", len(shape))
	}
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	outH := h + p.Top + p.Bottom
	outW := w + p.Left + p.Right
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("pad2d: padding %+v leaves empty spatial extent from %dx%d", p, h, w)
	}

	out, err := tensor.NewRaw(tensor.Shape{n, c, outH, outW}, t.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("pad2d: %w", err)
	}

	switch t.DType() {
	case tensor.Float32:
		pad2d(out.AsFloat32(), t.AsFloat32(), n*c, h, w, outH, outW, p)
	case tensor.Float64:
		pad2d(out.AsFloat64(), t.AsFloat64(), n*c, h, w, outH, outW, p)
	default:
		return nil, fmt.Errorf("pad2d: unsupported dtype %s", t.DType())
	}
	return out, nil
}

func pad2d[T tensor.Float](dst, src []T, planes, h, w, outH, outW int, p Padding2D) {
	// Source rows/cols that survive a crop.
	y0, y1 := max(0, -p.Top), min(h, outH-p.Top)
	x0, x1 := max(0, -p.Left), min(w, outW-p.Left)
	if y0 >= y1 || x0 >= x1 {
		return
	}
	for plane := 0; plane < planes; plane++ {
		srcPlane := src[plane*h*w : (plane+1)*h*w]
		dstPlane := dst[plane*outH*outW : (plane+1)*outH*outW]
		for y := y0; y < y1; y++ {
			dstRow := (y + p.Top) * outW
			copy(dstPlane[dstRow+x0+p.Left:dstRow+x1+p.Left], srcPlane[y*w+x0:y*w+x1])
		}
	}
}

// TransposeFlip turns a kernel [OutC, InC, kH, kW] into [InC, OutC, kH, kW] with
// both spatial axes reversed, the operand of a full (transposed) convolution.
func (cpu *CPUBackend) TransposeFlip(kernel *tensor.RawTensor) (*tensor.RawTensor, error) {
	shape := kernel.Shape()
	if len(shape) != 4 {
		return nil, fmt.Errorf("transpose_flip: expected 4D kernel, got %dD", len(shape))
	}
	cOut, cIn, kH, kW := shape[0], shape[1], shape[2], shape[3]
	out, err := tensor.NewRaw(tensor.Shape{cIn, cOut, kH, kW}, kernel.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("transpose_flip: %w", err)
	}

	switch kernel.DType() {
	case tensor.Float32:
		transposeFlip(out.AsFloat32(), kernel.AsFloat32(), cOut, cIn, kH, kW)
	case tensor.Float64:
		transposeFlip(out.AsFloat64(), kernel.AsFloat64(), cOut, cIn, kH, kW)
	default:
		return nil, fmt.Errorf("transpose_flip: unsupported dtype %s", kernel.DType())
	}
	return out, nil
}

func transposeFlip[T tensor.Float](dst, src []T, cOut, cIn, kH, kW int) {
	for o := 0; o < cOut; o++ {
		for c := 0; c < cIn; c++ {
			srcBase := (o*cIn + c) * kH * kW
			dstBase := (c*cOut + o) * kH * kW
			for i := 0; i < kH; i++ {
				for j := 0; j < kW; j++ {
					dst[dstBase+(kH-1-i)*kW+(kW-1-j)] = src[srcBase+i*kW+j]
				}
			}
		}
	}
}

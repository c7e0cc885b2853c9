package depthconv

import (
	"fmt"

	"github.com/born-ml/depthconv/internal/backend/cpu"
	"github.com/born-ml/depthconv/internal/parallel"
	"github.com/born-ml/depthconv/internal/tensor"
)

// fullPadding returns the zero padding that turns a convolution of a
// zero-stuffed output gradient of extent stuffed with an expanded kernel of
// extent kt into one producing exactly `in` positions. before and after may be
// negative, in which case the gradient is cropped on that side.
func fullPadding(in, kt, pad, stuffed int) (before, after int) {
	before = kt - 1 - pad
	after = in + kt - 1 - before - stuffed
	return before, after
}

// depthFrame returns the padding that aligns the input depth with the padded
// gradient frame: frame position k holds the depth of the forward patch centre
// the gradient sample at k came from. centreOffset is the forward centre's
// offset from the patch origin, floor((k-1)/2)*dilation.
func depthFrame(kt, centreOffset int) (before, after int) {
	return kt - 1 - centreOffset, centreOffset
}

// inputGrad computes the gradient with respect to the input as a gated full
// convolution of the stride-stuffed output gradient with the flipped,
// channel-transposed, dilation-stuffed weight.
//
//	gradOutput [N, OutC, outH, outW]
//	depth      [N, 1, H, W]
//	weight     [OutC, InC, kH, kW]
//	result     [N, InC, H, W]
func (e *Engine) inputGrad(tr *tracer, gradOutput, depth, weight *tensor.RawTensor, alpha float64, p Params) (*tensor.RawTensor, error) {
	n, inC, outC := gradOutput.Dim(0), weight.Dim(1), weight.Dim(0)
	h, w := depth.Dim(2), depth.Dim(3)

	// [OutC, InC, kH, kW] -> [InC, OutC, kH, kW], spatially reversed, then
	// dilation gaps materialized: [InC, OutC, ktH, ktW].
	flipped, err := e.backend.TransposeFlip(weight)
	if err != nil {
		return nil, err
	}
	kernel, err := PadWithin(flipped, p.DilationH, p.DilationW)
	if err != nil {
		return nil, err
	}
	ktH, ktW := kernel.Dim(2), kernel.Dim(3)
	tr.tensor("expanded_weight", kernel)

	// Stride gaps, then full-convolution padding.
	stuffed, err := PadWithin(gradOutput, p.StrideH, p.StrideW)
	if err != nil {
		return nil, err
	}
	top, bottom := fullPadding(h, ktH, p.PadH, stuffed.Dim(2))
	left, right := fullPadding(w, ktW, p.PadW, stuffed.Dim(3))
	frame, err := e.backend.Pad2D(stuffed, cpu.Padding2D{Top: top, Bottom: bottom, Left: left, Right: right})
	if err != nil {
		return nil, err
	}
	tr.tensor("grad_frame", frame)

	cTop, cBottom := depthFrame(ktH, (p.KernelH-1)/2*p.DilationH)
	cLeft, cRight := depthFrame(ktW, (p.KernelW-1)/2*p.DilationW)
	depthPadded, err := e.backend.Pad2D(depth, cpu.Padding2D{Top: cTop, Bottom: cBottom, Left: cLeft, Right: cRight})
	if err != nil {
		return nil, err
	}
	tr.tensor("depth_frame", depthPadded)

	frameH, frameW := frame.Dim(2), frame.Dim(3)
	if depthPadded.Dim(2) != frameH || depthPadded.Dim(3) != frameW {
		panic(fmt.Sprintf("depthconv input grad: depth frame %v does not match gradient frame %v",
			depthPadded.Shape(), frame.Shape()))
	}

	full := Params{
		KernelH: ktH, KernelW: ktW,
		StrideH: 1, StrideW: 1,
		DilationH: 1, DilationW: 1,
	}
	g, err := newGeometry(outC, frameH, frameW, full)
	if err != nil {
		return nil, err
	}
	// Window y reads the depth of input pixel y at tap kt-1-centreOffset, which
	// makes every gate equal to the one the forward pass applied.
	g.refH, g.refW = cTop, cLeft
	if g.outH != h || g.outW != w {
		panic(fmt.Sprintf("depthconv input grad: full convolution yields %dx%d, want %dx%d", g.outH, g.outW, h, w))
	}

	gradInput, err := tensor.NewRaw(tensor.Shape{n, inC, h, w}, gradOutput.DType(), tensor.CPU)
	if err != nil {
		return nil, err
	}
	switch gradOutput.DType() {
	case tensor.Float32:
		inputGradBatch(gradInput.AsFloat32(), frame.AsFloat32(), depthPadded.AsFloat32(), kernel.AsFloat32(), n, inC, g, alpha, e.cfg.Gate, e.cfg.Parallel, e.innerConfig(n))
	case tensor.Float64:
		inputGradBatch(gradInput.AsFloat64(), frame.AsFloat64(), depthPadded.AsFloat64(), kernel.AsFloat64(), n, inC, g, alpha, e.cfg.Gate, e.cfg.Parallel, e.innerConfig(n))
	default:
		panic(fmt.Sprintf("depthconv input grad: unsupported compute dtype %s", gradOutput.DType()))
	}
	return gradInput, nil
}

func inputGradBatch[T tensor.Float](gradInput, frame, depth, kernel []T, n, inC int, g geometry, alpha float64, gate Gate, cfg, inner parallel.Config) {
	rows, L := g.rows(), g.cols()
	frameSize, depthSize, outSize := g.C*g.H*g.W, g.H*g.W, inC*L

	parallel.ForBatch(n, func(elt int) {
		cols := make([]T, rows*L)
		gatedIm2col(cols, frame[elt*frameSize:(elt+1)*frameSize], depth[elt*depthSize:(elt+1)*depthSize], g, alpha, gate, inner)
		// gradInput[InC, H*W] = kernel[InC, OutC*ktH*ktW] . cols
		cpu.Gemm(false, false, inC, L, rows, 1, kernel, cols, 0, gradInput[elt*outSize:(elt+1)*outSize])
	}, cfg)
}

package depthconv

import (
	"github.com/born-ml/depthconv/internal/backend/cpu"
	"github.com/born-ml/depthconv/internal/tensor"
)

// Params holds the integer geometry of a depth-aware convolution.
type Params struct {
	KernelH, KernelW     int
	StrideH, StrideW     int
	PadH, PadW           int
	DilationH, DilationW int
}

// SquareParams builds Params with the same value on both spatial axes.
func SquareParams(kernel, stride, pad, dilation int) Params {
	return Params{
		KernelH: kernel, KernelW: kernel,
		StrideH: stride, StrideW: stride,
		PadH: pad, PadW: pad,
		DilationH: dilation, DilationW: dilation,
	}
}

// validate checks the scalar rules of CheckForward that do not involve a tensor.
func (p Params) validate() error {
	switch {
	case p.KernelH <= 0 || p.KernelW <= 0:
		return shapeError(RuleKernelSize, p.KernelH, p.KernelW)
	case p.StrideH <= 0 || p.StrideW <= 0:
		return shapeError(RuleStride, p.StrideH, p.StrideW)
	case p.DilationH <= 0 || p.DilationW <= 0:
		return shapeError(RuleDilation, p.DilationH, p.DilationW)
	case p.PadH < 0 || p.PadW < 0:
		return shapeError(RulePadding, p.PadH, p.PadW)
	}
	return nil
}

// OutputSize applies the dilated-convolution size law
//
//	out = (in + 2*pad - (dilation*(kernel-1) + 1)) / stride + 1
//
// to both spatial axes, with floor division and overflow detection.
// The result may be < 1; callers decide whether that is an error.
func (p Params) OutputSize(h, w int) (outH, outW int, err error) {
	outH, ok := outputExtent(h, p.KernelH, p.StrideH, p.PadH, p.DilationH)
	if !ok {
		return 0, 0, overflowError()
	}
	outW, ok = outputExtent(w, p.KernelW, p.StrideW, p.PadW, p.DilationW)
	if !ok {
		return 0, 0, overflowError()
	}
	return outH, outW, nil
}

// outputExtent evaluates the size law for one axis. stride must be > 0.
func outputExtent(in, kernel, stride, pad, dilation int) (int, bool) {
	twoPad, ok := tensor.MulChecked(2, pad)
	if !ok {
		return 0, false
	}
	span, ok := tensor.MulChecked(dilation, kernel-1)
	if !ok {
		return 0, false
	}
	padded, ok := tensor.AddChecked(in, twoPad)
	if !ok {
		return 0, false
	}
	numer := padded - span - 1
	// Floor division; Go truncates toward zero.
	q := numer / stride
	if numer%stride != 0 && numer < 0 {
		q--
	}
	return q + 1, true
}

// kernelExtent is the spatial reach of a dilated kernel: (k-1)*d + 1.
func kernelExtent(kernel, dilation int) int {
	return (kernel-1)*dilation + 1
}

// LegacyFullPadding is the symmetric "full convolution" padding
// ((k-1)*d + 1) / 2 with integer truncation. It equals the exact per-side padding
// only for unit-stride convolutions padded with floor(((k-1)*d)/2); the
// input-gradient engine computes exact per-side padding instead (see fullPadding).
func LegacyFullPadding(kernel, dilation int) int {
	return kernelExtent(kernel, dilation) / 2
}

// Conv returns the stride/padding/dilation part of p for the reference convolution.
func (p Params) Conv() cpu.ConvParams {
	return cpu.ConvParams{
		StrideH: p.StrideH, StrideW: p.StrideW,
		PadH: p.PadH, PadW: p.PadW,
		DilationH: p.DilationH, DilationW: p.DilationW,
	}
}

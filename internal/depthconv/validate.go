package depthconv

import (
	"github.com/born-ml/depthconv/internal/tensor"
)

// spatialAxes returns the (channel, height, width) axis indices for a rank-3 or rank-4 tensor.
func spatialAxes(rank int) (dimf, dimh, dimw int) {
	if rank == 4 {
		return 1, 2, 3
	}
	return 0, 1, 2
}

// CheckForward validates input, depth and weight against p. Checks run in a fixed
// order and the first violation is returned; nothing is allocated.
func CheckForward(input, depth, weight *tensor.RawTensor, p Params) error {
	if weight.Rank() != 4 {
		return shapeError(RuleWeightRank, weight.Rank())
	}
	if p.KernelH <= 0 || p.KernelW <= 0 {
		return shapeError(RuleKernelSize, p.KernelH, p.KernelW)
	}
	if weight.Dim(2) != p.KernelH || weight.Dim(3) != p.KernelW {
		return shapeError(RuleKernelMismatch, p.KernelH, p.KernelW, weight.Dim(2), weight.Dim(3))
	}
	if p.StrideH <= 0 || p.StrideW <= 0 {
		return shapeError(RuleStride, p.StrideH, p.StrideW)
	}
	if p.DilationH <= 0 || p.DilationW <= 0 {
		return shapeError(RuleDilation, p.DilationH, p.DilationW)
	}

	ndim := input.Rank()
	if ndim != 3 && ndim != 4 {
		return shapeError(RuleInputRank, ndim)
	}
	if p.PadH < 0 || p.PadW < 0 {
		return shapeError(RulePadding, p.PadH, p.PadW)
	}

	dimf, dimh, dimw := spatialAxes(ndim)
	nInputPlane := input.Dim(dimf)
	inputHeight := input.Dim(dimh)
	inputWidth := input.Dim(dimw)
	nOutputPlane := weight.Dim(0)

	outputHeight, outputWidth, err := p.OutputSize(inputHeight, inputWidth)
	if err != nil {
		return err
	}
	if outputHeight < 1 || outputWidth < 1 {
		return shapeError(RuleOutputSize,
			nInputPlane, inputHeight, inputWidth, nOutputPlane, outputHeight, outputWidth)
	}
	if inputHeight < p.KernelH || inputWidth < p.KernelW {
		return shapeError(RuleInputSmallerThanKernel, inputHeight, inputWidth, p.KernelH, p.KernelW)
	}
	if nInputPlane != weight.Dim(1) {
		return shapeError(RuleInputChannels, nInputPlane, weight.Dim(1))
	}

	if depth.Rank() != ndim {
		return shapeError(RuleDepthRank, depth.Rank(), ndim)
	}
	if c := depth.Dim(dimf); c != 1 {
		return shapeError(RuleDepthChannels, c)
	}
	if depth.Dim(dimh) != inputHeight || depth.Dim(dimw) != inputWidth {
		return shapeError(RuleDepthSize, inputHeight, inputWidth, depth.Dim(dimh), depth.Dim(dimw))
	}

	// Column buffer and expanded backward frames must be addressable.
	if _, ok := columnElements(nInputPlane, p.KernelH, p.KernelW, outputHeight, outputWidth); !ok {
		return overflowError()
	}
	return nil
}

// CheckBias validates bias against weight.
func CheckBias(weight, bias *tensor.RawTensor) error {
	if bias.Rank() != 1 {
		return shapeError(RuleBiasRank, bias.Rank())
	}
	if bias.Dim(0) != weight.Dim(0) {
		return shapeError(RuleBiasSize, weight.Dim(0), bias.Dim(0))
	}
	return nil
}

// CheckGradOutput validates gradOutput against the output shape implied by input,
// weight and p. CheckForward must have passed.
func CheckGradOutput(input, weight, gradOutput *tensor.RawTensor, p Params) error {
	ndim := input.Rank()
	if gradOutput.Rank() != ndim {
		return shapeError(RuleGradOutputRank, gradOutput.Rank(), ndim)
	}
	dimf, dimh, dimw := spatialAxes(ndim)

	outputHeight, outputWidth, err := p.OutputSize(input.Dim(dimh), input.Dim(dimw))
	if err != nil {
		return err
	}
	nOutputPlane := weight.Dim(0)

	if gradOutput.Dim(dimf) != nOutputPlane {
		return shapeError(RuleGradOutputPlanes, nOutputPlane, gradOutput.Dim(dimf))
	}
	if gradOutput.Dim(dimh) != outputHeight || gradOutput.Dim(dimw) != outputWidth {
		return shapeError(RuleGradOutputSize, outputHeight, outputWidth, gradOutput.Dim(dimh), gradOutput.Dim(dimw))
	}
	if ndim == 4 && gradOutput.Dim(0) != input.Dim(0) {
		return shapeError(RuleGradOutputBatch, input.Dim(0), gradOutput.Dim(0))
	}

	// The input-gradient frame is (H + ktH - 1) x (W + ktW - 1).
	ktH, ok1 := tensor.MulChecked(p.KernelH-1, p.DilationH)
	ktW, ok2 := tensor.MulChecked(p.KernelW-1, p.DilationW)
	if !ok1 || !ok2 {
		return overflowError()
	}
	frameH, ok1 := tensor.AddChecked(input.Dim(dimh), ktH)
	frameW, ok2 := tensor.AddChecked(input.Dim(dimw), ktW)
	if !ok1 || !ok2 {
		return overflowError()
	}
	if _, ok := columnElements(nOutputPlane, ktH+1, ktW+1, frameH, frameW); !ok {
		return overflowError()
	}
	return nil
}

// columnElements is C*kH*kW*outH*outW with overflow detection.
func columnElements(dims ...int) (int, bool) {
	return tensor.Shape(dims).CheckedNumElements()
}

// checkOperands rejects tensors that are not contiguous CPU floating-point tensors
// of one common dtype.
func checkOperands(names []string, operands ...*tensor.RawTensor) error {
	dtype := operands[0].DType()
	for i, t := range operands {
		name := names[i]
		if !t.IsContiguous() {
			return operandError(name, RuleNotContiguous)
		}
		if t.Device() != tensor.CPU {
			return operandError(name, RuleDevice, int(t.Device()))
		}
		if !t.DType().IsFloat() {
			return operandError(name, RuleDType, int(t.DType()))
		}
		if t.DType() != dtype {
			return operandError(name, RuleDTypeMismatch, int(t.DType()), int(dtype))
		}
	}
	return nil
}

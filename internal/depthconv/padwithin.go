package depthconv

import (
	"github.com/born-ml/depthconv/internal/tensor"
)

// PadWithin inserts factorH-1 zero rows and factorW-1 zero columns between
// adjacent samples of the two trailing axes of a rank-4 tensor. An extent e
// becomes e*f - (f-1), original samples land on multiples of f, and the leading
// axes are preserved. Factors of 1 return a copy.
//
// Example:
//
//	[1 2]               [1 0 2]
//	[3 4] (2, 2)  ->    [0 0 0]
//	                    [3 0 4]
func PadWithin(t *tensor.RawTensor, factorH, factorW int) (*tensor.RawTensor, error) {
	if t.Rank() != 4 {
		return nil, shapeError(RuleInputRank, t.Rank())
	}
	if factorH < 1 || factorW < 1 {
		return nil, shapeError(RuleStride, factorH, factorW)
	}
	if err := checkOperands([]string{"pad_within"}, t); err != nil {
		return nil, err
	}
	if factorH == 1 && factorW == 1 {
		return t.Clone()
	}

	shape := t.Shape()
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	outH, ok1 := stuffedExtent(h, factorH)
	outW, ok2 := stuffedExtent(w, factorW)
	if !ok1 || !ok2 {
		return nil, overflowError()
	}
	out, err := tensor.NewRaw(tensor.Shape{n, c, outH, outW}, t.DType(), tensor.CPU)
	if err != nil {
		return nil, err
	}

	switch t.DType() {
	case tensor.Float32:
		padWithin(out.AsFloat32(), t.AsFloat32(), n*c, h, w, factorH, factorW)
	case tensor.Float64:
		padWithin(out.AsFloat64(), t.AsFloat64(), n*c, h, w, factorH, factorW)
	case tensor.Float16:
		src, dst := t.AsFloat16(), out.AsFloat16()
		outPlane := outH * outW
		for pl := 0; pl < n*c; pl++ {
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					dst[pl*outPlane+y*factorH*outW+x*factorW] = src[(pl*h+y)*w+x]
				}
			}
		}
	default:
		return nil, operandError("pad_within", RuleDType, int(t.DType()))
	}
	return out, nil
}

// stuffedExtent is e*f - (f-1) with overflow detection.
func stuffedExtent(e, f int) (int, bool) {
	v, ok := tensor.MulChecked(e, f)
	if !ok {
		return 0, false
	}
	return v - (f - 1), true
}

func padWithin[T tensor.Float](dst, src []T, planes, h, w, fH, fW int) {
	outH, outW := h*fH-(fH-1), w*fW-(fW-1)
	for pl := 0; pl < planes; pl++ {
		s := src[pl*h*w : (pl+1)*h*w]
		d := dst[pl*outH*outW : (pl+1)*outH*outW]
		for y := 0; y < h; y++ {
			row := y * fH * outW
			for x := 0; x < w; x++ {
				d[row+x*fW] = s[y*w+x]
			}
		}
	}
}

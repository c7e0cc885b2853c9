package depthconv

import (
	"fmt"

	"github.com/born-ml/depthconv/internal/tensor"
)

// biasGrad reduces gradOutput [N, OutC, outH, outW] to [OutC], scaling every
// element by scale before summation.
func biasGrad(gradOutput *tensor.RawTensor, scale float64) (*tensor.RawTensor, error) {
	n, outC := gradOutput.Dim(0), gradOutput.Dim(1)
	plane := gradOutput.Dim(2) * gradOutput.Dim(3)

	gradBias, err := tensor.NewRaw(tensor.Shape{outC}, gradOutput.DType(), tensor.CPU)
	if err != nil {
		return nil, err
	}
	switch gradOutput.DType() {
	case tensor.Float32:
		reduceBias(gradBias.AsFloat32(), gradOutput.AsFloat32(), n, outC, plane, scale)
	case tensor.Float64:
		reduceBias(gradBias.AsFloat64(), gradOutput.AsFloat64(), n, outC, plane, scale)
	default:
		panic(fmt.Sprintf("depthconv bias grad: unsupported compute dtype %s", gradOutput.DType()))
	}
	return gradBias, nil
}

func reduceBias[T tensor.Float](gradBias, gradOutput []T, n, outC, plane int, scale float64) {
	for o := 0; o < outC; o++ {
		var sum float64
		for elt := 0; elt < n; elt++ {
			base := (elt*outC + o) * plane
			for _, v := range gradOutput[base : base+plane] {
				sum += scale * float64(v)
			}
		}
		gradBias[o] = T(sum)
	}
}

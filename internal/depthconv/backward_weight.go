package depthconv

import (
	"fmt"

	"github.com/born-ml/depthconv/internal/backend/cpu"
	"github.com/born-ml/depthconv/internal/parallel"
	"github.com/born-ml/depthconv/internal/tensor"
)

// weightGrad computes the gradient with respect to the weight,
//
//	gradWeight = sum over n of gradOutput[n] . columns(input[n], depth[n])^T
//
// where columns are the forward gated columns. Per input channel this product
// is the correlation of the input with the output gradient used as a kernel
// dilated by the forward stride and swept with the forward dilation as stride.
// Building columns with stride and dilation literally swapped would give a
// column count that differs from the output gradient's whenever they differ.
func (e *Engine) weightGrad(tr *tracer, input, depth, gradOutput, weight *tensor.RawTensor, alpha float64, p Params) (*tensor.RawTensor, error) {
	n := input.Dim(0)
	g, err := newGeometry(input.Dim(1), input.Dim(2), input.Dim(3), p)
	if err != nil {
		return nil, err
	}
	outC := weight.Dim(0)

	gradWeight, err := tensor.NewRaw(weight.Shape(), input.DType(), tensor.CPU)
	if err != nil {
		return nil, err
	}
	tr.printf("weight gradient accumulates %d partials of [%d, %d]", n, outC, g.rows())

	switch input.DType() {
	case tensor.Float32:
		weightGradBatch(gradWeight.AsFloat32(), input.AsFloat32(), depth.AsFloat32(), gradOutput.AsFloat32(), n, outC, g, alpha, e.cfg.Gate, e.cfg.Parallel, e.innerConfig(n))
	case tensor.Float64:
		weightGradBatch(gradWeight.AsFloat64(), input.AsFloat64(), depth.AsFloat64(), gradOutput.AsFloat64(), n, outC, g, alpha, e.cfg.Gate, e.cfg.Parallel, e.innerConfig(n))
	default:
		panic(fmt.Sprintf("depthconv weight grad: unsupported compute dtype %s", input.DType()))
	}
	return gradWeight, nil
}

// weightGradBatch computes one partial per batch element and reduces them in
// batch order, so the sum is the same for any worker count.
func weightGradBatch[T tensor.Float](gradWeight, input, depth, gradOutput []T, n, outC int, g geometry, alpha float64, gate Gate, cfg, inner parallel.Config) {
	rows, L := g.rows(), g.cols()
	inSize, depthSize, gradSize := g.C*g.H*g.W, g.H*g.W, outC*L
	partials := make([][]T, n)

	parallel.ForBatch(n, func(elt int) {
		cols := make([]T, rows*L)
		gatedIm2col(cols, input[elt*inSize:(elt+1)*inSize], depth[elt*depthSize:(elt+1)*depthSize], g, alpha, gate, inner)

		partial := make([]T, outC*rows)
		// partial[OutC, C*kH*kW] = gradOutput[OutC, L] . cols[C*kH*kW, L]^T
		cpu.Gemm(false, true, outC, rows, L, 1, gradOutput[elt*gradSize:(elt+1)*gradSize], cols, 0, partial)
		partials[elt] = partial
	}, cfg)

	for _, partial := range partials {
		for i, v := range partial {
			gradWeight[i] += v
		}
	}
}

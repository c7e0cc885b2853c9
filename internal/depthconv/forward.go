package depthconv

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/depthconv/internal/backend/cpu"
	"github.com/born-ml/depthconv/internal/parallel"
	"github.com/born-ml/depthconv/internal/tensor"
)

// Forward computes the depth-aware convolution of input with weight.
//
//	input  [N, C, H, W] or [C, H, W]
//	depth  [N, 1, H, W] or [1, H, W]
//	weight [OutC, C, kH, kW]
//	bias   [OutC] or nil
//	output [N, OutC, outH, outW], without N when input has no batch axis
//
// Each output element is sum(weight * gate(depth) * patch) + bias.
func (e *Engine) Forward(input, depth, weight, bias *tensor.RawTensor, alpha float64, p Params) (*tensor.RawTensor, error) {
	tr := e.newTracer("forward")
	out, err := e.forward(tr, input, depth, weight, bias, alpha, p)
	tr.done(err)
	if err != nil {
		return nil, errors.Wrap(err, "depthconv forward")
	}
	return out, nil
}

func (e *Engine) forward(tr *tracer, input, depth, weight, bias *tensor.RawTensor, alpha float64, p Params) (*tensor.RawTensor, error) {
	if err := CheckForward(input, depth, weight, p); err != nil {
		return nil, err
	}
	names := []string{"input", "input_depth", "weight"}
	operands := []*tensor.RawTensor{input, depth, weight}
	if bias != nil {
		if err := CheckBias(weight, bias); err != nil {
			return nil, err
		}
		names = append(names, "bias")
		operands = append(operands, bias)
	}
	if err := checkOperands(names, operands...); err != nil {
		return nil, err
	}

	in, dep, err := batchOperands(input, depth)
	if err != nil {
		return nil, err
	}
	dtype := input.DType()
	promoted, err := promote(in.t, dep.t, weight, bias)
	if err != nil {
		return nil, err
	}
	x, d, w, b := promoted[0], promoted[1], promoted[2], promoted[3]

	n := in.size()
	g, err := newGeometry(x.Dim(1), x.Dim(2), x.Dim(3), p)
	if err != nil {
		return nil, err
	}
	outC := w.Dim(0)
	outShape := tensor.Shape{n, outC, g.outH, g.outW}
	if _, ok := outShape.CheckedNumElements(); !ok {
		return nil, overflowError()
	}
	out, err := tensor.NewRaw(outShape, x.DType(), tensor.CPU)
	if err != nil {
		return nil, err
	}
	tr.tensor("input", x)
	tr.tensor("input_depth", d)
	tr.printf("columns [%d, %d] per batch element", g.rows(), g.cols())

	switch x.DType() {
	case tensor.Float32:
		forwardBatch(out.AsFloat32(), x.AsFloat32(), d.AsFloat32(), w.AsFloat32(), biasOf[float32](b), n, outC, g, alpha, e.cfg.Gate, e.cfg.Parallel, e.innerConfig(n))
	case tensor.Float64:
		forwardBatch(out.AsFloat64(), x.AsFloat64(), d.AsFloat64(), w.AsFloat64(), biasOf[float64](b), n, outC, g, alpha, e.cfg.Gate, e.cfg.Parallel, e.innerConfig(n))
	default:
		panic(fmt.Sprintf("depthconv forward: unsupported compute dtype %s", x.DType()))
	}
	tr.tensor("output", out)

	if out, err = demote(out, dtype); err != nil {
		return nil, err
	}
	return in.strip(out)
}

func biasOf[T tensor.Float](b *tensor.RawTensor) []T {
	if b == nil {
		return nil
	}
	return tensor.Values[T](b)
}

// forwardBatch writes out [N, OutC, outH*outW] from input [N, C, H, W] and
// depth [N, 1, H, W]. Batch elements run independently; each one owns its
// column buffer and its slice of out.
func forwardBatch[T tensor.Float](out, input, depth, weight, bias []T, n, outC int, g geometry, alpha float64, gate Gate, cfg, inner parallel.Config) {
	rows, L := g.rows(), g.cols()
	inSize, depthSize, outSize := g.C*g.H*g.W, g.H*g.W, outC*L

	// Bias broadcast to [OutC, outH*outW], the GEMM accumulator seed.
	seed := make([]T, outSize)
	if bias != nil {
		for o := 0; o < outC; o++ {
			row := seed[o*L : (o+1)*L]
			for i := range row {
				row[i] = bias[o]
			}
		}
	}

	parallel.ForBatch(n, func(elt int) {
		cols := make([]T, rows*L)
		gatedIm2col(cols, input[elt*inSize:(elt+1)*inSize], depth[elt*depthSize:(elt+1)*depthSize], g, alpha, gate, inner)

		dst := out[elt*outSize : (elt+1)*outSize]
		copy(dst, seed)
		// dst = weight[OutC, C*kH*kW] . cols + dst
		cpu.Gemm(false, false, outC, L, rows, 1, weight, cols, 1, dst)
	}, cfg)
}

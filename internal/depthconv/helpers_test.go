package depthconv

import (
	"math"
	"math/rand"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/depthconv/internal/backend/cpu"
	"github.com/born-ml/depthconv/internal/parallel"
	"github.com/born-ml/depthconv/internal/tensor"
)

func full(shape tensor.Shape, value float64) *tensor.RawTensor {
	return must.M1(tensor.Full(shape, tensor.Float64, value))
}

func randn(rng *rand.Rand, shape tensor.Shape) *tensor.RawTensor {
	return must.M1(tensor.Randn(shape, tensor.Float64, rng))
}

// uniform fills a Float64 tensor with values in [lo, hi).
func uniform(rng *rand.Rand, shape tensor.Shape, lo, hi float64) *tensor.RawTensor {
	t := must.M1(tensor.Zeros(shape, tensor.Float64))
	for i, data := 0, t.AsFloat64(); i < len(data); i++ {
		data[i] = lo + (hi-lo)*rng.Float64()
	}
	return t
}

func from32(data []float32, shape tensor.Shape) *tensor.RawTensor {
	return must.M1(tensor.FromSlice(data, shape))
}

func sequentialEngine() *Engine {
	cfg := DefaultConfig()
	cfg.Parallel = parallel.Sequential()
	return New(cfg)
}

func requireClose(t *testing.T, want, got *tensor.RawTensor, tol float64) {
	t.Helper()
	require.Equal(t, want.Shape(), got.Shape())
	w, g := want.Float64s(), got.Float64s()
	for i := range w {
		if math.Abs(w[i]-g[i]) > tol {
			require.InDeltaf(t, w[i], g[i], tol, "element %d of %v", i, want.Shape())
		}
	}
}

// geometryCase is a convolution configuration exercised against reference
// implementations.
type geometryCase struct {
	name       string
	n, c, h, w int
	outC       int
	p          Params
}

func geometryCases() []geometryCase {
	return []geometryCase{
		{"k3", 2, 2, 6, 5, 3, SquareParams(3, 1, 0, 1)},
		{"k3_pad1", 1, 3, 5, 5, 2, SquareParams(3, 1, 1, 1)},
		{"k3_stride2", 2, 2, 7, 6, 2, SquareParams(3, 2, 1, 1)},
		{"k3_dilation2", 1, 2, 8, 7, 2, SquareParams(3, 1, 2, 2)},
		{"k3_stride2_dilation2", 1, 1, 9, 9, 2, SquareParams(3, 2, 1, 2)},
		{"k5_stride3", 1, 2, 11, 10, 1, SquareParams(5, 3, 2, 1)},
		{"k2", 2, 2, 5, 4, 2, SquareParams(2, 1, 0, 1)},
		{"k4_pad1_stride2", 1, 2, 8, 9, 3, SquareParams(4, 2, 1, 1)},
		{"k2_dilation3_pad2", 1, 1, 7, 6, 2, SquareParams(2, 1, 2, 3)},
		{"large_pad", 1, 1, 4, 4, 1, SquareParams(3, 1, 3, 1)},
		{"rect", 1, 2, 7, 9, 2, Params{
			KernelH: 3, KernelW: 2,
			StrideH: 2, StrideW: 1,
			PadH: 1, PadW: 0,
			DilationH: 1, DilationW: 2,
		}},
	}
}

// operands returns random input, depth, weight and bias for c.
func (c geometryCase) operands(rng *rand.Rand) (input, depth, weight, bias *tensor.RawTensor) {
	input = randn(rng, tensor.Shape{c.n, c.c, c.h, c.w})
	depth = uniform(rng, tensor.Shape{c.n, 1, c.h, c.w}, 0, 3)
	weight = randn(rng, tensor.Shape{c.outC, c.c, c.p.KernelH, c.p.KernelW})
	bias = randn(rng, tensor.Shape{c.outC})
	return input, depth, weight, bias
}

func (c geometryCase) outSize() (int, int) {
	outH, outW, err := c.p.OutputSize(c.h, c.w)
	if err != nil {
		panic(err)
	}
	return outH, outW
}

// referenceForward is a direct loop over output pixels and taps, with the gate
// evaluated at every tap.
func referenceForward(input, depth, weight, bias *tensor.RawTensor, alpha float64, p Params, gate Gate) *tensor.RawTensor {
	n, c, h, w := input.Dim(0), input.Dim(1), input.Dim(2), input.Dim(3)
	outC := weight.Dim(0)
	outH, outW, _ := p.OutputSize(h, w)
	x, d, k := input.Float64s(), depth.Float64s(), weight.Float64s()
	var b []float64
	if bias != nil {
		b = bias.Float64s()
	}
	out := make([]float64, n*outC*outH*outW)
	g := must.M1(newGeometry(c, h, w, p))

	for elt := 0; elt < n; elt++ {
		dm := d[elt*h*w : (elt+1)*h*w]
		for o := 0; o < outC; o++ {
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					var sum float64
					if b != nil {
						sum = b[o]
					}
					cy, cx := g.centre(oy, ox)
					ref := depthAt(dm, h, w, cy, cx)
					for ci := 0; ci < c; ci++ {
						for i := 0; i < p.KernelH; i++ {
							for j := 0; j < p.KernelW; j++ {
								y := oy*p.StrideH - p.PadH + i*p.DilationH
								xx := ox*p.StrideW - p.PadW + j*p.DilationW
								if y < 0 || y >= h || xx < 0 || xx >= w {
									continue
								}
								gw := gate.Weight(dm[y*w+xx]-ref, alpha)
								sum += k[((o*c+ci)*p.KernelH+i)*p.KernelW+j] * x[((elt*c+ci)*h+y)*w+xx] * gw
							}
						}
					}
					out[((elt*outC+o)*outH+oy)*outW+ox] = sum
				}
			}
		}
	}
	return must.M1(tensor.FromSlice(out, tensor.Shape{n, outC, outH, outW}))
}

// referenceGrads differentiates referenceForward by hand: the forward pass is
// linear in both input and weight, with gate factors that depend on depth only.
func referenceGrads(input, depth, gradOutput, weight *tensor.RawTensor, alpha float64, p Params, gate Gate) (gradInput, gradWeight *tensor.RawTensor) {
	n, c, h, w := input.Dim(0), input.Dim(1), input.Dim(2), input.Dim(3)
	outC, outH, outW := gradOutput.Dim(1), gradOutput.Dim(2), gradOutput.Dim(3)
	x, d, k, gy := input.Float64s(), depth.Float64s(), weight.Float64s(), gradOutput.Float64s()
	gx := make([]float64, len(x))
	gk := make([]float64, len(k))
	g := must.M1(newGeometry(c, h, w, p))

	for elt := 0; elt < n; elt++ {
		dm := d[elt*h*w : (elt+1)*h*w]
		for o := 0; o < outC; o++ {
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					grad := gy[((elt*outC+o)*outH+oy)*outW+ox]
					cy, cx := g.centre(oy, ox)
					ref := depthAt(dm, h, w, cy, cx)
					for ci := 0; ci < c; ci++ {
						for i := 0; i < p.KernelH; i++ {
							for j := 0; j < p.KernelW; j++ {
								y := oy*p.StrideH - p.PadH + i*p.DilationH
								xx := ox*p.StrideW - p.PadW + j*p.DilationW
								if y < 0 || y >= h || xx < 0 || xx >= w {
									continue
								}
								gw := gate.Weight(dm[y*w+xx]-ref, alpha)
								ki := ((o*c+ci)*p.KernelH+i)*p.KernelW + j
								xi := ((elt*c+ci)*h+y)*w + xx
								gx[xi] += grad * k[ki] * gw
								gk[ki] += grad * x[xi] * gw
							}
						}
					}
				}
			}
		}
	}
	gradInput = must.M1(tensor.FromSlice(gx, input.Shape()))
	gradWeight = must.M1(tensor.FromSlice(gk, weight.Shape()))
	return gradInput, gradWeight
}

// plainConv runs the ungated reference convolution of the cpu backend.
func plainConv(t *testing.T, input, weight, bias *tensor.RawTensor, p Params) *tensor.RawTensor {
	t.Helper()
	out, err := cpu.New().Conv2D(input, weight, bias, p.Conv())
	require.NoError(t, err)
	return out
}

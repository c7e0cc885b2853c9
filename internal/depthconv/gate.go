package depthconv

import (
	"math"

	"github.com/born-ml/depthconv/internal/parallel"
	"github.com/born-ml/depthconv/internal/tensor"
)

// Gate is the depth-similarity law applied to every sampled tap. Weight must
// depend on delta only through |delta|, return 1 for delta == 0 and must not
// increase as |delta| grows.
type Gate interface {
	Weight(delta, alpha float64) float64
}

// ExpGate attenuates a tap by exp(-|delta| / alpha). With alpha <= 0 only taps
// at exactly the centre depth survive.
type ExpGate struct{}

// Weight implements Gate.
func (ExpGate) Weight(delta, alpha float64) float64 {
	if delta == 0 {
		return 1
	}
	if alpha <= 0 {
		return 0
	}
	return math.Exp(-math.Abs(delta) / alpha)
}

// NoGate weights every tap with 1, which turns the engine into a plain convolution.
type NoGate struct{}

// Weight implements Gate.
func (NoGate) Weight(float64, float64) float64 { return 1 }

// geometry is the fully resolved shape of one im2col call. refH and refW
// select the kernel tap whose depth every other tap is compared against.
type geometry struct {
	C, H, W    int
	p          Params
	outH, outW int
	refH, refW int
}

func newGeometry(c, h, w int, p Params) (geometry, error) {
	outH, outW, err := p.OutputSize(h, w)
	if err != nil {
		return geometry{}, err
	}
	return geometry{
		C: c, H: h, W: w, p: p,
		outH: outH, outW: outW,
		refH: (p.KernelH - 1) / 2, refW: (p.KernelW - 1) / 2,
	}, nil
}

// rows is C*kH*kW, the column height.
func (g geometry) rows() int { return g.C * g.p.KernelH * g.p.KernelW }

// cols is outH*outW, the number of output pixels.
func (g geometry) cols() int { return g.outH * g.outW }

// centre returns the reference position of output pixel (oy, ox), the tap at
// kernel index (refH, refW). By default that is (floor((kH-1)/2), floor((kW-1)/2)).
func (g geometry) centre(oy, ox int) (int, int) {
	cy := oy*g.p.StrideH - g.p.PadH + g.refH*g.p.DilationH
	cx := ox*g.p.StrideW - g.p.PadW + g.refW*g.p.DilationW
	return cy, cx
}

// depthAt reads depth at (y, x), returning 0 outside the map.
func depthAt[T tensor.Float](depth []T, h, w, y, x int) float64 {
	if y < 0 || y >= h || x < 0 || x >= w {
		return 0
	}
	return float64(depth[y*w+x])
}

// gatedIm2col fills cols [C*kH*kW, outH*outW] from feature [C, H, W] and depth
// [1, H, W]. Every element of cols is written. Output rows are processed in parallel.
func gatedIm2col[T tensor.Float](cols, feature, depth []T, g geometry, alpha float64, gate Gate, cfg parallel.Config) {
	kH, kW := g.p.KernelH, g.p.KernelW
	L := g.cols()
	plane := g.H * g.W

	parallel.For(g.outH, func(oy int) {
		taps := make([]T, kH*kW)
		for ox := 0; ox < g.outW; ox++ {
			col := oy*g.outW + ox
			cy, cx := g.centre(oy, ox)
			ref := depthAt(depth, g.H, g.W, cy, cx)

			// Gate weights depend only on the tap, not the channel.
			for i := 0; i < kH; i++ {
				y := oy*g.p.StrideH - g.p.PadH + i*g.p.DilationH
				for j := 0; j < kW; j++ {
					x := ox*g.p.StrideW - g.p.PadW + j*g.p.DilationW
					if y < 0 || y >= g.H || x < 0 || x >= g.W {
						taps[i*kW+j] = 0
						continue
					}
					taps[i*kW+j] = T(gate.Weight(float64(depth[y*g.W+x])-ref, alpha))
				}
			}

			for c := 0; c < g.C; c++ {
				src := feature[c*plane : (c+1)*plane]
				row := c * kH * kW
				for i := 0; i < kH; i++ {
					y := oy*g.p.StrideH - g.p.PadH + i*g.p.DilationH
					for j := 0; j < kW; j++ {
						idx := (row+i*kW+j)*L + col
						wt := taps[i*kW+j]
						if wt == 0 {
							cols[idx] = 0
							continue
						}
						x := ox*g.p.StrideW - g.p.PadW + j*g.p.DilationW
						cols[idx] = src[y*g.W+x] * wt
					}
				}
			}
		}
	}, cfg)
}

// GatedIm2Col builds the gated column matrix [C*kH*kW, outH*outW] of one batch
// element with gate. It runs on a default engine; use (*Engine).GatedIm2Col to
// control parallelism.
func GatedIm2Col(feature, depth *tensor.RawTensor, alpha float64, p Params, gate Gate) (*tensor.RawTensor, error) {
	if gate == nil {
		return defaultEngine.GatedIm2Col(feature, depth, alpha, p)
	}
	cfg := DefaultConfig()
	cfg.Gate = gate
	return New(cfg).GatedIm2Col(feature, depth, alpha, p)
}

// GatedIm2Col builds the gated column matrix [C*kH*kW, outH*outW] of one batch
// element with the engine's gate, fanning out over output rows as the engine's
// parallel config allows. feature is [C, H, W] and depth is [1, H, W]. Taps
// outside the feature map are zero; the reference depth of a patch outside the
// map reads as 0. Float16 operands give Float16 columns.
func (e *Engine) GatedIm2Col(feature, depth *tensor.RawTensor, alpha float64, p Params) (*tensor.RawTensor, error) {
	if feature.Rank() != 3 {
		return nil, shapeError(RuleInputRank, feature.Rank())
	}
	if depth.Rank() != 3 {
		return nil, shapeError(RuleDepthRank, depth.Rank(), 3)
	}
	if depth.Dim(0) != 1 {
		return nil, shapeError(RuleDepthChannels, depth.Dim(0))
	}
	if depth.Dim(1) != feature.Dim(1) || depth.Dim(2) != feature.Dim(2) {
		return nil, shapeError(RuleDepthSize, feature.Dim(1), feature.Dim(2), depth.Dim(1), depth.Dim(2))
	}
	if err := checkOperands([]string{"feature", "depth"}, feature, depth); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	g, err := newGeometry(feature.Dim(0), feature.Dim(1), feature.Dim(2), p)
	if err != nil {
		return nil, err
	}
	if g.outH < 1 || g.outW < 1 {
		return nil, shapeError(RuleOutputSize, g.C, g.H, g.W, g.C, g.outH, g.outW)
	}
	if _, ok := columnElements(g.rows(), g.cols()); !ok {
		return nil, overflowError()
	}

	dtype := feature.DType()
	ops, err := promote(feature, depth)
	if err != nil {
		return nil, err
	}
	feature, depth = ops[0], ops[1]

	cols, err := tensor.NewRaw(tensor.Shape{g.rows(), g.cols()}, feature.DType(), tensor.CPU)
	if err != nil {
		return nil, err
	}
	cfg := e.backend.Parallel()
	if feature.DType() == tensor.Float32 {
		gatedIm2col(cols.AsFloat32(), feature.AsFloat32(), depth.AsFloat32(), g, alpha, e.cfg.Gate, cfg)
	} else {
		gatedIm2col(cols.AsFloat64(), feature.AsFloat64(), depth.AsFloat64(), g, alpha, e.cfg.Gate, cfg)
	}
	return demote(cols, dtype)
}

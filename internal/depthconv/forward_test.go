package depthconv

import (
	"math"
	"math/rand"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/depthconv/internal/parallel"
	"github.com/born-ml/depthconv/internal/tensor"
)

func TestForward_AllOnes(t *testing.T) {
	input := must.M1(tensor.Full(tensor.Shape{1, 1, 5, 5}, tensor.Float32, 1))
	depth := must.M1(tensor.Zeros(tensor.Shape{1, 1, 5, 5}, tensor.Float32))
	weight := must.M1(tensor.Full(tensor.Shape{1, 1, 3, 3}, tensor.Float32, 1))
	bias := must.M1(tensor.Zeros(tensor.Shape{1}, tensor.Float32))

	out, err := Forward(input, depth, weight, bias, 1, SquareParams(3, 1, 0, 1))
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{1, 1, 3, 3}, out.Shape())
	assert.Equal(t, []float32{9, 9, 9, 9, 9, 9, 9, 9, 9}, out.AsFloat32())
}

func TestForward_Bias(t *testing.T) {
	input := full(tensor.Shape{2, 1, 4, 4}, 0)
	depth := full(tensor.Shape{2, 1, 4, 4}, 0)
	weight := full(tensor.Shape{3, 1, 3, 3}, 1)
	bias := must.M1(tensor.FromSlice([]float64{-1, 0, 2.5}, tensor.Shape{3}))

	out, err := Forward(input, depth, weight, bias, 1, SquareParams(3, 1, 1, 1))
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 3, 4, 4}, out.Shape())
	data := out.AsFloat64()
	for elt := 0; elt < 2; elt++ {
		for o, b := range []float64{-1, 0, 2.5} {
			for i := 0; i < 16; i++ {
				require.Equal(t, b, data[(elt*3+o)*16+i])
			}
		}
	}

	// Without bias the output is zero.
	out, err = Forward(input, depth, weight, nil, 1, SquareParams(3, 1, 1, 1))
	require.NoError(t, err)
	for _, v := range out.AsFloat64() {
		require.Zero(t, v)
	}
}

func TestForward_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	engine := sequentialEngine()
	for _, tc := range geometryCases() {
		t.Run(tc.name, func(t *testing.T) {
			input, depth, weight, bias := tc.operands(rng)
			for _, alpha := range []float64{0.5, 2} {
				out, err := engine.Forward(input, depth, weight, bias, alpha, tc.p)
				require.NoError(t, err)
				outH, outW := tc.outSize()
				require.Equal(t, tensor.Shape{tc.n, tc.outC, outH, outW}, out.Shape())
				requireClose(t, referenceForward(input, depth, weight, bias, alpha, tc.p, ExpGate{}), out, 1e-9)
			}
		})
	}
}

// A kernel that is 1 at the centre tap and 0 elsewhere passes the input
// through unchanged, whatever the depth: the centre tap is gated against itself.
func TestForward_CentreTapIsUngated(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	input := randn(rng, tensor.Shape{1, 1, 6, 5})
	depth := uniform(rng, tensor.Shape{1, 1, 6, 5}, 0, 5)
	weight := full(tensor.Shape{1, 1, 3, 3}, 0)
	weight.AsFloat64()[4] = 1
	p := SquareParams(3, 1, 1, 1)

	out, err := Forward(input, depth, weight, nil, 0.3, p)
	require.NoError(t, err)
	requireClose(t, input, out, 1e-12)
	requireClose(t, input, referenceForward(input, depth, weight, nil, 0.3, p, ExpGate{}), 1e-12)
}

func TestForward_ZeroDepthIsPlainConvolution(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for _, tc := range geometryCases() {
		t.Run(tc.name, func(t *testing.T) {
			input, _, weight, bias := tc.operands(rng)
			depth := full(tensor.Shape{tc.n, 1, tc.h, tc.w}, 0)
			out, err := Forward(input, depth, weight, bias, 1, tc.p)
			require.NoError(t, err)
			requireClose(t, plainConv(t, input, weight, bias, tc.p), out, 1e-9)
		})
	}
}

func TestForward_NoGateIsPlainConvolution(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	cfg := DefaultConfig()
	cfg.Gate = NoGate{}
	engine := New(cfg)

	tc := geometryCases()[2]
	input, depth, weight, bias := tc.operands(rng)
	out, err := engine.Forward(input, depth, weight, bias, 1, tc.p)
	require.NoError(t, err)
	requireClose(t, plainConv(t, input, weight, bias, tc.p), out, 1e-9)
}

func TestForward_UnbatchedRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	input := randn(rng, tensor.Shape{3, 6, 7})
	depth := uniform(rng, tensor.Shape{1, 6, 7}, 0, 2)
	weight := randn(rng, tensor.Shape{4, 3, 3, 3})
	bias := randn(rng, tensor.Shape{4})
	p := SquareParams(3, 2, 1, 1)

	unbatched, err := Forward(input, depth, weight, bias, 1, p)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{4, 3, 4}, unbatched.Shape())

	batched, err := Forward(
		input.MustReshape(tensor.Shape{1, 3, 6, 7}),
		depth.MustReshape(tensor.Shape{1, 1, 6, 7}),
		weight, bias, 1, p)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{1, 4, 3, 4}, batched.Shape())

	assert.Equal(t, batched.AsFloat64(), unbatched.AsFloat64())
}

func TestForward_ParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	tc := geometryCase{"batch", 5, 3, 12, 11, 4, SquareParams(3, 1, 1, 1)}
	input, depth, weight, bias := tc.operands(rng)

	want, err := sequentialEngine().Forward(input, depth, weight, bias, 1, tc.p)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Parallel = parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
	got, err := New(cfg).Forward(input, depth, weight, bias, 1, tc.p)
	require.NoError(t, err)
	assert.Equal(t, want.AsFloat64(), got.AsFloat64())
}

func TestForward_Float32(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	tc := geometryCases()[3]
	input, depth, weight, bias := tc.operands(rng)

	cast := func(r *tensor.RawTensor) *tensor.RawTensor {
		return must.M1(tensor.Cast(r, tensor.Float32))
	}
	out, err := Forward(cast(input), cast(depth), cast(weight), cast(bias), 1, tc.p)
	require.NoError(t, err)
	require.Equal(t, tensor.Float32, out.DType())
	requireClose(t, referenceForward(input, depth, weight, bias, 1, tc.p, ExpGate{}), out, 1e-4)
}

func TestForward_Float16(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	input := uniform(rng, tensor.Shape{1, 2, 5, 5}, -1, 1)
	depth := uniform(rng, tensor.Shape{1, 1, 5, 5}, 0, 1)
	weight := uniform(rng, tensor.Shape{2, 2, 3, 3}, -1, 1)
	bias := uniform(rng, tensor.Shape{2}, -1, 1)
	p := SquareParams(3, 1, 1, 1)

	half := func(r *tensor.RawTensor) *tensor.RawTensor {
		return must.M1(tensor.Cast(r, tensor.Float16))
	}
	x, d, w, b := half(input), half(depth), half(weight), half(bias)
	out, err := Forward(x, d, w, b, 1, p)
	require.NoError(t, err)
	require.Equal(t, tensor.Float16, out.DType())

	// Reference on the rounded operands, so only the output rounding and the
	// float32 accumulation differ.
	widen := func(r *tensor.RawTensor) *tensor.RawTensor {
		return must.M1(tensor.Cast(r, tensor.Float64))
	}
	want := referenceForward(widen(x), widen(d), widen(w), widen(b), 1, p, ExpGate{})
	requireClose(t, want, out, 1e-2)
}

func TestForward_ShapeMismatch(t *testing.T) {
	input := full(tensor.Shape{1, 3, 10, 10}, 1)
	depth := full(tensor.Shape{1, 1, 8, 8}, 0)
	weight := full(tensor.Shape{2, 3, 3, 3}, 1)

	_, err := Forward(input, depth, weight, nil, 1, SquareParams(3, 1, 0, 1))
	e := requireRule(t, err, InvalidShape, RuleDepthSize)
	assert.Equal(t, []int{10, 10, 8, 8}, e.Dims)
	assert.ErrorContains(t, err, "depthconv forward: InvalidShape: input image (10 x 10) and input depth (8 x 8)")
}

func TestForward_DepthBatch(t *testing.T) {
	input := full(tensor.Shape{2, 1, 5, 5}, 1)
	depth := full(tensor.Shape{3, 1, 5, 5}, 0)
	weight := full(tensor.Shape{1, 1, 3, 3}, 1)

	_, err := Forward(input, depth, weight, nil, 1, SquareParams(3, 1, 0, 1))
	e := requireRule(t, err, InvalidShape, RuleDepthBatch)
	assert.Equal(t, []int{2, 3}, e.Dims)
}

func TestForward_BiasShape(t *testing.T) {
	input := full(tensor.Shape{1, 1, 5, 5}, 1)
	depth := full(tensor.Shape{1, 1, 5, 5}, 0)
	weight := full(tensor.Shape{2, 1, 3, 3}, 1)

	_, err := Forward(input, depth, weight, full(tensor.Shape{3}, 0), 1, SquareParams(3, 1, 0, 1))
	requireRule(t, err, InvalidShape, RuleBiasSize)
}

func TestForward_InvalidOperand(t *testing.T) {
	p := SquareParams(3, 1, 0, 1)
	input := full(tensor.Shape{1, 2, 5, 5}, 1)
	depth := full(tensor.Shape{1, 1, 5, 5}, 0)
	weight := full(tensor.Shape{2, 2, 3, 3}, 1)

	t.Run("mixed dtype", func(t *testing.T) {
		w32 := must.M1(tensor.Cast(weight, tensor.Float32))
		_, err := Forward(input, depth, w32, nil, 1, p)
		e := requireRule(t, err, InvalidOperand, RuleDTypeMismatch)
		assert.Equal(t, "weight", e.Operand)
	})
	t.Run("integer dtype", func(t *testing.T) {
		i32 := func(r *tensor.RawTensor) *tensor.RawTensor {
			return must.M1(tensor.Zeros(r.Shape(), tensor.Int32))
		}
		_, err := Forward(i32(input), i32(depth), i32(weight), nil, 1, p)
		e := requireRule(t, err, InvalidOperand, RuleDType)
		assert.Equal(t, "input", e.Operand)
	})
	t.Run("not contiguous", func(t *testing.T) {
		// Swapping two axes of equal length keeps the shape valid.
		strided := input.Permute(0, 1, 3, 2)
		_, err := Forward(strided, depth, weight, nil, 1, p)
		e := requireRule(t, err, InvalidOperand, RuleNotContiguous)
		assert.Equal(t, "input", e.Operand)
	})
	t.Run("device", func(t *testing.T) {
		gpuDepth := must.M1(tensor.NewRaw(depth.Shape(), tensor.Float64, tensor.WebGPU))
		_, err := Forward(input, gpuDepth, weight, nil, 1, p)
		e := requireRule(t, err, InvalidOperand, RuleDevice)
		assert.Equal(t, "input_depth", e.Operand)
		assert.ErrorContains(t, err, "must be a CPU tensor, but is on device WebGPU")
	})
}

func TestForward_Overflow(t *testing.T) {
	input := full(tensor.Shape{1, 1, 5, 5}, 1)
	depth := full(tensor.Shape{1, 1, 5, 5}, 0)
	weight := full(tensor.Shape{1, 1, 3, 3}, 1)

	_, err := Forward(input, depth, weight, nil, 1, SquareParams(3, 1, math.MaxInt/2+1, 1))
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestForward_Trace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trace = true
	engine := New(cfg)

	input := full(tensor.Shape{1, 1, 5, 5}, 1)
	depth := full(tensor.Shape{1, 1, 5, 5}, 0)
	weight := full(tensor.Shape{1, 1, 3, 3}, 1)
	out, err := engine.Forward(input, depth, weight, nil, 1, SquareParams(3, 1, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 9, 9, 9, 9, 9, 9, 9, 9}, out.AsFloat64())
}

func TestForward_DoesNotMutateOperands(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	tc := geometryCases()[1]
	input, depth, weight, bias := tc.operands(rng)
	before := [][]float64{input.Float64s(), depth.Float64s(), weight.Float64s(), bias.Float64s()}

	_, err := Forward(input, depth, weight, bias, 1, tc.p)
	require.NoError(t, err)
	after := [][]float64{input.Float64s(), depth.Float64s(), weight.Float64s(), bias.Float64s()}
	assert.Equal(t, before, after)
}

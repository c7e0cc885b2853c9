package main

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/depthconv/backend/cpu"
	"github.com/born-ml/depthconv/depthconv"
	"github.com/born-ml/depthconv/tensor"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
)

// verifyTolerance bounds the absolute difference accepted in float64.
const verifyTolerance = 1e-9

// verifyCase is one geometry cross-checked by the verify command.
type verifyCase struct {
	name            string
	n, c, h, w, out int
	p               depthconv.Params
}

var verifyCases = []verifyCase{
	{"3x3 same", 2, 3, 8, 8, 4, depthconv.SquareParams(3, 1, 1, 1)},
	{"3x3 stride 2", 2, 2, 9, 7, 3, depthconv.SquareParams(3, 2, 1, 1)},
	{"3x3 dilation 2", 1, 2, 10, 10, 2, depthconv.SquareParams(3, 1, 2, 2)},
	{"4x4 even", 1, 2, 9, 9, 2, depthconv.SquareParams(4, 1, 1, 1)},
	{"5x3 rect", 2, 1, 11, 8, 3, depthconv.Params{
		KernelH: 5, KernelW: 3, StrideH: 2, StrideW: 1, PadH: 2, PadW: 0, DilationH: 1, DilationW: 2,
	}},
}

// crossCheck holds the largest absolute differences between the depth-aware
// engine and the plain convolution backend.
type crossCheck struct {
	output, gradInput, gradWeight float64
}

func (c crossCheck) max() float64 {
	return math.Max(c.output, math.Max(c.gradInput, c.gradWeight))
}

// runCrossCheck compares the engine with the plain convolution on random
// operands. With gate == nil the depth is constant, so every gate weight of the
// default gate is 1; otherwise the depth is random and gate must ignore it.
func runCrossCheck(vc verifyCase, gate depthconv.Gate, rng *rand.Rand) (crossCheck, error) {
	var res crossCheck
	cfg := depthconv.DefaultConfig()
	if gate != nil {
		cfg.Gate = gate
	}
	engine := depthconv.New(cfg)
	backend := cpu.NewSequential()
	p := vc.p
	conv := cpu.ConvParams{
		StrideH: p.StrideH, StrideW: p.StrideW,
		PadH: p.PadH, PadW: p.PadW,
		DilationH: p.DilationH, DilationW: p.DilationW,
	}

	input, err := tensor.Randn(tensor.Shape{vc.n, vc.c, vc.h, vc.w}, tensor.Float64, rng)
	if err != nil {
		return res, err
	}
	weight, err := tensor.Randn(tensor.Shape{vc.out, vc.c, p.KernelH, p.KernelW}, tensor.Float64, rng)
	if err != nil {
		return res, err
	}
	bias, err := tensor.Randn(tensor.Shape{vc.out}, tensor.Float64, rng)
	if err != nil {
		return res, err
	}
	var depth *tensor.RawTensor
	if gate == nil {
		depth, err = tensor.Full(tensor.Shape{vc.n, 1, vc.h, vc.w}, tensor.Float64, 1+rng.Float64())
	} else {
		depth, err = tensor.Randn(tensor.Shape{vc.n, 1, vc.h, vc.w}, tensor.Float64, rng)
	}
	if err != nil {
		return res, err
	}

	got, err := engine.Forward(input, depth, weight, bias, 1, p)
	if err != nil {
		return res, errors.WithMessage(err, vc.name)
	}
	want, err := backend.Conv2D(input, weight, bias, conv)
	if err != nil {
		return res, errors.WithMessage(err, vc.name)
	}
	res.output = maxAbsDiff(got.AsFloat64(), want.AsFloat64())

	gradOutput, err := tensor.Randn(got.Shape(), tensor.Float64, rng)
	if err != nil {
		return res, err
	}
	grads, err := engine.Backward(input, depth, gradOutput, weight, 1, p, 1)
	if err != nil {
		return res, errors.WithMessage(err, vc.name)
	}
	wantInput, err := backend.Conv2DInputBackward(input.Shape(), weight, gradOutput, conv)
	if err != nil {
		return res, errors.WithMessage(err, vc.name)
	}
	wantWeight, err := backend.Conv2DKernelBackward(input, weight, gradOutput, conv)
	if err != nil {
		return res, errors.WithMessage(err, vc.name)
	}
	res.gradInput = maxAbsDiff(grads.Input.AsFloat64(), wantInput.AsFloat64())
	res.gradWeight = maxAbsDiff(grads.Weight.AsFloat64(), wantWeight.AsFloat64())
	return res, nil
}

func maxAbsDiff(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var m float64
	for i := range a {
		m = math.Max(m, math.Abs(a[i]-b[i]))
	}
	return m
}

func runVerify(args []string) error {
	fs, configPath := newFlagSet("verify")
	seed := fs.Int64("seed", 1, "Seed for the random operands.")
	_ = fs.Parse(args)

	cfg, err := loadLayerConfig(*configPath)
	if err != nil {
		return err
	}
	cases := append([]verifyCase{{"config", 2, cfg.InChannels, 16, 16, cfg.OutChannels, cfg.params()}}, verifyCases...)

	//nolint:gosec // Operands only.
	rng := rand.New(rand.NewSource(*seed))
	fmt.Println(titleStyle.Render("Verify"))
	table := newPlainTable(true, lipgloss.Left, lipgloss.Left, lipgloss.Right)
	table.Headers("case", "depth", "output", "grad input", "grad weight")
	var failed int
	for _, vc := range cases {
		for _, mode := range []struct {
			name string
			gate depthconv.Gate
		}{
			{"constant", nil},
			{"random, no gate", depthconv.NoGate{}},
		} {
			res, err := runCrossCheck(vc, mode.gate, rng)
			if err != nil {
				return err
			}
			bad := res.max() > verifyTolerance
			if bad {
				failed++
			}
			table.RedRow(bad, vc.name, mode.name,
				fmt.Sprintf("%.2e", res.output), fmt.Sprintf("%.2e", res.gradInput), fmt.Sprintf("%.2e", res.gradWeight))
		}
	}
	fmt.Println(table.Render())
	if failed > 0 {
		return errors.Errorf("%d checks exceed tolerance %g", failed, verifyTolerance)
	}
	return nil
}

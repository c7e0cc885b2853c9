package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/born-ml/depthconv/tensor"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
)

// benchResult aggregates the timings of a bench run.
type benchResult struct {
	iters             int
	forward, backward time.Duration
	bytes             int // Operand and result bytes touched by one iteration.
}

func (r benchResult) throughput() float64 {
	total := (r.forward + r.backward).Seconds()
	if total == 0 {
		return 0
	}
	return float64(r.iters*r.bytes) / total
}

// runBenchLoop times iters forward and backward passes of the configured layer
// on random [batch, C, size, size] operands. step is called after every iteration.
func runBenchLoop(cfg layerConfig, iters, batch, size int, step func()) (benchResult, error) {
	//nolint:gosec // Operands only.
	rng := rand.New(rand.NewSource(cfg.Seed))
	layer := newLayer(cfg)
	input := must.M1(tensor.Randn(tensor.Shape{batch, cfg.InChannels, size, size}, tensor.Float32, rng))
	depth := must.M1(tensor.Randn(tensor.Shape{batch, 1, size, size}, tensor.Float32, rng))

	res := benchResult{iters: iters}
	for i := 0; i < iters; i++ {
		start := time.Now()
		out, err := layer.Forward(input, depth)
		if err != nil {
			return res, err
		}
		res.forward += time.Since(start)

		start = time.Now()
		gradInput, err := layer.Backward(out)
		if err != nil {
			return res, err
		}
		res.backward += time.Since(start)
		layer.ZeroGrad()

		res.bytes = input.ByteSize() + depth.ByteSize() + 2*out.ByteSize() + gradInput.ByteSize()
		if step != nil {
			step()
		}
	}
	return res, nil
}

func runBench(args []string) error {
	fs, configPath := newFlagSet("bench")
	iters := fs.Int("iters", 50, "Number of forward+backward iterations.")
	batch := fs.Int("batch", 4, "Batch size.")
	size := fs.Int("size", 128, "Height and width of the random operands.")
	_ = fs.Parse(args)

	cfg, err := loadLayerConfig(*configPath)
	if err != nil {
		return err
	}

	pBar := progressbar.NewOptions(*iters,
		progressbar.OptionSetDescription("Benchmarking"),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("iters"),
		progressbar.OptionSetTheme(progressbar.ThemeUnicode),
	)
	res, err := runBenchLoop(cfg, *iters, *batch, *size, func() { _ = pBar.Add(1) })
	_ = pBar.Finish()
	fmt.Println()
	if err != nil {
		return err
	}

	n := time.Duration(max(res.iters, 1))
	fmt.Println(titleStyle.Render("Bench"))
	table := newPlainTable(false, lipgloss.Right, lipgloss.Left)
	table.Row("operands", fmt.Sprintf("[%d, %d, %d, %d]", *batch, cfg.InChannels, *size, *size))
	table.Row("iterations", humanize.Comma(int64(res.iters)))
	table.Row("forward / iter", (res.forward / n).String())
	table.Row("backward / iter", (res.backward / n).String())
	table.Row("bytes / iter", humanize.Bytes(uint64(res.bytes)))
	table.Row("throughput", humanize.Bytes(uint64(res.throughput()))+"/s")
	fmt.Println(table.Render())
	return nil
}

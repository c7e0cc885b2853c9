package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/born-ml/depthconv/depthconv"
	"github.com/born-ml/depthconv/nn"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func runForward(args []string) error {
	fs, configPath := newFlagSet("forward")
	imagePath := fs.String("image", "", "RGB input image.")
	disparityPath := fs.String("disparity", "", "Disparity map aligned with -image.")
	width := fs.Int("width", 0, "Resize the inputs to this width. 0 keeps the image size.")
	height := fs.Int("height", 0, "Resize the inputs to this height. 0 keeps the image size.")
	outPath := fs.String("out", "", "Write the first output channel to this PNG.")
	_ = fs.Parse(args)

	if *imagePath == "" || *disparityPath == "" {
		return errors.New("both -image and -disparity are required")
	}
	cfg, err := loadLayerConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg.InChannels != 3 {
		return errors.Errorf("forward reads RGB images, the layer must have in_channels 3, got %d", cfg.InChannels)
	}

	img, err := loadImage(*imagePath, *width, *height)
	if err != nil {
		return err
	}
	depth, err := loadDisparity(*disparityPath, img.Dim(2), img.Dim(1))
	if err != nil {
		return err
	}
	klog.V(1).Infof("loaded image %v and depth %v", img.Shape(), depth.Shape())

	layer := newLayer(cfg)
	start := time.Now()
	out, err := layer.Forward(img, depth)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Println(titleStyle.Render("Forward"))
	table := newPlainTable(false, lipgloss.Right, lipgloss.Left)
	table.Row("layer", layer.String())
	table.Row("input", fmt.Sprintf("%v (%s)", img.Shape(), humanize.Bytes(uint64(img.ByteSize()))))
	table.Row("depth", fmt.Sprintf("%v (%s)", depth.Shape(), humanize.Bytes(uint64(depth.ByteSize()))))
	table.Row("output", fmt.Sprintf("%v (%s)", out.Shape(), humanize.Bytes(uint64(out.ByteSize()))))
	table.Row("time", elapsed.String())
	fmt.Println(table.Render())

	if *outPath != "" {
		if err := saveChannel(*outPath, out, 0); err != nil {
			return err
		}
		klog.Infof("wrote %s", *outPath)
	}
	return nil
}

func newLayer(cfg layerConfig) *nn.DepthConv2D {
	p := cfg.params()
	opts := []nn.Option{
		nn.WithStride(p.StrideH, p.StrideW),
		nn.WithPadding(p.PadH, p.PadW),
		nn.WithDilation(p.DilationH, p.DilationW),
		nn.WithAlpha(cfg.Alpha),
		nn.WithEngine(depthconv.New(cfg.Engine)),
		//nolint:gosec // Deterministic weights for reproducible runs.
		nn.WithRand(rand.New(rand.NewSource(cfg.Seed))),
	}
	if !cfg.Bias {
		opts = append(opts, nn.WithoutBias())
	}
	return nn.NewDepthConv2D(cfg.InChannels, cfg.OutChannels, p.KernelH, p.KernelW, opts...)
}

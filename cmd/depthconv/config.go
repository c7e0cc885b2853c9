package main

import (
	"os"

	"github.com/born-ml/depthconv/depthconv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// layerConfig is the YAML description of a single depth-aware convolution layer.
//
//	in_channels: 3
//	out_channels: 16
//	kernel: [3, 3]
//	stride: [1, 1]
//	padding: [1, 1]
//	dilation: [1, 1]
//	alpha: 8
//	seed: 42
//	engine:
//	  trace: false
//	  parallel:
//	    enabled: true
//	    workers: 8
//	    min_chunk_size: 8
type layerConfig struct {
	InChannels  int              `yaml:"in_channels"`
	OutChannels int              `yaml:"out_channels"`
	Kernel      [2]int           `yaml:"kernel"`
	Stride      [2]int           `yaml:"stride"`
	Padding     [2]int           `yaml:"padding"`
	Dilation    [2]int           `yaml:"dilation"`
	Alpha       float64          `yaml:"alpha"`
	Bias        bool             `yaml:"bias"`
	Seed        int64            `yaml:"seed"`
	Engine      depthconv.Config `yaml:"engine"`
}

func defaultLayerConfig() layerConfig {
	return layerConfig{
		InChannels:  3,
		OutChannels: 8,
		Kernel:      [2]int{3, 3},
		Stride:      [2]int{1, 1},
		Padding:     [2]int{1, 1},
		Dilation:    [2]int{1, 1},
		Alpha:       8,
		Bias:        true,
		Seed:        42,
		Engine:      depthconv.DefaultConfig(),
	}
}

// loadLayerConfig reads path over the defaults. An empty path returns the defaults.
func loadLayerConfig(path string) (layerConfig, error) {
	cfg := defaultLayerConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading layer config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing layer config %q", path)
	}
	if cfg.InChannels <= 0 || cfg.OutChannels <= 0 {
		return cfg, errors.Errorf("layer config %q: channels must be positive, got in=%d out=%d",
			path, cfg.InChannels, cfg.OutChannels)
	}
	return cfg, nil
}

func (c layerConfig) params() depthconv.Params {
	return depthconv.Params{
		KernelH: c.Kernel[0], KernelW: c.Kernel[1],
		StrideH: c.Stride[0], StrideW: c.Stride[1],
		PadH: c.Padding[0], PadW: c.Padding[1],
		DilationH: c.Dilation[0], DilationW: c.Dilation[1],
	}
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/depthconv/internal/backend/cpu"
	"github.com/born-ml/depthconv/internal/parallel"
)

// Backend represents the CPU backend implementation.
//
// Backend provides the ungated convolution kernels and their gradients. They
// serve as the reference a depth-aware convolution reduces to under NoGate.
type Backend = internalcpu.CPUBackend

// ConvParams holds the geometry of a plain 2D convolution.
type ConvParams = internalcpu.ConvParams

// Padding2D is the per-side zero padding applied by Backend.Pad2D. Negative
// values crop.
type Padding2D = internalcpu.Padding2D

// New creates a new CPU backend using all available CPUs.
//
// Example:
//
//	import (
//	    "github.com/born-ml/depthconv/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    out, err := backend.Conv2D(input, kernel, nil, cpu.ConvParams{...})
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewSequential creates a CPU backend that never fans out to goroutines.
func NewSequential() *Backend {
	return internalcpu.NewWithConfig(parallel.Config{Enabled: false})
}

// OutputSize returns the output extent of a convolution along one axis.
func OutputSize(in, kernel, stride, pad, dilation int) int {
	return internalcpu.OutputSize(in, kernel, stride, pad, dilation)
}

// Package cpu implements the CPU numeric kernels behind the depth-aware convolution
// engine: GEMM over gonum BLAS, spatial padding and layout transforms, and a direct
// (ungated) reference convolution.
package cpu

import (
	"github.com/born-ml/depthconv/internal/parallel"
	"github.com/born-ml/depthconv/internal/tensor"
)

// CPUBackend runs kernels on the host CPU.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend with the default parallel configuration.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend that fans work out according to cfg.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Parallel returns the fan-out configuration.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.parallel
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/depthconv/internal/tensor"
)

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Type-safe data access via AsFloat32(), AsFloat64(), AsFloat16()
//   - Views via Select(), Reshape(), Permute()
type RawTensor = tensor.RawTensor

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// DataType is the runtime element type of a tensor.
type DataType = tensor.DataType

// Device identifies where a tensor's data lives.
type Device = tensor.Device

// Float is the set of Go element types tensors can be built from.
type Float = tensor.Float

// Data types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Float16 = tensor.Float16
	Int32   = tensor.Int32
	Int64   = tensor.Int64
	Uint8   = tensor.Uint8
)

// Devices.
const (
	CPU    = tensor.CPU
	CUDA   = tensor.CUDA
	Metal  = tensor.Metal
	WebGPU = tensor.WebGPU
)

// NewRaw creates a zero-filled tensor on device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Zeros creates a zero-filled CPU tensor.
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.Zeros(shape, dtype)
}

// Full creates a CPU tensor filled with value.
func Full(shape Shape, dtype DataType, value float64) (*RawTensor, error) {
	return tensor.Full(shape, dtype, value)
}

// FromSlice creates a CPU tensor holding a copy of data.
func FromSlice[T Float](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// Randn creates a CPU tensor of standard normal samples drawn from rng.
func Randn(shape Shape, dtype DataType, rng *rand.Rand) (*RawTensor, error) {
	return tensor.Randn(shape, dtype, rng)
}

// Cast converts r to dtype, returning a new tensor.
func Cast(r *RawTensor, dtype DataType) (*RawTensor, error) {
	return tensor.Cast(r, dtype)
}

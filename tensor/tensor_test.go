// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"math/rand"
	"testing"

	"github.com/born-ml/depthconv/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRawTensorAPI verifies RawTensor type alias exposes expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	assert.True(t, raw.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, tensor.Float32, raw.DType())
	assert.Equal(t, tensor.CPU, raw.Device())
	assert.Equal(t, 6, raw.NumElements())
	assert.Equal(t, 6*4, raw.ByteSize())
	assert.Len(t, raw.Data(), 6*4)
	assert.Len(t, raw.AsFloat32(), 6)
	assert.True(t, raw.IsContiguous())

	clone, err := raw.Clone()
	require.NoError(t, err)
	clone.AsFloat32()[0] = 1
	assert.Zero(t, raw.AsFloat32()[0], "Clone must not share storage")
}

// TestTensorCreationFunctions verifies the constructors.
func TestTensorCreationFunctions(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tests := []struct {
		name string
		fn   func() (*tensor.RawTensor, error)
		want tensor.DataType
	}{
		{"Zeros", func() (*tensor.RawTensor, error) { return tensor.Zeros(tensor.Shape{2, 3}, tensor.Float64) }, tensor.Float64},
		{"Full", func() (*tensor.RawTensor, error) { return tensor.Full(tensor.Shape{2, 3}, tensor.Float16, 3.5) }, tensor.Float16},
		{"Randn", func() (*tensor.RawTensor, error) { return tensor.Randn(tensor.Shape{2, 3}, tensor.Float32, rng) }, tensor.Float32},
		{"FromSlice", func() (*tensor.RawTensor, error) {
			return tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
		}, tensor.Float32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.fn()
			require.NoError(t, err)
			assert.True(t, result.Shape().Equal(tensor.Shape{2, 3}))
			assert.Equal(t, tt.want, result.DType())
		})
	}

	_, err := tensor.FromSlice([]float64{1, 2}, tensor.Shape{2, 3})
	assert.Error(t, err)
}

// TestCast verifies conversion through float16 keeps representable values.
func TestCast(t *testing.T) {
	src, err := tensor.FromSlice([]float32{0.5, -2, 1024}, tensor.Shape{3})
	require.NoError(t, err)

	half, err := tensor.Cast(src, tensor.Float16)
	require.NoError(t, err)
	back, err := tensor.Cast(half, tensor.Float64)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -2, 1024}, back.AsFloat64())
}

// TestDeviceConstants verifies all device constants are accessible.
func TestDeviceConstants(t *testing.T) {
	for _, d := range []tensor.Device{tensor.CPU, tensor.CUDA, tensor.Metal, tensor.WebGPU} {
		assert.NotEqual(t, "Unknown", d.String())
	}
}

// TestDataTypeConstants verifies all data type constants are accessible.
func TestDataTypeConstants(t *testing.T) {
	dtypes := []tensor.DataType{tensor.Float32, tensor.Float64, tensor.Float16, tensor.Int32, tensor.Int64, tensor.Uint8}
	for _, dt := range dtypes {
		t.Run(dt.String(), func(t *testing.T) {
			assert.NotEqual(t, "unknown", dt.String())
			assert.Positive(t, dt.Size())
		})
	}
}

// TestShapeAPI verifies Shape type alias exposes expected API.
func TestShapeAPI(t *testing.T) {
	shape := tensor.Shape{2, 3, 4}
	assert.Equal(t, 24, shape.NumElements())
	assert.True(t, shape.Equal(tensor.Shape{2, 3, 4}))

	clone := shape.Clone()
	clone[0] = 999
	assert.Equal(t, 2, shape[0], "Clone() didn't create independent copy")
}

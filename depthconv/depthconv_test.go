// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package depthconv_test

import (
	"errors"
	"testing"

	"github.com/born-ml/depthconv/depthconv"
	"github.com/born-ml/depthconv/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ones(t *testing.T, shape ...int) *tensor.RawTensor {
	r, err := tensor.Full(tensor.Shape(shape), tensor.Float32, 1)
	require.NoError(t, err)
	return r
}

func TestForwardBackward(t *testing.T) {
	p := depthconv.SquareParams(3, 1, 1, 1)
	input, depth, weight := ones(t, 1, 1, 4, 4), ones(t, 1, 1, 4, 4), ones(t, 2, 1, 3, 3)

	out, err := depthconv.Forward(input, depth, weight, nil, 1, p)
	require.NoError(t, err)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 2, 4, 4}))
	// Interior pixels see all 9 taps at equal depth; corners see 4.
	assert.InDelta(t, 9, out.AsFloat32()[5], 1e-6)
	assert.InDelta(t, 4, out.AsFloat32()[0], 1e-6)

	grads, err := depthconv.Backward(input, depth, ones(t, 1, 2, 4, 4), weight, 1, p, 0.5)
	require.NoError(t, err)
	assert.True(t, grads.Input.Shape().Equal(input.Shape()))
	assert.True(t, grads.Weight.Shape().Equal(weight.Shape()))
	assert.Equal(t, []float32{8, 8}, grads.Bias.AsFloat32())
}

func TestEngineNoGate(t *testing.T) {
	cfg := depthconv.DefaultConfig()
	cfg.Gate = depthconv.NoGate{}
	engine := depthconv.New(cfg)

	depth, err := tensor.FromSlice([]float32{0, 5, 0, 5}, tensor.Shape{1, 1, 2, 2})
	require.NoError(t, err)
	out, err := engine.Forward(ones(t, 1, 1, 2, 2), depth, ones(t, 1, 1, 2, 2), nil, 1, depthconv.SquareParams(2, 1, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, []float32{4}, out.AsFloat32())
}

func TestErrors(t *testing.T) {
	p := depthconv.SquareParams(3, 1, 1, 1)
	_, err := depthconv.Forward(ones(t, 1, 1, 4, 4), ones(t, 1, 1, 5, 5), ones(t, 1, 1, 3, 3), nil, 1, p)
	require.Error(t, err)
	assert.ErrorIs(t, err, depthconv.ErrInvalidShape)

	var derr *depthconv.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, depthconv.RuleDepthSize, derr.Rule)
	assert.Equal(t, depthconv.InvalidShape, derr.Kind)

	err = depthconv.CheckForward(ones(t, 1, 1, 4, 4), ones(t, 1, 1, 4, 4), ones(t, 1, 1, 3, 3), depthconv.SquareParams(3, 0, 1, 1))
	assert.ErrorIs(t, err, depthconv.ErrInvalidShape)
}

func TestPadWithinAndIm2Col(t *testing.T) {
	stuffed, err := depthconv.PadWithin(ones(t, 1, 1, 2, 2), 2, 3)
	require.NoError(t, err)
	assert.True(t, stuffed.Shape().Equal(tensor.Shape{1, 1, 3, 4}))

	cols, err := depthconv.GatedIm2Col(ones(t, 2, 3, 3), ones(t, 1, 3, 3), 1, depthconv.SquareParams(3, 1, 0, 1), depthconv.ExpGate{})
	require.NoError(t, err)
	assert.True(t, cols.Shape().Equal(tensor.Shape{18, 1}))

	assert.Equal(t, 1, depthconv.LegacyFullPadding(3, 1))
}

package nn

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/born-ml/depthconv/internal/depthconv"
	"github.com/born-ml/depthconv/internal/tensor"
)

// ErrNoForward is returned by Backward when no forward pass has been recorded.
var ErrNoForward = errors.New("depthconv2d: backward called before forward")

// DepthConv2D is a depth-aware 2D convolutional layer.
//
// Performs: output = DepthConv(input, depth, weight) + bias
//
// Input shape:  [batch, in_channels, height, width]
// Depth shape:  [batch, 1, height, width]
// Weight shape: [out_channels, in_channels, kernel_h, kernel_w]
// Bias shape:   [out_channels]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Where:
//
//	out_h = (height + 2*pad_h - (dilation_h*(kernel_h-1) + 1)) / stride_h + 1
//	out_w = (width + 2*pad_w - (dilation_w*(kernel_w-1) + 1)) / stride_w + 1
//
// Example:
//
//	// 3 -> 64 channels, 3x3 kernel, "same" padding
//	conv := nn.NewDepthConv2D(3, 64, 3, 3, nn.WithPadding(1, 1))
//
//	output, err := conv.Forward(image, depth) // [N, 64, H, W]
//	gradInput, err := conv.Backward(gradOutput)
type DepthConv2D struct {
	inChannels  int
	outChannels int
	params      depthconv.Params
	alpha       float64
	useBias     bool

	weight *Parameter // [out_channels, in_channels, kernel_h, kernel_w]
	bias   *Parameter // [out_channels] or nil

	engine *depthconv.Engine
	rng    *rand.Rand

	// Operands of the last forward pass, consumed by Backward.
	input, depth *tensor.RawTensor
}

// Option configures a DepthConv2D.
type Option func(*DepthConv2D)

// WithStride sets the stride.
func WithStride(h, w int) Option {
	return func(c *DepthConv2D) { c.params.StrideH, c.params.StrideW = h, w }
}

// WithPadding sets the zero padding.
func WithPadding(h, w int) Option {
	return func(c *DepthConv2D) { c.params.PadH, c.params.PadW = h, w }
}

// WithDilation sets the dilation.
func WithDilation(h, w int) Option {
	return func(c *DepthConv2D) { c.params.DilationH, c.params.DilationW = h, w }
}

// WithAlpha sets the depth-gating scale. The default is 1.
func WithAlpha(alpha float64) Option {
	return func(c *DepthConv2D) { c.alpha = alpha }
}

// WithoutBias drops the bias term.
func WithoutBias() Option {
	return func(c *DepthConv2D) { c.useBias = false }
}

// WithEngine runs the layer on engine instead of the default one.
func WithEngine(engine *depthconv.Engine) Option {
	return func(c *DepthConv2D) { c.engine = engine }
}

// WithRand draws the initial weights from rng.
func WithRand(rng *rand.Rand) Option {
	return func(c *DepthConv2D) { c.rng = rng }
}

// NewDepthConv2D creates a new depth-aware convolutional layer with Xavier
// initialization. Stride and dilation default to 1, padding to 0.
//
// Initialization:
//   - Weights: Xavier/Glorot uniform initialization
//   - Bias: Zeros
func NewDepthConv2D(inChannels, outChannels, kernelH, kernelW int, opts ...Option) *DepthConv2D {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("depthconv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernelH <= 0 || kernelW <= 0 {
		panic(fmt.Sprintf("depthconv2d: invalid kernel size h=%d, w=%d", kernelH, kernelW))
	}

	c := &DepthConv2D{
		inChannels:  inChannels,
		outChannels: outChannels,
		params: depthconv.Params{
			KernelH: kernelH, KernelW: kernelW,
			StrideH: 1, StrideW: 1,
			DilationH: 1, DilationW: 1,
		},
		alpha:   1,
		useBias: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	p := c.params
	if p.StrideH <= 0 || p.StrideW <= 0 {
		panic(fmt.Sprintf("depthconv2d: invalid stride %dx%d", p.StrideH, p.StrideW))
	}
	if p.PadH < 0 || p.PadW < 0 {
		panic(fmt.Sprintf("depthconv2d: invalid padding %dx%d", p.PadH, p.PadW))
	}
	if p.DilationH <= 0 || p.DilationW <= 0 {
		panic(fmt.Sprintf("depthconv2d: invalid dilation %dx%d", p.DilationH, p.DilationW))
	}
	if c.engine == nil {
		c.engine = depthconv.New(depthconv.DefaultConfig())
	}
	if c.rng == nil {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	// For a convolution:
	//   fan_in = in_channels * kernel_h * kernel_w
	//   fan_out = out_channels * kernel_h * kernel_w
	fanIn := inChannels * kernelH * kernelW
	fanOut := outChannels * kernelH * kernelW
	weightShape := tensor.Shape{outChannels, inChannels, kernelH, kernelW}
	c.weight = NewParameter("depthconv2d.weight", Xavier(fanIn, fanOut, weightShape, c.rng))
	if c.useBias {
		c.bias = NewParameter("depthconv2d.bias", Zeros(tensor.Shape{outChannels}))
	}
	return c
}

// Forward performs the forward pass and records input and depth for Backward.
//
// Input: [batch, in_channels, height, width] or [in_channels, height, width]
// Output: [batch, out_channels, out_h, out_w], without batch for unbatched input.
func (c *DepthConv2D) Forward(input, depth *tensor.RawTensor) (*tensor.RawTensor, error) {
	var bias *tensor.RawTensor
	if c.useBias {
		bias = c.bias.Tensor()
	}
	out, err := c.engine.Forward(input, depth, c.weight.Tensor(), bias, c.alpha, c.params)
	if err != nil {
		return nil, err
	}
	c.input, c.depth = input, depth
	return out, nil
}

// Backward propagates gradOutput through the last forward pass. Weight and bias
// gradients are accumulated into the parameters; the input gradient is returned.
func (c *DepthConv2D) Backward(gradOutput *tensor.RawTensor) (*tensor.RawTensor, error) {
	if c.input == nil {
		return nil, ErrNoForward
	}
	grads, err := c.engine.Backward(c.input, c.depth, gradOutput, c.weight.Tensor(), c.alpha, c.params, 1)
	if err != nil {
		return nil, err
	}
	if err := c.weight.AccumulateGrad(grads.Weight); err != nil {
		return nil, err
	}
	if c.useBias {
		if err := c.bias.AccumulateGrad(grads.Bias); err != nil {
			return nil, err
		}
	}
	return grads.Input, nil
}

// Parameters returns all trainable parameters.
func (c *DepthConv2D) Parameters() []*Parameter {
	if c.useBias {
		return []*Parameter{c.weight, c.bias}
	}
	return []*Parameter{c.weight}
}

// ZeroGrad clears the gradients of all parameters.
func (c *DepthConv2D) ZeroGrad() {
	for _, p := range c.Parameters() {
		p.ZeroGrad()
	}
}

// String returns a string representation of the layer.
func (c *DepthConv2D) String() string {
	p := c.params
	return fmt.Sprintf("DepthConv2D(in_channels=%d, out_channels=%d, kernel_size=(%d, %d), stride=(%d, %d), padding=(%d, %d), dilation=(%d, %d), alpha=%g, bias=%v)",
		c.inChannels, c.outChannels,
		p.KernelH, p.KernelW,
		p.StrideH, p.StrideW,
		p.PadH, p.PadW,
		p.DilationH, p.DilationW,
		c.alpha, c.useBias)
}

// OutChannels returns the number of output channels.
func (c *DepthConv2D) OutChannels() int {
	return c.outChannels
}

// InChannels returns the number of input channels.
func (c *DepthConv2D) InChannels() int {
	return c.inChannels
}

// Params returns the convolution geometry.
func (c *DepthConv2D) Params() depthconv.Params {
	return c.params
}

// Alpha returns the depth-gating scale.
func (c *DepthConv2D) Alpha() float64 {
	return c.alpha
}

// ComputeOutputSize computes output spatial dimensions for given input size.
//
// Returns: [out_height, out_width].
func (c *DepthConv2D) ComputeOutputSize(inputH, inputW int) ([2]int, error) {
	outH, outW, err := c.params.OutputSize(inputH, inputW)
	if err != nil {
		return [2]int{}, err
	}
	return [2]int{outH, outW}, nil
}

package tensor

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/x448/float16"
)

// Zeros creates a zero-filled tensor on the CPU.
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	return NewRaw(shape, dtype, CPU)
}

// Full creates a CPU tensor filled with value.
//
// Example:
//
//	depth, _ := tensor.Full(tensor.Shape{1, 1, 5, 5}, tensor.Float32, 0)
func Full(shape Shape, dtype DataType, value float64) (*RawTensor, error) {
	t, err := NewRaw(shape, dtype, CPU)
	if err != nil {
		return nil, err
	}
	t.Fill(value)
	return t, nil
}

// Fill sets every element of a contiguous floating-point tensor to value.
func (r *RawTensor) Fill(value float64) {
	switch r.dtype {
	case Float32:
		data := r.AsFloat32()
		for i := range data {
			data[i] = float32(value)
		}
	case Float64:
		data := r.AsFloat64()
		for i := range data {
			data[i] = value
		}
	case Float16:
		h := float16.Fromfloat32(float32(value))
		data := r.AsFloat16()
		for i := range data {
			data[i] = h
		}
	default:
		panic(fmt.Sprintf("fill: unsupported dtype %s", r.dtype))
	}
}

// FromSlice creates a CPU tensor from a Go slice. The slice is copied.
func FromSlice[T Float](data []T, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := NewRaw(shape, dataTypeOf[T](), CPU)
	if err != nil {
		return nil, err
	}
	copy(Values[T](t), data)
	return t, nil
}

// Randn creates a CPU tensor with values drawn from a normal distribution (mean=0, std=1).
// Uses Box-Muller transform for generating normal distribution.
// Note: Uses math/rand (not crypto/rand) - appropriate for ML/statistical purposes.
func Randn(shape Shape, dtype DataType, rng *rand.Rand) (*RawTensor, error) {
	t, err := NewRaw(shape, dtype, CPU)
	if err != nil {
		return nil, err
	}
	n := t.NumElements()
	values := make([]float64, n)
	for i := 0; i < n; i += 2 {
		u1 := 1 - rng.Float64() // (0, 1]
		u2 := rng.Float64()
		r := math.Sqrt(-2 * math.Log(u1))
		values[i] = r * math.Cos(2*math.Pi*u2)
		if i+1 < n {
			values[i+1] = r * math.Sin(2*math.Pi*u2)
		}
	}
	t.setFloat64s(values)
	return t, nil
}

// Float64s returns a copy of the elements of a floating-point tensor as float64.
func (r *RawTensor) Float64s() []float64 {
	c, err := r.Contiguous()
	if err != nil {
		panic(err.Error())
	}
	out := make([]float64, c.NumElements())
	switch c.dtype {
	case Float32:
		for i, v := range c.AsFloat32() {
			out[i] = float64(v)
		}
	case Float64:
		copy(out, c.AsFloat64())
	case Float16:
		for i, v := range c.AsFloat16() {
			out[i] = float64(v.Float32())
		}
	default:
		panic(fmt.Sprintf("float64s: unsupported dtype %s", c.dtype))
	}
	return out
}

func (r *RawTensor) setFloat64s(values []float64) {
	switch r.dtype {
	case Float32:
		data := r.AsFloat32()
		for i, v := range values {
			data[i] = float32(v)
		}
	case Float64:
		copy(r.AsFloat64(), values)
	case Float16:
		data := r.AsFloat16()
		for i, v := range values {
			data[i] = float16.Fromfloat32(float32(v))
		}
	default:
		panic(fmt.Sprintf("set: unsupported dtype %s", r.dtype))
	}
}

// Cast converts a floating-point tensor to another floating-point dtype.
// Casting to the tensor's own dtype returns a copy.
func Cast(r *RawTensor, dtype DataType) (*RawTensor, error) {
	if !r.dtype.IsFloat() || !dtype.IsFloat() {
		return nil, fmt.Errorf("cast: %s -> %s not supported", r.dtype, dtype)
	}
	if r.dtype == dtype {
		return r.Clone()
	}
	out, err := NewRaw(r.shape, dtype, r.device)
	if err != nil {
		return nil, err
	}
	src, err := r.Contiguous()
	if err != nil {
		return nil, err
	}

	// float16 <-> float32 goes through the bit-exact conversion routines.
	switch {
	case src.dtype == Float16 && dtype == Float32:
		dst := out.AsFloat32()
		for i, v := range src.AsFloat16() {
			dst[i] = v.Float32()
		}
	case src.dtype == Float32 && dtype == Float16:
		dst := out.AsFloat16()
		for i, v := range src.AsFloat32() {
			dst[i] = float16.Fromfloat32(v)
		}
	default:
		out.setFloat64s(src.Float64s())
	}
	return out, nil
}

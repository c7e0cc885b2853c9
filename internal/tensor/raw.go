package tensor

import (
	"fmt"
	"unsafe"

	"github.com/x448/float16"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// RawTensor is a dense row-major tensor.
//
// Views created by Select and Reshape share the underlying buffer with the
// tensor they were taken from. Permute produces a strided view that is not
// contiguous; numeric kernels only accept contiguous tensors.
type RawTensor struct {
	data       []byte   // Shared backing buffer
	shape      Shape    // Tensor dimensions
	stride     []int    // Element strides
	dtype      DataType // Runtime type information
	device     Device   // Compute device
	offset     int      // Byte offset of the first element
	contiguous bool
}

// NewRaw creates a new zero-filled RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	numElements, ok := shape.CheckedNumElements()
	if !ok {
		return nil, fmt.Errorf("invalid shape: %v overflows element count", shape)
	}
	byteSize, ok := MulChecked(numElements, dtype.Size())
	if !ok {
		return nil, fmt.Errorf("invalid shape: %v overflows byte size for %s", shape, dtype)
	}

	return &RawTensor{
		data:       make([]byte, byteSize),
		shape:      shape.Clone(),
		stride:     shape.ComputeStrides(),
		dtype:      dtype,
		device:     device,
		contiguous: true,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Rank returns the number of dimensions.
func (r *RawTensor) Rank() int {
	return len(r.shape)
}

// Dim returns the size of the given axis.
func (r *RawTensor) Dim(axis int) int {
	return r.shape[axis]
}

// Strides returns the tensor's element strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// IsContiguous reports whether elements are laid out densely in row-major order.
func (r *RawTensor) IsContiguous() bool {
	return r.contiguous
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw bytes of a contiguous tensor.
func (r *RawTensor) Data() []byte {
	return r.data[r.offset : r.offset+r.ByteSize()]
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32 or the tensor is not contiguous.
func (r *RawTensor) AsFloat32() []float32 {
	r.mustAccess(Float32)
	data := r.Data()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64 or the tensor is not contiguous.
func (r *RawTensor) AsFloat64() []float64 {
	r.mustAccess(Float64)
	data := r.Data()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat16 interprets the data as []float16.Float16.
// Panics if the tensor's dtype is not Float16 or the tensor is not contiguous.
func (r *RawTensor) AsFloat16() []float16.Float16 {
	r.mustAccess(Float16)
	data := r.Data()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float16.Float16)(unsafe.Pointer(&data[0])), r.NumElements())
}

func (r *RawTensor) mustAccess(dtype DataType) {
	if r.dtype != dtype {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, dtype))
	}
	if !r.contiguous {
		panic(fmt.Sprintf("tensor %v is not contiguous", r.shape))
	}
}

// Values returns the elements of a contiguous Float32 or Float64 tensor as []T.
func Values[T Float](r *RawTensor) []T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(r.AsFloat32()).([]T)
	default:
		return any(r.AsFloat64()).([]T)
	}
}

// Select returns a view of index i along axis 0, with that axis removed.
func (r *RawTensor) Select(i int) *RawTensor {
	if len(r.shape) < 2 {
		panic(fmt.Sprintf("select: need at least 2D tensor, got %dD", len(r.shape)))
	}
	if i < 0 || i >= r.shape[0] {
		panic(fmt.Sprintf("select: index %d out of range [0, %d)", i, r.shape[0]))
	}
	return &RawTensor{
		data:       r.data,
		shape:      r.shape[1:].Clone(),
		stride:     append([]int(nil), r.stride[1:]...),
		dtype:      r.dtype,
		device:     r.device,
		offset:     r.offset + i*r.stride[0]*r.dtype.Size(),
		contiguous: r.contiguous,
	}
}

// Reshape returns a view with a different shape and the same elements.
func (r *RawTensor) Reshape(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	if !r.contiguous {
		return nil, fmt.Errorf("reshape: tensor %v is not contiguous", r.shape)
	}
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("reshape: incompatible shapes: %v -> %v (different number of elements)", r.shape, shape)
	}
	return &RawTensor{
		data:       r.data,
		shape:      shape.Clone(),
		stride:     shape.ComputeStrides(),
		dtype:      r.dtype,
		device:     r.device,
		offset:     r.offset,
		contiguous: true,
	}, nil
}

// MustReshape is Reshape for shapes known to be compatible.
func (r *RawTensor) MustReshape(shape Shape) *RawTensor {
	v, err := r.Reshape(shape)
	if err != nil {
		panic(err.Error())
	}
	return v
}

// Unsqueeze0 returns a view with a leading axis of size 1.
func (r *RawTensor) Unsqueeze0() (*RawTensor, error) {
	return r.Reshape(append(Shape{1}, r.shape...))
}

// Squeeze0 returns a view without the leading axis, which must have size 1.
func (r *RawTensor) Squeeze0() (*RawTensor, error) {
	if len(r.shape) < 2 || r.shape[0] != 1 {
		return nil, fmt.Errorf("squeeze: leading axis of %v is not a unit axis", r.shape)
	}
	return r.Reshape(r.shape[1:])
}

// Permute returns a strided view with the axes reordered. The view is not
// contiguous unless axes is the identity permutation.
func (r *RawTensor) Permute(axes ...int) *RawTensor {
	if len(axes) != len(r.shape) {
		panic(fmt.Sprintf("permute: axes length %d != ndim %d", len(axes), len(r.shape)))
	}
	shape := make(Shape, len(axes))
	stride := make([]int, len(axes))
	identity := true
	seen := make([]bool, len(axes))
	for i, ax := range axes {
		if ax < 0 || ax >= len(r.shape) || seen[ax] {
			panic(fmt.Sprintf("permute: invalid axes %v for %dD tensor", axes, len(r.shape)))
		}
		seen[ax] = true
		shape[i] = r.shape[ax]
		stride[i] = r.stride[ax]
		identity = identity && ax == i
	}
	return &RawTensor{
		data:       r.data,
		shape:      shape,
		stride:     stride,
		dtype:      r.dtype,
		device:     r.device,
		offset:     r.offset,
		contiguous: r.contiguous && identity,
	}
}

// Contiguous returns r when it is already contiguous, otherwise a dense copy.
func (r *RawTensor) Contiguous() (*RawTensor, error) {
	if r.contiguous {
		return r, nil
	}
	out, err := NewRaw(r.shape, r.dtype, r.device)
	if err != nil {
		return nil, err
	}
	size := r.dtype.Size()
	dst := out.data
	index := make([]int, len(r.shape))
	for k := 0; k < out.NumElements(); k++ {
		src := r.offset
		for ax, i := range index {
			src += i * r.stride[ax] * size
		}
		copy(dst[k*size:(k+1)*size], r.data[src:src+size])
		for ax := len(index) - 1; ax >= 0; ax-- {
			index[ax]++
			if index[ax] < r.shape[ax] {
				break
			}
			index[ax] = 0
		}
	}
	return out, nil
}

// Clone returns a contiguous deep copy of the tensor.
func (r *RawTensor) Clone() (*RawTensor, error) {
	if !r.contiguous {
		return r.Contiguous()
	}
	out, err := NewRaw(r.shape, r.dtype, r.device)
	if err != nil {
		return nil, err
	}
	copy(out.data, r.Data())
	return out, nil
}

// String returns a short description of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("%s%v@%s", r.dtype, []int(r.shape), r.device)
}

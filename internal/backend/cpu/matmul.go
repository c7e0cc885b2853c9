package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/depthconv/internal/tensor"
)

// Gemm computes C = alpha * op(A) * op(B) + beta * C on packed row-major slices,
// where op(A) is m×k and op(B) is k×n. A transposed operand is stored with its
// rows and columns swapped (k×m for A, n×k for B).
func Gemm[T tensor.Float](transA, transB bool, m, n, k int, alpha T, a, b []T, beta T, c []T) {
	if len(c) < m*n {
		panic(fmt.Sprintf("gemm: output has %d elements, need %d", len(c), m*n))
	}
	if m == 0 || n == 0 {
		return
	}

	aRows, aCols := m, k
	tA := blas.NoTrans
	if transA {
		aRows, aCols = k, m
		tA = blas.Trans
	}
	bRows, bCols := k, n
	tB := blas.NoTrans
	if transB {
		bRows, bCols = n, k
		tB = blas.Trans
	}

	switch av := any(a).(type) {
	case []float32:
		blas32.Gemm(tA, tB, float32(alpha),
			blas32.General{Rows: aRows, Cols: aCols, Stride: aCols, Data: av},
			blas32.General{Rows: bRows, Cols: bCols, Stride: bCols, Data: any(b).([]float32)},
			float32(beta),
			blas32.General{Rows: m, Cols: n, Stride: n, Data: any(c).([]float32)})
	case []float64:
		blas64.Gemm(tA, tB, float64(alpha),
			blas64.General{Rows: aRows, Cols: aCols, Stride: aCols, Data: av},
			blas64.General{Rows: bRows, Cols: bCols, Stride: bCols, Data: any(b).([]float64)},
			float64(beta),
			blas64.General{Rows: m, Cols: n, Stride: n, Data: any(c).([]float64)})
	}
}

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N)
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		return nil, fmt.Errorf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape))
	}
	if a.DType() != b.DType() {
		return nil, fmt.Errorf("matmul: dtype mismatch %s @ %s", a.DType(), b.DType())
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		return nil, fmt.Errorf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n)
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n}, a.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("matmul: failed to create result tensor: %w", err)
	}

	switch a.DType() {
	case tensor.Float32:
		Gemm(false, false, m, n, k, 1, a.AsFloat32(), b.AsFloat32(), 0, result.AsFloat32())
	case tensor.Float64:
		Gemm(false, false, m, n, k, 1, a.AsFloat64(), b.AsFloat64(), 0, result.AsFloat64())
	default:
		return nil, fmt.Errorf("matmul: unsupported dtype %s", a.DType())
	}

	return result, nil
}

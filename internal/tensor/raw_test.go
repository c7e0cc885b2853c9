package tensor

import (
	"math"
	"testing"
)

// RawTensor Tests

func TestRawTensorAsFloat32(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 2}, Float32, CPU)
	data := raw.AsFloat32()

	if len(data) != 6 {
		t.Errorf("AsFloat32 length = %d, want 6", len(data))
	}

	// Modify and verify zero-copy
	data[0] = 42
	if raw.AsFloat32()[0] != 42 {
		t.Error("AsFloat32 should return zero-copy slice")
	}
}

func TestRawTensorAsFloat16(t *testing.T) {
	raw, _ := NewRaw(Shape{4, 4}, Float16, CPU)
	if got := len(raw.AsFloat16()); got != 16 {
		t.Errorf("AsFloat16 length = %d, want 16", got)
	}
	if raw.ByteSize() != 32 {
		t.Errorf("ByteSize = %d, want 32", raw.ByteSize())
	}
}

func TestRawTensorWrongDTypePanics(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float64, CPU)
	defer func() {
		if recover() == nil {
			t.Error("AsFloat32 on a Float64 tensor should panic")
		}
	}()
	_ = raw.AsFloat32()
}

func TestNewRawInvalidShape(t *testing.T) {
	if _, err := NewRaw(Shape{2, 0}, Float32, CPU); err == nil {
		t.Error("NewRaw should reject zero dimensions")
	}
	if _, err := NewRaw(Shape{math.MaxInt / 2, 3}, Float32, CPU); err == nil {
		t.Error("NewRaw should reject shapes whose element count overflows")
	}
	if _, err := NewRaw(Shape{math.MaxInt / 4}, Float64, CPU); err == nil {
		t.Error("NewRaw should reject shapes whose byte size overflows")
	}
}

func TestRawTensorSelect(t *testing.T) {
	raw, _ := FromSlice([]float32{0, 1, 2, 3, 4, 5}, Shape{3, 2})
	row := raw.Select(1)

	if !row.Shape().Equal(Shape{2}) {
		t.Fatalf("Select shape = %v, want [2]", row.Shape())
	}
	if got := row.AsFloat32(); got[0] != 2 || got[1] != 3 {
		t.Errorf("Select(1) = %v, want [2 3]", got)
	}

	// Views share storage.
	row.AsFloat32()[0] = -1
	if raw.AsFloat32()[2] != -1 {
		t.Error("Select should return a view")
	}
}

func TestRawTensorReshape(t *testing.T) {
	raw, _ := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})

	view, err := raw.Reshape(Shape{3, 2})
	if err != nil {
		t.Fatalf("Reshape failed: %v", err)
	}
	if view.AsFloat64()[5] != 6 {
		t.Error("Reshape should keep element order")
	}
	if _, err := raw.Reshape(Shape{4, 2}); err == nil {
		t.Error("Reshape should reject a different element count")
	}
}

func TestRawTensorSqueezeUnsqueeze(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 4, 5}, Float32, CPU)

	batched, err := raw.Unsqueeze0()
	if err != nil {
		t.Fatalf("Unsqueeze0 failed: %v", err)
	}
	if !batched.Shape().Equal(Shape{1, 3, 4, 5}) {
		t.Errorf("Unsqueeze0 shape = %v, want [1 3 4 5]", batched.Shape())
	}

	back, err := batched.Squeeze0()
	if err != nil {
		t.Fatalf("Squeeze0 failed: %v", err)
	}
	if !back.Shape().Equal(raw.Shape()) {
		t.Errorf("Squeeze0 shape = %v, want %v", back.Shape(), raw.Shape())
	}

	if _, err := raw.Squeeze0(); err == nil {
		t.Error("Squeeze0 should reject a leading axis of size 3")
	}
}

func TestRawTensorPermuteContiguous(t *testing.T) {
	raw, _ := FromSlice([]float32{0, 1, 2, 3, 4, 5}, Shape{2, 3})

	transposed := raw.Permute(1, 0)
	if transposed.IsContiguous() {
		t.Fatal("Permute(1, 0) should not be contiguous")
	}
	if !transposed.Shape().Equal(Shape{3, 2}) {
		t.Errorf("Permute shape = %v, want [3 2]", transposed.Shape())
	}

	dense, err := transposed.Contiguous()
	if err != nil {
		t.Fatalf("Contiguous failed: %v", err)
	}
	want := []float32{0, 3, 1, 4, 2, 5}
	for i, v := range dense.AsFloat32() {
		if v != want[i] {
			t.Errorf("Contiguous()[%d] = %v, want %v", i, v, want[i])
		}
	}

	if !raw.Permute(0, 1).IsContiguous() {
		t.Error("identity Permute should stay contiguous")
	}
	if same, _ := raw.Contiguous(); same != raw {
		t.Error("Contiguous on a contiguous tensor should return it unchanged")
	}
}

func TestRawTensorClone(t *testing.T) {
	raw, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	clone, err := raw.Clone()
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	clone.AsFloat32()[0] = 99
	if raw.AsFloat32()[0] != 1 {
		t.Error("Clone should not share storage")
	}
	if got := raw.String(); got != "float32[2 2]@CPU" {
		t.Errorf("String() = %q", got)
	}
}

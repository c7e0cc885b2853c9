package cpu

import (
	"testing"

	"github.com/born-ml/depthconv/internal/parallel"
	"github.com/born-ml/depthconv/internal/tensor"
)

// TestCPUBackend_New tests backend creation.
func TestCPUBackend_New(t *testing.T) {
	backend := New()
	if backend == nil {
		t.Fatal("New() returned nil")
	}
	if backend.Name() != "CPU" {
		t.Errorf("Expected name 'CPU', got '%s'", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Expected device CPU, got %v", backend.Device())
	}
	if backend.Parallel() != parallel.DefaultConfig() {
		t.Errorf("Expected default parallel config, got %+v", backend.Parallel())
	}
}

// TestCPUBackend_NewWithConfig tests that the fan-out configuration is kept.
func TestCPUBackend_NewWithConfig(t *testing.T) {
	cfg := parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}
	backend := NewWithConfig(cfg)
	if backend.Parallel() != cfg {
		t.Errorf("Parallel() = %+v, want %+v", backend.Parallel(), cfg)
	}
}

// TestCPUBackend_ConvSequentialMatchesParallel tests that fan-out does not change results.
func TestCPUBackend_ConvSequentialMatchesParallel(t *testing.T) {
	input := fromSlice(t, seq(2*3*7*7), tensor.Shape{2, 3, 7, 7})
	kernel := fromSlice(t, seq(4*3*3*3), tensor.Shape{4, 3, 3, 3})
	p := ConvParams{StrideH: 2, StrideW: 1, PadH: 1, PadW: 1, DilationH: 1, DilationW: 1}

	seqOut, err := NewWithConfig(parallel.Sequential()).Conv2D(input, kernel, nil, p)
	if err != nil {
		t.Fatal(err)
	}
	parOut, err := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}).Conv2D(input, kernel, nil, p)
	if err != nil {
		t.Fatal(err)
	}
	a, b := seqOut.AsFloat32(), parOut.AsFloat32()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("output[%d]: sequential %v, parallel %v", i, a[i], b[i])
		}
	}
}

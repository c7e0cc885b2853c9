// Package depthconv implements a depth-aware 2D convolution: every tap of a
// convolution patch is scaled by a depth-similarity weight between the tap and
// the patch centre before the kernel is applied.
//
// The engine provides the forward pass and the three backward passes (input,
// weight and bias). All entry points validate their operands before any
// allocation and report failures as *Error values.
package depthconv

import (
	"github.com/born-ml/depthconv/internal/backend/cpu"
	"github.com/born-ml/depthconv/internal/parallel"
)

// Config controls how an Engine executes.
type Config struct {
	// Parallel configures the fan-out across batch elements and output rows.
	Parallel parallel.Config `yaml:"parallel"`

	// Gate is the depth-similarity law. Nil selects ExpGate.
	Gate Gate `yaml:"-"`

	// Trace logs the intermediate shapes of every call through klog. Tensor
	// contents are dumped as well at verbosity 4 and above.
	Trace bool `yaml:"trace"`
}

// DefaultConfig returns a Config with parallel execution across all CPUs,
// the exponential gate and tracing off.
func DefaultConfig() Config {
	return Config{
		Parallel: parallel.DefaultConfig(),
		Gate:     ExpGate{},
	}
}

// Engine runs depth-aware convolutions. It holds no per-call state and is safe
// for concurrent use.
type Engine struct {
	cfg     Config
	backend *cpu.CPUBackend
}

// New creates an Engine with cfg.
func New(cfg Config) *Engine {
	if cfg.Gate == nil {
		cfg.Gate = ExpGate{}
	}
	return &Engine{
		cfg:     cfg,
		backend: cpu.NewWithConfig(cfg.Parallel),
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// innerConfig is the fan-out used inside one batch element. When batch elements
// already run concurrently the column builder stays on its goroutine.
func (e *Engine) innerConfig(batch int) parallel.Config {
	if batch > 1 && e.cfg.Parallel.Enabled {
		return parallel.Sequential()
	}
	return e.backend.Parallel()
}

var defaultEngine = New(DefaultConfig())

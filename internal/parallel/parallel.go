// Package parallel provides the fan-out helpers used by the convolution engine.
package parallel

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool `yaml:"enabled"`        // Whether parallel execution is enabled.
	NumWorkers   int  `yaml:"workers"`        // Number of worker goroutines to use.
	MinChunkSize int  `yaml:"min_chunk_size"` // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 8,
	}
}

// Sequential returns a Config that runs everything on the calling goroutine.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

func (cfg Config) workers() int {
	return max(cfg.NumWorkers, 1)
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.workers() == 1 || n < max(cfg.MinChunkSize, 2) {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.workers()-1)/cfg.workers(), cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForBatch runs f once per batch element. Batch elements are coarse units of
// work, so every element may get its own goroutine regardless of MinChunkSize.
func ForBatch(batch int, f func(elt int), cfg Config) {
	cfg.MinChunkSize = 1
	For(batch, f, cfg)
}

// Group runs independent tasks and returns the first error, mirroring
// errgroup.Group with the worker limit taken from Config.
type Group struct {
	g       errgroup.Group
	enabled bool
	err     error
}

// NewGroup creates a Group honouring cfg.
func NewGroup(cfg Config) *Group {
	g := &Group{enabled: cfg.Enabled && cfg.workers() > 1}
	if g.enabled {
		g.g.SetLimit(cfg.workers())
	}
	return g
}

// Go schedules task. When parallelism is disabled the task runs immediately.
func (g *Group) Go(task func() error) {
	if !g.enabled {
		if g.err == nil {
			g.err = task()
		}
		return
	}
	g.g.Go(task)
}

// Wait blocks until all tasks finish and returns the first error.
func (g *Group) Wait() error {
	if !g.enabled {
		return g.err
	}
	return g.g.Wait()
}

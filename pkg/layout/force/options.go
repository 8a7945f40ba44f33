package force

import (
	"math/rand/v2"

	"github.com/charmbracelet/log"
)

// Option configures an [Engine].
type Option func(*Engine)

// StepInfo describes the engine after one batch iteration.
type StepInfo struct {
	Iteration   int     // zero-based iteration that just finished
	Temperature float64 // temperature after cooling
	MaxMove     float64 // longest clamped displacement applied in the step
	Running     bool
}

// WithRand sets the random source used for initial placement and jitter.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithSeed seeds a PCG random source. The same seed reproduces the same run.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// WithWorkers splits the repulsion pass across n goroutines. Values below 2
// keep the pass serial.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithLogger sets the logger for debug output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers fn to be called after every iteration of Layout.
func WithObserver(fn func(StepInfo)) Option {
	return func(e *Engine) { e.observer = fn }
}

package solver

import (
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/chazu/tessera/pkg/catalog"
	"github.com/chazu/tessera/pkg/grid"
)

// Rand is the random source used for collapse jitter and tie breaks.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Recorder receives solver events. Implementations must be cheap; they
// run inline on every tick.
type Recorder interface {
	Step(state State)
	Collapse(p grid.Position, m *catalog.TileModel)
	Contradiction(p grid.Position)
	Restart(generation string)
	Finish(components int)
	Components(n int)
}

type nopRecorder struct{}

func (nopRecorder) Step(State)                                  {}
func (nopRecorder) Collapse(grid.Position, *catalog.TileModel) {}
func (nopRecorder) Contradiction(grid.Position)                 {}
func (nopRecorder) Restart(string)                              {}
func (nopRecorder) Finish(int)                                  {}
func (nopRecorder) Components(int)                              {}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRand injects the random source. It takes precedence over WithSeed.
func WithRand(r Rand) Option {
	return func(s *Solver) {
		s.rng = r
	}
}

// WithSeed seeds a PCG source so runs are reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Solver) {
		s.seed = seed
		s.seeded = true
	}
}

// WithJitter sets the uniform noise range added to each candidate's
// probability during collapse. Reversed bounds are swapped and negative
// bounds clamp to 0.
func WithJitter(min, max float64) Option {
	return func(s *Solver) {
		if max < min {
			min, max = max, min
		}
		s.jitterMin, s.jitterMax = math.Max(min, 0), math.Max(max, 0)
	}
}

// WithRecorder attaches an event recorder such as a metrics sink.
func WithRecorder(r Recorder) Option {
	return func(s *Solver) {
		if r != nil {
			s.rec = r
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newPCG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

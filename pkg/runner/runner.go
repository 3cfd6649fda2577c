// Package runner drives a solver to completion on the caller's goroutine,
// enforcing step, restart and structure limits.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chazu/tessera/pkg/solver"
)

var (
	// ErrStepLimit means MaxSteps ticks passed without reaching STOPPED.
	ErrStepLimit = errors.New("runner: step limit reached")

	// ErrRestartLimit means the solver restarted, or was reset for
	// exceeding MaxStructures, more than MaxRestarts times.
	ErrRestartLimit = errors.New("runner: restart limit reached")
)

// Limits bounds a run. Zero values mean unlimited.
type Limits struct {
	MaxSteps      int `yaml:"max_steps" validate:"gte=0"`
	MaxRestarts   int `yaml:"max_restarts" validate:"gte=0"`
	MaxStructures int `yaml:"max_structures" validate:"gte=0"`
}

// Stepper is the part of the solver the runner drives.
type Stepper interface {
	Step() solver.State
	State() solver.State
	Reset()
	Restarts() int
	ComponentCount() int
	Generation() string
}

// Result summarises a run.
type Result struct {
	Steps      int
	Restarts   int // contradictions plus structure rejections
	Rejections int // finished grids discarded for too many structures
	Components int
}

// Run steps s until it stops. A finished grid with more components than
// MaxStructures is discarded with Reset and counts as a restart.
func Run(ctx context.Context, s Stepper, limits Limits, log *slog.Logger) (Result, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	var res Result
	failures := 0
	lastRestarts := s.Restarts()

	for {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("runner: %w", err)
		}
		if limits.MaxSteps > 0 && res.Steps >= limits.MaxSteps {
			return res, fmt.Errorf("%w after %d steps", ErrStepLimit, res.Steps)
		}

		state := s.Step()
		res.Steps++

		if r := s.Restarts(); r > lastRestarts {
			failures += r - lastRestarts
			lastRestarts = r
			res.Restarts = failures + res.Rejections
			if limits.MaxRestarts > 0 && res.Restarts > limits.MaxRestarts {
				return res, fmt.Errorf("%w: %d", ErrRestartLimit, res.Restarts)
			}
		}

		switch state {
		case solver.Finished:
			n := s.ComponentCount()
			if limits.MaxStructures > 0 && n > limits.MaxStructures {
				res.Rejections++
				res.Restarts = failures + res.Rejections
				log.Info("rejecting grid",
					"generation", s.Generation(), "components", n, "max", limits.MaxStructures)
				if limits.MaxRestarts > 0 && res.Restarts > limits.MaxRestarts {
					return res, fmt.Errorf("%w: %d", ErrRestartLimit, res.Restarts)
				}
				s.Reset()
				lastRestarts = s.Restarts()
				continue
			}
		case solver.Stopped:
			res.Components = s.ComponentCount()
			log.Info("run complete",
				"generation", s.Generation(), "steps", res.Steps,
				"restarts", res.Restarts, "components", res.Components)
			return res, nil
		}
	}
}

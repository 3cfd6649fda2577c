package solver

import (
	"testing"

	"github.com/chazu/tessera/pkg/adjacency"
	"github.com/chazu/tessera/pkg/catalog"
	"github.com/chazu/tessera/pkg/grid"
	"github.com/stretchr/testify/require"
)

// squareOn returns a square outline of half size h on face o.
func squareOn(o adjacency.Orientation, h float64) []adjacency.Edge {
	corner := func(u, v float64) adjacency.Point {
		switch o {
		case adjacency.North:
			return adjacency.P(-0.5, v, u)
		case adjacency.South:
			return adjacency.P(0.5, v, u)
		case adjacency.West:
			return adjacency.P(u, v, -0.5)
		case adjacency.East:
			return adjacency.P(u, v, 0.5)
		case adjacency.Top:
			return adjacency.P(u, 0.5, v)
		default:
			return adjacency.P(u, -0.5, v)
		}
	}
	a, b, c, d := corner(-h, -h), corner(h, -h), corner(h, h), corner(-h, h)
	return []adjacency.Edge{
		adjacency.NewEdge(a, b), adjacency.NewEdge(b, c),
		adjacency.NewEdge(c, d), adjacency.NewEdge(d, a),
	}
}

func outline(faces ...adjacency.Orientation) []adjacency.Edge {
	var out []adjacency.Edge
	for _, o := range faces {
		out = append(out, squareOn(o, 0.15)...)
	}
	return out
}

func emptyDef() catalog.TileDef {
	return catalog.TileDef{Name: "empty", Probability: 1, Category: catalog.Empty, Symmetry: catalog.SymX}
}

func buildCatalog(t *testing.T, defs ...catalog.TileDef) *catalog.Catalog {
	t.Helper()
	cat, _, err := catalog.Build(defs)
	require.NoError(t, err)
	return cat
}

// beamCatalog has an empty tile, a beam that runs along X or Z, and a post
// that only joins vertically.
func beamCatalog(t *testing.T) *catalog.Catalog {
	return buildCatalog(t,
		emptyDef(),
		catalog.TileDef{
			Name: "beam", Probability: 1, Category: catalog.Other, Symmetry: catalog.SymI,
			Edges: outline(adjacency.North, adjacency.South),
		},
		catalog.TileDef{
			Name: "post", Probability: 0.5, Category: catalog.Other, Symmetry: catalog.SymX,
			Edges: outline(adjacency.Top, adjacency.Bottom),
		},
	)
}

// scriptedRand replays fixed values.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0] % n
	r.ints = r.ints[1:]
	return v
}

// runUntilStopped steps s until STOPPED, recording every state visited.
func runUntilStopped(t *testing.T, s *Solver, maxSteps int) []State {
	t.Helper()
	var seen []State
	for i := 0; i < maxSteps; i++ {
		st := s.Step()
		seen = append(seen, st)
		if st == Stopped {
			return seen
		}
	}
	t.Fatalf("solver did not stop within %d steps (state %s)", maxSteps, s.State())
	return nil
}

// countingRecorder tallies events.
type countingRecorder struct {
	steps, collapses, contradictions, restarts, finishes int
	components                                           int
}

func (r *countingRecorder) Step(State)                                 { r.steps++ }
func (r *countingRecorder) Collapse(grid.Position, *catalog.TileModel) { r.collapses++ }
func (r *countingRecorder) Contradiction(grid.Position)                { r.contradictions++ }
func (r *countingRecorder) Restart(string)                             { r.restarts++ }
func (r *countingRecorder) Finish(int)                                 { r.finishes++ }
func (r *countingRecorder) Components(n int)                           { r.components = n }

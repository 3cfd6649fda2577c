package solver

import (
	"github.com/chazu/tessera/pkg/catalog"
	"github.com/chazu/tessera/pkg/grid"
	"github.com/samber/lo"
)

// Assignment pairs a resolved position with its tile model.
type Assignment struct {
	Position grid.Position
	Model    *catalog.TileModel
}

// Snapshot is a read-only copy of the solver's progress.
type Snapshot struct {
	Dims       grid.Dims
	Generation string
	Seed       uint64
	State      State
	Layer      int
	Restarts   int
	Components int
	Tick       uint64
	Cells      []Assignment // resolved cells in grid order
}

// State returns the current state.
func (s *Solver) State() State { return s.state }

// ComponentCount returns the number of disjoint structures built so far.
func (s *Solver) ComponentCount() int {
	if s.graph == nil {
		return 0
	}
	return s.graph.Count()
}

// Layer returns the layer currently being solved.
func (s *Solver) Layer() int { return s.layer }

// Restarts returns how many times the current run restarted after a
// contradiction.
func (s *Solver) Restarts() int { return s.restarts }

// Generation returns the id of the current grid, or "" before the first
// INIT.
func (s *Solver) Generation() string {
	if s.grid == nil {
		return ""
	}
	return s.generation.String()
}

// Seed returns the seed of the default random source. It is meaningless
// when WithRand was used.
func (s *Solver) Seed() uint64 { return s.seed }

// Tick returns the number of Steps that did work.
func (s *Solver) Tick() uint64 { return s.tick }

// Dims returns the configured grid size.
func (s *Solver) Dims() grid.Dims { return s.dims }

// Resolved returns the model chosen at p, if any.
func (s *Solver) Resolved(p grid.Position) (Assignment, bool) {
	if s.grid == nil {
		return Assignment{}, false
	}
	c := s.grid.At(p)
	if c == nil || !c.IsResolved() {
		return Assignment{}, false
	}
	return Assignment{Position: p, Model: c.Resolved()}, true
}

// Candidates returns the models still possible at p.
func (s *Solver) Candidates(p grid.Position) []*catalog.TileModel {
	if s.grid == nil {
		return nil
	}
	c := s.grid.At(p)
	if c == nil {
		return nil
	}
	return c.Candidates()
}

// ChangedSince returns the positions whose candidates changed after tick,
// together with the current tick to pass on the next call.
func (s *Solver) ChangedSince(tick uint64) ([]grid.Position, uint64) {
	if s.grid == nil {
		return nil, s.tick
	}
	changed := lo.FilterMap(s.grid.Cells(), func(c *grid.Cell, _ int) (grid.Position, bool) {
		return c.Pos, c.ChangedAt() > tick
	})
	return changed, s.tick
}

// Snapshot copies the resolved cells and counters.
func (s *Solver) Snapshot() Snapshot {
	snap := Snapshot{
		Dims:       s.dims,
		Generation: s.Generation(),
		Seed:       s.seed,
		State:      s.state,
		Layer:      s.layer,
		Restarts:   s.restarts,
		Components: s.ComponentCount(),
		Tick:       s.tick,
	}
	if s.grid != nil {
		snap.Cells = lo.FilterMap(s.grid.Cells(), func(c *grid.Cell, _ int) (Assignment, bool) {
			return Assignment{Position: c.Pos, Model: c.Resolved()}, c.IsResolved()
		})
	}
	return snap
}

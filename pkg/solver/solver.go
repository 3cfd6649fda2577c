// Package solver fills a grid with tile models using wave function
// collapse. The solver is driven one Step at a time by its caller and
// never spawns goroutines.
package solver

import (
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/chazu/tessera/pkg/adjacency"
	"github.com/chazu/tessera/pkg/catalog"
	"github.com/chazu/tessera/pkg/graph"
	"github.com/chazu/tessera/pkg/grid"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Default collapse jitter.
const (
	DefaultJitterMin = 0.0
	DefaultJitterMax = 0.5
)

// Solver is the constraint solver. It is not safe for concurrent use.
type Solver struct {
	log *slog.Logger
	rng Rand
	rec Recorder

	seed   uint64
	seeded bool

	jitterMin, jitterMax float64

	dims grid.Dims
	cat  *catalog.Catalog
	zone grid.ZoneFunc

	state      State
	grid       *grid.Grid
	graph      *graph.ComponentGraph
	layer      int
	tick       uint64
	restarts   int
	generation uuid.UUID
}

// New returns an idle solver. Call Start before stepping.
func New(opts ...Option) *Solver {
	s := &Solver{
		log:       discardLogger(),
		rec:       nopRecorder{},
		jitterMin: DefaultJitterMin,
		jitterMax: DefaultJitterMax,
		state:     Stopped,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		if !s.seeded {
			s.seed = rand.Uint64()
		}
		s.rng = newPCG(s.seed)
	}
	return s
}

// ErrNoCatalog is returned by Start when the catalog is nil or empty.
var ErrNoCatalog = errors.New("solver: empty catalog")

// Start configures a run and enters INIT. A nil zone uses
// grid.DefaultZones.
func (s *Solver) Start(dims grid.Dims, cat *catalog.Catalog, zone grid.ZoneFunc) error {
	if err := dims.Validate(); err != nil {
		return err
	}
	if cat == nil || cat.Len() == 0 {
		return ErrNoCatalog
	}
	if zone == nil {
		zone = grid.DefaultZones
	}
	s.dims, s.cat, s.zone = dims, cat, zone
	s.restarts = 0
	s.state = Init
	return nil
}

// Reset discards the current grid and re-enters INIT with the same
// catalog. It is a no-op before Start.
func (s *Solver) Reset() {
	if s.cat == nil {
		return
	}
	s.restarts = 0
	s.state = Init
	s.log.Debug("solver reset", "generation", s.generation)
}

// Step advances the state machine by one tick and returns the new state.
func (s *Solver) Step() State {
	switch s.state {
	case Init:
		s.initialize()
	case Running:
		s.run()
	case Failed:
		s.restarts++
		s.state = Init
		s.log.Info("restarting after contradiction",
			"generation", s.generation, "restarts", s.restarts)
	case Finished:
		s.state = Stopped
	case Stopped:
		return s.state
	}

	s.tick++
	if s.grid != nil {
		for _, c := range s.grid.Cells() {
			c.Stamp(s.tick)
		}
	}
	s.rec.Step(s.state)
	return s.state
}

func (s *Solver) initialize() {
	g, err := grid.New(s.dims, s.cat, s.zone)
	if err != nil {
		s.grid = nil
		s.state = Failed
		s.log.Error("grid initialization failed", "dims", s.dims, "err", err)
		return
	}
	s.grid = g
	s.graph = graph.New()
	s.layer = 0
	s.generation = uuid.New()
	s.state = Running
	s.rec.Restart(s.generation.String())
	s.rec.Components(0)
	s.log.Debug("grid initialized",
		"generation", s.generation, "dims", s.dims, "models", s.cat.Len())
}

func (s *Solver) run() {
	cell := s.observe()
	for cell == nil {
		if s.layer == s.dims.Height-1 {
			s.state = Finished
			s.rec.Finish(s.graph.Count())
			s.log.Info("grid finished",
				"generation", s.generation, "components", s.graph.Count(), "restarts", s.restarts)
			return
		}
		s.layer++
		s.enterLayer()
		cell = s.observe()
	}

	if cell.Len() == 0 {
		s.state = Failed
		s.rec.Contradiction(cell.Pos)
		s.log.Debug("contradiction", "generation", s.generation, "pos", cell.Pos)
		return
	}

	m := s.collapse(cell)
	s.rec.Collapse(cell.Pos, m)
	s.link(cell)
	s.propagate(cell)
}

// observe returns the unresolved cell of the current layer with the
// lowest entropy, the first in scan order on ties, or nil when the layer
// is done. A cell with no candidates has negative entropy and wins.
func (s *Solver) observe() *grid.Cell {
	open := lo.Filter(s.grid.Layer(s.layer), func(c *grid.Cell, _ int) bool {
		return !c.IsResolved()
	})
	if len(open) == 0 {
		return nil
	}
	return lo.MinBy(open, func(a, b *grid.Cell) bool {
		return a.Entropy() < b.Entropy()
	})
}

// collapse picks a candidate by probability plus uniform jitter, breaking
// exact ties uniformly at random.
func (s *Solver) collapse(cell *grid.Cell) *catalog.TileModel {
	best := math.Inf(-1)
	var ties []*catalog.TileModel
	for _, m := range cell.Candidates() {
		score := m.Probability + s.jitterMin + s.rng.Float64()*(s.jitterMax-s.jitterMin)
		switch {
		case score > best:
			best = score
			ties = append(ties[:0], m)
		case score == best:
			ties = append(ties, m)
		}
	}
	choice := ties[s.rng.IntN(len(ties))]
	cell.Collapse(choice)
	s.log.Debug("collapse", "pos", cell.Pos, "tile", choice.ID())
	return choice
}

// link adds a freshly collapsed non-empty cell to the component graph and
// joins it to every resolved non-empty neighbour whose facing outline
// matches.
func (s *Solver) link(cell *grid.Cell) {
	m := cell.Resolved()
	if m == nil || m.IsEmpty() {
		return
	}
	s.graph.Add(cell.Pos)
	for _, o := range adjacency.Orientations {
		n := s.grid.Neighbour(cell.Pos, o)
		if n == nil || !n.IsResolved() || n.Resolved().IsEmpty() {
			continue
		}
		face := m.Faces[o]
		if face.IsEmpty() || !face.Matches(n.Resolved().Faces[o.Opposite()]) {
			continue
		}
		s.graph.Link(cell.Pos, n.Pos)
	}
	s.rec.Components(s.graph.Count())
}

// propagate restricts horizontal neighbours until no candidate list
// changes. A neighbour keeps a model only if the model's face toward the
// changed cell matches the opposite face of at least one of that cell's
// candidates.
func (s *Solver) propagate(start *grid.Cell) {
	stack := []*grid.Cell{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cands := cur.Candidates()

		for _, o := range adjacency.Horizontal {
			n := s.grid.Neighbour(cur.Pos, o)
			if n == nil || n.IsResolved() {
				continue
			}
			changed := n.Restrict(func(m *catalog.TileModel) bool {
				face := m.Faces[o.Opposite()]
				return lo.ContainsBy(cands, func(c *catalog.TileModel) bool {
					return c.Faces[o].Matches(face)
				})
			})
			if changed {
				stack = append(stack, n)
			}
		}
	}
}

// enterLayer applies the one-shot support filter from the layer below and
// then propagates sideways from every cell of the new layer.
func (s *Solver) enterLayer() {
	cells := s.grid.Layer(s.layer)
	for _, c := range cells {
		below := s.grid.Neighbour(c.Pos, adjacency.Bottom)
		if below == nil {
			continue
		}
		support := below.Candidates()
		c.Restrict(func(m *catalog.TileModel) bool {
			return lo.ContainsBy(support, func(b *catalog.TileModel) bool {
				return b.Faces[adjacency.Top].Matches(m.Faces[adjacency.Bottom])
			})
		})
	}
	for _, c := range cells {
		s.propagate(c)
	}
	s.log.Debug("entered layer", "generation", s.generation, "layer", s.layer)
}

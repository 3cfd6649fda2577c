package grid

import (
	"math"

	"github.com/chazu/tessera/pkg/catalog"
	"github.com/samber/lo"
)

// NoCandidates is the entropy of a cell whose candidate list is empty. It
// sorts below every real entropy so a dead cell is observed first.
const NoCandidates = -1.0

// Cell is one grid position and the tile models still possible there.
// Candidates only ever shrink.
type Cell struct {
	Pos Position

	candidates []*catalog.TileModel
	resolved   *catalog.TileModel

	entropy float64
	total   float64
	stale   bool

	changed   bool
	changedAt uint64
}

func newCell(p Position, candidates []*catalog.TileModel) *Cell {
	return &Cell{
		Pos:        p,
		candidates: candidates,
		stale:      true,
		changed:    true,
	}
}

// Candidates returns a copy of the remaining models in catalog order.
func (c *Cell) Candidates() []*catalog.TileModel {
	return append([]*catalog.TileModel(nil), c.candidates...)
}

// Len returns the number of remaining candidates.
func (c *Cell) Len() int { return len(c.candidates) }

// Resolved returns the chosen model, or nil while unresolved.
func (c *Cell) Resolved() *catalog.TileModel { return c.resolved }

// IsResolved reports whether the cell has been collapsed.
func (c *Cell) IsResolved() bool { return c.resolved != nil }

// Restrict keeps only the candidates for which keep returns true and
// reports whether anything was removed.
func (c *Cell) Restrict(keep func(*catalog.TileModel) bool) bool {
	kept := lo.Filter(c.candidates, func(m *catalog.TileModel, _ int) bool {
		return keep(m)
	})
	if len(kept) == len(c.candidates) {
		return false
	}
	c.candidates = kept
	c.stale = true
	c.changed = true
	return true
}

// Collapse fixes the cell to m, which must be one of its candidates.
func (c *Cell) Collapse(m *catalog.TileModel) {
	c.candidates = []*catalog.TileModel{m}
	c.resolved = m
	c.stale = true
	c.changed = true
}

// TotalProbability is the summed weight of the remaining candidates.
func (c *Cell) TotalProbability() float64 {
	c.refresh()
	return c.total
}

// Entropy is the Shannon entropy of the candidate weights, or
// NoCandidates when the list is empty.
func (c *Cell) Entropy() float64 {
	c.refresh()
	return c.entropy
}

func (c *Cell) refresh() {
	if !c.stale {
		return
	}
	c.stale = false
	if len(c.candidates) == 0 {
		c.total = 0
		c.entropy = NoCandidates
		return
	}
	var total, weighted float64
	for _, m := range c.candidates {
		total += m.Probability
		weighted += m.Probability * math.Log(m.Probability)
	}
	c.total = total
	c.entropy = math.Log(total) - weighted/total
	if c.entropy < 0 {
		// Rounding on a single candidate.
		c.entropy = 0
	}
}

// Changed reports whether the cell changed since it was last stamped.
func (c *Cell) Changed() bool { return c.changed }

// ChangedAt returns the tick of the last stamped change.
func (c *Cell) ChangedAt() uint64 { return c.changedAt }

// Stamp records a pending change at tick and clears the changed flag.
func (c *Cell) Stamp(tick uint64) {
	if c.changed {
		c.changedAt = tick
		c.changed = false
	}
}

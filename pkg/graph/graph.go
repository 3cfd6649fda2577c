package graph

import (
	"sort"

	"github.com/chazu/tessera/pkg/grid"
)

// ComponentID labels one connected component.
type ComponentID int

// ComponentGraph is an incrementally merged connected-component index.
// The component labels always partition the vertices into exactly
// Count() sets.
type ComponentGraph struct {
	component map[grid.Position]ComponentID
	edges     map[grid.Position][]grid.Position
	sizes     map[ComponentID]int
	next      ComponentID
}

// New returns an empty graph.
func New() *ComponentGraph {
	return &ComponentGraph{
		component: make(map[grid.Position]ComponentID),
		edges:     make(map[grid.Position][]grid.Position),
		sizes:     make(map[ComponentID]int),
	}
}

// Add inserts p as a new single-vertex component and returns its label.
// Adding an existing vertex returns its current label.
func (g *ComponentGraph) Add(p grid.Position) ComponentID {
	if id, ok := g.component[p]; ok {
		return id
	}
	id := g.next
	g.next++
	g.component[p] = id
	g.sizes[id] = 1
	return id
}

// Link records an edge between two vertices and merges their components
// when they differ. It reports whether a merge happened. Unknown vertices
// and self links are ignored.
func (g *ComponentGraph) Link(a, b grid.Position) bool {
	ca, okA := g.component[a]
	cb, okB := g.component[b]
	if !okA || !okB || a == b {
		return false
	}
	if !g.hasEdge(a, b) {
		g.edges[a] = append(g.edges[a], b)
		g.edges[b] = append(g.edges[b], a)
	}
	if ca == cb {
		return false
	}

	// Relabel the smaller side.
	from, to, start := cb, ca, b
	if g.sizes[ca] < g.sizes[cb] {
		from, to, start = ca, cb, a
	}
	g.relabel(start, from, to)
	return true
}

func (g *ComponentGraph) hasEdge(a, b grid.Position) bool {
	for _, n := range g.edges[a] {
		if n == b {
			return true
		}
	}
	return false
}

// relabel walks the recorded edges from start and moves every vertex
// labelled from into component to.
func (g *ComponentGraph) relabel(start grid.Position, from, to ComponentID) {
	queue := []grid.Position{start}
	g.component[start] = to
	moved := 1
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range g.edges[p] {
			if g.component[n] != from {
				continue
			}
			g.component[n] = to
			moved++
			queue = append(queue, n)
		}
	}
	g.sizes[to] += moved
	delete(g.sizes, from)
}

// Count returns the number of components.
func (g *ComponentGraph) Count() int {
	return len(g.sizes)
}

// Len returns the number of vertices.
func (g *ComponentGraph) Len() int {
	return len(g.component)
}

// Component returns the label of p.
func (g *ComponentGraph) Component(p grid.Position) (ComponentID, bool) {
	id, ok := g.component[p]
	return id, ok
}

// Size returns the number of vertices in component id.
func (g *ComponentGraph) Size(id ComponentID) int {
	return g.sizes[id]
}

// Sizes returns the component sizes, largest first.
func (g *ComponentGraph) Sizes() []int {
	out := make([]int, 0, len(g.sizes))
	for _, n := range g.sizes {
		out = append(out, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

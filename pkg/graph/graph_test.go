package graph

import (
	"testing"

	"github.com/chazu/tessera/pkg/grid"
)

func pos(x int) grid.Position {
	return grid.Position{X: x}
}

// checkPartition verifies that labels split the vertices into exactly
// Count() sets whose sizes add up.
func checkPartition(t *testing.T, g *ComponentGraph) {
	t.Helper()
	seen := map[ComponentID]int{}
	for _, id := range g.component {
		seen[id]++
	}
	if len(seen) != g.Count() {
		t.Fatalf("%d distinct labels, Count() = %d", len(seen), g.Count())
	}
	for id, n := range seen {
		if g.Size(id) != n {
			t.Errorf("Size(%d) = %d, labels say %d", id, g.Size(id), n)
		}
	}
}

func TestAddIsolated(t *testing.T) {
	g := New()
	for i := 0; i < 4; i++ {
		g.Add(pos(i * 2))
	}
	if g.Count() != 4 || g.Len() != 4 {
		t.Errorf("Count() = %d Len() = %d, want 4, 4", g.Count(), g.Len())
	}
	id := g.Add(pos(0))
	if g.Count() != 4 {
		t.Error("re-adding a vertex created a component")
	}
	if got, _ := g.Component(pos(0)); got != id {
		t.Errorf("re-add returned %d, vertex has %d", id, got)
	}
	checkPartition(t, g)
}

func TestChainMergesToOne(t *testing.T) {
	g := New()
	for i := 0; i < 5; i++ {
		g.Add(pos(i))
		if i > 0 {
			if !g.Link(pos(i-1), pos(i)) {
				t.Fatalf("Link(%d, %d) did not merge", i-1, i)
			}
		}
	}
	if g.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", g.Count())
	}
	id, _ := g.Component(pos(3))
	if g.Size(id) != 5 {
		t.Errorf("Size() = %d, want 5", g.Size(id))
	}
	checkPartition(t, g)
}

func TestLinkSameComponentRecordsEdgeOnly(t *testing.T) {
	g := New()
	for i := 0; i < 3; i++ {
		g.Add(pos(i))
	}
	g.Link(pos(0), pos(1))
	g.Link(pos(1), pos(2))
	if g.Link(pos(0), pos(2)) {
		t.Error("closing a cycle reported a merge")
	}
	if g.Count() != 1 {
		t.Errorf("Count() = %d, want 1", g.Count())
	}
}

func TestLinkIgnoresUnknownAndSelf(t *testing.T) {
	g := New()
	g.Add(pos(0))
	if g.Link(pos(0), pos(9)) || g.Link(pos(0), pos(0)) {
		t.Error("Link merged with an unknown vertex or itself")
	}
	if g.Count() != 1 {
		t.Errorf("Count() = %d, want 1", g.Count())
	}
}

func TestMergeRelabelsSmallerSide(t *testing.T) {
	g := New()
	// Large component 0..3, small component 10..11.
	for i := 0; i < 4; i++ {
		g.Add(pos(i))
	}
	for i := 1; i < 4; i++ {
		g.Link(pos(i-1), pos(i))
	}
	big, _ := g.Component(pos(0))

	g.Add(pos(10))
	g.Add(pos(11))
	g.Link(pos(10), pos(11))
	if g.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", g.Count())
	}

	g.Link(pos(11), pos(3))
	if g.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", g.Count())
	}
	for _, x := range []int{0, 3, 10, 11} {
		if id, _ := g.Component(pos(x)); id != big {
			t.Errorf("vertex %d labelled %d, want %d", x, id, big)
		}
	}
	if g.Size(big) != 6 {
		t.Errorf("Size() = %d, want 6", g.Size(big))
	}
	checkPartition(t, g)
}

func TestSizes(t *testing.T) {
	g := New()
	for i := 0; i < 5; i++ {
		g.Add(pos(i))
	}
	g.Link(pos(0), pos(1))
	g.Link(pos(1), pos(2))
	g.Link(pos(3), pos(4))
	got := g.Sizes()
	if len(got) != 2 || got[0] != 3 || got[1] != 2 {
		t.Errorf("Sizes() = %v, want [3 2]", got)
	}
}

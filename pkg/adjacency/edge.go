package adjacency

import "fmt"

// Edge is a line segment between two quantized points. Edges built with
// NewEdge are canonical (A sorts before or equal to B), so the same
// geometry compares equal whichever way it was wound.
type Edge struct {
	A, B Point
}

// NewEdge returns the canonical edge between a and b.
func NewEdge(a, b Point) Edge {
	if b.Less(a) {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// E is shorthand for NewEdge over tile-space coordinates.
func E(ax, ay, az, bx, by, bz float64) Edge {
	return NewEdge(P(ax, ay, az), P(bx, by, bz))
}

// Less orders edges by their first endpoint, then their second.
func (e Edge) Less(f Edge) bool {
	if e.A != f.A {
		return e.A.Less(f.A)
	}
	return e.B.Less(f.B)
}

// RotateN turns both endpoints k quarter turns about +Y and
// re-canonicalizes.
func (e Edge) RotateN(k int) Edge {
	return NewEdge(e.A.RotateN(k), e.B.RotateN(k))
}

// Degenerate reports whether both endpoints coincide.
func (e Edge) Degenerate() bool {
	return e.A == e.B
}

func (e Edge) String() string {
	return fmt.Sprintf("%s-%s", e.A, e.B)
}

// Segment is an edge projected onto a face plane: the two in-plane
// coordinates followed by the absolute out-of-plane coordinate.
type Segment [2][3]int32

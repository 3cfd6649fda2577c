package adjacency

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// FaceAdjacency is the matching key of one tile face: its boundary edges
// in canonical order, the same edges projected onto the face plane, and a
// fingerprint over the projection. A FaceAdjacency is immutable.
type FaceAdjacency struct {
	orientation Orientation
	edges       []Edge
	projected   []Segment
	fingerprint uint64
}

// NewFace builds the key for face o from edges lying on that face. Edges
// are canonicalized, deduplicated and sorted; the input is not retained.
func NewFace(o Orientation, edges []Edge) *FaceAdjacency {
	sorted := make([]Edge, 0, len(edges))
	for _, e := range edges {
		e = NewEdge(e.A, e.B)
		if e.Degenerate() {
			continue
		}
		sorted = append(sorted, e)
	}
	slices.SortFunc(sorted, func(a, b Edge) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	sorted = slices.Compact(sorted)

	f := &FaceAdjacency{
		orientation: o,
		edges:       sorted,
		projected:   make([]Segment, len(sorted)),
	}
	for i, e := range sorted {
		seg := Segment{o.project(e.A), o.project(e.B)}
		f.projected[i] = seg
		f.fingerprint += hashSegment(seg)
	}
	return f
}

// hashSegment hashes the six projected coordinates of one edge. The face
// fingerprint is the wrapping sum of these, so it does not depend on the
// order of the edges.
func hashSegment(s Segment) uint64 {
	var buf [24]byte
	for i, p := range s {
		for j, c := range p {
			binary.LittleEndian.PutUint32(buf[(i*3+j)*4:], uint32(c))
		}
	}
	return xxhash.Sum64(buf[:])
}

// Orientation returns the face this key describes.
func (f *FaceAdjacency) Orientation() Orientation { return f.orientation }

// Fingerprint returns the 64-bit summary of the projected outline.
func (f *FaceAdjacency) Fingerprint() uint64 { return f.fingerprint }

// Len returns the number of edges on the face.
func (f *FaceAdjacency) Len() int { return len(f.edges) }

// IsEmpty reports whether no geometry touches the face.
func (f *FaceAdjacency) IsEmpty() bool { return len(f.edges) == 0 }

// Edges returns a copy of the canonical 3-D edges.
func (f *FaceAdjacency) Edges() []Edge { return slices.Clone(f.edges) }

// Projected returns a copy of the projected edges.
func (f *FaceAdjacency) Projected() []Segment { return slices.Clone(f.projected) }

// Matches reports whether two faces carry the same outline. The
// fingerprint and edge count are checked first; the projected edge lists
// are then compared element by element so a hash collision can never
// produce a false match. An empty face matches only another empty face.
func (f *FaceAdjacency) Matches(g *FaceAdjacency) bool {
	if f == nil || g == nil {
		return f == g
	}
	if f.fingerprint != g.fingerprint || len(f.projected) != len(g.projected) {
		return false
	}
	return slices.Equal(f.projected, g.projected)
}

// Rotate returns the key of this face after the tile is turned k quarter
// turns about +Y.
func (f *FaceAdjacency) Rotate(k int) *FaceAdjacency {
	if normTurns(k) == 0 {
		return f
	}
	rotated := make([]Edge, len(f.edges))
	for i, e := range f.edges {
		rotated[i] = e.RotateN(k)
	}
	return NewFace(f.orientation.Rotate(k), rotated)
}

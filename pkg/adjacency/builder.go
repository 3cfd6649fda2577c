package adjacency

import (
	"fmt"

	"github.com/chazu/tessera/pkg/kernel"
)

// Faces holds the keys of all six faces, indexed by Orientation.
type Faces [NumOrientations]*FaceAdjacency

// EmptyFaces returns six faces with no geometry.
func EmptyFaces() Faces {
	var f Faces
	for _, o := range Orientations {
		f[o] = NewFace(o, nil)
	}
	return f
}

// Rotate returns the faces of the tile turned k quarter turns about +Y.
// Side faces move around the N, E, S, W cycle; Top and Bottom stay put
// but their outlines turn with the tile.
func (f Faces) Rotate(k int) Faces {
	var out Faces
	for _, o := range Orientations {
		out[o.Rotate(k)] = f[o].Rotate(k)
	}
	return out
}

// Fingerprints returns the six face fingerprints in orientation order.
func (f Faces) Fingerprints() [NumOrientations]uint64 {
	var out [NumOrientations]uint64
	for _, o := range Orientations {
		out[o] = f[o].Fingerprint()
	}
	return out
}

// Equal reports whether every face of f matches the same face of g.
func (f Faces) Equal(g Faces) bool {
	for _, o := range Orientations {
		if !f[o].Matches(g[o]) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no face carries geometry.
func (f Faces) IsEmpty() bool {
	for _, o := range Orientations {
		if !f[o].IsEmpty() {
			return false
		}
	}
	return true
}

// Result is the outcome of analysing one tile mesh.
type Result struct {
	Faces Faces

	// Boundary is the number of boundary edges found, on faces or not.
	Boundary int

	// OutOfCube lists vertices lying outside the tile cube. Such geometry
	// overlaps neighbouring cells; it is reported, not rejected.
	OutOfCube []Point
}

// Warning describes out-of-cube geometry, or returns "" when there is none.
func (r *Result) Warning() string {
	if len(r.OutOfCube) == 0 {
		return ""
	}
	return fmt.Sprintf("%d vertices outside the tile cube, first at %s", len(r.OutOfCube), r.OutOfCube[0])
}

// Build extracts face keys from a tile mesh. The mesh is welded on the
// quantization lattice first, so triangle soups are accepted.
func Build(m *kernel.Mesh) *Result {
	if m == nil || m.IsEmpty() {
		return &Result{Faces: EmptyFaces()}
	}
	welded := m.Weld(3)

	points := make([]Point, welded.VertexCount())
	res := &Result{}
	for i := range points {
		p := Quantize(welded.Vertex(uint32(i)))
		points[i] = p
		if !p.InCube() {
			res.OutOfCube = append(res.OutOfCube, p)
		}
	}

	boundary := boundaryEdges(welded)
	res.Boundary = len(boundary)

	edges := make([]Edge, 0, len(boundary))
	for _, b := range boundary {
		edges = append(edges, NewEdge(points[b[0]], points[b[1]]))
	}
	res.Faces = FromEdges(edges)
	return res
}

// FromEdges classifies pre-extracted boundary edges onto the cube faces.
// An edge lies on a face when both endpoints sit on the face plane; an
// edge along a cube edge lies on two faces. Other edges are ignored.
func FromEdges(edges []Edge) Faces {
	var perFace [NumOrientations][]Edge
	for _, e := range edges {
		for _, o := range Orientations {
			axis, at := o.plane()
			if e.A.axis(axis) == at && e.B.axis(axis) == at {
				perFace[o] = append(perFace[o], e)
			}
		}
	}
	var f Faces
	for _, o := range Orientations {
		f[o] = NewFace(o, perFace[o])
	}
	return f
}

// bucketEntry is one directed edge stored under its lower vertex index.
type bucketEntry struct {
	other    uint32
	forward  bool // lower index -> higher index in triangle winding
	matched  bool
	from, to uint32
}

// boundaryEdges returns the edges used by exactly one triangle. Edges are
// bucketed by their lower vertex index; an edge meeting its reverse in
// another triangle is interior.
func boundaryEdges(m *kernel.Mesh) [][2]uint32 {
	buckets := make([][]bucketEntry, m.VertexCount())
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		for i := 0; i < 3; i++ {
			from, to := tri[i], tri[(i+1)%3]
			lo, hi := from, to
			if lo > hi {
				lo, hi = hi, lo
			}
			forward := from == lo
			bucket := buckets[lo]
			paired := false
			for j := range bucket {
				if bucket[j].other == hi && !bucket[j].matched && bucket[j].forward != forward {
					bucket[j].matched = true
					paired = true
					break
				}
			}
			if !paired {
				buckets[lo] = append(bucket, bucketEntry{other: hi, forward: forward, from: from, to: to})
			}
		}
	}

	var out [][2]uint32
	for _, bucket := range buckets {
		for _, e := range bucket {
			if !e.matched {
				out = append(out, [2]uint32{e.from, e.to})
			}
		}
	}
	return out
}

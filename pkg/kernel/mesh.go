package kernel

import "math"

// Mesh is a triangle mesh suitable for rendering and for adjacency analysis.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
//
// Tile meshes live in tile space: a unit cube centered at the origin with
// +Y pointing up.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // tile or cell this mesh belongs to
}

// TileHalfExtent is the half size of the tile cube in tile space.
const TileHalfExtent = 0.5

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i uint32) [3]float64 {
	return [3]float64{
		float64(m.Vertices[i*3]),
		float64(m.Vertices[i*3+1]),
		float64(m.Vertices[i*3+2]),
	}
}

// Triangle returns the vertex indices of triangle t.
func (m *Mesh) Triangle(t int) [3]uint32 {
	return [3]uint32{m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]}
}

// NewMesh builds an indexed mesh from positions and triangles. Normals are
// left empty; adjacency analysis does not need them.
func NewMesh(name string, positions [][3]float64, triangles [][3]uint32) *Mesh {
	m := &Mesh{
		Vertices: make([]float32, 0, len(positions)*3),
		Indices:  make([]uint32, 0, len(triangles)*3),
		PartName: name,
	}
	for _, p := range positions {
		m.Vertices = append(m.Vertices, float32(p[0]), float32(p[1]), float32(p[2]))
	}
	for _, t := range triangles {
		m.Indices = append(m.Indices, t[0], t[1], t[2])
	}
	return m
}

// Weld merges vertices whose positions agree after rounding to the given
// number of decimals and drops triangles that become degenerate. Marching
// cubes output is a triangle soup with three private vertices per
// triangle; boundary extraction needs shared indices.
func (m *Mesh) Weld(decimals int) *Mesh {
	scale := math.Pow(10, float64(decimals))
	type key [3]int64

	out := &Mesh{PartName: m.PartName}
	remap := make([]uint32, m.VertexCount())
	seen := make(map[key]uint32, m.VertexCount())
	hasNormals := len(m.Normals) == len(m.Vertices)

	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(uint32(i))
		k := key{
			int64(math.Round(v[0] * scale)),
			int64(math.Round(v[1] * scale)),
			int64(math.Round(v[2] * scale)),
		}
		idx, ok := seen[k]
		if !ok {
			idx = uint32(out.VertexCount())
			seen[k] = idx
			out.Vertices = append(out.Vertices,
				float32(float64(k[0])/scale),
				float32(float64(k[1])/scale),
				float32(float64(k[2])/scale))
			if hasNormals {
				out.Normals = append(out.Normals, m.Normals[i*3:i*3+3]...)
			}
		}
		remap[i] = idx
	}

	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		a, b, c := remap[tri[0]], remap[tri[1]], remap[tri[2]]
		if a == b || b == c || a == c {
			continue
		}
		out.Indices = append(out.Indices, a, b, c)
	}
	return out
}

// OpenCaps removes every triangle lying flat on one of the six tile cube
// faces. A closed solid clipped to the tile cube then exposes its
// cross-section outline on each face as boundary edges.
func (m *Mesh) OpenCaps(tolerance float64) *Mesh {
	out := &Mesh{
		Vertices: m.Vertices,
		Normals:  m.Normals,
		PartName: m.PartName,
	}
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		if m.onCubeFace(tri, tolerance) {
			continue
		}
		out.Indices = append(out.Indices, tri[0], tri[1], tri[2])
	}
	return out
}

func (m *Mesh) onCubeFace(tri [3]uint32, tolerance float64) bool {
	a, b, c := m.Vertex(tri[0]), m.Vertex(tri[1]), m.Vertex(tri[2])
	for axis := 0; axis < 3; axis++ {
		for _, side := range []float64{-TileHalfExtent, TileHalfExtent} {
			if math.Abs(a[axis]-side) <= tolerance &&
				math.Abs(b[axis]-side) <= tolerance &&
				math.Abs(c[axis]-side) <= tolerance {
				return true
			}
		}
	}
	return false
}

// Transformed returns a copy rotated by quarterTurns 90-degree steps about
// +Y and then translated by offset. One step maps (x, y, z) to (z, y, -x),
// which carries the -X face onto +Z.
func (m *Mesh) Transformed(quarterTurns int, offset [3]float32) *Mesh {
	steps := ((quarterTurns % 4) + 4) % 4
	out := &Mesh{
		Vertices: make([]float32, len(m.Vertices)),
		Normals:  make([]float32, len(m.Normals)),
		Indices:  append([]uint32(nil), m.Indices...),
		PartName: m.PartName,
	}
	rot := func(x, z float32) (float32, float32) {
		for i := 0; i < steps; i++ {
			x, z = z, -x
		}
		return x, z
	}
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		x, z := rot(m.Vertices[i], m.Vertices[i+2])
		out.Vertices[i] = x + offset[0]
		out.Vertices[i+1] = m.Vertices[i+1] + offset[1]
		out.Vertices[i+2] = z + offset[2]
	}
	for i := 0; i+2 < len(m.Normals); i += 3 {
		x, z := rot(m.Normals[i], m.Normals[i+2])
		out.Normals[i] = x
		out.Normals[i+1] = m.Normals[i+1]
		out.Normals[i+2] = z
	}
	return out
}

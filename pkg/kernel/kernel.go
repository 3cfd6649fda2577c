// Package kernel defines the abstract geometry kernel used to author tile
// shapes. Implementations (sdfx) provide solid modeling behind this
// interface; the adjacency builder only ever sees the resulting meshes.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface. All primitives are
// centered on the origin so that a tile authored in tile space stays inside
// the unit cube unless it is explicitly translated out of it.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid // axis along +Y

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// TileMesh tessellates a solid on the fixed tile lattice. Every
	// solid meshed at the same detail level shares one sampling grid,
	// so identical cross-sections produce identical outlines.
	TileMesh(s Solid, detail int) (*Mesh, error)
}

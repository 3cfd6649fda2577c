// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/tessera/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

const (
	// latticeExtent is the edge length of the sampling box. The uniform
	// renderer grows it by one cell around its center, so with 5*2^detail
	// cells every tile face plane lies halfway between two lattice nodes.
	latticeExtent = 1.25

	// snapEpsilon keeps vertices on the innermost node layer off the face.
	snapEpsilon = 1e-9

	// capTolerance is how far a vertex may sit from a face plane and still
	// count as lying on it.
	capTolerance = 1e-4

	// weldDecimals matches the adjacency quantization.
	weldDecimals = 3

	MinDetail = 1
	MaxDetail = 4
)

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// tileLattice pins the sampling box of any solid to the same fixed cube.
type tileLattice struct {
	sdf.SDF3
}

func (t tileLattice) BoundingBox() sdf.Box3 {
	h := latticeExtent / 2
	return sdf.Box3{
		Min: v3.Vec{X: -h, Y: -h, Z: -h},
		Max: v3.Vec{X: h, Y: h, Z: h},
	}
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	tile sdf.SDF3
}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	cube, err := sdf.Box3D(v3.Vec{X: 1, Y: 1, Z: 1}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	return &SdfxKernel{tile: cube}
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with the given dimensions centered on the origin.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	return wrap(s)
}

// Cylinder creates a cylinder with the given height and radius. sdfx
// builds cylinders along Z; the result is turned to stand along Y.
func (k *SdfxKernel) Cylinder(height, radius float64) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return wrap(sdf.Transform3D(s, sdf.RotateX(math.Pi/2)))
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// LatticeCells returns the marching cubes resolution for a detail level.
func LatticeCells(detail int) int {
	return 5 << detail
}

// TileMesh clips a solid to the tile cube, tessellates it on the fixed
// lattice and opens the caps on the cube faces, leaving each face
// cross-section as a ring of boundary edges.
func (k *SdfxKernel) TileMesh(s kernel.Solid, detail int) (*kernel.Mesh, error) {
	if detail < MinDetail || detail > MaxDetail {
		return nil, fmt.Errorf("sdfx: detail %d outside [%d, %d]", detail, MinDetail, MaxDetail)
	}
	clipped := tileLattice{sdf.Intersect3D(unwrap(s), k.tile)}

	renderer := render.NewMarchingCubesUniform(LatticeCells(detail))
	triangles := render.ToTriangles(clipped, renderer)

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	band := faceBand(detail)
	var i int
	for _, tri := range triangles {
		snapToFaces(tri, band)
		n := tri.Normal()
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) {
			// Snapping flattened it.
			continue
		}
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
		i++
	}

	raw := &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}
	return raw.Weld(weldDecimals).OpenCaps(capTolerance), nil
}

// faceBand is the distance from the center beyond which a vertex can only
// come from a lattice edge crossing a tile face. The node layers next to a
// face sit half a cell either side of it and the outer one is always
// outside the clipped solid.
func faceBand(detail int) float64 {
	cell := latticeExtent / float64(LatticeCells(detail))
	return 0.5 - cell/2 + snapEpsilon
}

// snapToFaces moves vertices on face-crossing lattice edges onto the face
// plane. Linear interpolation of the clipped distance field puts them short
// of the plane wherever the solid's own surface is nearer than the face,
// which would leave the cross-section capped inside the tile.
func snapToFaces(t *sdf.Triangle3, band float64) {
	for j := range t {
		t[j].X = snapCoord(t[j].X, band)
		t[j].Y = snapCoord(t[j].Y, band)
		t[j].Z = snapCoord(t[j].Z, band)
	}
}

func snapCoord(c, band float64) float64 {
	switch {
	case c > band:
		return 0.5
	case c < -band:
		return -0.5
	}
	return c
}

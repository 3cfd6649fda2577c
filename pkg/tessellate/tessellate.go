// Package tessellate turns solved cells into world-space triangle meshes.
// One mesh is produced per placed tile.
package tessellate

import (
	"fmt"

	"github.com/chazu/tessera/pkg/grid"
	"github.com/chazu/tessera/pkg/kernel"
	"github.com/chazu/tessera/pkg/solver"
)

// PartName names the mesh placed at p, e.g. "arch@2,0,1".
func PartName(tile string, p grid.Position) string {
	return fmt.Sprintf("%s@%d,%d,%d", tile, p.X, p.Y, p.Z)
}

// Offset is the world-space center of the cell at p. Cells are unit
// cubes with (0,0,0) centered on the origin.
func Offset(p grid.Position) [3]float32 {
	return [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}
}

// Tessellate places each assigned tile's mesh in its cell, rotated by the
// model's variant. EMPTY tiles and tiles without geometry are skipped.
// The input meshes are never mutated.
func Tessellate(cells []solver.Assignment) []*kernel.Mesh {
	var meshes []*kernel.Mesh
	for _, a := range cells {
		m := a.Model
		if m == nil || m.IsEmpty() || m.Mesh == nil || m.Mesh.IsEmpty() {
			continue
		}
		placed := m.Mesh.Transformed(m.Rotation, Offset(a.Position))
		placed.PartName = PartName(m.Name, a.Position)
		meshes = append(meshes, placed)
	}
	return meshes
}

// Merge concatenates meshes into one, reindexing triangles.
func Merge(name string, meshes []*kernel.Mesh) *kernel.Mesh {
	out := &kernel.Mesh{PartName: name}
	for _, m := range meshes {
		base := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices, m.Vertices...)
		out.Normals = append(out.Normals, m.Normals...)
		for _, idx := range m.Indices {
			out.Indices = append(out.Indices, idx+base)
		}
	}
	return out
}

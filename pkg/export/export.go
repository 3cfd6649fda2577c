// Package export writes solved grids to disk: a YAML document describing
// every resolved cell, and Wavefront OBJ for the tessellated geometry.
package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/chazu/tessera/pkg/grid"
	"github.com/chazu/tessera/pkg/kernel"
	"github.com/chazu/tessera/pkg/solver"
	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a solver snapshot.
type Document struct {
	Dims       grid.Dims `yaml:"dims"`
	Seed       uint64    `yaml:"seed"`
	Generation string    `yaml:"generation"`
	State      string    `yaml:"state"`
	Restarts   int       `yaml:"restarts"`
	Components int       `yaml:"components"`
	Cells      []Cell    `yaml:"cells"`
}

// Cell is one resolved grid position.
type Cell struct {
	Position [3]int `yaml:"position,flow"`
	Tile     string `yaml:"tile"`
	Variant  int    `yaml:"variant"`
	Rotation int    `yaml:"rotation"`
	Category string `yaml:"category"`
}

// FromSnapshot converts a snapshot. Cells keep grid order.
func FromSnapshot(snap solver.Snapshot) Document {
	doc := Document{
		Dims:       snap.Dims,
		Seed:       snap.Seed,
		Generation: snap.Generation,
		State:      snap.State.String(),
		Restarts:   snap.Restarts,
		Components: snap.Components,
		Cells:      make([]Cell, 0, len(snap.Cells)),
	}
	for _, a := range snap.Cells {
		if a.Model == nil {
			continue
		}
		doc.Cells = append(doc.Cells, Cell{
			Position: [3]int{a.Position.X, a.Position.Y, a.Position.Z},
			Tile:     a.Model.Name,
			Variant:  a.Model.Variant,
			Rotation: a.Model.Rotation,
			Category: a.Model.Category.String(),
		})
	}
	return doc
}

// WriteYAML encodes doc to w.
func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("export: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("export: encode yaml: %w", err)
	}
	return nil
}

// ReadYAML decodes a document written by WriteYAML.
func ReadYAML(r io.Reader) (Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("export: decode yaml: %w", err)
	}
	return doc, nil
}

// WriteOBJ writes meshes as Wavefront OBJ, one group per mesh. Normals
// are emitted when present for every vertex.
func WriteOBJ(w io.Writer, meshes []*kernel.Mesh) error {
	bw := bufio.NewWriter(w)
	base := uint32(1)
	for _, m := range meshes {
		if m == nil || m.IsEmpty() {
			continue
		}
		fmt.Fprintf(bw, "g %s\n", m.PartName)
		n := m.VertexCount()
		for i := 0; i < n; i++ {
			v := m.Vertices[3*i : 3*i+3]
			fmt.Fprintf(bw, "v %g %g %g\n", v[0], v[1], v[2])
		}
		withNormals := len(m.Normals) == len(m.Vertices)
		if withNormals {
			for i := 0; i < n; i++ {
				vn := m.Normals[3*i : 3*i+3]
				fmt.Fprintf(bw, "vn %g %g %g\n", vn[0], vn[1], vn[2])
			}
		}
		for t := 0; t < m.TriangleCount(); t++ {
			tri := m.Triangle(t)
			a, b, c := tri[0]+base, tri[1]+base, tri[2]+base
			if withNormals {
				fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
			} else {
				fmt.Fprintf(bw, "f %d %d %d\n", a, b, c)
			}
		}
		base += uint32(n)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("export: write obj: %w", err)
	}
	return nil
}

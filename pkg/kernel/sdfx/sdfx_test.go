package sdfx

import (
	"fmt"
	"math"
	"testing"

	"github.com/chazu/tessera/pkg/adjacency"
)

func TestBoxIsCentered(t *testing.T) {
	k := New()
	box := k.Box(1, 0.5, 0.25)
	min, max := box.BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{-0.5, -0.25, -0.125}
	expectMax := [3]float64{0.5, 0.25, 0.125}

	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestCylinderStandsOnY(t *testing.T) {
	k := New()
	min, max := k.Cylinder(0.8, 0.1).BoundingBox()

	const tol = 0.01
	if h := max[1] - min[1]; math.Abs(h-0.8) > tol {
		t.Errorf("cylinder Y extent = %f, expected 0.8", h)
	}
	if w := max[0] - min[0]; math.Abs(w-0.2) > tol {
		t.Errorf("cylinder X extent = %f, expected 0.2", w)
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	translated := k.Translate(k.Box(0.2, 0.2, 0.2), 1, 2, 3)
	min, max := translated.BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{0.9, 1.9, 2.9}
	expectMax := [3]float64{1.1, 2.1, 3.1}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], expectMax[i])
		}
	}
}

func TestRotate(t *testing.T) {
	k := New()
	rotated := k.Rotate(k.Box(1, 0.1, 0.1), 0, 90, 0)
	min, max := rotated.BoundingBox()

	const tol = 0.05
	if x := max[0] - min[0]; math.Abs(x-0.1) > tol {
		t.Errorf("rotated X extent = %f, expected ~0.1", x)
	}
	if z := max[2] - min[2]; math.Abs(z-1) > tol {
		t.Errorf("rotated Z extent = %f, expected ~1", z)
	}
}

func TestLatticeCells(t *testing.T) {
	tests := []struct {
		detail int
		want   int
	}{
		{1, 10}, {2, 20}, {3, 40}, {4, 80},
	}
	for _, tt := range tests {
		if got := LatticeCells(tt.detail); got != tt.want {
			t.Errorf("LatticeCells(%d) = %d, want %d", tt.detail, got, tt.want)
		}
	}
}

func TestTileMeshRejectsDetail(t *testing.T) {
	k := New()
	for _, d := range []int{0, 5} {
		if _, err := k.TileMesh(k.Box(1, 1, 1), d); err == nil {
			t.Errorf("TileMesh(detail=%d) returned nil error", d)
		}
	}
}

func TestTileMeshOpensFaceCaps(t *testing.T) {
	k := New()
	// A bar running the full X extent pierces the +X and -X faces.
	bar := k.Box(1, 0.2, 0.2)
	mesh, err := k.TileMesh(bar, 1)
	if err != nil {
		t.Fatalf("TileMesh failed: %v", err)
	}
	if mesh.IsEmpty() || mesh.TriangleCount() == 0 {
		t.Fatal("bar mesh is empty")
	}

	onPlaneX := 0
	for i := 0; i < mesh.VertexCount(); i++ {
		v := mesh.Vertex(uint32(i))
		for _, c := range v {
			if math.Abs(c) > 0.5+1e-3 {
				t.Fatalf("vertex %v lies outside the tile cube", v)
			}
		}
		if math.Abs(math.Abs(v[0])-0.5) < 1e-3 {
			onPlaneX++
		}
	}
	if onPlaneX == 0 {
		t.Fatal("expected outline vertices on the X faces")
	}

	for tri := 0; tri < mesh.TriangleCount(); tri++ {
		idx := mesh.Triangle(tri)
		flat := true
		for _, i := range idx {
			if math.Abs(mesh.Vertex(i)[0]-0.5) > 5e-4 {
				flat = false
			}
		}
		if flat {
			t.Fatalf("triangle %d still lies on the +X face", tri)
		}
	}
	t.Logf("bar triangle count: %d", mesh.TriangleCount())
}

func TestTileMeshInteriorSolidIsClosed(t *testing.T) {
	k := New()
	// Not touching any face: nothing to open.
	mesh, err := k.TileMesh(k.Box(0.4, 0.4, 0.4), 1)
	if err != nil {
		t.Fatalf("TileMesh failed: %v", err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("interior box produced no triangles")
	}
}

func TestTileMeshFaceOutlinesAtEveryDetail(t *testing.T) {
	k := New()
	bar := k.Box(1, 0.2, 0.2)
	for d := MinDetail; d <= MaxDetail; d++ {
		t.Run(fmt.Sprintf("detail %d", d), func(t *testing.T) {
			mesh, err := k.TileMesh(bar, d)
			if err != nil {
				t.Fatalf("TileMesh failed: %v", err)
			}
			faces := adjacency.Build(mesh).Faces
			north, south := faces[adjacency.North], faces[adjacency.South]
			if north.Len() < 3 || south.Len() < 3 {
				t.Fatalf("end outlines have %d and %d edges, want a closed ring", north.Len(), south.Len())
			}
			if !north.Matches(south) {
				t.Error("bar ends should match each other")
			}
			for _, o := range []adjacency.Orientation{adjacency.East, adjacency.West, adjacency.Top, adjacency.Bottom} {
				if !faces[o].IsEmpty() {
					t.Errorf("%s face has %d edges, want none", o, faces[o].Len())
				}
			}
		})
	}
}

func TestSnapCoord(t *testing.T) {
	band := faceBand(1) // innermost node layer at 0.4375
	tests := []struct {
		in, want float64
	}{
		{0.4375, 0.4375},
		{0.484, 0.5},
		{-0.45, -0.5},
		{0.1, 0.1},
		{0.5, 0.5},
	}
	for _, tt := range tests {
		if got := snapCoord(tt.in, band); got != tt.want {
			t.Errorf("snapCoord(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

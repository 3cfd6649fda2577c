// Package grid holds the dense 3-D cell array the solver works on and the
// zone rules that decide which tile categories each cell starts with.
package grid

import (
	"errors"
	"fmt"

	"github.com/chazu/tessera/pkg/adjacency"
	"github.com/chazu/tessera/pkg/catalog"
)

// Position addresses a cell. Y is the vertical (layer) axis.
type Position struct {
	X, Y, Z int
}

func (p Position) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

// Step returns the neighbouring position across face o.
func (p Position) Step(o adjacency.Orientation) Position {
	dx, dy, dz := o.Offset()
	return Position{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Dims are the grid extents along X, Y and Z.
type Dims struct {
	Width  int `yaml:"width" json:"width" validate:"gte=1"`
	Height int `yaml:"height" json:"height" validate:"gte=1"`
	Depth  int `yaml:"depth" json:"depth" validate:"gte=1"`
}

// ErrBadDims is returned for non-positive extents.
var ErrBadDims = errors.New("grid: dimensions must be positive")

// Validate checks that all extents are positive.
func (d Dims) Validate() error {
	if d.Width <= 0 || d.Height <= 0 || d.Depth <= 0 {
		return fmt.Errorf("%w: %dx%dx%d", ErrBadDims, d.Width, d.Height, d.Depth)
	}
	return nil
}

// Contains reports whether p lies inside the grid.
func (d Dims) Contains(p Position) bool {
	return p.X >= 0 && p.X < d.Width &&
		p.Y >= 0 && p.Y < d.Height &&
		p.Z >= 0 && p.Z < d.Depth
}

// Volume returns the number of cells.
func (d Dims) Volume() int {
	return d.Width * d.Height * d.Depth
}

// index lays cells out layer by layer, X outer and Z inner within a layer.
func (d Dims) index(p Position) int {
	return (p.Y*d.Width+p.X)*d.Depth + p.Z
}

// ZoneFunc decides which categories may appear at a position.
type ZoneFunc func(p Position, d Dims) catalog.CategorySet

// DefaultZones keeps the outer X/Z ring empty, allows ground on the bottom
// layer, roofs on the top layer, and anything in between.
func DefaultZones(p Position, d Dims) catalog.CategorySet {
	switch {
	case p.X == 0 || p.X == d.Width-1 || p.Z == 0 || p.Z == d.Depth-1:
		return catalog.Set(catalog.Empty)
	case p.Y == 0:
		return catalog.Set(catalog.Ground, catalog.Empty)
	case p.Y == d.Height-1:
		return catalog.Set(catalog.Roof, catalog.Empty)
	default:
		return catalog.AllCategories
	}
}

// Uniform allows the same categories everywhere.
func Uniform(set catalog.CategorySet) ZoneFunc {
	return func(Position, Dims) catalog.CategorySet { return set }
}

// Grid is a fixed-size dense array of cells.
type Grid struct {
	dims  Dims
	cells []*Cell
}

// New allocates a grid and seeds every cell with the catalog subset its
// zone allows. Every cell starts marked as changed.
func New(dims Dims, cat *catalog.Catalog, zone ZoneFunc) (*Grid, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, errors.New("grid: nil catalog")
	}
	if zone == nil {
		zone = DefaultZones
	}

	g := &Grid{dims: dims, cells: make([]*Cell, dims.Volume())}
	subsets := make(map[catalog.CategorySet][]*catalog.TileModel)
	for y := 0; y < dims.Height; y++ {
		for x := 0; x < dims.Width; x++ {
			for z := 0; z < dims.Depth; z++ {
				p := Position{X: x, Y: y, Z: z}
				set := zone(p, dims)
				sub, ok := subsets[set]
				if !ok {
					sub = cat.Select(set)
					subsets[set] = sub
				}
				g.cells[dims.index(p)] = newCell(p, append([]*catalog.TileModel(nil), sub...))
			}
		}
	}
	return g, nil
}

// Dims returns the grid extents.
func (g *Grid) Dims() Dims { return g.dims }

// At returns the cell at p, or nil outside the grid.
func (g *Grid) At(p Position) *Cell {
	if !g.dims.Contains(p) {
		return nil
	}
	return g.cells[g.dims.index(p)]
}

// Neighbour returns the cell across face o of p, or nil at the border.
func (g *Grid) Neighbour(p Position, o adjacency.Orientation) *Cell {
	return g.At(p.Step(o))
}

// Layer returns the cells of layer y in scan order: X, then Z.
func (g *Grid) Layer(y int) []*Cell {
	n := g.dims.Width * g.dims.Depth
	return g.cells[y*n : (y+1)*n]
}

// Cells returns every cell, layer by layer.
func (g *Grid) Cells() []*Cell {
	return g.cells
}

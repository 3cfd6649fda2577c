// Package adjacency turns the boundary of a tile mesh into per-face
// matching keys. Two tiles may sit side by side when the face of one and
// the opposite face of the other carry the same outline.
package adjacency

import (
	"fmt"
	"math"
)

const (
	// Scale converts tile-space units to quantized thousandths.
	Scale = 1000

	// Half is the quantized coordinate of the tile cube faces.
	Half = Scale / 2
)

// Point is a tile-space point quantized to three decimal places and stored
// as integer thousandths, so equality is exact.
type Point struct {
	X, Y, Z int32
}

// Quantize rounds a tile-space position to the nearest thousandth.
func Quantize(v [3]float64) Point {
	return Point{
		X: int32(math.Round(v[0] * Scale)),
		Y: int32(math.Round(v[1] * Scale)),
		Z: int32(math.Round(v[2] * Scale)),
	}
}

// P builds a Point from tile-space coordinates.
func P(x, y, z float64) Point {
	return Quantize([3]float64{x, y, z})
}

// Less orders points by X, then Z, then Y.
func (p Point) Less(q Point) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	if p.Z != q.Z {
		return p.Z < q.Z
	}
	return p.Y < q.Y
}

// Rotate turns the point one quarter about +Y: (x, y, z) -> (z, y, -x).
func (p Point) Rotate() Point {
	return Point{X: p.Z, Y: p.Y, Z: -p.X}
}

// RotateN applies k quarter turns. Negative k turns the other way.
func (p Point) RotateN(k int) Point {
	for i := 0; i < normTurns(k); i++ {
		p = p.Rotate()
	}
	return p
}

// InCube reports whether the point lies inside or on the tile cube.
func (p Point) InCube() bool {
	return abs32(p.X) <= Half && abs32(p.Y) <= Half && abs32(p.Z) <= Half
}

// Float returns the tile-space coordinates.
func (p Point) Float() [3]float64 {
	return [3]float64{float64(p.X) / Scale, float64(p.Y) / Scale, float64(p.Z) / Scale}
}

func (p Point) String() string {
	f := p.Float()
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", f[0], f[1], f[2])
}

func (p Point) axis(i int) int32 {
	switch i {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func normTurns(k int) int {
	return ((k % 4) + 4) % 4
}

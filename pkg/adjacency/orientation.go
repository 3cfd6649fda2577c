package adjacency

import "fmt"

// Orientation names one of the six faces of a tile cell.
//
// Axis convention, with +Y up: South = +X, North = -X, East = +Z,
// West = -Z, Top = +Y, Bottom = -Y.
type Orientation int

const (
	North Orientation = iota
	East
	South
	West
	Top
	Bottom
)

// NumOrientations is the number of cube faces.
const NumOrientations = 6

// Orientations lists every face in declaration order.
var Orientations = [NumOrientations]Orientation{North, East, South, West, Top, Bottom}

// Horizontal lists the four side faces in rotation order.
var Horizontal = [4]Orientation{North, East, South, West}

var orientationNames = [NumOrientations]string{"north", "east", "south", "west", "top", "bottom"}

func (o Orientation) String() string {
	if o < 0 || o >= NumOrientations {
		return fmt.Sprintf("orientation(%d)", int(o))
	}
	return orientationNames[o]
}

// IsHorizontal reports whether o is one of the four side faces.
func (o Orientation) IsHorizontal() bool {
	return o >= North && o <= West
}

// Opposite returns the face on the other side of the cube.
func (o Orientation) Opposite() Orientation {
	switch o {
	case Top:
		return Bottom
	case Bottom:
		return Top
	default:
		return (o + 2) % 4
	}
}

// Rotate returns the orientation reached after k quarter turns about +Y.
// Top and Bottom are fixed.
func (o Orientation) Rotate(k int) Orientation {
	if !o.IsHorizontal() {
		return o
	}
	return Orientation((int(o) + normTurns(k)) % 4)
}

// Offset is the grid step from a cell to its neighbour across face o.
func (o Orientation) Offset() (dx, dy, dz int) {
	switch o {
	case North:
		return -1, 0, 0
	case South:
		return 1, 0, 0
	case East:
		return 0, 0, 1
	case West:
		return 0, 0, -1
	case Top:
		return 0, 1, 0
	default:
		return 0, -1, 0
	}
}

// plane returns the perpendicular axis (0=X, 1=Y, 2=Z) and the quantized
// coordinate of the face plane.
func (o Orientation) plane() (axis int, at int32) {
	switch o {
	case North:
		return 0, -Half
	case South:
		return 0, Half
	case East:
		return 2, Half
	case West:
		return 2, -Half
	case Top:
		return 1, Half
	default:
		return 1, -Half
	}
}

// project maps a point into the face's plane frame.
func (o Orientation) project(p Point) [3]int32 {
	switch o {
	case North, South:
		return [3]int32{p.Z, p.Y, abs32(p.X)}
	case East, West:
		return [3]int32{p.X, p.Y, abs32(p.Z)}
	default:
		return [3]int32{p.X, p.Z, abs32(p.Y)}
	}
}

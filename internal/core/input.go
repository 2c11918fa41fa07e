package core

// Direction is one of the eight compass directions reported by the joystick.
// The zero value DirNone means the stick is centered.
type Direction uint8

const (
	DirNone Direction = iota
	North
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// Directions lists the eight compass values clockwise from North.
var Directions = [...]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// String returns a human-readable name for the direction.
func (d Direction) String() string {
	switch d {
	case DirNone:
		return "none"
	case North:
		return "north"
	case NorthEast:
		return "northeast"
	case East:
		return "east"
	case SouthEast:
		return "southeast"
	case South:
		return "south"
	case SouthWest:
		return "southwest"
	case West:
		return "west"
	case NorthWest:
		return "northwest"
	default:
		return "unknown"
	}
}

// Opposite returns the direction 180 degrees away. DirNone is its own opposite.
func (d Direction) Opposite() Direction {
	if d == DirNone || d > NorthWest {
		return d
	}
	// Clockwise index 0..7, shifted by four positions.
	return Directions[(int(d-North)+4)%len(Directions)]
}

// IsCardinal reports whether d is North, East, South or West.
func (d Direction) IsCardinal() bool {
	return d == North || d == East || d == South || d == West
}

// IsDiagonal reports whether d is one of the four intercardinal directions.
func (d Direction) IsDiagonal() bool {
	return d == NorthEast || d == SouthEast || d == SouthWest || d == NorthWest
}

// Delta returns the per-axis movement of one step in direction d.
// The grid's x axis grows westward and its y axis grows southward.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case NorthEast:
		return -1, -1
	case East:
		return -1, 0
	case SouthEast:
		return -1, 1
	case South:
		return 0, 1
	case SouthWest:
		return 1, 1
	case West:
		return 1, 0
	case NorthWest:
		return 1, -1
	default:
		return 0, 0
	}
}

// Compose builds a direction from per-axis signs (-1, 0, +1) using the same axis
// orientation as Delta. Compose(0, 0) is DirNone.
func Compose(dx, dy int) Direction {
	for _, d := range Directions {
		x, y := d.Delta()
		if x == sign(dx) && y == sign(dy) {
			return d
		}
	}
	return DirNone
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

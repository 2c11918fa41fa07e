// Package core provides fundamental types shared by the game, the scheduler and the
// hardware backends. It contains no external dependencies to keep game logic pure and
// testable.
package core

import "fmt"

// Grid dimensions of the LED matrix. The snake can occupy every cell.
const (
	GridSize = 8
	Capacity = GridSize * GridSize
)

// Point is a cell on the grid: X is the column, Y is the row (growing downward).
type Point struct {
	X, Y uint8
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y uint8) Point {
	return Point{X: x, Y: y}
}

// Valid reports whether both coordinates are inside the grid.
func (p Point) Valid() bool {
	return p.X < GridSize && p.Y < GridSize
}

// Step returns the neighbouring cell in direction d with toroidal wraparound.
// North and East decrement, South and West increment. Diagonals move on both axes;
// DirNone returns p unchanged.
func (p Point) Step(d Direction) Point {
	dx, dy := d.Delta()
	return Point{
		X: wrap(p.X, dx),
		Y: wrap(p.Y, dy),
	}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// wrap moves v by delta (-1, 0, +1) modulo GridSize.
func wrap(v uint8, delta int) uint8 {
	switch {
	case delta > 0:
		return (v + 1) % GridSize
	case delta < 0:
		if v == 0 {
			return GridSize - 1
		}
		return v - 1
	default:
		return v
	}
}

package core

import (
	"math/bits"
	"strings"
)

// Bitmap is an 8x8 occupancy grid, one byte per row (indexed by y).
// Bit x of a row is set when cell (x, y) is lit.
type Bitmap [GridSize]uint8

// Set lights the cell at p. Out-of-grid points are silently ignored.
func (b *Bitmap) Set(p Point) {
	if !p.Valid() {
		return
	}
	b[p.Y] |= 1 << p.X
}

// Unset darkens the cell at p.
func (b *Bitmap) Unset(p Point) {
	if !p.Valid() {
		return
	}
	b[p.Y] &^= 1 << p.X
}

// Get reports whether the cell at p is lit. Returns false out of grid.
func (b Bitmap) Get(p Point) bool {
	if !p.Valid() {
		return false
	}
	return b[p.Y]&(1<<p.X) != 0
}

// Or returns the union of two bitmaps.
func (b Bitmap) Or(other Bitmap) Bitmap {
	for y := range b {
		b[y] |= other[y]
	}
	return b
}

// Count returns the number of lit cells.
func (b Bitmap) Count() int {
	n := 0
	for _, row := range b {
		n += bits.OnesCount8(row)
	}
	return n
}

// Rows returns the bitmap as the row slice a display driver expects.
func (b Bitmap) Rows() []uint8 {
	rows := make([]uint8, GridSize)
	copy(rows, b[:])
	return rows
}

// String renders the bitmap as eight lines of '#' (lit) and '.' (dark).
func (b Bitmap) String() string {
	var sb strings.Builder
	sb.Grow(GridSize * (GridSize + 1))

	for y := range GridSize {
		if y > 0 {
			sb.WriteRune('\n')
		}
		for x := range GridSize {
			if b[y]&(1<<x) != 0 {
				sb.WriteRune('#')
			} else {
				sb.WriteRune('.')
			}
		}
	}
	return sb.String()
}

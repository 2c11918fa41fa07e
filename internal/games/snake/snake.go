package snake

import "github.com/vovakirdan/ledsnake/internal/core"

// Snake is an ordered body of grid cells, head first, stored in a fixed buffer sized
// to the whole grid.
type Snake struct {
	body    [core.Capacity]core.Point
	length  int
	heading core.Direction
}

// NewSnake creates a single-cell snake at start.
func NewSnake(start core.Point, heading core.Direction) *Snake {
	s := &Snake{heading: heading, length: 1}
	s.body[0] = start
	return s
}

// Len returns the number of occupied cells.
func (s *Snake) Len() int {
	return s.length
}

// Head returns the head cell. An empty body is an invariant violation.
func (s *Snake) Head() core.Point {
	if s.length == 0 {
		panic("snake: head of empty body")
	}
	return s.body[0]
}

// Heading returns the current direction of travel.
func (s *Snake) Heading() core.Direction {
	return s.heading
}

// Cells returns the body head first. The slice aliases the snake's buffer.
func (s *Snake) Cells() []core.Point {
	return s.body[:s.length]
}

// Contains reports whether any body cell equals p.
func (s *Snake) Contains(p core.Point) bool {
	for _, c := range s.Cells() {
		if c == p {
			return true
		}
	}
	return false
}

// SetHeading changes direction when the request is cardinal and not a reversal.
// Anything else leaves the heading unchanged.
func (s *Snake) SetHeading(requested core.Direction) {
	if !requested.IsCardinal() || requested == s.heading.Opposite() {
		return
	}
	s.heading = requested
}

// Advance moves the snake one cell along its heading with wraparound. The tail is kept
// when ateFruit is true, so the snake grows. A full body accepts no new head.
func (s *Snake) Advance(ateFruit bool) {
	next := s.Head().Step(s.heading)

	if !s.IsFull() {
		copy(s.body[1:s.length+1], s.body[:s.length])
		s.body[0] = next
		s.length++
	}

	if !ateFruit {
		s.length--
	}
}

// CollidedWithSelf reports whether the head shares a cell with any other segment.
func (s *Snake) CollidedWithSelf() bool {
	head := s.Head()
	for _, c := range s.body[1:s.length] {
		if c == head {
			return true
		}
	}
	return false
}

// IsFull reports whether the snake covers every grid cell.
func (s *Snake) IsFull() bool {
	return s.length == core.Capacity
}

// Render returns the occupancy bitmap of the body.
func (s *Snake) Render() core.Bitmap {
	var b core.Bitmap
	for _, c := range s.Cells() {
		b.Set(c)
	}
	return b
}

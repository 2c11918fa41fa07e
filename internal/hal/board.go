// Package hal is the host side of the hardware boundary: the Board bundle a backend
// opens, the backend registry, and the simulated peripherals the backends are built
// from.
package hal

import (
	"errors"

	"github.com/vovakirdan/ledsnake/internal/display"
	"github.com/vovakirdan/ledsnake/internal/joystick"
	"github.com/vovakirdan/ledsnake/internal/sched"
)

// Board is everything the console needs from the hardware. Each field is owned by the
// console once the board is handed over.
type Board struct {
	Backend string
	Display display.Display
	Sensor  joystick.Sensor
	Clock   sched.Clock

	closers []func() error
}

// OnClose registers cleanup run by Close in reverse order.
func (b *Board) OnClose(fn func() error) {
	b.closers = append(b.closers, fn)
}

// Close releases the board's resources.
func (b *Board) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

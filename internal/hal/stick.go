package hal

import (
	"math/rand/v2"
	"sync"

	"github.com/vovakirdan/ledsnake/internal/config"
	"github.com/vovakirdan/ledsnake/internal/core"
	"github.com/vovakirdan/ledsnake/internal/sched"
)

// VirtualStick is a joystick.Sensor fed by software: a held direction with an expiry,
// a latched button and a little ADC noise around the rest position.
type VirtualStick struct {
	clock      sched.Clock
	center     uint16
	deflection uint16
	noise      uint16

	mu        sync.Mutex
	dir       core.Direction
	holdUntil uint64 // Cycle at which the held direction is released; 0 holds forever
	pressed   bool
	rng       *rand.Rand
}

// NewVirtualStick creates a centred stick. clock times the hold windows.
func NewVirtualStick(clock sched.Clock, cfg config.JoystickConfig) *VirtualStick {
	return &VirtualStick{
		clock:      clock,
		center:     cfg.Center,
		deflection: cfg.Deflection,
		noise:      cfg.Noise,
		rng:        rand.New(rand.NewPCG(uint64(cfg.Center), uint64(cfg.Deflection))),
	}
}

// Hold deflects the stick toward dir for the given number of cycles. Zero holds until
// the next Hold or Release.
func (s *VirtualStick) Hold(dir core.Direction, cycles uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = dir
	s.holdUntil = 0
	if cycles > 0 {
		s.holdUntil = s.clock.Now() + cycles
	}
}

// Release centres the stick.
func (s *VirtualStick) Release() {
	s.Hold(core.DirNone, 0)
}

// Press latches a button press until the next poll reads it.
func (s *VirtualStick) Press() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pressed = true
}

// Held returns the direction currently applied.
func (s *VirtualStick) Held() core.Direction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heldLocked()
}

func (s *VirtualStick) heldLocked() core.Direction {
	if s.holdUntil != 0 && s.clock.Now() >= s.holdUntil {
		s.dir = core.DirNone
		s.holdUntil = 0
	}
	return s.dir
}

// ReadRawAxes implements joystick.Sensor. A negative grid delta reads below the rest
// position and a positive one above it.
func (s *VirtualStick) ReadRawAxes() (uint16, uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dx, dy := s.heldLocked().Delta()
	return s.axis(dx), s.axis(dy), nil
}

func (s *VirtualStick) axis(delta int) uint16 {
	v := int(s.center) + delta*int(s.deflection)
	if s.noise > 0 {
		v += s.rng.IntN(2*int(s.noise)+1) - int(s.noise)
	}
	return uint16(min(max(v, 0), 0xFFFF))
}

// IsButtonPressed implements joystick.Sensor. Reading clears the latch.
func (s *VirtualStick) IsButtonPressed() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pressed := s.pressed
	s.pressed = false
	return pressed, nil
}

package tui

import (
	"github.com/vovakirdan/ledsnake/internal/config"
	"github.com/vovakirdan/ledsnake/internal/display"
	"github.com/vovakirdan/ledsnake/internal/hal"
	"github.com/vovakirdan/ledsnake/internal/sched"
)

// Backend is the name of the terminal backend.
const Backend = "term"

func init() {
	hal.Register(termBackend{})
}

// termBackend puts the panel and the stick in a terminal: the simulator draws the
// recorder and feeds the virtual stick from the keyboard.
type termBackend struct{}

func (termBackend) Name() string { return Backend }

func (termBackend) Description() string {
	return "Terminal panel and keyboard stick, real-time clock"
}

func (termBackend) Open(cfg config.Config) (*hal.Board, error) {
	clock := sched.NewMonotonicClock(cfg.Clock.FrequencyHz)
	return &hal.Board{
		Display: display.NewRecorder(),
		Sensor:  hal.NewVirtualStick(clock, cfg.Joystick),
		Clock:   clock,
	}, nil
}

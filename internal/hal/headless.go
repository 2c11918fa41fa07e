package hal

import (
	"github.com/vovakirdan/ledsnake/internal/config"
	"github.com/vovakirdan/ledsnake/internal/display"
	"github.com/vovakirdan/ledsnake/internal/sched"
)

func init() {
	Register(headless{})
	Register(bench{})
}

// headless runs the autopilot in real time against an in-memory panel.
type headless struct{}

func (headless) Name() string { return "headless" }

func (headless) Description() string {
	return "In-memory panel and autopilot stick, real-time clock"
}

func (headless) Open(cfg config.Config) (*Board, error) {
	return autopilotBoard(sched.NewMonotonicClock(cfg.Clock.FrequencyHz), cfg), nil
}

// bench is headless with a simulated clock: deadlines are reached instantly, so hours
// of play take milliseconds.
type bench struct{}

func (bench) Name() string { return "bench" }

func (bench) Description() string {
	return "In-memory panel and autopilot stick, simulated clock (runs as fast as possible)"
}

func (bench) Open(cfg config.Config) (*Board, error) {
	return autopilotBoard(sched.NewFakeClock(cfg.Clock.FrequencyHz), cfg), nil
}

func autopilotBoard(clock sched.Clock, cfg config.Config) *Board {
	stick := NewVirtualStick(clock, cfg.Joystick)
	return &Board{
		Display: display.NewRecorder(),
		Sensor:  NewAutopilot(stick, DefaultPressEvery),
		Clock:   clock,
	}
}

package hal

import (
	"sync"

	"github.com/vovakirdan/ledsnake/internal/core"
	"github.com/vovakirdan/ledsnake/internal/games/snake"
)

// Observer is implemented by sensors that steer from the game state. The CLI attaches
// the console's snapshot once the console exists.
type Observer interface {
	Attach(observe func() (snake.Snapshot, bool))
}

// DefaultPressEvery is how many attract polls the autopilot waits before pressing start.
const DefaultPressEvery = 8

// Autopilot is a sensor that plays by itself: it presses start after a few attract polls
// and steers the stick toward the fruit while a game runs.
type Autopilot struct {
	stick      *VirtualStick
	pressEvery int

	mu      sync.Mutex
	observe func() (snake.Snapshot, bool)
	polls   int
}

// NewAutopilot drives stick.
func NewAutopilot(stick *VirtualStick, pressEvery int) *Autopilot {
	if pressEvery <= 0 {
		pressEvery = DefaultPressEvery
	}
	return &Autopilot{stick: stick, pressEvery: pressEvery}
}

// Attach implements Observer. observe reports the game and whether it is being played.
func (a *Autopilot) Attach(observe func() (snake.Snapshot, bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observe = observe
}

// ReadRawAxes implements joystick.Sensor.
func (a *Autopilot) ReadRawAxes() (uint16, uint16, error) {
	a.mu.Lock()
	observe := a.observe
	a.mu.Unlock()

	dir := core.DirNone
	if observe != nil {
		if snap, playing := observe(); playing {
			dir = Chase(snap)
		}
	}
	a.stick.Hold(dir, 0)
	return a.stick.ReadRawAxes()
}

// IsButtonPressed implements joystick.Sensor.
func (a *Autopilot) IsButtonPressed() (bool, error) {
	a.mu.Lock()
	a.polls++
	press := a.polls%a.pressEvery == 0
	a.mu.Unlock()

	if press {
		a.stick.Press()
	}
	return a.stick.IsButtonPressed()
}

// Chase picks the cardinal direction that shortens the toroidal distance to the fruit,
// never a reversal. It returns DirNone when the current heading is already the best.
func Chase(snap snake.Snapshot) core.Direction {
	var options []core.Direction
	if dx := axisStep(snap.Head.X, snap.Fruit.X); dx > 0 {
		options = append(options, core.West)
	} else if dx < 0 {
		options = append(options, core.East)
	}
	if dy := axisStep(snap.Head.Y, snap.Fruit.Y); dy > 0 {
		options = append(options, core.South)
	} else if dy < 0 {
		options = append(options, core.North)
	}

	for _, d := range options {
		if d == snap.Heading {
			return core.DirNone
		}
	}
	for _, d := range options {
		if d != snap.Heading.Opposite() {
			return d
		}
	}
	if len(options) > 0 {
		// The fruit is straight behind: turn aside first.
		switch snap.Heading {
		case core.North, core.South:
			return core.West
		default:
			return core.South
		}
	}
	return core.DirNone
}

// axisStep returns +1, -1 or 0: the sign of the shortest wrapped step from a to b.
func axisStep(a, b uint8) int {
	d := (int(b) - int(a) + core.GridSize) % core.GridSize
	switch {
	case d == 0:
		return 0
	case d <= core.GridSize/2:
		return 1
	default:
		return -1
	}
}

package hal

import (
	"errors"
	"slices"
	"testing"

	"github.com/vovakirdan/ledsnake/internal/config"
	"github.com/vovakirdan/ledsnake/internal/core"
	"github.com/vovakirdan/ledsnake/internal/display"
	"github.com/vovakirdan/ledsnake/internal/games/snake"
	"github.com/vovakirdan/ledsnake/internal/joystick"
	"github.com/vovakirdan/ledsnake/internal/sched"
)

func TestRegistryListsBuiltins(t *testing.T) {
	var names []string
	for _, info := range List() {
		names = append(names, info.Name)
		if info.Description == "" {
			t.Errorf("Backend %s has no description", info.Name)
		}
	}
	if !slices.IsSorted(names) {
		t.Errorf("Expected sorted names, got %v", names)
	}
	for _, want := range []string{"bench", "headless"} {
		if !Exists(want) || !slices.Contains(names, want) {
			t.Errorf("Expected backend %q to be registered", want)
		}
	}
}

func TestRegistryOpen(t *testing.T) {
	board, err := Open("bench", config.Default())
	if err != nil {
		t.Fatalf("Open(bench) failed: %v", err)
	}
	defer board.Close()

	if board.Backend != "bench" {
		t.Errorf("Expected backend name recorded, got %q", board.Backend)
	}
	if _, ok := board.Display.(*display.Recorder); !ok {
		t.Errorf("Expected in-memory display, got %T", board.Display)
	}
	if _, ok := board.Sensor.(Observer); !ok {
		t.Errorf("Expected autopilot sensor, got %T", board.Sensor)
	}
	if board.Clock.FrequencyHz() != config.Default().Clock.FrequencyHz {
		t.Errorf("Unexpected clock frequency %d", board.Clock.FrequencyHz())
	}

	if _, err := Open("jtag", config.Default()); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Expected ErrUnknownBackend, got %v", err)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic on duplicate registration")
		}
	}()
	Register(headless{})
}

func TestBoardCloseOrder(t *testing.T) {
	var order []int
	b := &Board{}
	b.OnClose(func() error { order = append(order, 1); return nil })
	b.OnClose(func() error { order = append(order, 2); return errors.New("busy") })

	if err := b.Close(); err == nil {
		t.Error("Expected close error to surface")
	}
	if !slices.Equal(order, []int{2, 1}) {
		t.Errorf("Expected reverse close order, got %v", order)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
}

func TestVirtualStickClassifies(t *testing.T) {
	clock := sched.NewFakeClock(1000)
	stick := NewVirtualStick(clock, config.Default().Joystick)
	j := joystick.New(stick)
	if err := j.Calibrate(); err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	dir, err := j.Direction()
	if err != nil {
		t.Fatal(err)
	}
	if dir != core.DirNone {
		t.Errorf("Expected resting stick to read none, got %v", dir)
	}

	for _, want := range core.Directions {
		stick.Hold(want, 0)
		got, err := j.Direction()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Held %v, joystick read %v", want, got)
		}
	}
}

func TestVirtualStickHoldExpires(t *testing.T) {
	clock := sched.NewFakeClock(1000)
	stick := NewVirtualStick(clock, config.Default().Joystick)

	stick.Hold(core.North, 300)
	clock.Advance(299)
	if stick.Held() != core.North {
		t.Errorf("Expected North still held, got %v", stick.Held())
	}
	clock.Advance(1)
	if stick.Held() != core.DirNone {
		t.Errorf("Expected hold to expire, got %v", stick.Held())
	}
}

func TestVirtualStickButtonLatch(t *testing.T) {
	stick := NewVirtualStick(sched.NewFakeClock(1000), config.Default().Joystick)

	stick.Press()
	if pressed, _ := stick.IsButtonPressed(); !pressed {
		t.Error("Expected latched press")
	}
	if pressed, _ := stick.IsButtonPressed(); pressed {
		t.Error("Expected latch cleared after read")
	}
}

func TestChase(t *testing.T) {
	tests := []struct {
		name     string
		head     core.Point
		fruit    core.Point
		heading  core.Direction
		expected core.Direction
	}{
		{"already heading there", core.Pt(1, 1), core.Pt(3, 1), core.West, core.DirNone},
		{"turn south", core.Pt(1, 1), core.Pt(1, 3), core.West, core.South},
		{"wrap east is shorter", core.Pt(1, 1), core.Pt(7, 1), core.North, core.East},
		{"fruit behind turns aside", core.Pt(4, 1), core.Pt(2, 1), core.West, core.South},
		{"on the fruit", core.Pt(2, 2), core.Pt(2, 2), core.West, core.DirNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := snake.Snapshot{Head: tc.head, Fruit: tc.fruit, Heading: tc.heading}
			if got := Chase(snap); got != tc.expected {
				t.Errorf("Chase() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestAutopilot(t *testing.T) {
	clock := sched.NewFakeClock(1000)
	pilot := NewAutopilot(NewVirtualStick(clock, config.Default().Joystick), 3)
	j := joystick.New(pilot)
	if err := j.Calibrate(); err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	var presses []bool
	for range 6 {
		p, _ := j.Pressed()
		presses = append(presses, p)
	}
	if !slices.Equal(presses, []bool{false, false, true, false, false, true}) {
		t.Errorf("Unexpected press pattern %v", presses)
	}

	playing := false
	pilot.Attach(func() (snake.Snapshot, bool) {
		return snake.Snapshot{Head: core.Pt(0, 0), Fruit: core.Pt(0, 2), Heading: core.West}, playing
	})

	if dir, _ := j.Direction(); dir != core.DirNone {
		t.Errorf("Expected no steering outside play, got %v", dir)
	}
	playing = true
	if dir, _ := j.Direction(); dir != core.South {
		t.Errorf("Expected autopilot to steer South, got %v", dir)
	}
}

package console

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/vovakirdan/ledsnake/internal/core"
	"github.com/vovakirdan/ledsnake/internal/display"
	"github.com/vovakirdan/ledsnake/internal/games/snake"
	"github.com/vovakirdan/ledsnake/internal/joystick"
	"github.com/vovakirdan/ledsnake/internal/sched"
)

const testHz = 1000 // one cycle per millisecond

// restingStick never leaves the centre and presses the button on the given poll.
type restingStick struct {
	pressOn int
	polls   int
	err     error
}

func (s *restingStick) ReadRawAxes() (uint16, uint16, error) {
	return 2048, 2048, s.err
}

func (s *restingStick) IsButtonPressed() (bool, error) {
	s.polls++
	return s.polls == s.pressOn, nil
}

type lineLogger struct {
	lines []string
}

func (l *lineLogger) Infof(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *lineLogger) Warnf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *lineLogger) Errorf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

type fixture struct {
	seeds   snake.SeedSource
	clock   *sched.FakeClock
	rec     *display.Recorder
	stick   *restingStick
	log     *lineLogger
	console *Console
}

// rowSeeds returns a fixed seed whose game spawns the fruit on the head's row. A snake
// left to run straight then reaches it, and every later fruit lands on the spawn cell,
// so the row fills up and the snake bites its tail.
func rowSeeds(t *testing.T) snake.SeedSource {
	t.Helper()
	for seed := range uint64(1024) {
		seeds := snake.SeedFunc(func() uint64 { return seed })
		if g := snake.New(seeds); g.Snake().Head().Y == g.Fruit().Y {
			return seeds
		}
	}
	t.Fatal("No seed spawns the fruit on the head's row")
	return nil
}

func newFixture(t *testing.T, pressOn int, opts ...Option) *fixture {
	f := &fixture{
		seeds: rowSeeds(t),
		clock: sched.NewFakeClock(testHz),
		rec:   display.NewRecorder(),
		stick: &restingStick{pressOn: pressOn},
		log:   &lineLogger{},
	}
	board := Board{
		Display: display.NewController(f.rec),
		Stick:   joystick.New(f.stick),
	}
	opts = append([]Option{WithSeedSource(f.seeds)}, opts...)
	f.console = New(f.clock, board, f.log, opts...)
	return f
}

func TestStartBringsUpBoard(t *testing.T) {
	f := newFixture(t, 0, WithBrightness(40))
	if err := f.console.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if !f.rec.Powered() {
		t.Error("Expected panel powered after Start")
	}
	if f.rec.Intensity() != 102 {
		t.Errorf("Expected intensity 102 for 40%%, got %d", f.rec.Intensity())
	}
	if f.console.Phase() != AttractMode {
		t.Errorf("Expected attract mode, got %s", f.console.Phase())
	}
	if deadline, armed := f.console.dispatcher.Armed(TaskAttract); !armed || deadline != 0 {
		t.Errorf("Expected attract armed at 0, got %d (armed=%v)", deadline, armed)
	}
}

func TestClockSeedsGame(t *testing.T) {
	clock := sched.NewFakeClock(testHz)
	board := Board{
		Display: display.NewController(display.NewRecorder()),
		Stick:   joystick.New(&restingStick{}),
	}
	c := New(clock, board, &lineLogger{})
	if c.seeds != snake.SeedSource(clock) {
		t.Errorf("Expected the clock as default seed source, got %T", c.seeds)
	}
}

func TestStartRejectsBadBrightness(t *testing.T) {
	f := newFixture(t, 0, WithBrightness(150))
	err := f.console.Start()
	if !errors.Is(err, display.ErrBrightnessRange) {
		t.Errorf("Expected ErrBrightnessRange, got %v", err)
	}
}

func TestStartCalibrationFailure(t *testing.T) {
	f := newFixture(t, 0)
	f.stick.err = errors.New("adc timeout")

	if err := f.console.Start(); err == nil {
		t.Error("Expected calibration error")
	}
	if f.rec.Powered() {
		t.Error("Panel should stay off when calibration fails")
	}
}

// playOut runs a game on seeds with the stick at rest and returns it with the number of
// ticks it lasted.
func playOut(t *testing.T, seeds snake.SeedSource) (*snake.Game, int) {
	t.Helper()
	g := snake.New(seeds)
	g.Reset()
	for ticks := 1; ticks <= core.Capacity*core.GridSize; ticks++ {
		if g.Tick(core.DirNone) == core.GameOver {
			return g, ticks
		}
	}
	t.Fatal("Expected the resting snake to bite its tail")
	return nil, 0
}

func TestFullPhaseCycle(t *testing.T) {
	f := newFixture(t, 3)
	ref, refTicks := playOut(t, f.seeds)
	score := ref.Score()
	if score == 0 {
		t.Fatalf("Expected the resting snake to eat, got score 0")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var transitions []Transition
	f.console.OnTransition(func(tr Transition) {
		transitions = append(transitions, tr)
		if tr.To == AttractMode {
			cancel()
		}
	})

	var tickDeadlines []uint64
	f.console.OnDispatch(func(d sched.Dispatch) {
		if d.Task == TaskTick {
			tickDeadlines = append(tickDeadlines, d.Deadline)
		}
	})

	if err := f.console.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := f.console.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected run to stop on cancel, got %v", err)
	}

	phases := make([]Phase, 0, len(transitions))
	for _, tr := range transitions {
		phases = append(phases, tr.To)
	}
	expected := []Phase{Playing, GameOverFlash, AttractMode}
	if !slices.Equal(phases, expected) {
		t.Fatalf("Expected phases %v, got %v", expected, phases)
	}

	// Button found on the third poll, 150ms apart.
	if transitions[0].At != 300 {
		t.Errorf("Expected play to start at cycle 300, got %d", transitions[0].At)
	}

	// The console plays the same game as a standalone engine on the same seeds.
	if len(tickDeadlines) != refTicks {
		t.Errorf("Expected %d ticks, got %d", refTicks, len(tickDeadlines))
	}
	for i := 1; i < len(tickDeadlines); i++ {
		if tickDeadlines[i]-tickDeadlines[i-1] != 200 {
			t.Fatalf("Tick %d drifted: deadlines %d -> %d", i, tickDeadlines[i-1], tickDeadlines[i])
		}
	}
	if transitions[1].Score != score {
		t.Errorf("Expected final score %d, got %d", score, transitions[1].Score)
	}
	if gameOver := uint64(300 + (refTicks-1)*200); transitions[1].At != gameOver {
		t.Errorf("Expected game over at cycle %d, got %d", gameOver, transitions[1].At)
	}

	// Flash: 20 toggles 500ms apart, then one more invocation restores power.
	if transitions[2].At != transitions[1].At+2*FlashCycles*500 {
		t.Errorf("Expected attract to resume at %d, got %d", transitions[1].At+2*FlashCycles*500, transitions[2].At)
	}
	if f.rec.Toggles() != 1+2*FlashCycles {
		t.Errorf("Expected %d power changes, got %d", 1+2*FlashCycles, f.rec.Toggles())
	}
	if !f.rec.Powered() {
		t.Error("Expected panel powered after the flash")
	}

	joined := strings.Join(f.log.lines, "\n")
	if !strings.Contains(joined, fmt.Sprintf("final score: %d", score)) {
		t.Errorf("Expected final score in log, got %q", joined)
	}
	if f.console.Phase() != AttractMode {
		t.Errorf("Expected attract mode, got %s", f.console.Phase())
	}
	if snap := f.console.Snapshot(); snap.Score != score || snap.State.String() != "game_over" {
		t.Errorf("Unexpected snapshot %+v", snap)
	}
}

func TestAttractAnimates(t *testing.T) {
	f := newFixture(t, 3)
	if err := f.console.Start(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.console.OnTransition(func(Transition) { cancel() })
	_ = f.console.Run(ctx)

	frames := f.rec.Frames()
	// Clear, then three attract frames before the button is seen.
	if len(frames) < 4 {
		t.Fatalf("Expected at least 4 frames, got %d", len(frames))
	}
	for i := range 3 {
		if frames[1+i] != display.AttractFrame(uint8(i)) {
			t.Errorf("Frame %d: expected attract frame %d, got\n%s", 1+i, i, frames[1+i])
		}
	}
}

func TestTransportErrorHaltsRun(t *testing.T) {
	busErr := errors.New("spi nack")
	f := newFixture(t, 0)
	if err := f.console.Start(); err != nil {
		t.Fatal(err)
	}
	// The next display call is the first attract frame.
	f.rec.FailAfter(0, busErr)

	err := f.console.Run(context.Background())
	if !errors.Is(err, busErr) {
		t.Fatalf("Expected transport error, got %v", err)
	}
	if !strings.Contains(err.Error(), "attract") {
		t.Errorf("Expected task name in error, got %v", err)
	}
}

func TestInvalidTransitionPanics(t *testing.T) {
	tests := []struct {
		current, from, to Phase
	}{
		{AttractMode, AttractMode, GameOverFlash},
		{Playing, AttractMode, Playing},
		{GameOverFlash, GameOverFlash, Playing},
	}

	for _, tc := range tests {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Expected panic for %s -> %s from %s", tc.from, tc.to, tc.current)
				}
			}()
			a := arena{phase: tc.current}
			a.enter(tc.from, tc.to)
		}()
	}

	a := arena{phase: AttractMode}
	for _, next := range []Phase{Playing, GameOverFlash, AttractMode} {
		a.enter(a.phase, next)
	}
	if a.phase != AttractMode {
		t.Errorf("Expected full cycle back to attract, got %s", a.phase)
	}
}

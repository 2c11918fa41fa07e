// Package console is the game console's control loop. It owns every shared resource,
// declares the three scheduler tasks and moves between attract mode, play and the
// game-over flash.
package console

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vovakirdan/ledsnake/internal/display"
	"github.com/vovakirdan/ledsnake/internal/games/snake"
	"github.com/vovakirdan/ledsnake/internal/joystick"
	"github.com/vovakirdan/ledsnake/internal/logging"
	"github.com/vovakirdan/ledsnake/internal/sched"
)

// Task slots.
const (
	TaskAttract sched.TaskID = iota
	TaskTick
	TaskFlash
)

// Task periods.
const (
	AttractPeriod = 150 * time.Millisecond
	TickPeriod    = 200 * time.Millisecond
	FlashPeriod   = 500 * time.Millisecond
)

// FlashCycles is the number of off/on cycles shown after a game ends.
const FlashCycles = 10

// DefaultBrightness is the panel brightness percentage used without WithBrightness.
const DefaultBrightness = 50

// Task priorities. The game tick is the timing-critical path.
const (
	PriorityAttract sched.Priority = 1
	PriorityFlash   sched.Priority = 1
	PriorityTick    sched.Priority = 2
)

// Resource ceilings: the highest priority of any task locking each resource.
const (
	CeilingGame   = PriorityTick
	CeilingBoard  = PriorityTick
	CeilingLogger = PriorityTick
)

// Board is the hardware the tasks drive.
type Board struct {
	Display *display.Controller
	Stick   *joystick.Joystick
}

// arena is the state behind the Game resource.
type arena struct {
	game    *snake.Game
	phase   Phase
	attract display.Attract
	toggles int
}

// enter moves to the next phase. Any other change is a programming error.
func (a *arena) enter(from, to Phase) {
	if a.phase != from || from.Next() != to {
		panic(fmt.Sprintf("console: invalid transition %s -> %s (current %s)", from, to, a.phase))
	}
	a.phase = to
}

// Option configures a Console.
type Option func(*Console)

// WithBrightness sets the startup brightness percentage.
func WithBrightness(percent uint8) Option {
	return func(c *Console) {
		c.brightness = percent
	}
}

// WithFruitPolicy selects the fruit placement policy.
func WithFruitPolicy(p snake.FruitPolicy) Option {
	return func(c *Console) {
		c.fruitPolicy = p
	}
}

// WithSeedSource overrides the random seed source. The default is the clock.
func WithSeedSource(s snake.SeedSource) Option {
	return func(c *Console) {
		c.seeds = s
	}
}

// Console wires the scheduler to the game and the board.
type Console struct {
	dispatcher *sched.Dispatcher
	game       *sched.Resource[arena]
	board      *sched.Resource[Board]
	logger     *sched.Resource[logging.Logger]

	brightness  uint8
	fruitPolicy snake.FruitPolicy
	seeds       snake.SeedSource

	phase        atomic.Int32
	onTransition func(Transition)
}

// New builds a console. Nothing touches the hardware until Start.
func New(clock sched.Clock, board Board, logger logging.Logger, opts ...Option) *Console {
	c := &Console{
		dispatcher:  sched.NewDispatcher(clock),
		brightness:  DefaultBrightness,
		fruitPolicy: snake.FruitAnywhere,
	}
	if s, ok := clock.(snake.SeedSource); ok {
		c.seeds = s
	} else {
		c.seeds = snake.SeedFunc(clock.Now)
	}
	for _, opt := range opts {
		opt(c)
	}

	g := snake.New(c.seeds, snake.WithFruitPolicy(c.fruitPolicy))
	c.game = sched.NewResource("game", CeilingGame, arena{game: g, phase: AttractMode})
	c.board = sched.NewResource("board", CeilingBoard, board)
	c.logger = sched.NewResource("logger", CeilingLogger, logger)

	c.dispatcher.Declare(TaskAttract, "attract", PriorityAttract, c.attract)
	c.dispatcher.Declare(TaskTick, "tick", PriorityTick, c.tick)
	c.dispatcher.Declare(TaskFlash, "flash", PriorityFlash, c.flash)
	return c
}

// OnTransition registers a hook called from the dispatch goroutine on every phase change.
func (c *Console) OnTransition(fn func(Transition)) {
	c.onTransition = fn
}

// OnDispatch registers a hook called after every task invocation.
func (c *Console) OnDispatch(fn func(sched.Dispatch)) {
	c.dispatcher.OnDispatch(fn)
}

// Start brings up the board and arms attract mode. The stick must be at rest.
func (c *Console) Start() error {
	var err error
	c.board.Setup(func(b *Board) {
		if err = b.Stick.Calibrate(); err != nil {
			return
		}
		if err = b.Display.TurnOn(); err != nil {
			return
		}
		if err = b.Display.Clear(); err != nil {
			return
		}
		err = b.Display.SetBrightness(c.brightness)
	})
	if err != nil {
		return fmt.Errorf("console: start: %w", err)
	}

	c.logger.Setup(func(l *logging.Logger) {
		(*l).Infof("waiting for player")
	})
	return c.dispatcher.Spawn(TaskAttract)
}

// Run dispatches tasks until ctx is done or a task fails.
func (c *Console) Run(ctx context.Context) error {
	return c.dispatcher.Run(ctx)
}

// Phase returns the current phase. It is safe to call from any goroutine.
func (c *Console) Phase() Phase {
	return Phase(c.phase.Load())
}

// Snapshot returns the game state. It is safe to call from any goroutine.
func (c *Console) Snapshot() snake.Snapshot {
	var snap snake.Snapshot
	c.game.Inspect(func(a arena) {
		snap = a.game.Snapshot()
	})
	return snap
}

// transition moves the phase machine along one edge and reports it.
func (c *Console) transition(tc *sched.TaskContext, from, to Phase) {
	var score int
	c.game.Lock(tc, func(a *arena) {
		a.enter(from, to)
		score = a.game.Score()
	})
	c.phase.Store(int32(to))

	if c.onTransition != nil {
		c.onTransition(Transition{From: from, To: to, At: tc.Now(), Score: score})
	}
}

func (c *Console) logf(tc *sched.TaskContext, format string, args ...any) {
	c.logger.Lock(tc, func(l *logging.Logger) {
		(*l).Infof(format, args...)
	})
}

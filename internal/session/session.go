// Package session wires one console run together: it opens a board from a backend,
// builds the console on top of it, and records the run in the trace store when one is
// configured. The CLI, the terminal simulator and every SSH connection each own one.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vovakirdan/ledsnake/internal/config"
	"github.com/vovakirdan/ledsnake/internal/console"
	"github.com/vovakirdan/ledsnake/internal/display"
	"github.com/vovakirdan/ledsnake/internal/games/snake"
	"github.com/vovakirdan/ledsnake/internal/hal"
	"github.com/vovakirdan/ledsnake/internal/joystick"
	"github.com/vovakirdan/ledsnake/internal/logging"
	"github.com/vovakirdan/ledsnake/internal/sched"
	"github.com/vovakirdan/ledsnake/internal/storage"
)

// End reasons stored with a traced run.
const (
	EndDuration = "duration"
	EndCanceled = "canceled"
	EndFailed   = "failed"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the console logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithStore records the run in store.
func WithStore(store *storage.Store) Option {
	return func(s *Session) {
		s.store = store
	}
}

// WithDuration stops the run once the board clock has advanced by d. Zero runs until
// the context ends.
func WithDuration(d time.Duration) Option {
	return func(s *Session) {
		s.duration = d
	}
}

// Session is one console run on one board.
type Session struct {
	board    *hal.Board
	console  *console.Console
	logger   logging.Logger
	store    *storage.Store
	tracer   *storage.Tracer
	runID    int64
	duration time.Duration
	limit    uint64 // Cycle at which the run stops; 0 for none

	mu           sync.Mutex
	cancel       context.CancelFunc
	limitReached bool
	transitions  []func(console.Transition)
	dispatches   []func(sched.Dispatch)
}

// Open builds a session on the named backend.
func Open(backend string, cfg config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	board, err := hal.Open(backend, cfg)
	if err != nil {
		return nil, err
	}

	s := &Session{board: board}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.duration > 0 {
		s.limit = board.Clock.Now() + sched.Cycles(s.duration, board.Clock.FrequencyHz())
	}

	s.console = console.New(board.Clock, console.Board{
		Display: display.NewController(board.Display),
		Stick:   joystick.New(board.Sensor),
	}, s.logger,
		console.WithBrightness(cfg.Display.Brightness),
		console.WithFruitPolicy(cfg.FruitPolicy()),
	)

	if obs, ok := board.Sensor.(hal.Observer); ok {
		obs.Attach(func() (snake.Snapshot, bool) {
			return s.console.Snapshot(), s.console.Phase() == console.Playing
		})
	}

	if s.store != nil {
		runID, err := s.store.BeginRun(backend, board.Clock.FrequencyHz())
		if err != nil {
			board.Close()
			return nil, fmt.Errorf("session: %w", err)
		}
		s.runID = runID
		s.tracer = s.store.NewTracer(runID)
	}

	s.console.OnTransition(s.handleTransition)
	s.console.OnDispatch(s.handleDispatch)
	return s, nil
}

// Board returns the board the session runs on.
func (s *Session) Board() *hal.Board {
	return s.board
}

// Console returns the console.
func (s *Session) Console() *console.Console {
	return s.console
}

// RunID returns the trace run ID, or 0 when the session is not traced.
func (s *Session) RunID() int64 {
	return s.runID
}

// Stick returns the board's virtual stick when the backend has one.
func (s *Session) Stick() (*hal.VirtualStick, bool) {
	stick, ok := s.board.Sensor.(*hal.VirtualStick)
	return stick, ok
}

// Recorder returns the board's in-memory panel when the backend has one.
func (s *Session) Recorder() (*display.Recorder, bool) {
	rec, ok := s.board.Display.(*display.Recorder)
	return rec, ok
}

// OnTransition adds a phase change hook. Hooks run on the dispatch goroutine.
func (s *Session) OnTransition(fn func(console.Transition)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions = append(s.transitions, fn)
}

// OnDispatch adds a dispatch hook. Hooks run on the dispatch goroutine.
func (s *Session) OnDispatch(fn func(sched.Dispatch)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatches = append(s.dispatches, fn)
}

// Run starts the console and dispatches until ctx ends, the duration elapses or a task
// fails. Reaching the duration is not an error.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.console.Start(); err != nil {
		s.end(EndFailed)
		return err
	}

	err := s.console.Run(ctx)

	s.mu.Lock()
	limitReached := s.limitReached
	s.mu.Unlock()

	switch {
	case limitReached && errors.Is(err, context.Canceled):
		s.end(EndDuration)
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.end(EndCanceled)
		return err
	default:
		s.end(EndFailed)
		return err
	}
}

// Close flushes the trace and releases the board.
func (s *Session) Close() error {
	var errs []error
	if s.tracer != nil {
		if err := s.tracer.Close(); err != nil {
			errs = append(errs, err)
		}
		s.tracer = nil
	}
	if err := s.board.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Session) end(reason string) {
	if s.store == nil || s.runID == 0 {
		return
	}
	if err := s.store.EndRun(s.runID, reason); err != nil {
		s.logger.Warnf("cannot close trace run %d: %v", s.runID, err)
	}
}

func (s *Session) handleTransition(tr console.Transition) {
	if s.tracer != nil {
		s.tracer.Transition(tr)
	}

	s.mu.Lock()
	hooks := s.transitions
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(tr)
	}
}

func (s *Session) handleDispatch(d sched.Dispatch) {
	if s.tracer != nil {
		s.tracer.Dispatch(d)
	}

	s.mu.Lock()
	hooks := s.dispatches
	if s.limit > 0 && d.End >= s.limit && !s.limitReached {
		s.limitReached = true
		s.cancel()
	}
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(d)
	}
}

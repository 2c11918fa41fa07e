package sched

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// MaxTasks is the size of the task table. The console declares exactly this many.
const MaxTasks = 3

var (
	// ErrResourceHeld is returned when a task re-arms or spawns while holding a resource.
	ErrResourceHeld = errors.New("sched: resource held across re-arm")
	// ErrIdle is returned by Run when no task is armed.
	ErrIdle = errors.New("sched: no task armed")
	// ErrUnknownTask is returned for an undeclared task ID.
	ErrUnknownTask = errors.New("sched: unknown task")
)

// TaskID indexes the task table.
type TaskID uint8

// TaskFunc is one run-to-completion invocation of a task.
type TaskFunc func(tc *TaskContext) error

// Dispatch describes one completed task invocation.
type Dispatch struct {
	Task     TaskID
	Name     string
	Priority Priority
	Deadline uint64 // Cycle the invocation was scheduled for
	Start    uint64
	End      uint64
	Err      error
}

// Lateness returns how many cycles after its deadline the invocation started.
func (d Dispatch) Lateness() uint64 {
	if d.Start <= d.Deadline {
		return 0
	}
	return d.Start - d.Deadline
}

type slot struct {
	declared bool
	name     string
	priority Priority
	fn       TaskFunc
	armed    bool
	deadline uint64
}

// Dispatcher runs the declared tasks from a single goroutine. Each slot holds one
// absolute deadline; due tasks run highest priority first. A task releasing a resource
// or spawning another lets any due task of higher priority run before it continues.
type Dispatcher struct {
	clock    Clock
	slots    [MaxTasks]slot
	ceilings []Priority // System ceiling stack, pushed by Resource.Lock
	running  []Priority // Priorities of the invocations currently on the stack
	failed   error

	onDispatch func(Dispatch)
}

// NewDispatcher creates an empty task table driven by clock.
func NewDispatcher(clock Clock) *Dispatcher {
	return &Dispatcher{clock: clock}
}

// Clock returns the dispatcher's clock.
func (d *Dispatcher) Clock() Clock {
	return d.clock
}

// Declare registers a task. Declaring the same ID twice is a programming error.
func (d *Dispatcher) Declare(id TaskID, name string, priority Priority, fn TaskFunc) {
	if int(id) >= MaxTasks {
		panic(fmt.Sprintf("sched: task id %d outside table", id))
	}
	if d.slots[id].declared {
		panic(fmt.Sprintf("sched: task %d (%s) declared twice", id, name))
	}
	d.slots[id] = slot{declared: true, name: name, priority: priority, fn: fn}
}

// OnDispatch registers an observer called after every invocation.
func (d *Dispatcher) OnDispatch(fn func(Dispatch)) {
	d.onDispatch = fn
}

// Spawn arms a task to run as soon as possible. It is meant for startup, before Run;
// tasks use TaskContext.Spawn.
func (d *Dispatcher) Spawn(id TaskID) error {
	return d.arm(id, d.clock.Now())
}

// Armed reports whether a task is armed and its deadline.
func (d *Dispatcher) Armed(id TaskID) (uint64, bool) {
	if int(id) >= MaxTasks {
		return 0, false
	}
	s := d.slots[id]
	return s.deadline, s.armed
}

// SystemCeiling returns the highest ceiling of the resources currently held.
func (d *Dispatcher) SystemCeiling() Priority {
	var c Priority
	for _, p := range d.ceilings {
		c = max(c, p)
	}
	return c
}

// Run dispatches tasks until ctx is done, no task is armed, or a task fails. A failed
// task is not re-armed; its error is returned.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if id, ok := d.due(0); ok {
			d.dispatch(id)
			if d.failed != nil {
				return d.failed
			}
			continue
		}

		next, ok := d.earliest()
		if !ok {
			return ErrIdle
		}
		if err := d.clock.WaitUntil(ctx, next); err != nil {
			return err
		}
	}
}

func (d *Dispatcher) arm(id TaskID, deadline uint64) error {
	if int(id) >= MaxTasks || !d.slots[id].declared {
		return fmt.Errorf("%w: %d", ErrUnknownTask, id)
	}
	d.slots[id].armed = true
	d.slots[id].deadline = deadline
	return nil
}

// due returns the highest-priority armed task whose deadline has passed and whose
// priority is above floor.
func (d *Dispatcher) due(floor Priority) (TaskID, bool) {
	now := d.clock.Now()
	best := -1
	for i := range d.slots {
		s := &d.slots[i]
		if !s.armed || s.deadline > now || s.priority <= floor {
			continue
		}
		if best < 0 || s.priority > d.slots[best].priority ||
			(s.priority == d.slots[best].priority && s.deadline < d.slots[best].deadline) {
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return TaskID(best), true
}

// earliest returns the nearest armed deadline.
func (d *Dispatcher) earliest() (uint64, bool) {
	var next uint64
	found := false
	for _, s := range d.slots {
		if s.armed && (!found || s.deadline < next) {
			next = s.deadline
			found = true
		}
	}
	return next, found
}

// dispatch runs one invocation. Errors are recorded in d.failed.
func (d *Dispatcher) dispatch(id TaskID) {
	s := &d.slots[id]
	s.armed = false

	tc := &TaskContext{
		d:        d,
		id:       id,
		name:     s.name,
		priority: s.priority,
		deadline: s.deadline,
	}

	d.running = append(d.running, s.priority)
	start := d.clock.Now()
	err := s.fn(tc)
	end := d.clock.Now()
	d.running = d.running[:len(d.running)-1]

	if err != nil {
		err = fmt.Errorf("sched: task %s: %w", s.name, err)
		if d.failed == nil {
			d.failed = err
		}
	}

	if d.onDispatch != nil {
		d.onDispatch(Dispatch{
			Task:     id,
			Name:     s.name,
			Priority: s.priority,
			Deadline: tc.deadline,
			Start:    start,
			End:      end,
			Err:      err,
		})
	}
}

// preempt runs every due task whose priority beats both the running invocation and the
// system ceiling.
func (d *Dispatcher) preempt() {
	if len(d.running) == 0 || d.failed != nil {
		return
	}
	for {
		floor := max(d.running[len(d.running)-1], d.SystemCeiling())
		id, ok := d.due(floor)
		if !ok {
			return
		}
		d.dispatch(id)
		if d.failed != nil {
			return
		}
	}
}

func (d *Dispatcher) raise(p Priority) {
	d.ceilings = append(d.ceilings, p)
}

func (d *Dispatcher) lower() {
	d.ceilings = d.ceilings[:len(d.ceilings)-1]
}

// TaskContext is handed to each invocation. It is only valid until the task returns.
type TaskContext struct {
	d        *Dispatcher
	id       TaskID
	name     string
	priority Priority
	deadline uint64
	held     int
}

// ID returns the running task's ID.
func (tc *TaskContext) ID() TaskID {
	return tc.id
}

// Name returns the running task's name.
func (tc *TaskContext) Name() string {
	return tc.name
}

// Priority returns the running task's static priority.
func (tc *TaskContext) Priority() Priority {
	return tc.priority
}

// Deadline returns the cycle this invocation was scheduled for.
func (tc *TaskContext) Deadline() uint64 {
	return tc.deadline
}

// Now returns the current cycle count.
func (tc *TaskContext) Now() uint64 {
	return tc.d.clock.Now()
}

// FrequencyHz returns the core frequency.
func (tc *TaskContext) FrequencyHz() uint32 {
	return tc.d.clock.FrequencyHz()
}

// Rearm schedules the running task again one period after its current deadline.
func (tc *TaskContext) Rearm(period time.Duration) error {
	if tc.held > 0 {
		return ErrResourceHeld
	}
	return tc.d.arm(tc.id, Deadline(tc.deadline, period, tc.d.clock.FrequencyHz()))
}

// Spawn arms another task to run now. A spawned task of higher priority runs before
// Spawn returns.
func (tc *TaskContext) Spawn(id TaskID) error {
	if tc.held > 0 {
		return ErrResourceHeld
	}
	if err := tc.d.arm(id, tc.d.clock.Now()); err != nil {
		return err
	}
	tc.d.preempt()
	return nil
}

package sched

import (
	"fmt"
	"sync"
)

// Priority orders tasks; larger values are more urgent. Zero is the idle level.
type Priority uint8

// Resource guards shared state under the priority-ceiling protocol. While a task holds
// it, the system ceiling rises to the resource's ceiling, so no task that could also
// need the resource is started until it is released.
type Resource[T any] struct {
	name    string
	ceiling Priority
	mu      sync.Mutex
	value   T
}

// NewResource wraps value. The ceiling must be at least the priority of every task
// that locks the resource.
func NewResource[T any](name string, ceiling Priority, value T) *Resource[T] {
	return &Resource[T]{name: name, ceiling: ceiling, value: value}
}

// Name returns the resource name.
func (r *Resource[T]) Name() string {
	return r.name
}

// Ceiling returns the resource's priority ceiling.
func (r *Resource[T]) Ceiling() Priority {
	return r.ceiling
}

// Lock runs fn with exclusive access to the value on behalf of the running task.
// The value must not escape fn.
func (r *Resource[T]) Lock(tc *TaskContext, fn func(v *T)) {
	if tc.priority > r.ceiling {
		panic(fmt.Sprintf("sched: task %s (priority %d) above ceiling %d of %s",
			tc.name, tc.priority, r.ceiling, r.name))
	}

	tc.d.raise(r.ceiling)
	tc.held++
	r.mu.Lock()

	defer func() {
		r.mu.Unlock()
		tc.held--
		tc.d.lower()
		// Releasing may drop the ceiling below a pending task's priority.
		tc.d.preempt()
	}()

	fn(&r.value)
}

// Setup gives exclusive access outside any task, for bring-up before the dispatcher runs.
func (r *Resource[T]) Setup(fn func(v *T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.value)
}

// Inspect gives read access to observers outside the dispatcher, such as a status
// line. It takes the mutex only and does not touch the system ceiling.
func (r *Resource[T]) Inspect(fn func(v T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.value)
}

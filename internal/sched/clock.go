// Package sched is the fixed-task scheduler that drives the console: a cycle clock,
// deadline arithmetic, priority-ceiling resources and a dispatcher with one
// next-deadline slot per declared task.
package sched

import (
	"context"
	"time"
)

// Clock is the timer collaborator: a monotonically increasing cycle counter running at
// a fixed core frequency.
type Clock interface {
	// Now returns the current cycle count.
	Now() uint64
	// FrequencyHz returns the core frequency the counter runs at.
	FrequencyHz() uint32
	// WaitUntil blocks until the counter reaches deadline or ctx is done.
	WaitUntil(ctx context.Context, deadline uint64) error
}

// Cycles converts a wall-time delay into a cycle count: seconds * frequency.
func Cycles(d time.Duration, hz uint32) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d) * uint64(hz) / uint64(time.Second)
}

// Duration converts a cycle count back to wall time.
func Duration(cycles uint64, hz uint32) time.Duration {
	if hz == 0 {
		return 0
	}
	return time.Duration(cycles * uint64(time.Second) / uint64(hz))
}

// Deadline returns the absolute deadline one period after prev. Using the previous
// deadline rather than the current time keeps the period from drifting.
func Deadline(prev uint64, period time.Duration, hz uint32) uint64 {
	return prev + Cycles(period, hz)
}

// MonotonicClock derives a cycle counter from the host's monotonic clock.
type MonotonicClock struct {
	start time.Time
	hz    uint32
}

// NewMonotonicClock starts a counter at zero running at hz.
func NewMonotonicClock(hz uint32) *MonotonicClock {
	return &MonotonicClock{start: time.Now(), hz: hz}
}

// Now implements Clock.
func (c *MonotonicClock) Now() uint64 {
	return Cycles(time.Since(c.start), c.hz)
}

// FrequencyHz implements Clock.
func (c *MonotonicClock) FrequencyHz() uint32 {
	return c.hz
}

// WaitUntil implements Clock.
func (c *MonotonicClock) WaitUntil(ctx context.Context, deadline uint64) error {
	now := c.Now()
	if now >= deadline {
		return ctx.Err()
	}

	timer := time.NewTimer(Duration(deadline-now, c.hz))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Seed returns the elapsed cycle count, so the clock can seed the game's random draws.
func (c *MonotonicClock) Seed() uint64 {
	return c.Now()
}

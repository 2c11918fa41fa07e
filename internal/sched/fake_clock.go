package sched

import (
	"context"
	"sync"
)

// FakeClock is a Clock for tests and replays: time only moves through Advance or
// WaitUntil, which jumps straight to the requested deadline.
type FakeClock struct {
	mu  sync.Mutex
	now uint64
	hz  uint32
}

// NewFakeClock creates a fake clock at cycle zero.
func NewFakeClock(hz uint32) *FakeClock {
	return &FakeClock{hz: hz}
}

// Now implements Clock.
func (c *FakeClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// FrequencyHz implements Clock.
func (c *FakeClock) FrequencyHz() uint32 {
	return c.hz
}

// WaitUntil implements Clock without sleeping.
func (c *FakeClock) WaitUntil(ctx context.Context, deadline uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if deadline > c.now {
		c.now = deadline
	}
	return nil
}

// Advance moves the clock forward, simulating processing time.
func (c *FakeClock) Advance(cycles uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += cycles
}

// Seed returns the current cycle count.
func (c *FakeClock) Seed() uint64 {
	return c.Now()
}

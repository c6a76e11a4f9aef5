// Package testutil holds small helpers shared by tests, chiefly a
// deterministic time source for stable audit timestamps.
package testutil

import (
	"sync"
	"time"
)

// DeterministicClock is a thread-safe time source that starts at a
// fixed instant and advances by a fixed step on every call. Wiring it
// into a domain via the clock option makes index files byte-identical
// across runs, which golden tests depend on.
type DeterministicClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration

	base time.Time
}

// Epoch is the default starting instant for deterministic clocks.
var Epoch = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

// NewDeterministicClock creates a clock starting at Epoch that advances
// one second per Now call.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(Epoch, time.Second)
}

// NewDeterministicClockAt creates a clock with an explicit start and step.
func NewDeterministicClockAt(start time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{now: start, step: step, base: start}
}

// Now returns the current instant and advances the clock by one step.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the instant the next Now call will return, without
// advancing.
func (c *DeterministicClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to its starting instant for test reuse.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.base
}

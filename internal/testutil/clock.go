package testutil

import (
	"sync"
	"time"

	"github.com/roach88/missy/internal/engine"
)

// FakeClock is a manually driven engine.Clock for tests.
//
// Time only moves on Advance. Timers whose deadline is reached fire in
// deadline order. WaitForTimers lets a test block until the code under
// test has armed its timeouts, which is how tests know a prompt is
// waiting.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*fakeTimer
	changed chan struct{}
}

type fakeTimer struct {
	deadline time.Time
	ch       chan time.Time
}

// NewFakeClock creates a clock reading start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{
		now:     start,
		changed: make(chan struct{}),
	}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTimer arms a timer that fires once the clock is advanced past d.
func (c *FakeClock) NewTimer(d time.Duration) *engine.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{
		deadline: c.now.Add(d),
		ch:       make(chan time.Time, 1),
	}
	if d <= 0 {
		t.ch <- c.now
		return engine.NewTimer(t.ch, func() bool { return false })
	}

	c.timers = append(c.timers, t)
	c.notifyLocked()

	return engine.NewTimer(t.ch, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.removeLocked(t)
	})
}

// Advance moves time forward by d and fires every timer that is now due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)

	var due, remaining []*fakeTimer
	for _, t := range c.timers {
		if !t.deadline.After(c.now) {
			due = append(due, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining

	// stable order: earliest deadline first
	for i := 1; i < len(due); i++ {
		for j := i; j > 0 && due[j].deadline.Before(due[j-1].deadline); j-- {
			due[j], due[j-1] = due[j-1], due[j]
		}
	}
	for _, t := range due {
		t.ch <- c.now
	}

	if len(due) > 0 {
		c.notifyLocked()
	}
}

// PendingTimers returns how many timers are armed and not yet fired or stopped.
func (c *FakeClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// WaitForTimers blocks until at least n timers are pending or timeout passes
// in real time. It reports whether the count was reached.
func (c *FakeClock) WaitForTimers(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		c.mu.Lock()
		if len(c.timers) >= n {
			c.mu.Unlock()
			return true
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-changed:
		case <-deadline.C:
			return false
		}
	}
}

func (c *FakeClock) removeLocked(t *fakeTimer) bool {
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			c.notifyLocked()
			return true
		}
	}
	return false
}

// notifyLocked wakes WaitForTimers callers. Caller holds c.mu.
func (c *FakeClock) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

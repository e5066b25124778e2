package engine

import "time"

// Clock abstracts wall time for timeouts. Production code uses RealClock;
// tests drive a fake that only moves when told to.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTimer returns a Timer that fires once after d.
	NewTimer(d time.Duration) *Timer
}

// Timer is a single-shot timer. C receives one value when it fires.
type Timer struct {
	C <-chan time.Time

	stop func() bool
}

// NewTimer wraps a channel and stop function into a Timer. Clock
// implementations outside this package use it.
func NewTimer(c <-chan time.Time, stop func() bool) *Timer {
	return &Timer{C: c, stop: stop}
}

// Stop prevents the timer from firing. It returns false if the timer
// already fired or was stopped.
func (t *Timer) Stop() bool {
	return t.stop()
}

// RealClock is the production Clock backed by package time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) NewTimer(d time.Duration) *Timer {
	t := time.NewTimer(d)
	return &Timer{C: t.C, stop: t.Stop}
}

package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClock_NowOnlyMovesOnAdvance(t *testing.T) {
	c := NewFakeClock(epoch)
	assert.Equal(t, epoch, c.Now())

	c.Advance(time.Minute)
	assert.Equal(t, epoch.Add(time.Minute), c.Now())
}

func TestFakeClock_TimerFiresAtDeadline(t *testing.T) {
	c := NewFakeClock(epoch)
	timer := c.NewTimer(10 * time.Second)
	assert.Equal(t, 1, c.PendingTimers())

	c.Advance(9 * time.Second)
	select {
	case <-timer.C:
		t.Fatal("timer fired early")
	default:
	}

	c.Advance(time.Second)
	select {
	case at := <-timer.C:
		assert.Equal(t, epoch.Add(10*time.Second), at)
	default:
		t.Fatal("timer did not fire")
	}
	assert.Equal(t, 0, c.PendingTimers())
	assert.False(t, timer.Stop(), "stop after fire reports false")
}

func TestFakeClock_StopPreventsFire(t *testing.T) {
	c := NewFakeClock(epoch)
	timer := c.NewTimer(time.Second)

	assert.True(t, timer.Stop())
	assert.Equal(t, 0, c.PendingTimers())

	c.Advance(time.Hour)
	select {
	case <-timer.C:
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestFakeClock_NonPositiveDurationFiresImmediately(t *testing.T) {
	c := NewFakeClock(epoch)
	timer := c.NewTimer(0)

	select {
	case <-timer.C:
	default:
		t.Fatal("zero-duration timer should fire immediately")
	}
	assert.Equal(t, 0, c.PendingTimers())
}

func TestFakeClock_WaitForTimers(t *testing.T) {
	c := NewFakeClock(epoch)

	go func() {
		time.Sleep(5 * time.Millisecond)
		c.NewTimer(time.Second)
		c.NewTimer(time.Second)
	}()

	require.True(t, c.WaitForTimers(2, time.Second))
	assert.False(t, c.WaitForTimers(3, 20*time.Millisecond))
}

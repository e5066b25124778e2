package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencer_New(t *testing.T) {
	s := NewSequencer()
	assert.Equal(t, int64(0), s.Current(), "new sequencer should start at 0")
}

func TestSequencer_NewAt(t *testing.T) {
	s := NewSequencerAt(100)
	assert.Equal(t, int64(100), s.Current())
	assert.Equal(t, int64(101), s.Next())
}

func TestSequencer_Next_Incrementing(t *testing.T) {
	s := NewSequencer()

	// First call returns 1 (increments then returns)
	assert.Equal(t, int64(1), s.Next())
	assert.Equal(t, int64(2), s.Next())
	assert.Equal(t, int64(3), s.Next())

	assert.Equal(t, int64(3), s.Current())
}

func TestSequencer_Next_ConcurrentUnique(t *testing.T) {
	s := NewSequencer()
	const goroutines = 10
	const perGoroutine = 100

	var mu sync.Mutex
	seen := make(map[int64]bool)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				v := s.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine, "every seq must be unique")
	assert.Equal(t, int64(goroutines*perGoroutine), s.Current())
}

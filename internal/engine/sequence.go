package engine

import "sync/atomic"

// Sequencer is a monotonic logical clock for event ordering.
//
// Every dispatched event is stamped with a strictly increasing seq number.
// Log lines and transcripts order by seq, never by wall time, so two runs
// over the same input produce the same numbering.
//
// Thread-safety: Sequencer is safe for concurrent use (atomic operations).
type Sequencer struct {
	seq atomic.Int64
}

// NewSequencer creates a sequencer starting at 0.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// NewSequencerAt creates a sequencer starting at a specific sequence number.
func NewSequencerAt(start int64) *Sequencer {
	s := &Sequencer{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence number and increments the sequencer.
// Calls are linearizable - each call returns a unique, increasing value.
func (s *Sequencer) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (s *Sequencer) Current() int64 {
	return s.seq.Load()
}

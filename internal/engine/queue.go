package engine

import (
	"sync"

	"github.com/roach88/missy/internal/chat"
)

// EventType distinguishes between inbound event kinds.
type EventType int

const (
	// EventTypeReady is emitted once the ingress connection is established.
	EventTypeReady EventType = iota + 1
	// EventTypeMessageCreate is a new message in any visible channel.
	EventTypeMessageCreate
	// EventTypeReactionAdd is a user adding a reaction to a message.
	EventTypeReactionAdd
)

func (t EventType) String() string {
	switch t {
	case EventTypeReady:
		return "ready"
	case EventTypeMessageCreate:
		return "message_create"
	case EventTypeReactionAdd:
		return "reaction_add"
	default:
		return "unknown"
	}
}

// Event wraps inbound platform events for the event queue.
// Exactly one payload field is set, matching Type.
type Event struct {
	Type     EventType
	Seq      int64
	Self     *chat.User
	Message  *chat.Message
	Reaction *chat.Reaction
}

// eventQueue is a thread-safe FIFO queue for events.
//
// The queue is unbounded so the ingress reader never blocks on a slow
// consumer; the reader goroutine enqueues while the Run loop dequeues.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop (prevents goroutine hangs on context cancellation).
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Signal availability (non-blocking - buffer of 1 coalesces multiple signals)
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Event{}, false) if queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]

	// Nil out the slot so the payload pointers can be collected.
	q.events[0] = Event{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more events will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

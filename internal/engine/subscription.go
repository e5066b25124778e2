package engine

import "context"

// Filter selects the events a subscription accepts. Filters run while the
// engine holds its subscription lock: they must be quick and must not call
// back into the Engine.
type Filter func(Event) bool

// Subscription is a single-shot wait for one matching event.
//
// The event that satisfies Filter is removed from consideration for this
// subscription in the same critical section that evaluates it, so at most
// one event is ever delivered, no matter how many matching events race.
type Subscription struct {
	engine *Engine
	typ    EventType
	filter Filter
	ch     chan Event

	// guarded by engine.mu
	done bool
}

// C delivers the accepted event. It receives at most one value and is never closed.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Cancel deregisters the subscription. It returns true if the subscription
// was still pending, false if an event was already accepted (in which case
// that event is waiting on C) or it was cancelled before.
func (s *Subscription) Cancel() bool {
	e := s.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if s.done {
		return false
	}
	s.done = true
	e.removeSubscription(s)
	return true
}

// Subscribe registers a single-shot subscription for events of typ accepted
// by filter. A nil filter accepts every event of that type.
//
// Subscriptions see events before listeners do, and an event accepted by a
// subscription still reaches listeners.
func (e *Engine) Subscribe(typ EventType, filter Filter) *Subscription {
	if filter == nil {
		filter = func(Event) bool { return true }
	}
	s := &Subscription{
		engine: e,
		typ:    typ,
		filter: filter,
		ch:     make(chan Event, 1),
	}

	e.mu.Lock()
	e.subs[typ] = append(e.subs[typ], s)
	e.mu.Unlock()

	return s
}

// WaitFor blocks until an event of typ passes filter or ctx ends.
func (e *Engine) WaitFor(ctx context.Context, typ EventType, filter Filter) (Event, error) {
	sub := e.Subscribe(typ, filter)

	select {
	case ev := <-sub.C():
		return ev, nil
	case <-ctx.Done():
		if sub.Cancel() {
			return Event{}, ctx.Err()
		}
		// Accepted concurrently with cancellation; the event wins.
		return <-sub.C(), nil
	}
}

// PendingSubscriptions returns how many subscriptions are still waiting.
func (e *Engine) PendingSubscriptions() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, list := range e.subs {
		n += len(list)
	}
	return n
}

// offer hands ev to every pending subscription of its type that accepts it.
// Each accepting subscription is deregistered before the lock is released.
func (e *Engine) offer(ev Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.subs[ev.Type]
	if len(list) == 0 {
		return 0
	}

	kept := list[:0]
	accepted := 0
	for _, s := range list {
		if !accepts(s.filter, ev) {
			kept = append(kept, s)
			continue
		}
		s.done = true
		s.ch <- ev // buffered, and done guarantees a single send
		accepted++
	}
	clear(list[len(kept):])
	e.subs[ev.Type] = kept

	return accepted
}

// removeSubscription drops s from the registry. Caller holds e.mu.
func (e *Engine) removeSubscription(s *Subscription) {
	list := e.subs[s.typ]
	for i, other := range list {
		if other == s {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			e.subs[s.typ] = list[:len(list)-1]
			return
		}
	}
}

// accepts evaluates a filter, treating a panic as a non-match.
func accepts(f Filter, ev Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return f(ev)
}

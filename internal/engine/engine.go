package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Listener receives every event of the type it registered for.
//
// Listeners run on the Run loop goroutine, one after another. A listener
// that needs to block (a command handler waiting on a prompt) must hand the
// work to its own goroutine and return, or the loop stalls.
type Listener func(ctx context.Context, ev Event) error

// Engine is the single event loop shared by the ingress connection,
// the command dispatcher and every pending confirmation.
//
// Thread-safety model:
//   - Enqueue(): safe from any goroutine
//   - Subscribe()/Cancel(): safe from any goroutine
//   - Listen(): call before Run
//   - Run(): must be called from exactly one goroutine
type Engine struct {
	seq    *Sequencer
	queue  *eventQueue
	logger *slog.Logger

	listeners map[EventType][]Listener

	mu   sync.Mutex
	subs map[EventType][]*Subscription
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithSequencer starts event numbering from an existing sequencer.
func WithSequencer(s *Sequencer) EngineOption {
	return func(e *Engine) {
		e.seq = s
	}
}

// New creates an Engine with an empty queue and no listeners.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		seq:       NewSequencer(),
		queue:     newEventQueue(),
		logger:    slog.Default(),
		listeners: make(map[EventType][]Listener),
		subs:      make(map[EventType][]*Subscription),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Listen registers a long-lived listener for events of typ.
// Listeners are invoked in registration order.
func (e *Engine) Listen(typ EventType, l Listener) {
	e.listeners[typ] = append(e.listeners[typ], l)
}

// Enqueue submits an event for processing by the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(ev Event) bool {
	return e.queue.Enqueue(ev)
}

// Pending returns the number of queued, unprocessed events.
func (e *Engine) Pending() int {
	return e.queue.Len()
}

// Run starts the event loop.
// Blocks until context is cancelled or Stop() is called.
//
// ERROR HANDLING: On event processing failure, the error is logged with
// the event context and processing continues. A failing listener never
// takes the loop down.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")

	for {
		event, ok := e.queue.TryDequeue()
		if ok {
			event.Seq = e.seq.Next()
			if err := e.Dispatch(ctx, event); err != nil {
				e.logEventError(event, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case _, open := <-e.queue.Wait():
			// The signal channel closes when the queue is closed; drain
			// what is left before returning.
			if !open && e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the engine.
// Closes the event queue, which will cause Run() to return.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Dispatch processes one event synchronously: stamps it, offers it to
// pending subscriptions, then hands it to each listener.
//
// Run calls Dispatch for queued events. Tests and the scenario harness
// call it directly to step the loop deterministically.
func (e *Engine) Dispatch(ctx context.Context, ev Event) error {
	if ev.Seq == 0 {
		ev.Seq = e.seq.Next()
	}

	if err := validate(ev); err != nil {
		return err
	}

	e.logger.Debug("dispatching event",
		"seq", ev.Seq,
		"type", ev.Type.String(),
	)

	if n := e.offer(ev); n > 0 {
		e.logger.Debug("event accepted by subscription",
			"seq", ev.Seq,
			"type", ev.Type.String(),
			"subscriptions", n,
		)
	}

	var errs []error
	for _, l := range e.listeners[ev.Type] {
		if err := e.invoke(ctx, l, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// invoke runs one listener, converting a panic into a RuntimeError.
func (e *Engine) invoke(ctx context.Context, l Listener, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RuntimeError{
				Code:      ErrCodeListenerPanic,
				Message:   fmt.Sprintf("listener panicked: %v", r),
				Seq:       ev.Seq,
				EventType: ev.Type,
			}
		}
	}()

	if err := l(ctx, ev); err != nil {
		return &RuntimeError{
			Code:      ErrCodeListenerFailed,
			Message:   "listener returned an error",
			Seq:       ev.Seq,
			EventType: ev.Type,
			Err:       err,
		}
	}
	return nil
}

func validate(ev Event) error {
	switch ev.Type {
	case EventTypeReady:
		if ev.Self == nil {
			return newMalformedError(ev, "ready event missing self user")
		}
	case EventTypeMessageCreate:
		if ev.Message == nil {
			return newMalformedError(ev, "message event missing message data")
		}
	case EventTypeReactionAdd:
		if ev.Reaction == nil {
			return newMalformedError(ev, "reaction event missing reaction data")
		}
	default:
		return newMalformedError(ev, fmt.Sprintf("unknown event type %d", ev.Type))
	}
	return nil
}

// logEventError logs event processing failure with context for investigation.
func (e *Engine) logEventError(ev Event, err error) {
	attrs := []any{
		"seq", ev.Seq,
		"type", ev.Type.String(),
		"error", err,
	}
	switch {
	case ev.Message != nil:
		attrs = append(attrs,
			"message_id", ev.Message.ID,
			"channel_id", ev.Message.ChannelID,
			"author_id", ev.Message.Author.ID,
		)
	case ev.Reaction != nil:
		attrs = append(attrs,
			"message_id", ev.Reaction.MessageID,
			"user_id", ev.Reaction.UserID,
		)
	}
	e.logger.Error("event processing failed", attrs...)
}

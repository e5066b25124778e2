// Package engine implements the bot's event loop.
//
// ARCHITECTURE:
//
// Single Event Loop:
// Every inbound platform event (ready, message created, reaction added) is
// enqueued by the ingress connection and processed by one Run goroutine.
// Processing an event means:
//  1. Stamp it with the next logical seq number (Sequencer)
//  2. Offer it to pending single-shot subscriptions
//  3. Hand it to the long-lived listeners registered for its type
//
// Listeners must not block. The command dispatcher, the main listener,
// starts each handler in its own goroutine, so a handler suspended in a
// confirmation wait never holds up unrelated events.
//
// Single-Shot Subscriptions:
// A Subscription waits for exactly one event that passes its Filter.
// Acceptance deregisters it inside the same critical section that ran the
// filter, so two qualifying events racing each other cannot both land.
// Cancel reports whether the subscription was still pending, letting a
// waiter that timed out learn that an event slipped in first.
//
// Failure Policy:
// A malformed event or a failing listener is logged with the event's
// context and the loop continues. Nothing short of context cancellation
// or Stop ends Run.
package engine

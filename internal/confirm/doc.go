// Package confirm implements the interactive yes/no confirmation used by
// command handlers.
//
// Prompt posts a message, attaches ✅ and ❌, and waits for the designated
// responder to click one of them. The wait resolves exactly once to
// Confirmed, Declined or TimedOut. Whatever happens, the posted message is
// then cleaned up (deleted, or stripped of its reactions) and edited to
// show the resolution.
//
// The wait is a single-shot engine subscription raced against a timer. The
// subscription is registered as soon as the message exists, before the
// reactions are attached, so a responder who clicks the moment the message
// appears is never missed. When the timer and an accepted reaction race,
// Subscription.Cancel decides: if the reaction was accepted first it wins.
package confirm

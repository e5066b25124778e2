// Package command maps inbound chat messages to registered handlers.
//
// A Dispatcher listens for message-created events on the engine. Messages
// from other bots are dropped before anything else happens. A message that
// starts with the configured prefix names a command, case-insensitively,
// followed by arguments. The handler runs in its own goroutine with a
// request-scoped *Context that exposes confirmation prompts, the data
// store, status ticks and an HTTP client.
//
// Handler errors and panics are caught at the Dispatcher boundary,
// wrapped in *HandlerError and logged. They never reach the event loop.
package command

// Package harness replays scripted conversations against the real bot
// stack and records what the bot did.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: confirm_yes
//	description: "A confirmed prompt ticks the request"
//	owners: [owner]
//	setup:
//	  - CREATE TABLE extra (id INTEGER)
//	steps:
//	  - message: { author: alice, content: "!confirm Drop everything?" }
//	  - wait: prompt
//	  - react: { author: alice, message: msg-1, emoji: "✅" }
//	  - wait: idle
//	assertions:
//	  - type: sent
//	    contains: "Positive feedback"
//	  - type: final_state
//	    query: SELECT COUNT(*) FROM notes
//	    expect: 0
//
// Steps are applied in order:
//
//   - message: an inbound message; ids are in-1, in-2, ...
//   - react: a user adding an emoji to a message
//   - ready: the connection becoming ready
//   - advance: move the fake clock forward (Go duration syntax)
//   - wait: "idle" waits for every running handler, "prompt" waits until
//     count prompts (default 1) are waiting for an answer
//   - fail: make the next outbound call of op fail, with an HTTP status
//
// # Determinism
//
// Every run gets a fresh database in a temporary directory, a fake clock
// starting at 2024-01-01T00:00:00Z, sequential request and prompt ids and an
// in-memory messenger whose posted messages are msg-1, msg-2, ... Prompts
// still open when the steps run out are cancelled, so the transcript is
// always complete.
//
// # Fixture Commands
//
// Scenarios run against the note commands (confirm, remember, recall,
// forget) plus boom, which fails on purpose, on top of the built-in help
// and uptime. See Fixtures.
package harness

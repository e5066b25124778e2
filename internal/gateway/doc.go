// Package gateway connects the bot to the chat platform.
//
// Client holds the persistent websocket connection: it answers HELLO with
// IDENTIFY, keeps the heartbeat going, turns dispatch frames into engine
// events and reconnects after a fixed delay when the connection drops.
// Guild, role, member and channel payloads seen on the way feed a
// PermissionCache, which computes the bot's channel permissions and answers
// "may the bot add reactions here?" without any I/O.
//
// REST implements chat.Messenger over the platform's HTTP API.
package gateway

// Package chat defines the chat-platform vocabulary shared by the rest of
// the bot: messages, reactions, embeds, the outbound Messenger contract and
// the local permission cache contract.
//
// Nothing in this package performs I/O. Transports (internal/gateway) and
// test doubles (internal/testutil) implement the interfaces declared here.
package chat

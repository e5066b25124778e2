package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/roach88/missy/internal/chat"
)

// Operation names recorded by FakeMessenger, also used as failure keys.
const (
	OpSend           = "send"
	OpSendEmbed      = "send_embed"
	OpAddReaction    = "add_reaction"
	OpClearReactions = "clear_reactions"
	OpEdit           = "edit"
	OpDelete         = "delete"
)

// Call is one recorded outbound operation.
type Call struct {
	Op        string
	ChannelID string
	MessageID string
	Content   string
	Emoji     string
	Embed     *chat.Embed
	Err       error
}

// FakeMessenger is an in-memory chat.Messenger.
//
// Posted messages get ids msg-1, msg-2, ... in posting order. Every call is
// recorded, including failed ones. Editing, reacting to or deleting a
// message that does not exist (or was deleted) fails with a 404 APIError,
// like the real platform.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeMessenger struct {
	mu       sync.Mutex
	self     chat.User
	next     int
	calls    []Call
	messages map[string]*chat.Message
	failures map[string][]error
	denied   map[string]bool
}

// NewFakeMessenger creates a messenger posting as self.
func NewFakeMessenger(self chat.User) *FakeMessenger {
	return &FakeMessenger{
		self:     self,
		messages: make(map[string]*chat.Message),
		failures: make(map[string][]error),
		denied:   make(map[string]bool),
	}
}

// FailNext makes the next call of op return err. Repeated calls queue
// further failures in order.
func (m *FakeMessenger) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], err)
}

// DenyReactions makes CanAddReactions report false for channelID.
func (m *FakeMessenger) DenyReactions(channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denied[channelID] = true
}

// CanAddReactions implements chat.PermissionSource.
func (m *FakeMessenger) CanAddReactions(channelID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.denied[channelID]
}

// Calls returns a copy of every recorded call.
func (m *FakeMessenger) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsOf returns the recorded calls of one operation.
func (m *FakeMessenger) CallsOf(op string) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Message returns a live message by id.
func (m *FakeMessenger) Message(id string) (chat.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return chat.Message{}, false
	}
	return *msg, true
}

// Seed makes an inbound message known, so it can be reacted to or deleted.
func (m *FakeMessenger) Seed(msg chat.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.ID] = &msg
}

// Send implements chat.Messenger.
func (m *FakeMessenger) Send(_ context.Context, channelID, content string) (chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := Call{Op: OpSend, ChannelID: channelID, Content: content}
	if err := m.failLocked(OpSend); err != nil {
		call.Err = err
		m.calls = append(m.calls, call)
		return chat.Message{}, err
	}

	msg := m.postLocked(channelID, content)
	call.MessageID = msg.ID
	m.calls = append(m.calls, call)
	return msg, nil
}

// SendEmbed implements chat.Messenger.
func (m *FakeMessenger) SendEmbed(_ context.Context, channelID string, embed chat.Embed) (chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := Call{Op: OpSendEmbed, ChannelID: channelID, Embed: &embed}
	if err := m.failLocked(OpSendEmbed); err != nil {
		call.Err = err
		m.calls = append(m.calls, call)
		return chat.Message{}, err
	}

	msg := m.postLocked(channelID, "")
	call.MessageID = msg.ID
	m.calls = append(m.calls, call)
	return msg, nil
}

// AddReaction implements chat.Messenger.
func (m *FakeMessenger) AddReaction(_ context.Context, channelID, messageID, emoji string) error {
	return m.touch(Call{Op: OpAddReaction, ChannelID: channelID, MessageID: messageID, Emoji: emoji}, nil)
}

// ClearReactions implements chat.Messenger.
func (m *FakeMessenger) ClearReactions(_ context.Context, channelID, messageID string) error {
	return m.touch(Call{Op: OpClearReactions, ChannelID: channelID, MessageID: messageID}, nil)
}

// Edit implements chat.Messenger.
func (m *FakeMessenger) Edit(_ context.Context, channelID, messageID, content string) error {
	return m.touch(Call{Op: OpEdit, ChannelID: channelID, MessageID: messageID, Content: content}, func(msg *chat.Message) {
		msg.Content = content
	})
}

// Delete implements chat.Messenger.
func (m *FakeMessenger) Delete(_ context.Context, channelID, messageID string) error {
	return m.touch(Call{Op: OpDelete, ChannelID: channelID, MessageID: messageID}, func(msg *chat.Message) {
		delete(m.messages, msg.ID)
	})
}

// touch records an operation on an existing message and applies mutate.
func (m *FakeMessenger) touch(call Call, mutate func(*chat.Message)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.failLocked(call.Op)
	if err == nil {
		msg, ok := m.messages[call.MessageID]
		switch {
		case !ok:
			err = &chat.APIError{
				Method: "FAKE",
				Path:   fmt.Sprintf("/channels/%s/messages/%s", call.ChannelID, call.MessageID),
				Status: http.StatusNotFound,
				Body:   "Unknown Message",
			}
		case mutate != nil:
			mutate(msg)
		}
	}

	call.Err = err
	m.calls = append(m.calls, call)
	return err
}

func (m *FakeMessenger) postLocked(channelID, content string) chat.Message {
	m.next++
	msg := chat.Message{
		ID:        fmt.Sprintf("msg-%d", m.next),
		ChannelID: channelID,
		Author:    m.self,
		Content:   content,
	}
	m.messages[msg.ID] = &msg
	return msg
}

func (m *FakeMessenger) failLocked(op string) error {
	queue := m.failures[op]
	if len(queue) == 0 {
		return nil
	}
	m.failures[op] = queue[1:]
	return queue[0]
}

package chat

import "context"

// User identifies a platform account.
type User struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"username,omitempty" yaml:"name,omitempty"`
	Bot  bool   `json:"bot,omitempty" yaml:"bot,omitempty"`
}

// Message is an inbound or posted chat message.
type Message struct {
	ID        string `json:"id" yaml:"id"`
	ChannelID string `json:"channel_id" yaml:"channel_id"`
	GuildID   string `json:"guild_id,omitempty" yaml:"guild_id,omitempty"`
	Author    User   `json:"author" yaml:"author"`
	Content   string `json:"content" yaml:"content"`
}

// Reaction is a single user adding an emoji affordance to a message.
type Reaction struct {
	MessageID string `json:"message_id" yaml:"message_id"`
	ChannelID string `json:"channel_id" yaml:"channel_id"`
	UserID    string `json:"user_id" yaml:"user_id"`
	Emoji     string `json:"emoji" yaml:"emoji"`
}

// EmbedField is one titled block inside an Embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Embed is a rich message body.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// Messenger is the outbound side of the chat platform.
//
// Implementations must be safe for concurrent use: command handlers run
// in their own goroutines and share one Messenger.
type Messenger interface {
	// Send posts text to a channel and returns the created message.
	Send(ctx context.Context, channelID, content string) (Message, error)

	// SendEmbed posts an embed to a channel.
	SendEmbed(ctx context.Context, channelID string, embed Embed) (Message, error)

	// AddReaction attaches an emoji to a message as the bot user.
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error

	// ClearReactions removes every reaction from a message.
	ClearReactions(ctx context.Context, channelID, messageID string) error

	// Edit replaces a message's text.
	Edit(ctx context.Context, channelID, messageID, content string) error

	// Delete removes a message.
	Delete(ctx context.Context, channelID, messageID string) error
}

// PermissionSource answers capability questions from locally cached state.
// Implementations must not perform I/O.
type PermissionSource interface {
	CanAddReactions(channelID string) bool
}

// AllowAll is a PermissionSource that grants everything.
type AllowAll struct{}

// CanAddReactions always returns true.
func (AllowAll) CanAddReactions(string) bool { return true }

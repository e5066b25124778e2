package command

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/roach88/missy/internal/chat"
	"github.com/roach88/missy/internal/confirm"
	"github.com/roach88/missy/internal/store"
)

// Prompter runs confirmation prompts. *confirm.Coordinator implements it.
type Prompter interface {
	Prompt(ctx context.Context, req confirm.Request) (confirm.Outcome, error)
}

// Storage is the Data Access Layer. *store.Store implements it.
type Storage interface {
	Select(ctx context.Context, q store.Query) (store.Result, error)
	Update(ctx context.Context, q store.Query) error
	FoundIn(ctx context.Context, q store.Query) (bool, error)
}

// App is the set of capabilities handed to every handler. It replaces
// any process-wide bot object: the Dispatcher owns one App and shares it
// with each Context it builds.
type App struct {
	Messenger chat.Messenger
	Prompter  Prompter
	Store     Storage
	HTTP      *http.Client
}

// Context is the request-scoped view a handler works with.
type Context struct {
	// Message is the triggering message.
	Message chat.Message

	// Command is the resolved command.
	Command *Command

	// Invoked is the name or alias the user typed.
	Invoked string

	// Args are the parsed arguments after the command name.
	Args []string

	// Rest is the raw text after the command name.
	Rest string

	// RequestID correlates log lines for this invocation.
	RequestID string

	// Prefix is the command prefix in effect.
	Prefix string

	app      *App
	registry *Registry
	owner    bool

	promptTimeout time.Duration
}

// IsOwner reports whether the author is a bot owner.
func (c *Context) IsOwner() bool {
	return c.owner
}

// Registry returns the registry the command was resolved from.
func (c *Context) Registry() *Registry {
	return c.registry
}

// Send posts text to the triggering channel.
func (c *Context) Send(ctx context.Context, content string) (chat.Message, error) {
	return c.app.Messenger.Send(ctx, c.Message.ChannelID, content)
}

// Reply posts text to the triggering channel mentioning the author.
func (c *Context) Reply(ctx context.Context, content string) (chat.Message, error) {
	return c.Send(ctx, fmt.Sprintf("<@%s> %s", c.Message.Author.ID, content))
}

// SendEmbed posts an embed to the triggering channel.
func (c *Context) SendEmbed(ctx context.Context, embed chat.Embed) (chat.Message, error) {
	return c.app.Messenger.SendEmbed(ctx, c.Message.ChannelID, embed)
}

// Prompt asks the message author a yes/no question in the triggering
// channel. Options may change the responder, timeout, cleanup and texts.
func (c *Context) Prompt(ctx context.Context, text string, opts ...confirm.RequestOption) (confirm.Outcome, error) {
	if c.app.Prompter == nil {
		return 0, fmt.Errorf("prompts are not available")
	}
	if c.promptTimeout > 0 {
		opts = append([]confirm.RequestOption{confirm.WithTimeout(c.promptTimeout)}, opts...)
	}
	req := confirm.NewRequest(c.Message.ChannelID, c.Message.Author.ID, text, opts...)
	return c.app.Prompter.Prompt(ctx, req)
}

// Select reads the first row of statement from the default database.
func (c *Context) Select(ctx context.Context, statement string, params ...any) (store.Result, error) {
	return c.app.Store.Select(ctx, store.Query{Statement: statement, Params: params})
}

// SelectChunked reads every row of statement, regrouped by its column list.
func (c *Context) SelectChunked(ctx context.Context, statement string, params ...any) (store.Result, error) {
	return c.app.Store.Select(ctx, store.Query{Statement: statement, Params: params, Chunked: true})
}

// Update executes and commits statement against the default database.
func (c *Context) Update(ctx context.Context, statement string, params ...any) error {
	return c.app.Store.Update(ctx, store.Query{Statement: statement, Params: params})
}

// FoundIn reports whether statement returns any row.
func (c *Context) FoundIn(ctx context.Context, statement string, params ...any) (bool, error) {
	return c.app.Store.FoundIn(ctx, store.Query{Statement: statement, Params: params})
}

// Store exposes the Data Access Layer for queries against other databases.
func (c *Context) Store() Storage {
	return c.app.Store
}

// Tick reacts to msg with the glyph for mark and returns that glyph.
// Unlike Prompt it does not wait for anything.
func (c *Context) Tick(ctx context.Context, msg chat.Message, mark chat.Mark) (string, error) {
	glyph := mark.Glyph()
	channelID := msg.ChannelID
	if channelID == "" {
		channelID = c.Message.ChannelID
	}
	if err := c.app.Messenger.AddReaction(ctx, channelID, msg.ID, glyph); err != nil {
		return "", fmt.Errorf("tick %s: %w", mark, err)
	}
	return glyph, nil
}

// HTTP returns the shared client for calling outside APIs.
func (c *Context) HTTP() *http.Client {
	if c.app.HTTP == nil {
		return http.DefaultClient
	}
	return c.app.HTTP
}

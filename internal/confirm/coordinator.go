package confirm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/missy/internal/chat"
	"github.com/roach88/missy/internal/engine"
)

// promptSuffix is appended to every prompt to name the two choices.
const promptSuffix = "\n\nReact with " + chat.Yes + " to **confirm** or " + chat.No + " to **decline**."

// teardownTimeout bounds each cleanup call when the caller's context is
// already done.
const teardownTimeout = 10 * time.Second

// Subscriber is the part of the engine a Coordinator waits on.
type Subscriber interface {
	Subscribe(typ engine.EventType, filter engine.Filter) *engine.Subscription
}

// Coordinator runs confirmation prompts. One Coordinator serves every
// handler; prompts share no state and may be outstanding concurrently.
type Coordinator struct {
	messenger   chat.Messenger
	permissions chat.PermissionSource
	events      Subscriber
	clock       engine.Clock
	ids         engine.IDGenerator
	logger      *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock sets the time source for timeouts. Default: engine.RealClock.
func WithClock(c engine.Clock) Option {
	return func(co *Coordinator) {
		co.clock = c
	}
}

// WithIDGenerator sets how prompt correlation ids are made.
func WithIDGenerator(g engine.IDGenerator) Option {
	return func(co *Coordinator) {
		co.ids = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(co *Coordinator) {
		co.logger = l
	}
}

// New creates a Coordinator posting through m, checking rights against
// perms and waiting on events.
func New(m chat.Messenger, perms chat.PermissionSource, events Subscriber, opts ...Option) *Coordinator {
	c := &Coordinator{
		messenger:   m,
		permissions: perms,
		events:      events,
		clock:       engine.RealClock{},
		ids:         engine.UUIDv7Generator{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pendingPrompt correlates one posted message with its responder while
// the wait is active.
type pendingPrompt struct {
	id        string
	channelID string
	messageID string
	responder string
	sub       *engine.Subscription
}

// Prompt asks req.Responder a yes/no question and returns the answer.
//
// TimedOut is a normal result, not an error. Errors are returned only when
// the prompt could not be set up (permission, posting, attaching) or when
// ctx ends during the wait; in the last case the prompt is still cleaned
// up and the outcome is TimedOut.
func (c *Coordinator) Prompt(ctx context.Context, req Request) (Outcome, error) {
	if !c.permissions.CanAddReactions(req.ChannelID) {
		return 0, fmt.Errorf("prompt in channel %s: %w", req.ChannelID, ErrPermissionDenied)
	}

	msg, err := c.messenger.Send(ctx, req.ChannelID, req.Text+promptSuffix)
	if err != nil {
		return 0, fmt.Errorf("post prompt: %w", err)
	}

	p := &pendingPrompt{
		id:        c.ids.Generate(),
		channelID: msg.ChannelID,
		messageID: msg.ID,
		responder: req.Responder,
	}
	if p.channelID == "" {
		p.channelID = req.ChannelID
	}
	p.sub = c.events.Subscribe(engine.EventTypeReactionAdd, p.accepts)

	for _, emoji := range []string{chat.Yes, chat.No} {
		if err := c.messenger.AddReaction(ctx, p.channelID, p.messageID, emoji); err != nil {
			p.sub.Cancel()
			c.logger.Warn("prompt aborted: attaching reaction failed",
				"prompt_id", p.id,
				"message_id", p.messageID,
				"emoji", emoji,
				"error", err,
			)
			// An aborted prompt is deleted even when DeleteAfter is unset.
			c.step(ctx, p, "delete", func(ctx context.Context) error {
				return c.messenger.Delete(ctx, p.channelID, p.messageID)
			})
			return 0, &AttachError{MessageID: p.messageID, Emoji: emoji, Err: err}
		}
	}

	c.logger.Debug("prompt waiting",
		"prompt_id", p.id,
		"message_id", p.messageID,
		"responder", p.responder,
		"timeout", req.Timeout,
	)

	outcome, waitErr := c.wait(ctx, p, req.Timeout)

	c.cleanup(ctx, p, req)
	c.resolve(ctx, p, req.resolutionText(outcome))

	c.logger.Info("prompt resolved",
		"prompt_id", p.id,
		"message_id", p.messageID,
		"responder", p.responder,
		"outcome", outcome.String(),
	)

	return outcome, waitErr
}

// accepts is the subscription filter: a decision reaction on this prompt's
// message from its responder.
func (p *pendingPrompt) accepts(ev engine.Event) bool {
	r := ev.Reaction
	if r.MessageID != p.messageID || r.UserID != p.responder {
		return false
	}
	_, ok := outcomeOf(r.Emoji)
	return ok
}

// wait suspends until the subscription fires, the timer expires or ctx ends.
func (c *Coordinator) wait(ctx context.Context, p *pendingPrompt, timeout time.Duration) (Outcome, error) {
	timer := c.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-p.sub.C():
		return c.decided(ev), nil

	case <-timer.C:
		if !p.sub.Cancel() {
			// A reaction was accepted before the timer won the select.
			return c.decided(<-p.sub.C()), nil
		}
		return TimedOut, nil

	case <-ctx.Done():
		if !p.sub.Cancel() {
			return c.decided(<-p.sub.C()), nil
		}
		return TimedOut, ctx.Err()
	}
}

func (c *Coordinator) decided(ev engine.Event) Outcome {
	o, _ := outcomeOf(ev.Reaction.Emoji)
	return o
}

// cleanup removes the prompt's transient state: the whole message when
// DeleteAfter is set, otherwise its reactions. Failures are logged only.
func (c *Coordinator) cleanup(ctx context.Context, p *pendingPrompt, req Request) {
	if req.DeleteAfter {
		c.step(ctx, p, "delete", func(ctx context.Context) error {
			return c.messenger.Delete(ctx, p.channelID, p.messageID)
		})
		return
	}
	c.step(ctx, p, "clear_reactions", func(ctx context.Context) error {
		return c.messenger.ClearReactions(ctx, p.channelID, p.messageID)
	})
}

// resolve edits the prompt to show the outcome. The message may already be
// deleted, in which case the edit fails and is logged at debug level.
func (c *Coordinator) resolve(ctx context.Context, p *pendingPrompt, text string) {
	c.step(ctx, p, "edit", func(ctx context.Context) error {
		return c.messenger.Edit(ctx, p.channelID, p.messageID, text)
	})
}

// step runs one teardown action with its own deadline, detached from the
// caller's cancellation, and absorbs its failure.
func (c *Coordinator) step(ctx context.Context, p *pendingPrompt, name string, fn func(context.Context) error) {
	stepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()

	err := fn(stepCtx)
	if err == nil {
		return
	}

	level := slog.LevelWarn
	if chat.IsNotFound(err) {
		level = slog.LevelDebug
	}
	c.logger.Log(stepCtx, level, "prompt teardown step failed",
		"prompt_id", p.id,
		"message_id", p.messageID,
		"step", name,
		"error", err,
	)
}

package command

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/roach88/missy/internal/engine"
)

// DefaultPrefix starts every command.
const DefaultPrefix = "!"

// Dispatcher turns message events into handler invocations.
type Dispatcher struct {
	registry *Registry
	app      App
	prefix   string
	owners   map[string]bool
	ids      engine.IDGenerator
	clock    engine.Clock
	logger   *slog.Logger

	promptTimeout time.Duration

	wg sync.WaitGroup

	mu      sync.Mutex
	readyAt time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithPrefix sets the command prefix. Empty keeps DefaultPrefix.
func WithPrefix(p string) DispatcherOption {
	return func(d *Dispatcher) {
		if p != "" {
			d.prefix = p
		}
	}
}

// WithOwners sets the user ids allowed to run OwnerOnly commands.
func WithOwners(ids ...string) DispatcherOption {
	return func(d *Dispatcher) {
		for _, id := range ids {
			d.owners[id] = true
		}
	}
}

// WithIDGenerator sets how request ids are generated.
func WithIDGenerator(g engine.IDGenerator) DispatcherOption {
	return func(d *Dispatcher) {
		d.ids = g
	}
}

// WithClock sets the time source used for uptime.
func WithClock(c engine.Clock) DispatcherOption {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

// WithPromptTimeout sets the timeout handlers' prompts start with.
// Non-positive values keep confirm.DefaultTimeout.
func WithPromptTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.promptTimeout = d
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher creates a Dispatcher over registry. The built-in help and
// uptime commands are added unless the registry already has those names.
func NewDispatcher(registry *Registry, app App, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		app:      app,
		prefix:   DefaultPrefix,
		owners:   make(map[string]bool),
		ids:      engine.UUIDv7Generator{},
		clock:    engine.RealClock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.registerBuiltins()
	return d
}

// Attach registers the Dispatcher's listeners on e.
func (d *Dispatcher) Attach(e *engine.Engine) {
	e.Listen(engine.EventTypeReady, d.HandleReady)
	e.Listen(engine.EventTypeMessageCreate, d.HandleMessage)
}

// Prefix returns the command prefix.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// HandleReady records the first ready time. Later ready events after a
// reconnect leave it alone.
func (d *Dispatcher) HandleReady(_ context.Context, ev engine.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.readyAt.IsZero() {
		d.readyAt = d.clock.Now()
	}
	d.logger.Info("ready",
		"user", ev.Self.Name,
		"user_id", ev.Self.ID,
	)
	return nil
}

// Uptime returns time since the first ready event.
func (d *Dispatcher) Uptime() (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.readyAt.IsZero() {
		return 0, false
	}
	return d.clock.Now().Sub(d.readyAt), true
}

// HandleMessage is the engine listener for message-created events. It
// resolves the command synchronously and starts the handler in its own
// goroutine so the event loop never waits on handler work.
func (d *Dispatcher) HandleMessage(ctx context.Context, ev engine.Event) error {
	msg := ev.Message
	if msg.Author.Bot {
		return nil
	}

	if !strings.HasPrefix(msg.Content, d.prefix) {
		return nil
	}

	name, rest := splitInvocation(strings.TrimPrefix(msg.Content, d.prefix))
	if name == "" {
		return nil
	}

	cmd, ok := d.registry.Lookup(name)
	if !ok {
		d.logger.Debug("unknown command", "name", name, "author_id", msg.Author.ID)
		return nil
	}

	c := &Context{
		Message:   *msg,
		Command:   cmd,
		Invoked:   name,
		Rest:      rest,
		RequestID: d.ids.Generate(),
		Prefix:    d.prefix,
		app:       &d.app,
		registry:  d.registry,
		owner:     d.owners[msg.Author.ID],

		promptTimeout: d.promptTimeout,
	}

	if cmd.OwnerOnly && !c.owner {
		d.logger.Info("command refused: owner only",
			"command", cmd.Name,
			"author_id", msg.Author.ID,
			"request_id", c.RequestID,
		)
		return nil
	}

	args, err := SplitArgs(rest)
	if err != nil {
		d.report(&HandlerError{Command: cmd.Name, RequestID: c.RequestID, Err: err}, c)
		return nil
	}
	c.Args = args

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.invoke(ctx, c); err != nil {
			d.report(err, c)
		}
	}()

	return nil
}

// Wait blocks until every started handler has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// invoke runs the handler, converting errors and panics to HandlerError.
func (d *Dispatcher) invoke(ctx context.Context, c *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Debug("handler panic stack", "request_id", c.RequestID, "stack", string(debug.Stack()))
			err = &HandlerError{
				Command:   c.Command.Name,
				RequestID: c.RequestID,
				Panic:     true,
				Err:       fmt.Errorf("%v", r),
			}
		}
	}()

	d.logger.Debug("invoking command",
		"command", c.Command.Name,
		"args", len(c.Args),
		"author_id", c.Message.Author.ID,
		"channel_id", c.Message.ChannelID,
		"request_id", c.RequestID,
	)

	if err := c.Command.Run(ctx, c); err != nil {
		return &HandlerError{Command: c.Command.Name, RequestID: c.RequestID, Err: err}
	}
	return nil
}

func (d *Dispatcher) report(err error, c *Context) {
	d.logger.Error("command failed",
		"command", c.Command.Name,
		"author_id", c.Message.Author.ID,
		"channel_id", c.Message.ChannelID,
		"request_id", c.RequestID,
		"error", err,
	)
}

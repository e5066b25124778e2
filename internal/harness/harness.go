package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/roach88/missy/internal/chat"
	"github.com/roach88/missy/internal/command"
	"github.com/roach88/missy/internal/confirm"
	"github.com/roach88/missy/internal/engine"
	"github.com/roach88/missy/internal/notes"
	"github.com/roach88/missy/internal/store"
	"github.com/roach88/missy/internal/testutil"
)

// Epoch is the fake clock's starting time.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// BotUser is the account the bot posts as.
var BotUser = chat.User{ID: "missy", Name: "missy", Bot: true}

// stepTimeout bounds every wait for background work.
const stepTimeout = 5 * time.Second

// Harness wires the real engine, dispatcher, coordinator and store to a
// fake messenger and a fake clock.
type Harness struct {
	scenario   *Scenario
	engine     *engine.Engine
	messenger  *testutil.FakeMessenger
	clock      *testutil.FakeClock
	dispatcher *command.Dispatcher
	store      *store.Store
	logs       *syncBuffer
	inbound    int
}

// syncBuffer guards a bytes.Buffer written by handler goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh database in a temporary directory,
// removed afterwards. Errors are returned for scenarios that could not be
// executed; failed assertions are reported in the Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "missy-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(dir)

	h := newHarness(scenario, filepath.Join(dir, store.DefaultPath))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := h.setup(runCtx); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	stepErr := h.execute(runCtx)

	// Open prompts resolve as cancelled before the transcript is taken.
	cancel()
	if !h.settle() {
		return nil, errors.New("handlers still running after cancellation")
	}
	if stepErr != nil {
		return nil, stepErr
	}

	result := NewResult()
	for _, call := range h.messenger.Calls() {
		result.Transcript = append(result.Transcript, entryOf(call))
	}
	result.Logs = h.logs.String()

	for _, msg := range EvaluateAssertions(ctx, result, scenario.Assertions, h.store) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(s *Scenario, dbPath string) *Harness {
	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))

	e := engine.New(engine.WithLogger(logger))
	m := testutil.NewFakeMessenger(BotUser)
	for _, ch := range s.DenyReactions {
		m.DenyReactions(ch)
	}
	clock := testutil.NewFakeClock(Epoch)
	st := store.New(dbPath, store.WithLogger(logger))

	reg := command.NewRegistry()
	reg.MustRegister(Fixtures()...)

	app := command.App{
		Messenger: m,
		Prompter: confirm.New(m, m, e,
			confirm.WithClock(clock),
			confirm.WithIDGenerator(engine.NewSequentialGenerator("prompt")),
			confirm.WithLogger(logger),
		),
		Store: st,
		HTTP:  &http.Client{Timeout: stepTimeout},
	}
	d := command.NewDispatcher(reg, app,
		command.WithPrefix(s.Prefix),
		command.WithOwners(s.Owners...),
		command.WithIDGenerator(engine.NewSequentialGenerator("req")),
		command.WithClock(clock),
		command.WithLogger(logger),
	)
	d.Attach(e)

	return &Harness{
		scenario:   s,
		engine:     e,
		messenger:  m,
		clock:      clock,
		dispatcher: d,
		store:      st,
		logs:       logs,
	}
}

func (h *Harness) setup(ctx context.Context) error {
	if err := notes.Migrate(ctx, h.store); err != nil {
		return err
	}
	for i, stmt := range h.scenario.Setup {
		if err := h.store.Update(ctx, store.Query{Statement: stmt}); err != nil {
			return fmt.Errorf("setup statement %d: %w", i, err)
		}
	}
	return nil
}

func (h *Harness) execute(ctx context.Context) error {
	for i, step := range h.scenario.Steps {
		if err := h.step(ctx, step); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (h *Harness) step(ctx context.Context, st Step) error {
	switch {
	case st.Message != nil:
		return h.message(ctx, st.Message)

	case st.React != nil:
		return h.engine.Dispatch(ctx, engine.Event{
			Type: engine.EventTypeReactionAdd,
			Reaction: &chat.Reaction{
				MessageID: st.React.Message,
				ChannelID: h.channel(st.React.Channel),
				UserID:    st.React.Author,
				Emoji:     st.React.Emoji,
			},
		})

	case st.Ready:
		self := BotUser
		return h.engine.Dispatch(ctx, engine.Event{Type: engine.EventTypeReady, Self: &self})

	case st.Advance != "":
		d, err := time.ParseDuration(st.Advance)
		if err != nil {
			return err
		}
		h.clock.Advance(d)
		return nil

	case st.Wait == WaitIdle:
		if !h.settle() {
			return errors.New("handlers did not finish; is a prompt still open?")
		}
		return nil

	case st.Wait == WaitPrompt:
		n := st.Count
		if n == 0 {
			n = 1
		}
		if !h.clock.WaitForTimers(n, stepTimeout) {
			return fmt.Errorf("expected %d open prompts, have %d", n, h.clock.PendingTimers())
		}
		return nil

	case st.Fail != nil:
		h.messenger.FailNext(st.Fail.Op, injectedError(st.Fail))
		return nil
	}
	return errors.New("empty step")
}

func (h *Harness) message(ctx context.Context, ms *MessageStep) error {
	h.inbound++
	msg := chat.Message{
		ID:        fmt.Sprintf("in-%d", h.inbound),
		ChannelID: h.channel(ms.Channel),
		Author:    chat.User{ID: ms.Author, Name: ms.Author, Bot: ms.Bot},
		Content:   ms.Content,
	}
	h.messenger.Seed(msg)
	return h.engine.Dispatch(ctx, engine.Event{Type: engine.EventTypeMessageCreate, Message: &msg})
}

func (h *Harness) channel(override string) string {
	switch {
	case override != "":
		return override
	case h.scenario.Channel != "":
		return h.scenario.Channel
	default:
		return DefaultChannel
	}
}

// settle waits for running handlers, giving up after stepTimeout.
func (h *Harness) settle() bool {
	done := make(chan struct{})
	go func() {
		h.dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(stepTimeout):
		return false
	}
}

func injectedError(f *FailStep) error {
	if f.Status == 0 {
		return errors.New("connection reset")
	}
	return &chat.APIError{Method: "FAKE", Path: "/" + f.Op, Status: f.Status}
}

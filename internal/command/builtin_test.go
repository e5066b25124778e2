package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/missy/internal/chat"
	"github.com/roach88/missy/internal/engine"
	"github.com/roach88/missy/internal/testutil"
)

func helpFixture(t *testing.T) *harness {
	return newHarness(t,
		Command{Name: "remember", Aliases: []string{"rem"}, Usage: "<key> <value>", Short: "Stores a value.", Help: "Stores a value under key, replacing any old one.", Run: noop},
		Command{Name: "recall", Usage: "<key>", Run: noop},
		Command{Name: "secret", Hidden: true, Short: "Hidden.", Run: noop},
		Command{Name: "reload", OwnerOnly: true, Short: "Reloads.", Run: noop},
	)
}

func lastEmbed(t *testing.T, m *testutil.FakeMessenger) chat.Embed {
	t.Helper()
	calls := m.CallsOf(testutil.OpSendEmbed)
	require.NotEmpty(t, calls)
	return *calls[len(calls)-1].Embed
}

func fieldNames(e chat.Embed) []string {
	var out []string
	for _, f := range e.Fields {
		out = append(out, f.Name)
	}
	return out
}

func TestHelp_ListsVisibleCommands(t *testing.T) {
	h := helpFixture(t)

	h.sayAndWait(alice, "!help")

	e := lastEmbed(t, h.msgr)
	assert.Equal(t, HelpColor, e.Color)
	assert.Equal(t, []string{
		"!recall <key>",
		"!remember <key> <value>",
		"!uptime",
	}, fieldNames(e), "help, hidden and owner-only commands are not listed")

	assert.Equal(t, NoHelpText, e.Fields[0].Value)
	assert.Equal(t, "Stores a value.", e.Fields[1].Value)
}

func TestHelp_OwnerSeesOwnerCommands(t *testing.T) {
	h := helpFixture(t)

	h.sayAndWait(owner, "!HELP")

	assert.Contains(t, fieldNames(lastEmbed(t, h.msgr)), "!reload")
}

func TestHelp_CommandDetail(t *testing.T) {
	h := helpFixture(t)

	h.sayAndWait(alice, "!help rem")

	e := lastEmbed(t, h.msgr)
	assert.Equal(t, "!remember <key> <value>", e.Title)
	assert.Equal(t, "Stores a value under key, replacing any old one.", e.Description)
	require.Len(t, e.Fields, 1)
	assert.Equal(t, "Aliases", e.Fields[0].Name)
	assert.Equal(t, "rem", e.Fields[0].Value)

	h.sayAndWait(alice, "!help recall")
	assert.Equal(t, NoHelpText, lastEmbed(t, h.msgr).Description)
}

func TestHelp_UnknownCommand(t *testing.T) {
	h := helpFixture(t)

	h.sayAndWait(alice, "!help nope")
	h.sayAndWait(alice, "!help secret")

	sends := h.msgr.CallsOf(testutil.OpSend)
	require.Len(t, sends, 2)
	assert.Equal(t, `No command called "nope" found.`, sends[0].Content)
	assert.Equal(t, `No command called "secret" found.`, sends[1].Content)
}

func TestUptime(t *testing.T) {
	h := newHarness(t)

	h.sayAndWait(alice, "!uptime")

	ready := engine.Event{Type: engine.EventTypeReady, Self: &chat.User{ID: "bot", Name: "missy"}}
	require.NoError(t, h.engine.Dispatch(context.Background(), ready))
	h.clock.Advance(90 * time.Minute)

	// A second ready after a reconnect does not reset uptime.
	require.NoError(t, h.engine.Dispatch(context.Background(), ready))
	h.clock.Advance(30 * time.Second)

	h.sayAndWait(alice, "!uptime")

	sends := h.msgr.CallsOf(testutil.OpSend)
	require.Len(t, sends, 2)
	assert.Equal(t, "Not connected yet.", sends[0].Content)
	assert.Equal(t, "Online for 1h30m30s.", sends[1].Content)
}

func TestBuiltins_DoNotReplaceUserCommands(t *testing.T) {
	var called bool
	h := newHarness(t, Command{Name: "help", Run: func(context.Context, *Context) error {
		called = true
		return nil
	}})

	h.sayAndWait(alice, "!help")

	assert.True(t, called)
	assert.Empty(t, h.msgr.CallsOf(testutil.OpSendEmbed))
}

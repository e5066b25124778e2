package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *Context) error { return nil }

func TestRegistry_CaseInsensitiveLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Command{Name: "Remember", Aliases: []string{"rem"}, Run: noop}))

	for _, name := range []string{"remember", "REMEMBER", "ReMeMbEr", "rem", "REM"} {
		cmd, ok := r.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, "Remember", cmd.Name)
	}

	_, ok := r.Lookup("forget")
	assert.False(t, ok)
}

func TestRegistry_RejectsDuplicatesAndInvalid(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Command{Name: "ping", Run: noop}))

	assert.Error(t, r.Register(Command{Name: "PING", Run: noop}), "case-folded duplicate")
	assert.Error(t, r.Register(Command{Name: "pong", Aliases: []string{"ping"}, Run: noop}), "alias collides")
	assert.Error(t, r.Register(Command{Name: "", Run: noop}))
	assert.Error(t, r.Register(Command{Name: "nohandler"}))

	_, ok := r.Lookup("pong")
	assert.False(t, ok, "failed registration leaves nothing behind")
}

func TestRegistry_CommandsSorted(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(
		Command{Name: "zeta", Run: noop},
		Command{Name: "Alpha", Run: noop},
		Command{Name: "mid", Aliases: []string{"m"}, Run: noop},
	)

	var names []string
	for _, c := range r.Commands() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Alpha", "mid", "zeta"}, names, "aliases are not listed separately")
}

func TestCommand_Signature(t *testing.T) {
	assert.Equal(t, "!set <key> <value>", (&Command{Name: "set", Usage: "<key> <value>"}).Signature("!"))
	assert.Equal(t, "!ping", (&Command{Name: "ping"}).Signature("!"))
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"a b  c", []string{"a", "b", "c"}},
		{`set greeting "hello there"`, []string{"set", "greeting", "hello there"}},
		{`say "she said \"hi\""`, []string{"say", `she said "hi"`}},
		{`empty ""`, []string{"empty", ""}},
		{"tabs\tand\nnewlines", []string{"tabs", "and", "newlines"}},
		{`Don't delete it?`, []string{"Don't", "delete", "it?"}},
		{`note 'a b'`, []string{"note", "'a", "b'"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SplitArgs(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := SplitArgs(`oops "unterminated`)
	assert.Error(t, err)
}

func TestSplitInvocation(t *testing.T) {
	name, rest := splitInvocation("  query SELECT a, b FROM t ")
	assert.Equal(t, "query", name)
	assert.Equal(t, "SELECT a, b FROM t", rest)

	name, rest = splitInvocation("ping")
	assert.Equal(t, "ping", name)
	assert.Equal(t, "", rest)
}

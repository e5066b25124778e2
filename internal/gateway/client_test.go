package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/missy/internal/chat"
	"github.com/roach88/missy/internal/engine"
)

type sinkFunc func(engine.Event) bool

func (f sinkFunc) Enqueue(ev engine.Event) bool { return f(ev) }

func collector() (Enqueuer, <-chan engine.Event) {
	ch := make(chan engine.Event, 32)
	return sinkFunc(func(ev engine.Event) bool {
		ch <- ev
		return true
	}), ch
}

// fakeGateway serves one scripted session per connection. After the
// script it acknowledges heartbeats until the client goes away.
type fakeGateway struct {
	t       *testing.T
	scripts [][]frame

	mu         sync.Mutex
	identifies []identifyData
	conns      int
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	g.mu.Lock()
	n := g.conns
	g.conns++
	g.mu.Unlock()

	hello, _ := json.Marshal(helloData{HeartbeatInterval: 50})
	if err := conn.WriteJSON(frame{Op: opHello, D: hello}); err != nil {
		return
	}

	var f frame
	if err := conn.ReadJSON(&f); err != nil || f.Op != opIdentify {
		return
	}
	var id identifyData
	_ = json.Unmarshal(f.D, &id)
	g.mu.Lock()
	g.identifies = append(g.identifies, id)
	g.mu.Unlock()

	if n < len(g.scripts) {
		for _, out := range g.scripts[n] {
			if err := conn.WriteJSON(out); err != nil {
				return
			}
		}
	}

	for {
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		if f.Op == opHeartbeat {
			if err := conn.WriteJSON(frame{Op: opHeartbeatAck}); err != nil {
				return
			}
		}
	}
}

func (g *fakeGateway) identifyCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.identifies)
}

func dispatch(t *testing.T, name string, seq int64, payload any) frame {
	t.Helper()
	var d json.RawMessage
	if raw, ok := payload.(string); ok {
		d = json.RawMessage(raw)
	} else {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		d = b
	}
	return frame{Op: opDispatch, T: name, S: &seq, D: d}
}

func startClient(t *testing.T, g *fakeGateway, sink Enqueuer) (*Client, context.CancelFunc, <-chan error) {
	t.Helper()
	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewClient("tok", sink,
		WithURL(url),
		WithReconnectDelay(10*time.Millisecond),
		WithClientLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(cancel)
	return c, cancel, done
}

func next(t *testing.T, events <-chan engine.Event) engine.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return engine.Event{}
	}
}

func TestClient_TranslatesDispatches(t *testing.T) {
	g := &fakeGateway{t: t}
	g.scripts = [][]frame{{
		dispatch(t, eventReady, 1, readyData{SessionID: "sess", User: chat.User{ID: "bot", Name: "missy", Bot: true}}),
		dispatch(t, eventGuildCreate, 2, guildData{
			ID:    "g1",
			Roles: []roleData{{ID: "g1", Permissions: "64"}},
			Channels: []channelData{
				{ID: "locked", Overwrites: []overwriteData{{ID: "g1", Type: overwriteRole, Deny: "64"}}},
				{ID: "open"},
			},
		}),
		dispatch(t, "TYPING_START", 3, map[string]string{"user_id": "u1"}),
		dispatch(t, eventMessageCreate, 4, `"not an object"`),
		dispatch(t, eventMessageCreate, 5, chat.Message{ID: "m1", ChannelID: "c1", Author: chat.User{ID: "u1"}, Content: "!help"}),
		dispatch(t, eventReactionAdd, 6, reactionData{UserID: "u1", ChannelID: "c1", MessageID: "m2", Emoji: emojiData{Name: chat.Yes}}),
	}}

	sink, events := collector()
	c, cancel, done := startClient(t, g, sink)

	ev := next(t, events)
	require.Equal(t, engine.EventTypeReady, ev.Type)
	assert.Equal(t, "bot", ev.Self.ID)
	assert.True(t, ev.Self.Bot)

	ev = next(t, events)
	require.Equal(t, engine.EventTypeMessageCreate, ev.Type)
	assert.Equal(t, "m1", ev.Message.ID)
	assert.Equal(t, "!help", ev.Message.Content)
	assert.Equal(t, "u1", ev.Message.Author.ID)

	ev = next(t, events)
	require.Equal(t, engine.EventTypeReactionAdd, ev.Type)
	assert.Equal(t, chat.Reaction{MessageID: "m2", ChannelID: "c1", UserID: "u1", Emoji: chat.Yes}, *ev.Reaction)

	assert.Equal(t, "sess", c.SessionID())
	assert.False(t, c.Permissions().CanAddReactions("locked"))
	assert.True(t, c.Permissions().CanAddReactions("open"))
	assert.True(t, c.Permissions().CanAddReactions("c1"))

	require.Equal(t, 1, g.identifyCount())
	g.mu.Lock()
	id := g.identifies[0]
	g.mu.Unlock()
	assert.Equal(t, "tok", id.Token)
	assert.Equal(t, DefaultIntents, id.Intents)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestClient_ReconnectsOnRequest(t *testing.T) {
	g := &fakeGateway{t: t}
	g.scripts = [][]frame{
		{{Op: opReconnect}},
		{dispatch(t, eventReady, 1, readyData{SessionID: "second", User: chat.User{ID: "bot"}})},
	}

	sink, events := collector()
	c, cancel, done := startClient(t, g, sink)

	ev := next(t, events)
	assert.Equal(t, engine.EventTypeReady, ev.Type)
	assert.Equal(t, "second", c.SessionID())
	assert.Equal(t, 2, g.identifyCount())

	cancel()
	assert.NoError(t, <-done)
}

func TestClient_ReconnectsAfterInvalidSession(t *testing.T) {
	g := &fakeGateway{t: t}
	g.scripts = [][]frame{
		{{Op: opInvalidSession, D: json.RawMessage("false")}},
		{dispatch(t, eventReady, 1, readyData{SessionID: "fresh", User: chat.User{ID: "bot"}})},
	}

	sink, events := collector()
	_, cancel, done := startClient(t, g, sink)

	ev := next(t, events)
	assert.Equal(t, engine.EventTypeReady, ev.Type)

	cancel()
	assert.NoError(t, <-done)
}

func TestClient_RunStopsWhileWaitingToReconnect(t *testing.T) {
	c := NewClient("tok", sinkFunc(func(engine.Event) bool { return true }),
		WithURL("ws://127.0.0.1:1/unreachable"),
		WithReconnectDelay(time.Hour),
		WithClientLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.NoError(t, c.Run(ctx))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSleepWithContext(t *testing.T) {
	assert.True(t, sleepWithContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepWithContext(ctx, time.Hour))
}

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/missy/internal/chat"
	"github.com/roach88/missy/internal/engine"
)

// DefaultURL is the platform gateway endpoint.
const DefaultURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// DefaultReconnectDelay is how long Run waits before reconnecting.
const DefaultReconnectDelay = 5 * time.Second

// Enqueuer receives translated gateway events. *engine.Engine implements it.
type Enqueuer interface {
	Enqueue(ev engine.Event) bool
}

// Client maintains the gateway connection.
type Client struct {
	url            string
	token          string
	intents        int
	sink           Enqueuer
	perms          *PermissionCache
	dialer         websocket.Dialer
	reconnectDelay time.Duration
	logger         *slog.Logger

	seq       atomic.Int64 // last dispatch sequence, 0 = none
	sessionID atomic.Value // string
	acked     atomic.Bool

	writeMu sync.Mutex
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithURL overrides the gateway endpoint.
func WithURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.url = url
		}
	}
}

// WithIntents overrides the gateway intents bitfield.
func WithIntents(intents int) ClientOption {
	return func(c *Client) {
		c.intents = intents
	}
}

// WithReconnectDelay sets the fixed delay between connection attempts.
func WithReconnectDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.reconnectDelay = d
		}
	}
}

// WithPermissionCache sets the cache fed from guild, role, member and channel payloads.
func WithPermissionCache(p *PermissionCache) ClientOption {
	return func(c *Client) {
		if p != nil {
			c.perms = p
		}
	}
}

// WithClientLogger sets the logger for connection lifecycle messages.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a gateway client that feeds sink.
func NewClient(token string, sink Enqueuer, opts ...ClientOption) *Client {
	c := &Client{
		url:            DefaultURL,
		token:          token,
		intents:        DefaultIntents,
		sink:           sink,
		perms:          NewPermissionCache(),
		dialer:         *websocket.DefaultDialer,
		reconnectDelay: DefaultReconnectDelay,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Permissions returns the cache the client keeps current.
func (c *Client) Permissions() *PermissionCache {
	return c.perms
}

// SessionID returns the session identifier from the last READY, if any.
func (c *Client) SessionID() string {
	s, _ := c.sessionID.Load().(string)
	return s
}

// Run connects and keeps reconnecting until ctx is cancelled.
// It returns nil on cancellation.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.connectAndRun(ctx)
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("gateway disconnected, reconnecting",
			"error", err,
			"delay", c.reconnectDelay,
		)
		if !sleepWithContext(ctx, c.reconnectDelay) {
			return nil
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// connectAndRun handles one connection from dial to disconnect.
func (c *Client) connectAndRun(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	defer conn.Close()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Unblock the reader when the connection's context ends.
	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	var hello frame
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", hello.Op)
	}
	var hd helloData
	if err := json.Unmarshal(hello.D, &hd); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}
	if hd.HeartbeatInterval <= 0 {
		return fmt.Errorf("invalid heartbeat interval %d", hd.HeartbeatInterval)
	}

	c.acked.Store(true)
	go c.heartbeatLoop(connCtx, conn, time.Duration(hd.HeartbeatInterval)*time.Millisecond, cancel)

	if err := c.identify(conn); err != nil {
		return err
	}

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if connCtx.Err() != nil {
				return connCtx.Err()
			}
			return fmt.Errorf("read frame: %w", err)
		}
		if f.S != nil {
			c.seq.Store(*f.S)
		}

		switch f.Op {
		case opDispatch:
			c.handleDispatch(f.T, f.D)
		case opHeartbeat:
			if err := c.sendHeartbeat(conn); err != nil {
				return err
			}
		case opHeartbeatAck:
			c.acked.Store(true)
		case opReconnect:
			return errors.New("server requested reconnect")
		case opInvalidSession:
			c.seq.Store(0)
			return errors.New("invalid session")
		}
	}
}

func (c *Client) identify(conn *websocket.Conn) error {
	d, err := json.Marshal(identifyData{
		Token:   c.token,
		Intents: c.intents,
		Properties: map[string]string{
			"os":      "linux",
			"browser": "missy",
			"device":  "missy",
		},
	})
	if err != nil {
		return fmt.Errorf("encode identify: %w", err)
	}
	if err := c.write(conn, frame{Op: opIdentify, D: d}); err != nil {
		return fmt.Errorf("send identify: %w", err)
	}
	return nil
}

// heartbeatLoop beats every interval. A beat that goes unacknowledged
// until the next one means the connection is a zombie; cancel tears it down.
func (c *Client) heartbeatLoop(ctx context.Context, conn *websocket.Conn, interval time.Duration, cancel context.CancelFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.acked.Swap(false) {
				c.logger.Warn("heartbeat not acknowledged, dropping connection")
				cancel()
				return
			}
			if err := c.sendHeartbeat(conn); err != nil {
				c.logger.Debug("heartbeat send failed", "error", err)
				cancel()
				return
			}
		}
	}
}

func (c *Client) sendHeartbeat(conn *websocket.Conn) error {
	var d json.RawMessage = []byte("null")
	if s := c.seq.Load(); s > 0 {
		d, _ = json.Marshal(s)
	}
	return c.write(conn, frame{Op: opHeartbeat, D: d})
}

// write serializes frame writes; the connection allows one writer at a time.
func (c *Client) write(conn *websocket.Conn, f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(f)
}

// handleDispatch translates one dispatch frame. Malformed payloads are
// logged and dropped.
func (c *Client) handleDispatch(name string, data json.RawMessage) {
	var err error
	switch name {
	case eventReady:
		var r readyData
		if err = json.Unmarshal(data, &r); err == nil {
			c.sessionID.Store(r.SessionID)
			c.perms.setSelf(r.User.ID)
			self := r.User
			c.sink.Enqueue(engine.Event{Type: engine.EventTypeReady, Self: &self})
			c.logger.Info("gateway ready", "user", r.User.Name, "session", r.SessionID)
		}

	case eventMessageCreate:
		var m chat.Message
		if err = json.Unmarshal(data, &m); err == nil {
			c.sink.Enqueue(engine.Event{Type: engine.EventTypeMessageCreate, Message: &m})
		}

	case eventReactionAdd:
		var r reactionData
		if err = json.Unmarshal(data, &r); err == nil {
			c.sink.Enqueue(engine.Event{
				Type: engine.EventTypeReactionAdd,
				Reaction: &chat.Reaction{
					MessageID: r.MessageID,
					ChannelID: r.ChannelID,
					UserID:    r.UserID,
					Emoji:     r.Emoji.String(),
				},
			})
		}

	case eventGuildCreate:
		var g guildData
		if err = json.Unmarshal(data, &g); err == nil {
			c.perms.observeGuild(g)
		}

	case eventGuildDelete:
		var g guildDeleteData
		if err = json.Unmarshal(data, &g); err == nil {
			c.perms.forgetGuild(g.ID)
		}

	case eventRoleCreate, eventRoleUpdate:
		var r roleEventData
		if err = json.Unmarshal(data, &r); err == nil {
			c.perms.observeRole(r.GuildID, r.Role)
		}

	case eventRoleDelete:
		var r roleDeleteData
		if err = json.Unmarshal(data, &r); err == nil {
			c.perms.forgetRole(r.GuildID, r.RoleID)
		}

	case eventMemberUpdate:
		var m memberUpdateData
		if err = json.Unmarshal(data, &m); err == nil {
			c.perms.observeMember(m.GuildID, m.User.ID, m.Roles)
		}

	case eventChannelCreate, eventChannelUpdate:
		var ch channelData
		if err = json.Unmarshal(data, &ch); err == nil {
			c.perms.observeChannel(ch)
		}

	case eventChannelDelete:
		var ch channelData
		if err = json.Unmarshal(data, &ch); err == nil {
			c.perms.forgetChannel(ch.ID)
		}

	default:
		return
	}

	if err != nil {
		c.logger.Warn("dropping malformed dispatch", "event", name, "error", err)
	}
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/missy/internal/chat"
)

// DefaultAPIBase is the platform REST endpoint.
const DefaultAPIBase = "https://discord.com/api/v10"

// maxContentLen is the platform's message length limit.
const maxContentLen = 2000

// REST implements chat.Messenger over the platform's HTTP API.
type REST struct {
	base   string
	token  string
	client *http.Client
}

// RESTOption configures a REST client.
type RESTOption func(*REST)

// WithAPIBase overrides the REST endpoint.
func WithAPIBase(base string) RESTOption {
	return func(r *REST) {
		if base != "" {
			r.base = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) RESTOption {
	return func(r *REST) {
		if c != nil {
			r.client = c
		}
	}
}

// NewREST creates a REST messenger authenticated as the bot.
func NewREST(token string, opts ...RESTOption) *REST {
	r := &REST{
		base:   DefaultAPIBase,
		token:  token,
		client: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ chat.Messenger = (*REST)(nil)

type messageBody struct {
	Content string       `json:"content,omitempty"`
	Embeds  []chat.Embed `json:"embeds,omitempty"`
}

// Send implements chat.Messenger. Content beyond the platform limit is truncated.
func (r *REST) Send(ctx context.Context, channelID, content string) (chat.Message, error) {
	var msg chat.Message
	err := r.do(ctx, http.MethodPost, channelPath(channelID), messageBody{Content: truncate(content)}, &msg)
	return msg, err
}

// SendEmbed implements chat.Messenger.
func (r *REST) SendEmbed(ctx context.Context, channelID string, embed chat.Embed) (chat.Message, error) {
	var msg chat.Message
	err := r.do(ctx, http.MethodPost, channelPath(channelID), messageBody{Embeds: []chat.Embed{embed}}, &msg)
	return msg, err
}

// AddReaction implements chat.Messenger.
func (r *REST) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	path := messagePath(channelID, messageID) + "/reactions/" + url.PathEscape(emoji) + "/@me"
	return r.do(ctx, http.MethodPut, path, nil, nil)
}

// ClearReactions implements chat.Messenger.
func (r *REST) ClearReactions(ctx context.Context, channelID, messageID string) error {
	return r.do(ctx, http.MethodDelete, messagePath(channelID, messageID)+"/reactions", nil, nil)
}

// Edit implements chat.Messenger.
func (r *REST) Edit(ctx context.Context, channelID, messageID, content string) error {
	return r.do(ctx, http.MethodPatch, messagePath(channelID, messageID), messageBody{Content: truncate(content)}, nil)
}

// Delete implements chat.Messenger.
func (r *REST) Delete(ctx context.Context, channelID, messageID string) error {
	return r.do(ctx, http.MethodDelete, messagePath(channelID, messageID), nil, nil)
}

func channelPath(channelID string) string {
	return "/channels/" + url.PathEscape(channelID) + "/messages"
}

func messagePath(channelID, messageID string) string {
	return channelPath(channelID) + "/" + url.PathEscape(messageID)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxContentLen {
		return s
	}
	return string(r[:maxContentLen])
}

// do performs one request. Responses with status >= 400 become *chat.APIError.
func (r *REST) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.base+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bot "+r.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 400 {
		return &chat.APIError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

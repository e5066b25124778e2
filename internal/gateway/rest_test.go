package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/missy/internal/chat"
)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	response string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	status, response := f.status, f.response
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, response)
}

func (f *fakeAPI) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestREST(t *testing.T, api *fakeAPI) *REST {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewREST("secret", WithAPIBase(srv.URL+"/"), WithHTTPClient(srv.Client()))
}

func TestREST_Send(t *testing.T) {
	api := &fakeAPI{response: `{"id":"m9","channel_id":"c1","content":"hi","author":{"id":"bot","bot":true}}`}
	r := newTestREST(t, api)

	msg, err := r.Send(context.Background(), "c1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "m9", msg.ID)
	assert.Equal(t, "c1", msg.ChannelID)
	assert.True(t, msg.Author.Bot)

	req := api.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/channels/c1/messages", req.Path)
	assert.Equal(t, "Bot secret", req.Auth)
	assert.JSONEq(t, `{"content":"hi"}`, req.Body)
}

func TestREST_SendTruncatesLongContent(t *testing.T) {
	api := &fakeAPI{response: `{"id":"m1"}`}
	r := newTestREST(t, api)

	_, err := r.Send(context.Background(), "c1", strings.Repeat("é", maxContentLen+10))
	require.NoError(t, err)

	var body messageBody
	require.NoError(t, json.Unmarshal([]byte(api.last(t).Body), &body))
	assert.Len(t, []rune(body.Content), maxContentLen)
}

func TestREST_SendEmbed(t *testing.T) {
	api := &fakeAPI{response: `{"id":"m2"}`}
	r := newTestREST(t, api)

	_, err := r.SendEmbed(context.Background(), "c1", chat.Embed{Title: "Help", Color: 0xFD8063})
	require.NoError(t, err)
	assert.JSONEq(t, `{"embeds":[{"title":"Help","color":16613475}]}`, api.last(t).Body)
}

func TestREST_MessageOperations(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{status: http.StatusNoContent}
	r := newTestREST(t, api)

	require.NoError(t, r.AddReaction(ctx, "c1", "m1", chat.Yes))
	req := api.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/channels/c1/messages/m1/reactions/"+chat.Yes+"/@me", req.Path)

	require.NoError(t, r.ClearReactions(ctx, "c1", "m1"))
	req = api.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/channels/c1/messages/m1/reactions", req.Path)

	require.NoError(t, r.Edit(ctx, "c1", "m1", "done"))
	req = api.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/channels/c1/messages/m1", req.Path)
	assert.JSONEq(t, `{"content":"done"}`, req.Body)

	require.NoError(t, r.Delete(ctx, "c1", "m1"))
	req = api.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/channels/c1/messages/m1", req.Path)
}

func TestREST_ErrorStatus(t *testing.T) {
	api := &fakeAPI{status: http.StatusNotFound, response: `{"message":"Unknown Message"}` + "\n"}
	r := newTestREST(t, api)

	err := r.Delete(context.Background(), "c1", "gone")
	require.Error(t, err)
	assert.True(t, chat.IsNotFound(err))
	assert.False(t, chat.IsForbidden(err))

	var ae *chat.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.MethodDelete, ae.Method)
	assert.Equal(t, "/channels/c1/messages/gone", ae.Path)
	assert.Equal(t, `{"message":"Unknown Message"}`, ae.Body)
	assert.Contains(t, err.Error(), "status 404")
}

func TestREST_Forbidden(t *testing.T) {
	api := &fakeAPI{status: http.StatusForbidden}
	r := newTestREST(t, api)

	err := r.AddReaction(context.Background(), "c1", "m1", chat.No)
	assert.True(t, chat.IsForbidden(err))
}

func TestREST_ContextCancelled(t *testing.T) {
	api := &fakeAPI{}
	r := newTestREST(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Send(ctx, "c1", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

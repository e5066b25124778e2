package confirm

import (
	"maps"
	"time"
)

// DefaultTimeout bounds a prompt when the caller does not set one.
const DefaultTimeout = 60 * time.Second

// Request describes one prompt. Build it with NewRequest; it is not
// modified after construction.
type Request struct {
	ChannelID string
	Text      string

	// Responder is the only user whose reaction counts.
	Responder string

	Timeout time.Duration

	// DeleteAfter removes the prompt on resolution. When false, only the
	// reactions are cleared.
	DeleteAfter bool

	// Responses overrides the resolution text per outcome.
	Responses map[Outcome]string
}

// RequestOption configures a Request.
type RequestOption func(*Request)

// WithTimeout sets how long to wait. Non-positive values keep the default.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) {
		if d > 0 {
			r.Timeout = d
		}
	}
}

// WithKeepMessage keeps the prompt message after resolution.
func WithKeepMessage() RequestOption {
	return func(r *Request) {
		r.DeleteAfter = false
	}
}

// WithResponder overrides who may answer. Empty keeps the requesting user.
func WithResponder(userID string) RequestOption {
	return func(r *Request) {
		if userID != "" {
			r.Responder = userID
		}
	}
}

// WithResponse sets the resolution text for one outcome.
func WithResponse(o Outcome, text string) RequestOption {
	return func(r *Request) {
		if r.Responses == nil {
			r.Responses = make(map[Outcome]string)
		}
		r.Responses[o] = text
	}
}

// WithResponses sets resolution texts for several outcomes at once.
func WithResponses(texts map[Outcome]string) RequestOption {
	return func(r *Request) {
		if r.Responses == nil {
			r.Responses = make(map[Outcome]string, len(texts))
		}
		maps.Copy(r.Responses, texts)
	}
}

// NewRequest builds a prompt for channelID on behalf of requester, the
// user who triggered the command. By default the requester answers, the
// wait lasts DefaultTimeout and the message is deleted afterwards.
func NewRequest(channelID, requester, text string, opts ...RequestOption) Request {
	r := Request{
		ChannelID:   channelID,
		Text:        text,
		Responder:   requester,
		Timeout:     DefaultTimeout,
		DeleteAfter: true,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// resolutionText picks the caller's text for o, falling back to the default.
func (r Request) resolutionText(o Outcome) string {
	if text, ok := r.Responses[o]; ok {
		return text
	}
	return defaultText(o)
}

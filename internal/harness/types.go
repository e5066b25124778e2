package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/missy/internal/chat"
	"github.com/roach88/missy/internal/testutil"
)

// Entry is one outbound operation the bot performed.
type Entry struct {
	Op      string      `json:"op" yaml:"op"`
	Channel string      `json:"channel" yaml:"channel"`
	Message string      `json:"message,omitempty" yaml:"message,omitempty"`
	Content string      `json:"content,omitempty" yaml:"content,omitempty"`
	Emoji   string      `json:"emoji,omitempty" yaml:"emoji,omitempty"`
	Embed   *chat.Embed `json:"embed,omitempty" yaml:"embed,omitempty"`
	Error   string      `json:"error,omitempty" yaml:"error,omitempty"`
}

func entryOf(c testutil.Call) Entry {
	e := Entry{
		Op:      c.Op,
		Channel: c.ChannelID,
		Message: c.MessageID,
		Content: c.Content,
		Emoji:   c.Emoji,
		Embed:   c.Embed,
	}
	if c.Err != nil {
		var ae *chat.APIError
		if errors.As(c.Err, &ae) {
			e.Error = fmt.Sprintf("status %d", ae.Status)
		} else {
			e.Error = c.Err.Error()
		}
	}
	return e
}

// String renders the entry as one transcript line.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(" #")
	b.WriteString(e.Channel)

	switch e.Op {
	case testutil.OpSend, testutil.OpSendEmbed:
		if e.Message != "" {
			b.WriteString(" -> ")
			b.WriteString(e.Message)
		}
	default:
		b.WriteString(" ")
		b.WriteString(e.Message)
	}

	if e.Emoji != "" {
		b.WriteString(" ")
		b.WriteString(e.Emoji)
	}
	if e.Op == testutil.OpSend || e.Op == testutil.OpEdit {
		fmt.Fprintf(&b, " %q", e.Content)
	}
	if e.Embed != nil {
		fmt.Fprintf(&b, " title=%q", e.Embed.Title)
		if len(e.Embed.Fields) > 0 {
			names := make([]string, len(e.Embed.Fields))
			for i, f := range e.Embed.Fields {
				names[i] = f.Name
			}
			fmt.Fprintf(&b, " fields=%q", strings.Join(names, ","))
		}
	}
	if e.Error != "" {
		b.WriteString(" ! ")
		b.WriteString(e.Error)
	}
	return b.String()
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass" yaml:"pass"`

	// Transcript lists outbound operations in the order they happened.
	Transcript []Entry `json:"transcript" yaml:"transcript"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Logs is everything the bot logged during the run.
	Logs string `json:"-" yaml:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Transcript: []Entry{},
		Errors:     []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Render formats a transcript as the text stored in golden files.
func Render(name string, transcript []Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	for _, e := range transcript {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/missy/internal/testutil"
)

// Scenario is one scripted conversation.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Prefix overrides the command prefix.
	Prefix string `yaml:"prefix,omitempty"`

	// Owners lists user ids allowed to run owner-only commands.
	Owners []string `yaml:"owners,omitempty"`

	// Channel is the default channel for messages and reactions.
	Channel string `yaml:"channel,omitempty"`

	// DenyReactions lists channels where the bot may not add reactions.
	DenyReactions []string `yaml:"deny_reactions,omitempty"`

	// Setup contains SQL statements run before the first step.
	Setup []string `yaml:"setup,omitempty"`

	// Steps are the inbound events and control actions, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the transcript, logs and final database state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// DefaultChannel is used when neither the scenario nor the step names one.
const DefaultChannel = "general"

// Step is exactly one action.
type Step struct {
	Message *MessageStep `yaml:"message,omitempty"`
	React   *ReactStep   `yaml:"react,omitempty"`
	Ready   bool         `yaml:"ready,omitempty"`
	Advance string       `yaml:"advance,omitempty"`
	Wait    string       `yaml:"wait,omitempty"`
	Count   int          `yaml:"count,omitempty"`
	Fail    *FailStep    `yaml:"fail,omitempty"`
}

// Wait targets.
const (
	WaitIdle   = "idle"
	WaitPrompt = "prompt"
)

// MessageStep is an inbound message.
type MessageStep struct {
	Author  string `yaml:"author"`
	Bot     bool   `yaml:"bot,omitempty"`
	Channel string `yaml:"channel,omitempty"`
	Content string `yaml:"content"`
}

// ReactStep is a user adding a reaction.
type ReactStep struct {
	Author  string `yaml:"author"`
	Message string `yaml:"message"`
	Emoji   string `yaml:"emoji"`
	Channel string `yaml:"channel,omitempty"`
}

// FailStep queues a failure for the next outbound call of Op.
// Status 0 fails with a transport error instead of an API error.
type FailStep struct {
	Op     string `yaml:"op"`
	Status int    `yaml:"status,omitempty"`
}

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type is one of sent, count, final_state, log_contains.
	Type string `yaml:"type"`

	// Op is the outbound operation (sent, count). Defaults to send.
	Op string `yaml:"op,omitempty"`

	// Contains is a substring of the content, embed title or log output.
	Contains string `yaml:"contains,omitempty"`

	// Count is the exact number of matching operations (count).
	Count int `yaml:"count,omitempty"`

	// Query is a single-value SELECT (final_state).
	Query string `yaml:"query,omitempty"`

	// Expect is the value Query must produce; null means no value.
	Expect any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertSent        = "sent"
	AssertCount       = "count"
	AssertFinalState  = "final_state"
	AssertLogContains = "log_contains"
)

var knownOps = map[string]bool{
	testutil.OpSend:           true,
	testutil.OpSendEmbed:      true,
	testutil.OpAddReaction:    true,
	testutil.OpClearReactions: true,
	testutil.OpEdit:           true,
	testutil.OpDelete:         true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps must contain at least one step")
	}
	for i := range s.Steps {
		if err := validateStep(&s.Steps[i], i); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(&s.Assertions[i], i); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(st *Step, index int) error {
	set := 0
	if st.Message != nil {
		set++
		if st.Message.Author == "" {
			return fmt.Errorf("steps[%d]: message author is required", index)
		}
	}
	if st.React != nil {
		set++
		if st.React.Author == "" || st.React.Message == "" || st.React.Emoji == "" {
			return fmt.Errorf("steps[%d]: react needs author, message and emoji", index)
		}
	}
	if st.Ready {
		set++
	}
	if st.Advance != "" {
		set++
		d, err := time.ParseDuration(st.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d]: advance: %w", index, err)
		}
		if d <= 0 {
			return fmt.Errorf("steps[%d]: advance must be positive", index)
		}
	}
	if st.Wait != "" {
		set++
		if st.Wait != WaitIdle && st.Wait != WaitPrompt {
			return fmt.Errorf("steps[%d]: unknown wait target %q", index, st.Wait)
		}
	}
	if st.Fail != nil {
		set++
		if !knownOps[st.Fail.Op] {
			return fmt.Errorf("steps[%d]: unknown op %q", index, st.Fail.Op)
		}
	}

	if st.Count != 0 && st.Wait != WaitPrompt {
		return fmt.Errorf("steps[%d]: count only applies to wait: prompt", index)
	}
	if st.Count < 0 {
		return fmt.Errorf("steps[%d]: count must be non-negative", index)
	}

	switch set {
	case 0:
		return fmt.Errorf("steps[%d]: empty step", index)
	case 1:
		return nil
	default:
		return fmt.Errorf("steps[%d]: a step must do exactly one thing", index)
	}
}

func validateAssertion(a *Assertion, index int) error {
	if a.Op != "" && !knownOps[a.Op] {
		return fmt.Errorf("assertions[%d]: unknown op %q", index, a.Op)
	}

	switch a.Type {
	case AssertSent:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for sent", index)
		}
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertFinalState:
		if a.Query == "" {
			return fmt.Errorf("assertions[%d]: query is required for final_state", index)
		}
	case AssertLogContains:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for log_contains", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

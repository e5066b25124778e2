package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/missy/internal/store"
	"github.com/roach88/missy/internal/testutil"
)

// AssertionError is returned when an assertion fails.
// It includes the transcript to help debug the failure.
type AssertionError struct {
	Type       string  // Assertion type for categorization
	Expected   string  // Human-readable expected outcome
	Actual     string  // Human-readable actual outcome
	Transcript []Entry // Full transcript for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Transcript) > 0 {
		fmt.Fprintf(&buf, "\nTranscript:\n")
		for i, entry := range e.Transcript {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, entry)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages, in assertion order.
func EvaluateAssertions(ctx context.Context, result *Result, assertions []Assertion, st *store.Store) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertSent:
			err = assertSent(result.Transcript, a)
		case AssertCount:
			err = assertCount(result.Transcript, a)
		case AssertFinalState:
			err = assertFinalState(ctx, st, a)
		case AssertLogContains:
			err = assertLogContains(result.Logs, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func opOf(a Assertion) string {
	if a.Op == "" {
		return testutil.OpSend
	}
	return a.Op
}

// text is what sent assertions match against: the content, or the embed
// title and description.
func (e Entry) text() string {
	if e.Embed != nil {
		return e.Embed.Title + "\n" + e.Embed.Description
	}
	if e.Emoji != "" {
		return e.Emoji
	}
	return e.Content
}

// assertSent checks that a successful operation of the given kind carried
// the expected text.
func assertSent(transcript []Entry, a Assertion) error {
	op := opOf(a)
	for _, e := range transcript {
		if e.Op == op && e.Error == "" && strings.Contains(e.text(), a.Contains) {
			return nil
		}
	}
	return &AssertionError{
		Type:       AssertSent,
		Expected:   fmt.Sprintf("%s containing %q", op, a.Contains),
		Actual:     "not found in transcript",
		Transcript: transcript,
	}
}

// assertCount checks the exact number of operations of a kind, failed
// ones included.
func assertCount(transcript []Entry, a Assertion) error {
	op := opOf(a)
	count := 0
	for _, e := range transcript {
		if e.Op == op && (a.Contains == "" || strings.Contains(e.text(), a.Contains)) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:       AssertCount,
			Expected:   fmt.Sprintf("%d occurrences of %s", a.Count, op),
			Actual:     fmt.Sprintf("%d occurrences", count),
			Transcript: transcript,
		}
	}
	return nil
}

// assertFinalState runs a single-value query and compares its printed
// value with the expectation. A nil expectation requires no value.
func assertFinalState(ctx context.Context, st *store.Store, a Assertion) error {
	res, err := st.Select(ctx, store.Query{Statement: a.Query})
	if err != nil {
		return fmt.Errorf("final_state query failed: %w", err)
	}

	if a.Expect == nil {
		if res.IsNothing() {
			return nil
		}
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("no value for %q", a.Query),
			Actual:   fmt.Sprintf("%v", res.Value()),
		}
	}

	if res.IsNothing() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%v for %q", a.Expect, a.Query),
			Actual:   "no value",
		}
	}
	if got, want := fmt.Sprint(res.Value()), fmt.Sprint(a.Expect); got != want {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s for %q", want, a.Query),
			Actual:   got,
		}
	}
	return nil
}

func assertLogContains(logs string, a Assertion) error {
	if strings.Contains(logs, a.Contains) {
		return nil
	}
	return &AssertionError{
		Type:     AssertLogContains,
		Expected: fmt.Sprintf("log output containing %q", a.Contains),
		Actual:   "not logged",
	}
}

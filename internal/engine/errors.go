package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a failure while processing one event.
//
// Runtime errors include:
//   - Malformed event: payload missing for the event type
//   - Listener panic: a listener panicked and was recovered
//   - Listener failure: a listener returned an error
//
// The Run loop logs these and moves on to the next event.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Seq identifies the affected event.
	Seq int64

	// EventType is the kind of event being processed.
	EventType EventType

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeMalformedEvent indicates the event payload does not match its type.
	ErrCodeMalformedEvent RuntimeErrorCode = "MALFORMED_EVENT"

	// ErrCodeListenerPanic indicates a listener panicked.
	ErrCodeListenerPanic RuntimeErrorCode = "LISTENER_PANIC"

	// ErrCodeListenerFailed indicates a listener returned an error.
	ErrCodeListenerFailed RuntimeErrorCode = "LISTENER_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s (seq=%d, type=%s)", e.Code, e.Message, e.Seq, e.EventType)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsMalformedEvent returns true if the error is a malformed event error.
// Uses errors.As to handle wrapped errors.
func IsMalformedEvent(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeMalformedEvent
	}
	return false
}

// IsListenerPanic returns true if the error came from a recovered panic.
func IsListenerPanic(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeListenerPanic
	}
	return false
}

func newMalformedError(ev Event, what string) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeMalformedEvent,
		Message:   what,
		Seq:       ev.Seq,
		EventType: ev.Type,
	}
}

package command

import (
	"errors"
	"fmt"
)

// HandlerError is a failure inside a command handler, including a
// recovered panic. The Dispatcher logs it and carries on.
type HandlerError struct {
	Command   string
	RequestID string
	Panic     bool
	Err       error
}

func (e *HandlerError) Error() string {
	if e.Panic {
		return fmt.Sprintf("command %s panicked: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("command %s: %v", e.Command, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// IsHandlerError returns true if err is or wraps a HandlerError.
func IsHandlerError(err error) bool {
	var he *HandlerError
	return errors.As(err, &he)
}

package confirm

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied means the bot may not add reactions in the target
// channel. Prompt returns it before doing any I/O.
var ErrPermissionDenied = errors.New("missing permission to add reactions")

// AttachError means the prompt was posted but a decision reaction could
// not be attached. The prompt is torn down and no wait takes place.
type AttachError struct {
	MessageID string
	Emoji     string
	Err       error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("attach %s to prompt %s: %v", e.Emoji, e.MessageID, e.Err)
}

func (e *AttachError) Unwrap() error {
	return e.Err
}

// IsAttachError returns true if err is or wraps an AttachError.
func IsAttachError(err error) bool {
	var ae *AttachError
	return errors.As(err, &ae)
}

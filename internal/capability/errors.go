package capability

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a capability name that is not registered.
var ErrNotFound = errors.New("capability not found")

// Error wraps a recoverable capability failure. The agent loop folds these
// into the conversation as error tool results instead of aborting the run.
type Error struct {
	// Capability is the name of the capability that failed.
	Capability string
	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("capability %s: %v", e.Capability, e.Err)
}

// Unwrap returns the underlying failure.
func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError wraps err as a recoverable capability failure, unless it already
// is one.
func WrapError(name string, err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Capability: name, Err: err}
}

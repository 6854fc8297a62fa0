package content

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrConditionalWriteFailed indicates a create was rejected because the id already exists.
	ErrConditionalWriteFailed = eris.New("conditional write failed")
	// ErrPromptNotFound indicates the requested prompt does not exist.
	ErrPromptNotFound = eris.New("prompt not found")
)

// ConditionalWriteError reports which record a rejected create targeted.
// It matches ErrConditionalWriteFailed and unwraps to the store error.
type ConditionalWriteError struct {
	Kind string
	ID   string
	Err  error
}

func (e *ConditionalWriteError) Error() string {
	return fmt.Sprintf("%s: %s %q already exists", ErrConditionalWriteFailed, e.Kind, e.ID)
}

func (e *ConditionalWriteError) Is(target error) bool {
	return target == ErrConditionalWriteFailed
}

func (e *ConditionalWriteError) Unwrap() error {
	return e.Err
}

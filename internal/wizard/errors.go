package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/pickapad/internal/form"
)

var (
	// ErrSubmitting is returned for any input while a submission is in flight.
	ErrSubmitting = errors.New("wizard: submission in progress")
	// ErrClosed is returned once the session was submitted or discarded.
	ErrClosed = errors.New("wizard: session closed")
)

// ValidationError reports the field errors that blocked a step.
type ValidationError struct {
	Step   int
	Errors []form.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Error())
	}
	return fmt.Sprintf("wizard: step %d invalid: %s", e.Step, strings.Join(parts, "; "))
}

// Field returns the message for field, if it failed.
func (e *ValidationError) Field(field string) (string, bool) {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return fe.Message, true
		}
	}
	return "", false
}

// SubmissionError wraps a failure from the gateway.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("wizard: submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

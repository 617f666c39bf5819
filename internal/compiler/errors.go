package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warpdl/warpsched/internal/action"
)

// ErrNotReady is returned by Register for a result that did not reach
// StateReady.
var ErrNotReady = errors.New("task is not ready for registration")

// ValidationError lists request fields that failed validation. Nothing
// external has been touched when it is returned.
type ValidationError struct {
	Problems []FieldError
}

// FieldError names the request field a validation problem belongs to.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

// Unwrap exposes each problem's error to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	out := make([]error, len(e.Problems))
	for i, p := range e.Problems {
		out[i] = p.Err
	}
	return out
}

// CompilationError means the task has nothing runnable: no action
// compiled, or the main script action failed.
type CompilationError struct {
	Actions action.Errors
}

func (e *CompilationError) Error() string {
	if len(e.Actions) == 0 {
		return "no action compiled"
	}
	return "no runnable task: " + e.Actions.Error()
}

// Unwrap returns the action errors, or nil when no action was attempted.
func (e *CompilationError) Unwrap() error {
	if len(e.Actions) == 0 {
		return nil
	}
	return e.Actions
}

// RegistrationError carries the scheduler's refusal. Message is the
// scheduler's own text.
type RegistrationError struct {
	Task    string
	Message string
	Err     error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("error: cannot register task %s: %s", e.Task, e.Message)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

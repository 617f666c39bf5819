// Package action compiles action specs into platform actions, expanding
// the actions the scheduler has no primitive for and routing scripts
// through their windowless launcher.
package action

import (
	"fmt"
	"strings"

	"github.com/warpdl/warpsched/internal/wrapper"
)

// Spec is one of RunProgram, SendEmail or DisplayMessage.
type Spec interface {
	isSpec()
}

// RunProgram runs a program or script. A zero Type is inferred from the
// extension of Path.
type RunProgram struct {
	Path    string
	Args    string
	WorkDir string
	Type    wrapper.ScriptType
}

// SendEmail is kept for old task definitions; newer Windows releases no
// longer execute it.
type SendEmail struct {
	From    string
	To      string
	Subject string
	Body    string
	Server  string
	Port    int
	UseSSL  bool
}

// DisplayMessage shows a modal dialog. It is expanded into a generated
// script and a RunProgram running it.
type DisplayMessage struct {
	Title string
	Text  string
}

func (RunProgram) isSpec()     {}
func (SendEmail) isSpec()      {}
func (DisplayMessage) isSpec() {}

// Kind names the variant of s.
func Kind(s Spec) string {
	switch s.(type) {
	case RunProgram:
		return "RunProgram"
	case SendEmail:
		return "SendEmail"
	case DisplayMessage:
		return "DisplayMessage"
	default:
		return fmt.Sprintf("%T", s)
	}
}

// Error is the failure of a single action. The other actions of the same
// request are unaffected.
type Error struct {
	Index int
	Kind  string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("action %d (%s): %v", e.Index+1, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errors collects per-action failures.
type Errors []*Error

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

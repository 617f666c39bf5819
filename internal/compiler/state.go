package compiler

import "fmt"

// State is a step of the compilation pipeline. A Result records the state
// it stopped in.
type State int

// Pipeline states in the order a request passes through them.
const (
	StateValidate State = iota
	StateResolveCredential
	StateCompileTrigger
	StateCompileActions
	StateCompileSettings
	StateReady
	StateRegistered
)

var stateNames = [...]string{
	StateValidate:          "Validate",
	StateResolveCredential: "ResolveCredential",
	StateCompileTrigger:    "CompileTrigger",
	StateCompileActions:    "CompileActions",
	StateCompileSettings:   "CompileSettings",
	StateReady:             "Ready",
	StateRegistered:        "Registered",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Severity tells whether a Diagnostic stopped the pipeline.
type Severity int

const (
	// SeverityWarning is recorded and compilation goes on.
	SeverityWarning Severity = iota
	// SeverityError stops the pipeline in the state that produced it.
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a problem found in one state.
type Diagnostic struct {
	State    State
	Severity Severity
	Err      error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%s]: %v", d.Severity, d.State, d.Err)
}

//go:build windows

package logger

import (
	"fmt"

	"golang.org/x/sys/windows/svc/eventlog"
)

const (
	EventIDInfo    uint32 = 1
	EventIDWarning uint32 = 2
	EventIDError   uint32 = 3
)

// EventLogWriter is the subset of *eventlog.Log the EventLogger uses.
type EventLogWriter interface {
	Info(eid uint32, msg string) error
	Warning(eid uint32, msg string) error
	Error(eid uint32, msg string) error
	Close() error
}

var (
	eventLogOpener = func(source string) (EventLogWriter, error) {
		return eventlog.Open(source)
	}
	eventLogInstaller = func(source string) error {
		return eventlog.InstallAsEventCreate(source, eventlog.Error|eventlog.Warning|eventlog.Info)
	}
)

// EventLogger writes to the Windows Application log under one source.
type EventLogger struct {
	log EventLogWriter
}

// NewEventLogger opens source, registering it first if it does not exist
// yet. Registration needs administrator rights; when it fails the open
// error is what gets reported.
func NewEventLogger(source string) (*EventLogger, error) {
	w, err := eventLogOpener(source)
	if err != nil {
		if ierr := eventLogInstaller(source); ierr == nil {
			w, err = eventLogOpener(source)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("error: cannot open event log source %q: %w", source, err)
	}
	return &EventLogger{log: w}, nil
}

// NewEventLoggerWithWriter wraps an already open writer.
func NewEventLoggerWithWriter(w EventLogWriter) *EventLogger {
	return &EventLogger{log: w}
}

// Write failures are dropped: a broken event log must not stop a task
// from being compiled.
func (e *EventLogger) Info(format string, args ...interface{}) {
	_ = e.log.Info(EventIDInfo, fmt.Sprintf(format, args...))
}

func (e *EventLogger) Warning(format string, args ...interface{}) {
	_ = e.log.Warning(EventIDWarning, fmt.Sprintf(format, args...))
}

func (e *EventLogger) Error(format string, args ...interface{}) {
	_ = e.log.Error(EventIDError, fmt.Sprintf(format, args...))
}

func (e *EventLogger) Close() error {
	if e.log != nil {
		return e.log.Close()
	}
	return nil
}

var _ Logger = (*EventLogger)(nil)

//go:build !windows

package logger

import "errors"

// ErrEventLogUnsupported is returned outside Windows.
var ErrEventLogUnsupported = errors.New("event log is only available on windows")

// NewEventLogger always fails outside Windows; callers fall back to the
// console logger.
func NewEventLogger(source string) (Logger, error) {
	return nil, ErrEventLogUnsupported
}

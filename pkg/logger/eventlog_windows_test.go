//go:build windows

package logger

import (
	"errors"
	"testing"
)

type call struct {
	eid uint32
	msg string
}

type fakeEventLog struct {
	calls  []call
	closed bool
	err    error
}

func (f *fakeEventLog) Info(eid uint32, msg string) error {
	f.calls = append(f.calls, call{eid, msg})
	return f.err
}

func (f *fakeEventLog) Warning(eid uint32, msg string) error {
	f.calls = append(f.calls, call{eid, msg})
	return f.err
}

func (f *fakeEventLog) Error(eid uint32, msg string) error {
	f.calls = append(f.calls, call{eid, msg})
	return f.err
}

func (f *fakeEventLog) Close() error {
	f.closed = true
	return nil
}

func TestEventLoggerEventIDs(t *testing.T) {
	w := &fakeEventLog{err: errors.New("write failed")}
	l := NewEventLoggerWithWriter(w)
	l.Info("task %s compiled", "nightly")
	l.Warning("no credential")
	l.Error("register failed")
	want := []call{{1, "task nightly compiled"}, {2, "no credential"}, {3, "register failed"}}
	if len(w.calls) != len(want) {
		t.Fatalf("calls = %v", w.calls)
	}
	for i := range want {
		if w.calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, w.calls[i], want[i])
		}
	}
	if err := l.Close(); err != nil || !w.closed {
		t.Errorf("Close() = %v, closed = %v", err, w.closed)
	}
}

func TestNewEventLoggerInstallsMissingSource(t *testing.T) {
	oldOpen, oldInstall := eventLogOpener, eventLogInstaller
	defer func() { eventLogOpener, eventLogInstaller = oldOpen, oldInstall }()

	installed := false
	eventLogOpener = func(source string) (EventLogWriter, error) {
		if !installed {
			return nil, errors.New("source not found")
		}
		return &fakeEventLog{}, nil
	}
	eventLogInstaller = func(source string) error {
		installed = true
		return nil
	}
	if _, err := NewEventLogger("warpsched"); err != nil {
		t.Fatalf("NewEventLogger() = %v", err)
	}
	if !installed {
		t.Error("source was not installed")
	}
}

func TestNewEventLoggerOpenError(t *testing.T) {
	oldOpen, oldInstall := eventLogOpener, eventLogInstaller
	defer func() { eventLogOpener, eventLogInstaller = oldOpen, oldInstall }()

	openErr := errors.New("access denied")
	eventLogOpener = func(string) (EventLogWriter, error) { return nil, openErr }
	eventLogInstaller = func(string) error { return errors.New("not admin") }

	l, err := NewEventLogger("warpsched")
	if l != nil {
		t.Error("expected nil logger")
	}
	if !errors.Is(err, openErr) {
		t.Errorf("error should wrap the open error: %v", err)
	}
}

//go:build windows

package wrapper

import (
	"context"
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

type processStarter struct{}

// NewStarter returns the CreateProcess based starter: CREATE_NO_WINDOW,
// SW_HIDE and no inherited handles.
func NewStarter() Starter {
	return processStarter{}
}

func (processStarter) StartHidden(_ context.Context, c Command) error {
	cmd := exec.Command(c.Executable)
	cmd.Dir = c.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CmdLine:       c.String(),
		CreationFlags: windows.CREATE_NO_WINDOW | windows.NORMAL_PRIORITY_CLASS,
	}
	if err := cmd.Start(); err != nil {
		return &ProcessLaunchError{Code: errorCode(err), Command: c.String(), Err: err}
	}
	return cmd.Process.Release()
}

func errorCode(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return int(windows.ERROR_FILE_NOT_FOUND)
	}
	return -1
}

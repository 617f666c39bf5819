//go:build unix

package wrapper

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
)

type processStarter struct{}

// NewStarter returns a starter that runs the command line through /bin/sh
// in a new session with no stdio attached.
func NewStarter() Starter {
	return processStarter{}
}

func (processStarter) StartHidden(_ context.Context, c Command) error {
	cmd := exec.Command("/bin/sh", "-c", c.String())
	cmd.Dir = c.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
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
		return int(syscall.ENOENT)
	}
	return -1
}

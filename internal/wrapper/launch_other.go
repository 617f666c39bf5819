//go:build !windows && !unix

package wrapper

import (
	"context"
	"os/exec"
)

type processStarter struct{}

// NewStarter returns a plain starter; this platform has no notion of a
// hidden window.
func NewStarter() Starter {
	return processStarter{}
}

func (processStarter) StartHidden(_ context.Context, c Command) error {
	cmd := exec.Command(c.Executable)
	cmd.Args = append(cmd.Args, c.Args)
	cmd.Dir = c.Dir
	if err := cmd.Start(); err != nil {
		return &ProcessLaunchError{Code: -1, Command: c.String(), Err: err}
	}
	return cmd.Process.Release()
}

func errorCode(error) int {
	return -1
}

package registrar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/warpdl/warpsched/pkg/logger"
	"github.com/warpdl/warpsched/pkg/taskdef"
)

var runCommand = func(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, exitErr.ExitCode(), err
	}
	return out, 0, err
}

// Schtasks registers tasks through schtasks.exe with the XML of the task.
type Schtasks struct {
	// Exe defaults to schtasks.exe.
	Exe string
	// TempDir holds the XML file for the duration of the call; empty uses
	// the system temp directory.
	TempDir string
	l       logger.Logger
}

// NewSchtasks returns a registrar that shells out to schtasks.exe. A nil
// logger discards output.
func NewSchtasks(l logger.Logger) *Schtasks {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Schtasks{Exe: "schtasks.exe", l: l}
}

// Args returns the schtasks.exe argument list for task with its XML at
// xmlPath. The password, when present, is only ever placed here.
func Args(task *taskdef.Task, xmlPath string) []string {
	args := []string{"/Create", "/TN", task.Name, "/XML", xmlPath, "/F"}
	if task.Principal.Secret != "" && task.Principal.UserID != "" {
		args = append(args, "/RU", task.Principal.UserID, "/RP", task.Principal.Secret.Reveal())
	}
	return args
}

// Register writes the task XML to a temporary file and runs schtasks.exe
// /Create on it. A refusal comes back as a *Rejection with the tool's text.
func (s *Schtasks) Register(ctx context.Context, task *taskdef.Task) error {
	data, err := task.UTF16XML()
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(s.TempDir, "warpsched-*.xml")
	if err != nil {
		return fmt.Errorf("error: cannot create task file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("error: cannot write task file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("error: cannot write task file: %w", err)
	}

	s.l.Info("registering task %s", task.Name)
	out, code, err := runCommand(ctx, s.Exe, Args(task, path)...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return &Rejection{Message: msg, ExitCode: code}
	}
	s.l.Info("%s", strings.TrimSpace(string(out)))
	return nil
}

var _ Registrar = (*Schtasks)(nil)

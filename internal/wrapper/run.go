package wrapper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/warpdl/warpsched/pkg/logger"
)

// Starter launches a process without a window and returns as soon as it
// has been created.
type Starter interface {
	StartHidden(ctx context.Context, cmd Command) error
}

// ProcessLaunchError reports an OS level failure to create the process.
type ProcessLaunchError struct {
	Code    int
	Command string
	Err     error
}

func (e *ProcessLaunchError) Error() string {
	return fmt.Sprintf("failed to start process: error code %d: %v", e.Code, e.Err)
}

func (e *ProcessLaunchError) Unwrap() error {
	return e.Err
}

// RunSpec is a direct hidden launch request.
type RunSpec struct {
	Script  string
	Type    ScriptType
	Args    string
	WorkDir string
	LogDir  string
}

// Runner starts scripts hidden, wrapping console-only interpreters first.
type Runner struct {
	fs      afero.Fs
	gen     *Generator
	starter Starter
	l       logger.Logger
}

// NewRunner returns a Runner. A nil starter selects the platform starter.
func NewRunner(fs afero.Fs, gen *Generator, starter Starter, l logger.Logger) *Runner {
	if starter == nil {
		starter = NewStarter()
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Runner{fs: fs, gen: gen, starter: starter, l: l}
}

// RunHidden writes the start lines to the launch log, starts the process
// and records the outcome. It does not wait for the process and does not
// retry a failed start.
func (r *Runner) RunHidden(ctx context.Context, spec RunSpec) (Command, error) {
	if strings.TrimSpace(spec.Script) == "" {
		return Command{}, errors.New("error: cannot run: script path is empty")
	}
	if spec.Type == Unknown {
		spec.Type = TypeFromPath(spec.Script)
	}
	if spec.WorkDir == "" {
		spec.WorkDir = scriptDir(spec.Script)
	}

	launchLog, err := r.openLaunchLog(spec)
	if err != nil {
		return Command{}, err
	}
	defer launchLog.Close()

	launchLog.Info("Script execution started")
	launchLog.Info("Script path: %s", spec.Script)
	launchLog.Info("Arguments: %s", spec.Args)
	launchLog.Info("Working directory: %s", spec.WorkDir)

	cmd, err := HiddenCommand(spec.Script, spec.Type, spec.Args, spec.WorkDir)
	if errors.Is(err, ErrNeedsWrapper) {
		if r.gen == nil {
			err = fmt.Errorf("error: cannot run %s hidden: no wrapper directory configured", spec.Type)
			launchLog.Error("Failed to start process: %v", err)
			return Command{}, err
		}
		var wrapperPath string
		wrapperPath, err = r.gen.GenerateWrapperScript(WrapperSpec{
			Script:  spec.Script,
			Type:    spec.Type,
			Args:    spec.Args,
			WorkDir: spec.WorkDir,
		})
		if err != nil {
			launchLog.Error("Failed to generate wrapper: %v", err)
			return Command{}, err
		}
		cmd, err = HiddenCommand(wrapperPath, VBScript, "", spec.WorkDir)
	}
	if err != nil {
		launchLog.Error("Failed to start process: %v", err)
		return Command{}, err
	}

	if err := ctx.Err(); err != nil {
		launchLog.Error("Process not started: %v", err)
		return cmd, err
	}
	if err := r.starter.StartHidden(ctx, cmd); err != nil {
		lerr := asLaunchError(err, cmd)
		launchLog.Error("Failed to start process: Error code %d", lerr.Code)
		r.l.Error("hidden launch of %s failed: %v", spec.Script, lerr)
		return cmd, lerr
	}
	launchLog.Info("Process started successfully with command: %s", cmd)
	r.l.Info("started %s hidden", spec.Script)
	return cmd, nil
}

func (r *Runner) openLaunchLog(spec RunSpec) (logger.Logger, error) {
	if spec.LogDir == "" {
		return logger.NewNopLogger(), nil
	}
	if err := r.fs.MkdirAll(spec.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("error: cannot create log directory: %w", err)
	}
	base := strings.TrimSuffix(baseName(spec.Script), filepath.Ext(spec.Script))
	path := filepath.Join(spec.LogDir, base+"_"+now().Format(FileStampLayout)+".log")
	f, err := r.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error: cannot open launch log: %w", err)
	}
	return logger.NewTimestampLogger(f).WithClock(now), nil
}

func asLaunchError(err error, cmd Command) *ProcessLaunchError {
	var lerr *ProcessLaunchError
	if errors.As(err, &lerr) {
		return lerr
	}
	return &ProcessLaunchError{Code: errorCode(err), Command: cmd.String(), Err: err}
}

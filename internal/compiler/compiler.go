// Package compiler turns a schedule request into a task definition, step
// by step, and hands it to a registrar.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warpdl/warpsched/internal/action"
	"github.com/warpdl/warpsched/internal/credential"
	"github.com/warpdl/warpsched/internal/registrar"
	"github.com/warpdl/warpsched/internal/settings"
	"github.com/warpdl/warpsched/internal/trigger"
	"github.com/warpdl/warpsched/internal/wrapper"
	"github.com/warpdl/warpsched/pkg/logger"
	"github.com/warpdl/warpsched/pkg/taskdef"
)

// DefaultStartDelay is added to the current time when a request has no
// start time.
const DefaultStartDelay = 5 * time.Minute

const invalidNameChars = `<>:"/|?*`

// Validation failures, wrapped in FieldError.
var (
	ErrEmptyName   = errors.New("task name is required")
	ErrInvalidName = errors.New("task name contains a reserved character")
	ErrEmptyScript = errors.New("script path is required")
)

var (
	now        = time.Now
	isElevated = registrar.IsElevated
)

// Request describes one task to schedule. The script always becomes the
// first action; Actions are appended after it.
type Request struct {
	Name        string
	Description string
	Script      string
	ScriptType  wrapper.ScriptType
	Args        string
	WorkDir     string
	// Principal defaults to the current user.
	Principal string
	// Password, when set, is used instead of a stored credential.
	Password  string
	Trigger   trigger.Spec
	Actions   []action.Spec
	Settings  settings.Options
	StartTime time.Time
	// LogDir is passed to generated wrappers and is a credential target
	// candidate.
	LogDir string
	// Wrap schedules a generated hidden-window wrapper instead of the
	// script itself. MessageTitle and MessageText, when the text is set,
	// make the wrapper show a dialog once the script has started.
	Wrap         bool
	MessageTitle string
	MessageText  string
}

// Result is the state a compilation reached and everything it produced.
type Result struct {
	State       State
	Task        *taskdef.Task
	Credential  credential.Result
	Diagnostics []Diagnostic
	NextRun     time.Time
	HasNextRun  bool
}

// Warnings returns the errors of all warning diagnostics.
func (r *Result) Warnings() []error {
	var out []error
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityWarning {
			out = append(out, d.Err)
		}
	}
	return out
}

func (r *Result) add(sev Severity, err error) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{State: r.State, Severity: sev, Err: err})
}

// Config holds the collaborators of a Compiler.
type Config struct {
	Resolver  *credential.Resolver
	Generator *wrapper.Generator
	Logger    logger.Logger
	Author    string
	LogDir    string
}

// Compiler runs requests through the pipeline. It holds no per-request
// state and may be reused.
type Compiler struct {
	resolver *credential.Resolver
	gen      *wrapper.Generator
	actions  *action.Compiler
	l        logger.Logger
	author   string
	logDir   string
}

// New returns a Compiler. A nil Resolver resolves without a store and a
// nil Logger discards output.
func New(c Config) *Compiler {
	l := c.Logger
	if l == nil {
		l = logger.NewNopLogger()
	}
	res := c.Resolver
	if res == nil {
		res = credential.NewResolver(nil, l)
	}
	return &Compiler{
		resolver: res,
		gen:      c.Generator,
		actions:  action.NewCompiler(c.Generator, l),
		l:        l,
		author:   c.Author,
		logDir:   c.LogDir,
	}
}

// Compile runs the pipeline. On a hard error it returns the result so far,
// stopped in the failing state, together with a *ValidationError or a
// *CompilationError.
func (c *Compiler) Compile(req Request) (*Result, error) {
	res := &Result{State: StateValidate}
	if err := validate(req); err != nil {
		for _, p := range err.Problems {
			res.add(SeverityError, p)
		}
		return res, err
	}

	logDir := req.LogDir
	if logDir == "" {
		logDir = c.logDir
	}
	workDir := req.WorkDir
	if workDir == "" {
		workDir = scriptDir(req.Script)
	}

	res.State = StateResolveCredential
	principal := strings.TrimSpace(req.Principal)
	if principal == "" {
		if me, err := credential.CurrentUser(); err == nil {
			principal = me
		} else {
			res.add(SeverityWarning, fmt.Errorf("cannot determine current user: %w", err))
		}
	}
	candidates := []string{req.Script, workDir}
	if c.gen != nil {
		candidates = append(candidates, c.gen.Dir())
	}
	candidates = append(candidates, logDir)
	res.Credential = c.resolver.ResolveWith(principal, req.Password, candidates)
	if w := res.Credential.Warning(); w != nil {
		c.l.Warning("%v", w)
		res.add(SeverityWarning, w)
	}

	res.State = StateCompileTrigger
	start := req.StartTime
	if start.IsZero() {
		start = now().Add(DefaultStartDelay).Truncate(time.Second)
	}
	for _, w := range trigger.Check(req.Trigger) {
		c.l.Warning("%v", w)
		res.add(SeverityWarning, w)
	}
	trig := trigger.Compile(req.Trigger, start)

	res.State = StateCompileActions
	specs := make([]action.Spec, 0, len(req.Actions)+1)
	primary := action.RunProgram{Path: req.Script, Args: req.Args, WorkDir: workDir, Type: req.ScriptType}
	if req.Wrap {
		path, err := c.wrap(req, workDir, logDir)
		if err != nil {
			cerr := &CompilationError{Actions: action.Errors{{Index: 0, Kind: action.Kind(primary), Err: err}}}
			res.add(SeverityError, cerr)
			return res, cerr
		}
		primary = action.RunProgram{Path: path, WorkDir: workDir, Type: wrapper.VBScript}
	}
	specs = append(specs, primary)
	specs = append(specs, req.Actions...)
	actions, err := c.actions.Compile(specs, action.Context{LogDir: logDir})
	var actErrs action.Errors
	if err != nil && !errors.As(err, &actErrs) {
		return res, err
	}
	for _, e := range actErrs {
		res.add(SeverityWarning, e)
	}
	if len(actions) == 0 || (len(actErrs) > 0 && actErrs[0].Index == 0) {
		cerr := &CompilationError{Actions: actErrs}
		res.add(SeverityError, cerr)
		return res, cerr
	}

	res.State = StateCompileSettings
	opts := req.Settings
	if idle, ok := req.Trigger.(trigger.Idle); ok && idle.Minutes > 0 && opts.IdleMinutes == nil {
		opts.IdleMinutes = settings.Int(idle.Minutes)
	}
	set := settings.Compile(opts)
	if set.RunLevel == taskdef.HighestAvailable && !isElevated() {
		w := errors.New("highest run level requested but the process is not elevated; registration may be refused")
		c.l.Warning("%v", w)
		res.add(SeverityWarning, w)
	}

	res.Task = &taskdef.Task{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Author:      c.author,
		Date:        now().Truncate(time.Second),
		Trigger:     trig,
		Actions:     actions,
		Settings:    set,
		Principal:   buildPrincipal(principal, res.Credential, set.RunLevel),
	}
	res.NextRun, res.HasNextRun = trigger.NextRun(trig, now())
	res.State = StateReady
	return res, nil
}

// Register hands a ready task to r. Credential warnings are logged again
// right before the call. Failures are not retried.
func (c *Compiler) Register(ctx context.Context, res *Result, r registrar.Registrar) error {
	if res == nil || res.Task == nil || res.State != StateReady {
		return ErrNotReady
	}
	if w := res.Credential.Warning(); w != nil {
		c.l.Warning("registering without a stored secret: %v", w)
	}
	if err := r.Register(ctx, res.Task); err != nil {
		rerr := &RegistrationError{Task: res.Task.Name, Message: err.Error(), Err: err}
		res.add(SeverityError, rerr)
		c.l.Error("%v", rerr)
		return rerr
	}
	res.State = StateRegistered
	c.l.Info("task %s registered", res.Task.Name)
	return nil
}

// wrap writes the hidden-window wrapper for the request's script. It runs
// after validation so a rejected request leaves no file behind.
func (c *Compiler) wrap(req Request, workDir, logDir string) (string, error) {
	if c.gen == nil {
		return "", action.ErrNoGenerator
	}
	return c.gen.GenerateWrapperScript(wrapper.WrapperSpec{
		Script:  req.Script,
		Type:    req.ScriptType,
		Args:    req.Args,
		WorkDir: workDir,
		LogDir:  logDir,
		Title:   req.MessageTitle,
		Message: req.MessageText,
	})
}

func validate(req Request) *ValidationError {
	var ve ValidationError
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		ve.Problems = append(ve.Problems, FieldError{"name", ErrEmptyName})
	case strings.ContainsAny(name, invalidNameChars):
		ve.Problems = append(ve.Problems, FieldError{"name", fmt.Errorf("%w: %q", ErrInvalidName, name)})
	}
	if strings.TrimSpace(req.Script) == "" {
		ve.Problems = append(ve.Problems, FieldError{"script", ErrEmptyScript})
	}
	if req.Trigger != nil {
		if err := trigger.Validate(req.Trigger); err != nil {
			ve.Problems = append(ve.Problems, FieldError{"trigger", err})
		}
	}
	if len(ve.Problems) > 0 {
		return &ve
	}
	return nil
}

func buildPrincipal(user string, cred credential.Result, level taskdef.RunLevel) taskdef.Principal {
	p := taskdef.Principal{UserID: user, RunLevel: level, LogonType: taskdef.LogonInteractiveToken}
	switch {
	case credential.IsServiceAccount(user):
		p.LogonType = taskdef.LogonServiceAccount
	case cred.Outcome.HasSecret():
		p.LogonType = taskdef.LogonPassword
		p.Secret = cred.Secret
	}
	return p
}

func scriptDir(p string) string {
	i := strings.LastIndexAny(p, `\/`)
	if i <= 0 {
		return ""
	}
	return p[:i]
}

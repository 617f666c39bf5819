package action

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/warpdl/warpsched/internal/wrapper"
	"github.com/warpdl/warpsched/pkg/logger"
	"github.com/warpdl/warpsched/pkg/taskdef"
)

const defaultSMTPPort = 25

var (
	ErrMissingPath   = errors.New("program path is required")
	ErrMissingField  = errors.New("required field is empty")
	ErrNoGenerator   = errors.New("no wrapper directory configured")
	ErrUnknownAction = errors.New("unknown action kind")
)

// Context carries per-request inputs shared by all actions.
type Context struct {
	// LogDir is passed to generated wrappers so each run writes a launch log.
	LogDir string
}

// Compiler turns action specs into platform actions.
type Compiler struct {
	gen *wrapper.Generator
	l   logger.Logger
}

// NewCompiler returns a Compiler writing generated scripts through gen.
// gen may be nil when no action needs a generated script.
func NewCompiler(gen *wrapper.Generator, l logger.Logger) *Compiler {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Compiler{gen: gen, l: l}
}

// Expand rewrites every DisplayMessage into a RunProgram on a freshly
// generated message script. A failed expansion leaves a nil entry at its
// index and an *Error in the returned Errors.
func (c *Compiler) Expand(specs []Spec) ([]Spec, Errors) {
	out := make([]Spec, len(specs))
	var errs Errors
	for i, s := range specs {
		msg, ok := s.(DisplayMessage)
		if !ok {
			out[i] = s
			continue
		}
		if c.gen == nil {
			errs = append(errs, &Error{Index: i, Kind: Kind(s), Err: ErrNoGenerator})
			continue
		}
		path, err := c.gen.GenerateMessageScript(msg.Title, msg.Text)
		if err != nil {
			errs = append(errs, &Error{Index: i, Kind: Kind(s), Err: err})
			continue
		}
		out[i] = RunProgram{Path: path, Type: wrapper.VBScript}
	}
	return out, errs
}

// Compile expands and compiles specs in order. Failed actions are skipped
// and reported in the returned Errors; the error is nil only when every
// action compiled.
func (c *Compiler) Compile(specs []Spec, ctx Context) ([]taskdef.Action, error) {
	expanded, errs := c.Expand(specs)
	actions := make([]taskdef.Action, 0, len(specs))
	for i, s := range expanded {
		if s == nil {
			continue
		}
		a, err := c.compileOne(s, ctx)
		if err != nil {
			errs = append(errs, &Error{Index: i, Kind: Kind(specs[i]), Err: err})
			c.l.Warning("skipping action %d: %v", i+1, err)
			continue
		}
		actions = append(actions, a)
	}
	if len(errs) > 0 {
		sortErrors(errs)
		return actions, errs
	}
	return actions, nil
}

func (c *Compiler) compileOne(s Spec, ctx Context) (taskdef.Action, error) {
	switch v := s.(type) {
	case RunProgram:
		return c.compileRun(v, ctx)
	case SendEmail:
		return c.compileEmail(v)
	default:
		return taskdef.Action{}, fmt.Errorf("%w: %T", ErrUnknownAction, s)
	}
}

func (c *Compiler) compileRun(r RunProgram, ctx Context) (taskdef.Action, error) {
	if strings.TrimSpace(r.Path) == "" {
		return taskdef.Action{}, ErrMissingPath
	}
	typ := r.Type
	if typ == wrapper.Unknown {
		typ = wrapper.TypeFromPath(r.Path)
	}
	workDir := r.WorkDir
	if workDir == "" {
		workDir = dirOf(r.Path)
	}
	launcher, err := wrapper.LauncherFor(typ)
	if err != nil {
		return taskdef.Action{}, err
	}

	switch {
	case launcher.Direct():
		return execAction(r.Path, r.Args, workDir), nil
	case launcher.Windowless:
		return execAction(launcher.Executable, launcher.Arguments(r.Path, r.Args), workDir), nil
	}

	if c.gen == nil {
		return taskdef.Action{}, ErrNoGenerator
	}
	script, err := c.gen.GenerateWrapperScript(wrapper.WrapperSpec{
		Kind:    wrapper.KindRunProgram,
		Script:  r.Path,
		Type:    typ,
		Args:    r.Args,
		WorkDir: workDir,
		LogDir:  ctx.LogDir,
	})
	if err != nil {
		return taskdef.Action{}, err
	}
	host, _ := wrapper.LauncherFor(wrapper.VBScript)
	return execAction(host.Executable, host.Arguments(script, ""), workDir), nil
}

func (c *Compiler) compileEmail(m SendEmail) (taskdef.Action, error) {
	required := []struct{ name, value string }{{"from", m.From}, {"to", m.To}, {"server", m.Server}}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return taskdef.Action{}, fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	c.l.Warning("send e-mail actions are deprecated and ignored by current Windows releases")
	a := taskdef.Action{
		Kind:    taskdef.ActionSendEmail,
		From:    m.From,
		To:      m.To,
		Subject: m.Subject,
		Body:    m.Body,
		Server:  m.Server,
	}
	if m.UseSSL {
		a.HeaderFields = append(a.HeaderFields, taskdef.HeaderField{Name: "X-UseSSL", Value: "true"})
	}
	if m.Port > 0 && m.Port != defaultSMTPPort {
		a.HeaderFields = append(a.HeaderFields, taskdef.HeaderField{Name: "X-Port", Value: strconv.Itoa(m.Port)})
	}
	return a, nil
}

func execAction(path, args, dir string) taskdef.Action {
	return taskdef.Action{Kind: taskdef.ActionExec, Path: path, Arguments: args, WorkingDirectory: dir}
}

func dirOf(p string) string {
	i := strings.LastIndexAny(p, `\/`)
	if i <= 0 {
		return ""
	}
	return p[:i]
}

func sortErrors(errs Errors) {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Index < errs[j].Index })
}

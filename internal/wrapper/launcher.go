// Package wrapper picks the windowless launcher for each script type,
// generates the Windows Script Host wrappers that hide console-only
// interpreters, and starts processes without a window.
package wrapper

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/warpdl/warpsched/pkg/taskdef"
)

// ScriptType is the interpreter family of a script, derived from its
// extension or chosen explicitly by the operator.
type ScriptType int

const (
	Unknown ScriptType = iota
	PowerShell
	Python
	Batch
	VBScript
	JScript
	Executable
)

func (t ScriptType) String() string {
	switch t {
	case PowerShell:
		return "PowerShell"
	case Python:
		return "Python"
	case Batch:
		return "Batch"
	case VBScript:
		return "VBScript"
	case JScript:
		return "JScript"
	case Executable:
		return "Executable"
	default:
		return "Unknown"
	}
}

// ErrUnknownType is returned by ParseType for names it does not recognise.
var ErrUnknownType = errors.New("unknown script type")

// ParseType maps an operator-supplied type name or extension to a ScriptType.
func ParseType(s string) (ScriptType, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "powershell", "ps", "ps1":
		return PowerShell, nil
	case "python", "py", "pyw":
		return Python, nil
	case "batch", "bat", "cmd":
		return Batch, nil
	case "vbscript", "vbs":
		return VBScript, nil
	case "jscript", "javascript", "js":
		return JScript, nil
	case "executable", "exe", "com":
		return Executable, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// TypeFromPath infers the script type from the file extension.
func TypeFromPath(path string) ScriptType {
	ext := filepath.Ext(strings.ReplaceAll(path, `\`, "/"))
	if ext == "" {
		return Unknown
	}
	t, err := ParseType(ext)
	if err != nil {
		return Unknown
	}
	return t
}

// Launcher describes how a script type is started.
type Launcher struct {
	// Executable is the interpreter. Empty means the script runs itself.
	Executable string
	// Template precedes the quoted script path on the command line.
	Template []string
	// Windowless is false for interpreters that always attach a console;
	// those are only ever started through a generated wrapper.
	Windowless bool
}

// Direct reports whether the script is its own executable.
func (l Launcher) Direct() bool {
	return l.Executable == ""
}

// Arguments renders the interpreter arguments for running script with the
// caller's args.
func (l Launcher) Arguments(script, args string) string {
	if l.Direct() {
		return args
	}
	if l.Executable == "cmd.exe" {
		// cmd strips the outer pair of quotes after /c.
		inner := taskdef.Quote(script)
		if args != "" {
			inner += " " + args
		}
		return strings.Join(l.Template, " ") + ` "` + inner + `"`
	}
	parts := append([]string{}, l.Template...)
	parts = append(parts, taskdef.Quote(script))
	if args != "" {
		parts = append(parts, args)
	}
	return strings.Join(parts, " ")
}

const (
	wscript    = "wscript.exe"
	pythonw    = "pythonw.exe"
	powershell = "powershell.exe"
	cmdExe     = "cmd.exe"
)

// LauncherFor returns the launcher for t. Unknown types are treated as
// executables.
func LauncherFor(t ScriptType) (Launcher, error) {
	switch t {
	case PowerShell:
		return Launcher{
			Executable: powershell,
			Template:   []string{"-ExecutionPolicy", "Bypass", "-NoProfile", "-NonInteractive", "-WindowStyle", "Hidden", "-File"},
		}, nil
	case Batch:
		return Launcher{Executable: cmdExe, Template: []string{"/c"}}, nil
	case Python:
		return Launcher{Executable: pythonw, Windowless: true}, nil
	case VBScript:
		return Launcher{Executable: wscript, Template: []string{"//NoLogo"}, Windowless: true}, nil
	case JScript:
		return Launcher{Executable: wscript, Template: []string{"//NoLogo", "//E:JScript"}, Windowless: true}, nil
	case Executable, Unknown:
		return Launcher{}, nil
	}
	return Launcher{}, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
}

// ErrNeedsWrapper is returned when a console-only interpreter would have to
// be launched directly.
var ErrNeedsWrapper = errors.New("script type needs a wrapper to run hidden")

// Command is a fully rendered process invocation.
type Command struct {
	Executable string
	Args       string
	Dir        string
}

// String renders the command line the way it is handed to the OS.
func (c Command) String() string {
	if c.Args == "" {
		return taskdef.Quote(c.Executable)
	}
	return taskdef.Quote(c.Executable) + " " + c.Args
}

// HiddenCommand builds the direct windowless invocation of script. Types
// without a windowless interpreter return ErrNeedsWrapper.
func HiddenCommand(script string, t ScriptType, args, dir string) (Command, error) {
	l, err := LauncherFor(t)
	if err != nil {
		return Command{}, err
	}
	if l.Direct() {
		return Command{Executable: script, Args: args, Dir: dir}, nil
	}
	if !l.Windowless {
		return Command{}, fmt.Errorf("%w: %s", ErrNeedsWrapper, t)
	}
	return Command{Executable: l.Executable, Args: l.Arguments(script, args), Dir: dir}, nil
}

package wrapper

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/warpsched/pkg/logger"
	"golang.org/x/text/encoding/unicode"
)

// FileStampLayout is the timestamp embedded in generated file names.
const FileStampLayout = "20060102_150405"

// Kinds used as file name prefixes for generated scripts.
const (
	KindRunProgram     = "RunProgram"
	KindDisplayMessage = "DisplayMessage"
)

// MsgBox style: vbOKOnly + vbInformation.
const msgBoxStyle = 64

var now = time.Now

// Generator writes wrapper and message scripts into Dir.
type Generator struct {
	fs  afero.Fs
	dir string
	l   logger.Logger
}

// NewGenerator returns a Generator writing through fs into dir.
func NewGenerator(fs afero.Fs, dir string, l logger.Logger) *Generator {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Generator{fs: fs, dir: dir, l: l}
}

// Dir is the directory generated scripts are written to.
func (g *Generator) Dir() string {
	return g.dir
}

// WrapperSpec describes a wrapper script.
type WrapperSpec struct {
	// Kind prefixes the generated file name. Defaults to RunProgram.
	Kind   string
	Script string
	Type   ScriptType
	Args   string
	// WorkDir defaults to the script's directory.
	WorkDir string
	// LogDir, when set, receives a <script>_<timestamp>.log per run.
	LogDir string
	// Output overrides the generated file name.
	Output string
	// Title and Message, when Message is set, show a dialog after the
	// target has been started.
	Title   string
	Message string
}

// EscapeVBS doubles embedded double quotes for use inside a VBScript
// string literal.
func EscapeVBS(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// MessageScript renders the one-statement dialog script.
func MessageScript(title, text string) string {
	return fmt.Sprintf("MsgBox \"%s\", %d, \"%s\"\r\n", EscapeVBS(text), msgBoxStyle, EscapeVBS(title))
}

// GenerateMessageScript writes a DisplayMessage_<timestamp>.vbs that shows
// a modal dialog, and returns its path.
func (g *Generator) GenerateMessageScript(title, text string) (string, error) {
	path, err := g.reserve(KindDisplayMessage, ".vbs")
	if err != nil {
		return "", err
	}
	if err := g.write(path, MessageScript(title, text)); err != nil {
		return "", err
	}
	g.l.Info("generated message script %s", path)
	return path, nil
}

// GenerateWrapperScript writes a VBScript that starts the target with a
// hidden window and returns without waiting for it.
func (g *Generator) GenerateWrapperScript(spec WrapperSpec) (string, error) {
	if strings.TrimSpace(spec.Script) == "" {
		return "", fmt.Errorf("error: cannot generate wrapper: script path is empty")
	}
	if spec.Type == Unknown {
		spec.Type = TypeFromPath(spec.Script)
	}
	if spec.WorkDir == "" {
		spec.WorkDir = scriptDir(spec.Script)
	}
	cmd, err := WrappedCommand(spec.Script, spec.Type, spec.Args)
	if err != nil {
		return "", err
	}

	path := spec.Output
	if path == "" {
		kind := spec.Kind
		if kind == "" {
			kind = KindRunProgram
		}
		if path, err = g.reserve(kind, ".vbs"); err != nil {
			return "", err
		}
	} else if err := g.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("error: cannot create wrapper directory: %w", err)
	}

	if err := g.write(path, wrapperScript(spec, cmd)); err != nil {
		return "", err
	}
	g.l.Info("generated wrapper %s for %s", path, spec.Script)
	return path, nil
}

// WrappedCommand is the command line a wrapper runs for script. Unlike
// HiddenCommand it accepts console-only interpreters, because the wrapper
// hides their window.
func WrappedCommand(script string, t ScriptType, args string) (string, error) {
	l, err := LauncherFor(t)
	if err != nil {
		return "", err
	}
	if l.Direct() {
		return Command{Executable: script, Args: args}.String(), nil
	}
	return Command{Executable: l.Executable, Args: l.Arguments(script, args)}.String(), nil
}

func wrapperScript(spec WrapperSpec, cmd string) string {
	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format+"\r\n", args...)
	}
	line("' Generated by warpsched. Runs %s without a window.", baseName(spec.Script))
	line("Option Explicit")
	line("Dim shell, cmd, code")
	line(`Set shell = CreateObject("WScript.Shell")`)
	line(`shell.CurrentDirectory = "%s"`, EscapeVBS(spec.WorkDir))
	line(`cmd = "%s"`, EscapeVBS(cmd))
	if spec.LogDir != "" {
		base := strings.TrimSuffix(baseName(spec.Script), filepath.Ext(spec.Script))
		line("Dim fso, logFile")
		line(`Set fso = CreateObject("Scripting.FileSystemObject")`)
		line(`If Not fso.FolderExists("%[1]s") Then fso.CreateFolder("%[1]s")`, EscapeVBS(spec.LogDir))
		line(`Set logFile = fso.OpenTextFile("%s\%s_" & FileStamp() & ".log", 8, True)`, EscapeVBS(spec.LogDir), EscapeVBS(base))
		line(`WriteLog "Script execution started"`)
		line(`WriteLog "Script path: %s"`, EscapeVBS(spec.Script))
		line(`WriteLog "Arguments: %s"`, EscapeVBS(spec.Args))
		line(`WriteLog "Working directory: %s"`, EscapeVBS(spec.WorkDir))
	}
	line("On Error Resume Next")
	line("shell.Run cmd, 0, False")
	line("code = Err.Number")
	line("On Error GoTo 0")
	if spec.LogDir != "" {
		line("If code = 0 Then")
		line(`  WriteLog "Process started successfully with command: " & cmd`)
		line("Else")
		line(`  WriteLog "Failed to start process: Error code " & code`)
		line("End If")
		line("logFile.Close")
	}
	if spec.Message != "" {
		line(`MsgBox "%s", %d, "%s"`, EscapeVBS(spec.Message), msgBoxStyle, EscapeVBS(spec.Title))
	}
	line("WScript.Quit code")
	if spec.LogDir != "" {
		line("")
		line("Function Pad(n)")
		line(`  Pad = Right("0" & n, 2)`)
		line("End Function")
		line("")
		line("Function FileStamp()")
		line(`  Dim t : t = Now`)
		line(`  FileStamp = Year(t) & Pad(Month(t)) & Pad(Day(t)) & "_" & Pad(Hour(t)) & Pad(Minute(t)) & Pad(Second(t))`)
		line("End Function")
		line("")
		line("Sub WriteLog(msg)")
		line(`  Dim t : t = Now`)
		line(`  logFile.WriteLine Year(t) & "-" & Pad(Month(t)) & "-" & Pad(Day(t)) & " " & Pad(Hour(t)) & ":" & Pad(Minute(t)) & ":" & Pad(Second(t)) & " - " & msg`)
		line("End Sub")
	}
	return b.String()
}

// reserve picks <dir>/<kind>_<timestamp><ext>, adding _2, _3... when a file
// generated in the same second already exists.
func (g *Generator) reserve(kind, ext string) (string, error) {
	if err := g.fs.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("error: cannot create wrapper directory: %w", err)
	}
	base := kind + "_" + now().Format(FileStampLayout)
	path := filepath.Join(g.dir, base+ext)
	for i := 2; ; i++ {
		exists, err := afero.Exists(g.fs, path)
		if err != nil {
			return "", fmt.Errorf("error: cannot check %s: %w", path, err)
		}
		if !exists {
			return path, nil
		}
		path = filepath.Join(g.dir, fmt.Sprintf("%s_%d%s", base, i, ext))
	}
}

// write stores content as ASCII when possible and as UTF-16LE with a BOM
// otherwise; Windows Script Host reads anything else in the ANSI code page.
func (g *Generator) write(path, content string) error {
	data := []byte(content)
	if !isASCII(content) {
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		var err error
		if data, err = enc.Bytes(data); err != nil {
			return fmt.Errorf("error: cannot encode %s: %w", path, err)
		}
	}
	if err := afero.WriteFile(g.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("error: cannot write %s: %w", path, err)
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// baseName returns the last element of a Windows or slash separated path.
func baseName(p string) string {
	return p[strings.LastIndexAny(p, `\/`)+1:]
}

// scriptDir returns the directory part of a Windows or slash separated path.
func scriptDir(p string) string {
	i := strings.LastIndexAny(p, `\/`)
	if i <= 0 {
		return "."
	}
	return p[:i]
}

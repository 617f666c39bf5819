package registrar

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/warpdl/warpsched/pkg/taskdef"
)

// XMLFile writes each task as <name>.xml into Dir, in the UTF-16 form
// accepted by "schtasks /Create /XML" and the Task Scheduler import dialog.
type XMLFile struct {
	fs  afero.Fs
	Dir string
}

func NewXMLFile(fs afero.Fs, dir string) *XMLFile {
	return &XMLFile{fs: fs, Dir: dir}
}

// Path is where task will be written.
func (x *XMLFile) Path(task *taskdef.Task) string {
	return filepath.Join(x.Dir, fileName(task.Name)+".xml")
}

func (x *XMLFile) Register(ctx context.Context, task *taskdef.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := task.UTF16XML()
	if err != nil {
		return err
	}
	if err := x.fs.MkdirAll(x.Dir, 0o755); err != nil {
		return fmt.Errorf("error: cannot create %s: %w", x.Dir, err)
	}
	if err := afero.WriteFile(x.fs, x.Path(task), data, 0o644); err != nil {
		return fmt.Errorf("error: cannot write task file: %w", err)
	}
	return nil
}

var _ Registrar = (*XMLFile)(nil)

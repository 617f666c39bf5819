// Package registrar hands compiled tasks to the Task Scheduler, or to a
// stand-in that records them.
package registrar

import (
	"context"
	"strings"

	"github.com/warpdl/warpsched/pkg/taskdef"
)

// Registrar creates or replaces a task. Register blocks until the
// scheduler answers; it is never retried.
type Registrar interface {
	Register(ctx context.Context, task *taskdef.Task) error
}

// Rejection is a refusal from the scheduler. Message is its output,
// unaltered apart from surrounding whitespace.
type Rejection struct {
	Message  string
	ExitCode int
}

func (r *Rejection) Error() string {
	return r.Message
}

// fileName flattens a task path such as `Backups\Nightly` into a name
// usable as a single file.
func fileName(task string) string {
	return strings.NewReplacer(`\`, "_", "/", "_").Replace(strings.Trim(task, `\/`))
}

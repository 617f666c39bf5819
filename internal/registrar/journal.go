package registrar

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/warpdl/warpsched/pkg/logger"
	"github.com/warpdl/warpsched/pkg/taskdef"
)

const (
	StatusRegistered = "registered"
	StatusFailed     = "failed"
)

var now = time.Now

const journalSchema = `
CREATE TABLE IF NOT EXISTS registrations (
  id TEXT PRIMARY KEY,
  task_name TEXT NOT NULL,
  principal TEXT NOT NULL,
  trigger_kind TEXT NOT NULL,
  actions INTEGER NOT NULL,
  status TEXT NOT NULL CHECK(status IN ('registered','failed')),
  message TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_registrations_created ON registrations(created_at DESC);
`

// Entry is one journal row. It never contains the task's secret.
type Entry struct {
	ID          string
	TaskName    string
	Principal   string
	TriggerKind taskdef.TriggerKind
	Actions     int
	Status      string
	Message     string
	CreatedAt   time.Time
}

// Journal records every registration attempt in a local SQLite database.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens or creates the journal at path.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error: cannot open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error: cannot create journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores the outcome of registering task; regErr nil means success.
func (j *Journal) Record(ctx context.Context, task *taskdef.Task, regErr error) (Entry, error) {
	e := Entry{
		ID:          uuid.NewString(),
		TaskName:    task.Name,
		Principal:   task.Principal.UserID,
		TriggerKind: task.Trigger.Kind,
		Actions:     len(task.Actions),
		Status:      StatusRegistered,
		CreatedAt:   now().UTC().Truncate(time.Second),
	}
	if regErr != nil {
		e.Status = StatusFailed
		e.Message = regErr.Error()
	}
	_, err := j.db.ExecContext(ctx, `
        INSERT INTO registrations (id, task_name, principal, trigger_kind, actions, status, message, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, e.ID, e.TaskName, e.Principal, string(e.TriggerKind), e.Actions, e.Status, e.Message, e.CreatedAt.Unix())
	if err != nil {
		return Entry{}, fmt.Errorf("error: cannot record registration: %w", err)
	}
	return e, nil
}

// List returns the newest entries first; limit <= 0 returns all.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
        SELECT id, task_name, principal, trigger_kind, actions, status, message, created_at
        FROM registrations
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("error: failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			kind    string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.TaskName, &e.Principal, &kind, &e.Actions, &e.Status, &e.Message, &created); err != nil {
			return nil, fmt.Errorf("error: failed to scan journal row: %w", err)
		}
		e.TriggerKind = taskdef.TriggerKind(kind)
		e.CreatedAt = time.Unix(created, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error: failed to iterate journal rows: %w", err)
	}
	return entries, nil
}

// Wrap returns a Registrar that calls next and journals the outcome. A
// journal write failure is logged to l and never changes the result of
// the registration.
func (j *Journal) Wrap(next Registrar, l logger.Logger) Registrar {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &journaled{j: j, next: next, l: l}
}

type journaled struct {
	j    *Journal
	next Registrar
	l    logger.Logger
}

func (r *journaled) Register(ctx context.Context, task *taskdef.Task) error {
	err := r.next.Register(ctx, task)
	if _, jerr := r.j.Record(context.WithoutCancel(ctx), task, err); jerr != nil {
		r.l.Warning("task %s: %v", task.Name, jerr)
	}
	return err
}

package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"taskdeck/internal/model"
)

// SQLiteRepo persists tasks in a single-file SQLite database. Tags and
// subtasks are stored as JSON text columns; they only ever round-trip
// through the repo, nothing queries inside them.
type SQLiteRepo struct {
	db *sql.DB
}

func OpenSQLiteRepo(dbPath string) (*SQLiteRepo, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &SQLiteRepo{db: db}
	if err := r.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func sqliteDSN(path string) string {
	q := url.Values{}
	q.Set("_pragma", "busy_timeout(5000)")
	return "file:" + filepath.ToSlash(path) + "?" + q.Encode()
}

func (r *SQLiteRepo) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepo) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT 'medium',
	tags TEXT NOT NULL DEFAULT '[]',
	due_date TEXT DEFAULT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	recurrence TEXT NOT NULL DEFAULT 'none',
	custom_order INTEGER DEFAULT NULL,
	subtasks TEXT NOT NULL DEFAULT '[]',
	calendar_event_id TEXT DEFAULT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);`
	_, err := r.db.Exec(ddl)
	return err
}

func (r *SQLiteRepo) List(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, description, priority, tags, due_date, completed,
       recurrence, custom_order, subtasks, calendar_event_id,
       created_at, updated_at
FROM tasks WHERE user_id = ?;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Create(ctx context.Context, userID string, t model.Task) (model.Task, error) {
	if err := ValidateNew(&t); err != nil {
		return model.Task{}, err
	}

	now := time.Now()
	t.ID = newTaskID()
	t.CreatedAt = now
	t.UpdatedAt = now
	normalizeTask(&t)

	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return model.Task{}, err
	}
	subtasks, err := json.Marshal(t.Subtasks)
	if err != nil {
		return model.Task{}, err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO tasks (id, user_id, title, description, priority, tags, due_date,
                   completed, recurrence, custom_order, subtasks,
                   calendar_event_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		string(t.ID), userID, t.Title, t.Description, string(t.Priority),
		string(tags), nullString(t.DueDate), boolInt(t.Completed),
		string(t.Recurrence), nullInt(t.CustomOrder), string(subtasks),
		nullString(t.CalendarEventID),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *SQLiteRepo) Update(ctx context.Context, id model.TaskID, p Patch) (model.Task, error) {
	t, err := r.get(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if err := applyPatch(&t, p); err != nil {
		return model.Task{}, err
	}
	t.UpdatedAt = time.Now()
	normalizeTask(&t)

	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return model.Task{}, err
	}
	subtasks, err := json.Marshal(t.Subtasks)
	if err != nil {
		return model.Task{}, err
	}

	_, err = r.db.ExecContext(ctx, `
UPDATE tasks SET title = ?, description = ?, priority = ?, tags = ?,
       due_date = ?, completed = ?, recurrence = ?, custom_order = ?,
       subtasks = ?, calendar_event_id = ?, updated_at = ?
WHERE id = ?;`,
		t.Title, t.Description, string(t.Priority), string(tags),
		nullString(t.DueDate), boolInt(t.Completed), string(t.Recurrence),
		nullInt(t.CustomOrder), string(subtasks), nullString(t.CalendarEventID),
		t.UpdatedAt.Format(time.RFC3339Nano), string(id))
	if err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, id model.TaskID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?;`, string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepo) get(ctx context.Context, id model.TaskID) (model.Task, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, description, priority, tags, due_date, completed,
       recurrence, custom_order, subtasks, calendar_event_id,
       created_at, updated_at
FROM tasks WHERE id = ?;`, string(id))
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	return t, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.Task, error) {
	var (
		t                 model.Task
		id                string
		priority          string
		recurrence        string
		tagsJSON          string
		subtasksJSON      string
		dueDate           sql.NullString
		customOrder       sql.NullInt64
		calendarEventID   sql.NullString
		completed         int
		createdAt, updAt  string
	)
	if err := row.Scan(&id, &t.Title, &t.Description, &priority, &tagsJSON,
		&dueDate, &completed, &recurrence, &customOrder, &subtasksJSON,
		&calendarEventID, &createdAt, &updAt); err != nil {
		return model.Task{}, err
	}

	t.ID = model.TaskID(id)
	t.Priority = model.Priority(priority)
	t.Recurrence = model.Recurrence(recurrence)
	t.Completed = completed == 1
	if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
		return model.Task{}, err
	}
	if err := json.Unmarshal([]byte(subtasksJSON), &t.Subtasks); err != nil {
		return model.Task{}, err
	}
	if dueDate.Valid {
		v := dueDate.String
		t.DueDate = &v
	}
	if customOrder.Valid {
		v := int(customOrder.Int64)
		t.CustomOrder = &v
	}
	if calendarEventID.Valid {
		v := calendarEventID.String
		t.CalendarEventID = &v
	}
	if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		t.CreatedAt = parsed
	}
	if parsed, err := time.Parse(time.RFC3339Nano, updAt); err == nil {
		t.UpdatedAt = parsed
	}
	normalizeTask(&t)
	return t, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

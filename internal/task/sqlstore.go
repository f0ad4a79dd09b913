package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLStore persists tasks in the shared SQLite database.
type SQLStore struct {
	db     *sql.DB
	notify *notifier
}

// NewSQLStore wraps an open database connection. The connection is owned
// by the caller and is not closed by Close.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, notify: newNotifier()}
}

func (s *SQLStore) Create(ctx context.Context, t Task) (Task, error) {
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	// Stored timestamps carry second precision, so truncate up front and
	// the returned task matches what a re-read would produce.
	now := time.Now().UTC().Truncate(time.Second)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.Pending = false

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, category, priority, deadline, completed, completed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Description, t.Category, t.Priority.String(),
		t.Deadline.UTC().Format(time.RFC3339), boolToInt(t.Completed), timeToNull(t.CompletedAt),
		t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Task{}, fmt.Errorf("creating task: %w", err)
	}

	s.publish(ctx, t.UserID)
	return t, nil
}

func (s *SQLStore) Get(ctx context.Context, userID, id string) (Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, category, priority, deadline, completed, completed_at, created_at, updated_at
		 FROM tasks WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Task{}, fmt.Errorf("fetching task %s: %w", id, err)
	}
	return t, nil
}

func (s *SQLStore) Update(ctx context.Context, t Task) (Task, error) {
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	t.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	t.Pending = false

	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, category = ?, priority = ?, deadline = ?, completed = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.Title, t.Description, t.Category, t.Priority.String(),
		t.Deadline.UTC().Format(time.RFC3339), boolToInt(t.Completed), timeToNull(t.CompletedAt),
		t.UpdatedAt.Format(time.RFC3339), t.ID, t.UserID,
	)
	if err != nil {
		return Task{}, fmt.Errorf("updating task %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Task{}, fmt.Errorf("task %s: %w", t.ID, ErrNotFound)
	}

	// Re-read so the returned task carries the stored CreatedAt.
	stored, err := s.Get(ctx, t.UserID, t.ID)
	if err != nil {
		return Task{}, err
	}
	s.publish(ctx, t.UserID)
	return stored, nil
}

func (s *SQLStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	s.publish(ctx, userID)
	return nil
}

func (s *SQLStore) List(ctx context.Context, userID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, category, priority, deadline, completed, completed_at, created_at, updated_at
		 FROM tasks WHERE user_id = ? ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("listing tasks: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *SQLStore) Watch(ctx context.Context, userID string) (<-chan []Task, error) {
	initial, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.notify.subscribe(ctx, userID, initial), nil
}

// Close shuts down change notification. The database connection stays
// open for its owner.
func (s *SQLStore) Close() error {
	s.notify.shutdown()
	return nil
}

// publish pushes a fresh snapshot to the user's watchers. A read failure
// here is swallowed; watchers catch up on the next successful change.
func (s *SQLStore) publish(ctx context.Context, userID string) {
	snapshot, err := s.List(ctx, userID)
	if err != nil {
		return
	}
	s.notify.publish(userID, snapshot)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (Task, error) {
	var t Task
	var priority string
	var completed int
	var deadline, created, updated string
	var completedAt sql.NullString

	err := r.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Category,
		&priority, &deadline, &completed, &completedAt, &created, &updated)
	if err != nil {
		return Task{}, err
	}

	t.Priority = normalizePriority(priority)
	t.Completed = completed == 1
	t.Deadline, err = time.Parse(time.RFC3339, deadline)
	if err != nil {
		return Task{}, fmt.Errorf("parsing deadline %q: %w", deadline, err)
	}
	if completedAt.Valid && completedAt.String != "" {
		if parsed, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
			t.CompletedAt = &parsed
		}
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, created)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updated)

	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timeToNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/capitalize-ai/voice-assistant/internal/model"
)

const taskColumns = `id, title, description, priority, due_date, completed, created_at`

// ListTasks returns the user's tasks, oldest first.
func (u *UserStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := u.store.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY created_at ASC`, u.userID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask returns one task.
func (u *UserStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := u.store.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND id = ?`, u.userID, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask inserts a new, incomplete task.
func (u *UserStore) CreateTask(ctx context.Context, nt model.NewTask) (*model.Task, error) {
	if nt.Title == "" {
		return nil, errors.New("task title is required")
	}
	priority := nt.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	t := model.Task{
		ID:          newID(),
		Title:       nt.Title,
		Description: nt.Description,
		Priority:    priority,
		DueDate:     nt.DueDate,
		CreatedAt:   u.store.now().UTC(),
	}

	_, err := u.store.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, priority, due_date, completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		t.ID, u.userID, t.Title, t.Description, string(t.Priority),
		formatOptionalTime(t.DueDate), formatTime(t.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return &t, nil
}

// UpdateTask applies the non-nil fields of upd.
func (u *UserStore) UpdateTask(ctx context.Context, id string, upd model.TaskUpdate) (*model.Task, error) {
	t, err := u.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.DueDate != nil {
		t.DueDate = upd.DueDate
	}
	if upd.Completed != nil {
		t.Completed = *upd.Completed
	}

	_, err = u.store.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, priority = ?, due_date = ?, completed = ?
		 WHERE user_id = ? AND id = ?`,
		t.Title, string(t.Priority), formatOptionalTime(t.DueDate), t.Completed, u.userID, id)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

// DeleteTask removes a task.
func (u *UserStore) DeleteTask(ctx context.Context, id string) error {
	res, err := u.store.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE user_id = ? AND id = ?`, u.userID, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
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

func scanTask(row scanner) (model.Task, error) {
	var (
		t         model.Task
		priority  string
		dueDate   sql.NullString
		completed bool
		createdAt string
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &priority, &dueDate, &completed, &createdAt); err != nil {
		return t, err
	}

	t.Priority = model.ParsePriority(priority)
	t.Completed = completed
	if dueDate.Valid {
		due, err := parseTime(dueDate.String)
		if err != nil {
			return t, fmt.Errorf("parse due date: %w", err)
		}
		t.DueDate = &due
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return t, fmt.Errorf("parse created_at: %w", err)
	}
	t.CreatedAt = created
	return t, nil
}

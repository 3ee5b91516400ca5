package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"task-api/models"
)

// ErrTaskNotFound is returned by GetTask when no row matches the id.
var ErrTaskNotFound = errors.New("task not found")

const taskColumns = "id, title, description, status, created_at"

// ListTasks returns every task ordered by id.
func (db *DB) ListTasks(ctx context.Context) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY id ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves a task by its ID.
func (db *DB) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	query := db.rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)

	var t models.Task
	err := db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// CreateTask inserts a new task and returns the persisted row.
func (db *DB) CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	query := db.rebind(`
	INSERT INTO tasks (title, description, status, created_at)
	VALUES (?, ?, ?, ?)
	RETURNING id`)

	// PostgreSQL keeps microseconds; truncate so the returned task matches later reads.
	t := models.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	err := db.QueryRowContext(ctx, query, t.Title, t.Description, string(t.Status), t.CreatedAt).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &t, nil
}

// UpdateTask applies the supplied fields of patch to the task with the given ID.
// A missing row or an empty patch is not an error.
func (db *DB) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) error {
	if patch.Empty() {
		return nil
	}

	var sets []string
	var args []any
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	args = append(args, id)

	query := db.rebind(`UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// DeleteTask deletes a task by its ID. Deleting a missing task is not an error.
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	query := db.rebind(`DELETE FROM tasks WHERE id = ?`)
	if _, err := db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

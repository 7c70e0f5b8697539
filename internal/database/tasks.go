package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

const taskColumns = `id, user_id, title, description, priority, difficulty, estimated_duration_minutes,
	due_date, completed, scheduled_time, scheduled_day, started_at, active_since, completed_at,
	time_spent_seconds, goal_id, created_at, updated_at`

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertTask(ctx context.Context, q rowQuerier, task *models.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at
	`

	now := time.Now().UTC()
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	err := q.QueryRowContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Priority,
		task.Difficulty,
		task.EstimatedDurationMinutes,
		nullTime(task.DueDate),
		task.Completed,
		task.ScheduledTime,
		task.ScheduledDay,
		nullTime(task.StartedAt),
		nullTime(task.ActiveSince),
		nullTime(task.CompletedAt),
		task.TimeSpentSeconds,
		uuid.NullUUID{UUID: derefUUID(task.GoalID), Valid: task.GoalID != nil},
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	return translateError(err, "failed to create task")
}

// Create creates a new task
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	return insertTask(ctx, r.db, task)
}

// CreateBatch stores tasks atomically, as produced by schedule materialization.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []models.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range tasks {
		if err := insertTask(ctx, tx, &tasks[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tasks: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var dueDate, startedAt, activeSince, completedAt sql.NullTime
	var goalID uuid.NullUUID

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.Difficulty,
		&task.EstimatedDurationMinutes,
		&dueDate,
		&task.Completed,
		&task.ScheduledTime,
		&task.ScheduledDay,
		&startedAt,
		&activeSince,
		&completedAt,
		&task.TimeSpentSeconds,
		&goalID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.DueDate = timePtr(dueDate)
	task.StartedAt = timePtr(startedAt)
	task.ActiveSince = timePtr(activeSince)
	task.CompletedAt = timePtr(completedAt)
	if goalID.Valid {
		id := goalID.UUID
		task.GoalID = &id
	}
	return task, nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, translateError(err, "failed to get task")
	}
	return task, nil
}

// GetByUserID retrieves all tasks for a user in creation order
func (r *TaskRepository) GetByUserID(ctx context.Context, userID string) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// Update updates an existing task
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $3, description = $4, priority = $5, difficulty = $6, estimated_duration_minutes = $7,
			due_date = $8, completed = $9, scheduled_time = $10, scheduled_day = $11, started_at = $12,
			active_since = $13, completed_at = $14, time_spent_seconds = $15, goal_id = $16, updated_at = $17
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Priority,
		task.Difficulty,
		task.EstimatedDurationMinutes,
		nullTime(task.DueDate),
		task.Completed,
		task.ScheduledTime,
		task.ScheduledDay,
		nullTime(task.StartedAt),
		nullTime(task.ActiveSince),
		nullTime(task.CompletedAt),
		task.TimeSpentSeconds,
		uuid.NullUUID{UUID: derefUUID(task.GoalID), Valid: task.GoalID != nil},
		time.Now().UTC(),
	).Scan(&task.UpdatedAt)
	return translateError(err, "failed to update task")
}

// Delete deletes a task
func (r *TaskRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireAffected(result, "task")
}

func requireAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

// GoalRepository handles goal database operations
type GoalRepository struct {
	db *DB
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db *DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Create creates a new goal
func (r *GoalRepository) Create(ctx context.Context, goal *models.Goal) error {
	query := `
		INSERT INTO goals (id, user_id, title, description, status, priority, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	now := time.Now().UTC()
	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}
	goal.Normalize()

	err := r.db.QueryRowContext(ctx, query,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		goal.Status,
		goal.Priority,
		goal.Progress,
		now,
		now,
	).Scan(&goal.CreatedAt, &goal.UpdatedAt)
	return translateError(err, "failed to create goal")
}

func scanGoal(row rowScanner) (*models.Goal, error) {
	goal := &models.Goal{}
	err := row.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Title,
		&goal.Description,
		&goal.Status,
		&goal.Priority,
		&goal.Progress,
		&goal.CreatedAt,
		&goal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// GetByID retrieves a goal by ID
func (r *GoalRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Goal, error) {
	query := `
		SELECT id, user_id, title, description, status, priority, progress, created_at, updated_at
		FROM goals
		WHERE id = $1 AND user_id = $2
	`
	goal, err := scanGoal(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, translateError(err, "failed to get goal")
	}
	return goal, nil
}

// GetByUserID retrieves all goals for a user, newest first
func (r *GoalRepository) GetByUserID(ctx context.Context, userID string) ([]models.Goal, error) {
	query := `
		SELECT id, user_id, title, description, status, priority, progress, created_at, updated_at
		FROM goals
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	goals := []models.Goal{}
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}
	return goals, nil
}

// Update updates an existing goal
func (r *GoalRepository) Update(ctx context.Context, goal *models.Goal) error {
	query := `
		UPDATE goals
		SET title = $3, description = $4, status = $5, priority = $6, progress = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at
	`
	goal.Normalize()
	err := r.db.QueryRowContext(ctx, query,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		goal.Status,
		goal.Priority,
		goal.Progress,
		time.Now().UTC(),
	).Scan(&goal.CreatedAt, &goal.UpdatedAt)
	return translateError(err, "failed to update goal")
}

// Delete deletes a goal. Tasks referencing it keep their goal_id.
func (r *GoalRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return requireAffected(result, "goal")
}

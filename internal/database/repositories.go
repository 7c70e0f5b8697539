package database

import (
	"context"
	"fmt"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/mood"
	"github.com/google/uuid"
)

// TaskRepositoryInterface defines the interface for task repository operations.
// Every lookup is scoped to a user id.
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	CreateBatch(ctx context.Context, tasks []models.Task) error
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Task, error)
	GetByUserID(ctx context.Context, userID string) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// GoalRepositoryInterface defines the interface for goal repository operations
type GoalRepositoryInterface interface {
	Create(ctx context.Context, goal *models.Goal) error
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Goal, error)
	GetByUserID(ctx context.Context, userID string) ([]models.Goal, error)
	Update(ctx context.Context, goal *models.Goal) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// MoodRepositoryInterface defines the interface for mood entry operations.
// Entries are returned newest first.
type MoodRepositoryInterface interface {
	Create(ctx context.Context, entry *models.MoodEntry) error
	GetByUserID(ctx context.Context, userID string, limit int) ([]models.MoodEntry, error)
	Update(ctx context.Context, entry *models.MoodEntry) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// Repositories bundles the stores a handler or worker needs.
type Repositories struct {
	Tasks TaskRepositoryInterface
	Goals GoalRepositoryInterface
	Moods MoodRepositoryInterface
}

// NewPostgresRepositories creates repositories backed by db.
func NewPostgresRepositories(db *DB) *Repositories {
	return &Repositories{
		Tasks: NewTaskRepository(db),
		Goals: NewGoalRepository(db),
		Moods: NewMoodRepository(db),
	}
}

// NewMemoryRepositories creates process-local repositories.
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Tasks: NewMemoryTaskRepository(),
		Goals: NewMemoryGoalRepository(),
		Moods: NewMemoryMoodRepository(),
	}
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface = (*TaskRepository)(nil)
	_ GoalRepositoryInterface = (*GoalRepository)(nil)
	_ MoodRepositoryInterface = (*MoodRepository)(nil)
	_ TaskRepositoryInterface = (*MemoryTaskRepository)(nil)
	_ GoalRepositoryInterface = (*MemoryGoalRepository)(nil)
	_ MoodRepositoryInterface = (*MemoryMoodRepository)(nil)
)

// LoadScheduleContext returns a user's pending tasks in creation order and
// their most recent mood entries, newest first. The entry with id current,
// when given, is left out of the entries.
func (r *Repositories) LoadScheduleContext(ctx context.Context, userID string, current *uuid.UUID) ([]models.Task, []models.MoodEntry, error) {
	tasks, err := r.Tasks.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	entries, err := r.Moods.GetByUserID(ctx, userID, DefaultMoodHistoryLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load mood history: %w", err)
	}
	if current != nil {
		entries = mood.Excluding(entries, *current)
	}
	return models.PendingTasks(tasks), entries, nil
}

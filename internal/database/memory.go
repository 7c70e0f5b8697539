package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/mood"
	"github.com/google/uuid"
)

// MemoryTaskRepository keeps tasks in process memory. Records are copied on
// the way in and out, so callers never share state with the store.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]models.Task
	order []uuid.UUID
}

// NewMemoryTaskRepository creates an empty in-memory task store
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[uuid.UUID]models.Task)}
}

func stampNew(id *uuid.UUID, createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

func (r *MemoryTaskRepository) insertLocked(task *models.Task) error {
	if _, exists := r.tasks[task.ID]; exists {
		return fmt.Errorf("failed to create task: %w", ErrConflict)
	}
	r.tasks[task.ID] = *task
	r.order = append(r.order, task.ID)
	return nil
}

// Create creates a new task
func (r *MemoryTaskRepository) Create(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stampNew(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	return r.insertLocked(task)
}

// CreateBatch stores all tasks or none of them
func (r *MemoryTaskRepository) CreateBatch(_ context.Context, tasks []models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[uuid.UUID]bool, len(tasks))
	for i := range tasks {
		stampNew(&tasks[i].ID, &tasks[i].CreatedAt, &tasks[i].UpdatedAt)
		if _, exists := r.tasks[tasks[i].ID]; exists || seen[tasks[i].ID] {
			return fmt.Errorf("failed to create task: %w", ErrConflict)
		}
		seen[tasks[i].ID] = true
	}
	for i := range tasks {
		_ = r.insertLocked(&tasks[i])
	}
	return nil
}

// GetByID retrieves a task by ID
func (r *MemoryTaskRepository) GetByID(_ context.Context, userID string, id uuid.UUID) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok || task.UserID != userID {
		return nil, fmt.Errorf("failed to get task: %w", ErrNotFound)
	}
	return &task, nil
}

// GetByUserID retrieves all tasks for a user in creation order
func (r *MemoryTaskRepository) GetByUserID(_ context.Context, userID string) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tasks := []models.Task{}
	for _, id := range r.order {
		if task := r.tasks[id]; task.UserID == userID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// Update updates an existing task
func (r *MemoryTaskRepository) Update(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return fmt.Errorf("failed to update task: %w", ErrNotFound)
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = time.Now().UTC()
	r.tasks[task.ID] = *task
	return nil
}

// Delete deletes a task
func (r *MemoryTaskRepository) Delete(_ context.Context, userID string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.UserID != userID {
		return fmt.Errorf("task: %w", ErrNotFound)
	}
	delete(r.tasks, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// MemoryGoalRepository keeps goals in process memory
type MemoryGoalRepository struct {
	mu    sync.RWMutex
	goals map[uuid.UUID]models.Goal
}

// NewMemoryGoalRepository creates an empty in-memory goal store
func NewMemoryGoalRepository() *MemoryGoalRepository {
	return &MemoryGoalRepository{goals: make(map[uuid.UUID]models.Goal)}
}

// Create creates a new goal
func (r *MemoryGoalRepository) Create(_ context.Context, goal *models.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stampNew(&goal.ID, &goal.CreatedAt, &goal.UpdatedAt)
	goal.Normalize()
	if _, exists := r.goals[goal.ID]; exists {
		return fmt.Errorf("failed to create goal: %w", ErrConflict)
	}
	r.goals[goal.ID] = *goal
	return nil
}

// GetByID retrieves a goal by ID
func (r *MemoryGoalRepository) GetByID(_ context.Context, userID string, id uuid.UUID) (*models.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	goal, ok := r.goals[id]
	if !ok || goal.UserID != userID {
		return nil, fmt.Errorf("failed to get goal: %w", ErrNotFound)
	}
	return &goal, nil
}

// GetByUserID retrieves all goals for a user, newest first
func (r *MemoryGoalRepository) GetByUserID(_ context.Context, userID string) ([]models.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	goals := []models.Goal{}
	for _, goal := range r.goals {
		if goal.UserID == userID {
			goals = append(goals, goal)
		}
	}
	sort.SliceStable(goals, func(i, j int) bool {
		if goals[i].CreatedAt.Equal(goals[j].CreatedAt) {
			return goals[i].ID.String() < goals[j].ID.String()
		}
		return goals[i].CreatedAt.After(goals[j].CreatedAt)
	})
	return goals, nil
}

// Update updates an existing goal
func (r *MemoryGoalRepository) Update(_ context.Context, goal *models.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.goals[goal.ID]
	if !ok || existing.UserID != goal.UserID {
		return fmt.Errorf("failed to update goal: %w", ErrNotFound)
	}
	goal.Normalize()
	goal.CreatedAt = existing.CreatedAt
	goal.UpdatedAt = time.Now().UTC()
	r.goals[goal.ID] = *goal
	return nil
}

// Delete deletes a goal. Tasks referencing it are left alone.
func (r *MemoryGoalRepository) Delete(_ context.Context, userID string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	goal, ok := r.goals[id]
	if !ok || goal.UserID != userID {
		return fmt.Errorf("goal: %w", ErrNotFound)
	}
	delete(r.goals, id)
	return nil
}

// MemoryMoodRepository keeps mood entries in process memory
type MemoryMoodRepository struct {
	mu      sync.RWMutex
	entries []models.MoodEntry
}

// NewMemoryMoodRepository creates an empty in-memory mood store
func NewMemoryMoodRepository() *MemoryMoodRepository {
	return &MemoryMoodRepository{}
}

// Create stores a mood entry. The label is always derived from the score.
func (r *MemoryMoodRepository) Create(_ context.Context, entry *models.MoodEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.Label = mood.Label(entry.Score)
	for _, e := range r.entries {
		if e.ID == entry.ID {
			return fmt.Errorf("failed to create mood entry: %w", ErrConflict)
		}
	}
	r.entries = append(r.entries, *entry)
	return nil
}

// GetByUserID returns up to limit entries, newest first. Entries created at
// the same instant are returned most recently stored first.
func (r *MemoryMoodRepository) GetByUserID(_ context.Context, userID string, limit int) ([]models.MoodEntry, error) {
	if limit <= 0 {
		limit = DefaultMoodHistoryLimit
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := []models.MoodEntry{}
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].UserID == userID {
			entries = append(entries, r.entries[i])
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Update applies an explicit edit to a mood entry.
func (r *MemoryMoodRepository) Update(_ context.Context, entry *models.MoodEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.ID == entry.ID && e.UserID == entry.UserID {
			entry.Label = mood.Label(entry.Score)
			entry.CreatedAt = e.CreatedAt
			r.entries[i] = *entry
			return nil
		}
	}
	return fmt.Errorf("failed to update mood entry: %w", ErrNotFound)
}

// Delete deletes a mood entry
func (r *MemoryMoodRepository) Delete(_ context.Context, userID string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.ID == id && e.UserID == userID {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("mood entry: %w", ErrNotFound)
}

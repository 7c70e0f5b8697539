package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Priority represents how important a task is
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether p is one of the known priorities
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// OrDefault returns p, or medium when p is empty or unknown.
func (p Priority) OrDefault() Priority {
	if p.IsValid() {
		return p
	}
	return PriorityMedium
}

// Rank orders priorities low < medium < high. Unknown values rank as medium.
func (p Priority) Rank() int {
	switch p.OrDefault() {
	case PriorityLow:
		return 0
	case PriorityHigh:
		return 2
	default:
		return 1
	}
}

// Difficulty represents how hard a task is
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid reports whether d is one of the known difficulties
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// OrDefault returns d, or medium when d is empty or unknown.
func (d Difficulty) OrDefault() Difficulty {
	if d.IsValid() {
		return d
	}
	return DifficultyMedium
}

// Rank orders difficulties easy < medium < hard. Unknown values rank as medium.
func (d Difficulty) Rank() int {
	switch d.OrDefault() {
	case DifficultyEasy:
		return 0
	case DifficultyHard:
		return 2
	default:
		return 1
	}
}

var (
	// ErrTaskCompleted is returned when a lifecycle change is applied to a completed task
	ErrTaskCompleted = errors.New("task is already completed")
	// ErrTaskNotRunning is returned when pausing a task that was never started
	ErrTaskNotRunning = errors.New("task is not running")
)

// Task represents a unit of study work
type Task struct {
	ID                       uuid.UUID  `json:"id"`
	UserID                   string     `json:"user_id,omitempty"`
	Title                    string     `json:"title" validate:"required,max=500"`
	Description              string     `json:"description,omitempty"`
	Priority                 Priority   `json:"priority" validate:"omitempty,priority"`
	Difficulty               Difficulty `json:"difficulty" validate:"omitempty,difficulty"`
	EstimatedDurationMinutes int        `json:"estimated_duration_minutes" validate:"gte=0"`
	DueDate                  *time.Time `json:"due_date,omitempty"`
	Completed                bool       `json:"completed"`
	ScheduledTime            string     `json:"scheduled_time,omitempty"`
	ScheduledDay             int        `json:"scheduled_day,omitempty"`
	StartedAt                *time.Time `json:"started_at,omitempty"`
	ActiveSince              *time.Time `json:"active_since,omitempty"`
	CompletedAt              *time.Time `json:"completed_at,omitempty"`
	TimeSpentSeconds         int64      `json:"time_spent_seconds"`
	GoalID                   *uuid.UUID `json:"goal_id,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// Start marks the task as running. Starting a running task is a no-op.
func (t *Task) Start(now time.Time) error {
	if t.Completed {
		return ErrTaskCompleted
	}
	if t.ActiveSince != nil {
		return nil
	}
	if t.StartedAt == nil {
		started := now
		t.StartedAt = &started
	}
	active := now
	t.ActiveSince = &active
	t.UpdatedAt = now
	return nil
}

// Pause stops the running timer and adds the elapsed time to TimeSpentSeconds.
func (t *Task) Pause(now time.Time) error {
	if t.Completed {
		return ErrTaskCompleted
	}
	if t.ActiveSince == nil {
		return ErrTaskNotRunning
	}
	t.accumulate(now)
	t.UpdatedAt = now
	return nil
}

// Complete stops any running timer and marks the task completed.
// Completing an already completed task is a no-op.
func (t *Task) Complete(now time.Time) error {
	if t.Completed {
		return nil
	}
	if t.ActiveSince != nil {
		t.accumulate(now)
	}
	completed := now
	t.Completed = true
	t.CompletedAt = &completed
	t.UpdatedAt = now
	return nil
}

func (t *Task) accumulate(now time.Time) {
	elapsed := int64(now.Sub(*t.ActiveSince) / time.Second)
	if elapsed > 0 {
		t.TimeSpentSeconds += elapsed
	}
	t.ActiveSince = nil
}

// CheckInvariants verifies that a completed task carries its completion time
// and a non-negative time spent.
func (t *Task) CheckInvariants() error {
	if t.TimeSpentSeconds < 0 {
		return errors.New("time spent cannot be negative")
	}
	if t.Completed && t.CompletedAt == nil {
		return errors.New("completed task must have completed_at set")
	}
	return nil
}

// PendingTasks returns the tasks that are not completed, preserving order.
func PendingTasks(tasks []Task) []Task {
	pending := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			pending = append(pending, t)
		}
	}
	return pending
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// GoalStatus represents the status of a goal
type GoalStatus string

const (
	GoalStatusNotStarted GoalStatus = "not_started"
	GoalStatusInProgress GoalStatus = "in_progress"
	GoalStatusCompleted  GoalStatus = "completed"
)

// IsValid reports whether s is one of the known goal statuses
func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalStatusNotStarted, GoalStatusInProgress, GoalStatusCompleted:
		return true
	}
	return false
}

// Goal represents a longer-running objective. Tasks point at goals through
// Task.GoalID; deleting a goal leaves its tasks in place.
type Goal struct {
	ID          uuid.UUID  `json:"id"`
	UserID      string     `json:"user_id,omitempty"`
	Title       string     `json:"title" validate:"required,max=500"`
	Description string     `json:"description,omitempty"`
	Status      GoalStatus `json:"status" validate:"omitempty,goal_status"`
	Priority    Priority   `json:"priority" validate:"omitempty,priority"`
	Progress    int        `json:"progress" validate:"gte=0,lte=100"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Normalize fills in defaults for optional fields.
func (g *Goal) Normalize() {
	if !g.Status.IsValid() {
		g.Status = GoalStatusNotStarted
	}
	g.Priority = g.Priority.OrDefault()
	if g.Progress < 0 {
		g.Progress = 0
	}
	if g.Progress > 100 {
		g.Progress = 100
	}
}

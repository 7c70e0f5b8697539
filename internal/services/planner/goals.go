package planner

import (
	"context"
	"strings"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/google/uuid"
)

const (
	goalBreakdownTaskCount = 5
	// DefaultGoalQuote accompanies an empty breakdown.
	DefaultGoalQuote = "Success is the sum of small efforts repeated day in and day out."
)

// GoalTask is one step of a goal breakdown.
type GoalTask struct {
	Title         string          `json:"title" validate:"required"`
	Description   string          `json:"description"`
	EstimatedTime int             `json:"estimated_time" validate:"gt=0"`
	Priority      models.Priority `json:"priority" validate:"omitempty,priority"`
}

type goalBreakdownResponse struct {
	Tasks              []GoalTask `json:"tasks" validate:"required,min=1,dive"`
	MotivationalQuote  string     `json:"motivational_quote"`
	TotalEstimatedTime int        `json:"total_estimated_time"`
}

// GoalBreakdown is the result of BreakdownGoal. On failure Tasks is empty,
// TotalEstimatedTime is zero and MotivationalQuote holds a default.
type GoalBreakdown struct {
	Source             Source         `json:"source"`
	Tasks              []GoalTask     `json:"tasks"`
	MotivationalQuote  string         `json:"motivational_quote"`
	TotalEstimatedTime int            `json:"total_estimated_time"`
	FailureKind        ai.FailureKind `json:"failure_kind,omitempty"`
}

func validateGoalBreakdown(resp goalBreakdownResponse) error {
	if err := ai.ValidateStruct(resp); err != nil {
		return err
	}
	for _, task := range resp.Tasks {
		if strings.TrimSpace(task.Title) == "" {
			return &ai.ValidationError{Field: "tasks.title", Reason: "blank"}
		}
	}
	return nil
}

// BreakdownGoal asks for five actionable tasks toward goal. The total is
// recomputed from the accepted tasks rather than trusted.
func (s *Service) BreakdownGoal(ctx context.Context, goal string) *GoalBreakdown {
	req := ai.GenerateRequest{
		Operation:    opGoalBreakdown,
		SystemPrompt: "You are a study coach who turns goals into concrete tasks. Respond with JSON only.",
		Prompt:       buildGoalBreakdownPrompt(strings.TrimSpace(goal)),
		Schema:       goalBreakdownSchema,
	}

	resp, err := generate(ctx, s, req, validateGoalBreakdown)
	if err != nil {
		s.logFallback(opGoalBreakdown, err)
		return &GoalBreakdown{
			Source:            SourceFallback,
			Tasks:             []GoalTask{},
			MotivationalQuote: DefaultGoalQuote,
			FailureKind:       ai.KindOf(err),
		}
	}

	out := &GoalBreakdown{
		Source:            SourceAI,
		Tasks:             make([]GoalTask, len(resp.Tasks)),
		MotivationalQuote: strings.TrimSpace(resp.MotivationalQuote),
	}
	for i, task := range resp.Tasks {
		task.Title = strings.TrimSpace(task.Title)
		task.Priority = task.Priority.OrDefault()
		out.Tasks[i] = task
		out.TotalEstimatedTime += task.EstimatedTime
	}
	if out.MotivationalQuote == "" {
		out.MotivationalQuote = DefaultGoalQuote
	}
	return out
}

// MaterializeGoalTasks converts breakdown steps into pending tasks linked to goalID.
func (s *Service) MaterializeGoalTasks(steps []GoalTask, goalID *uuid.UUID) []models.Task {
	now := s.now().UTC()
	tasks := make([]models.Task, 0, len(steps))
	for _, step := range steps {
		tasks = append(tasks, models.Task{
			ID:                       s.newID(),
			Title:                    step.Title,
			Description:              step.Description,
			Priority:                 step.Priority.OrDefault(),
			Difficulty:               models.DifficultyMedium,
			EstimatedDurationMinutes: step.EstimatedTime,
			GoalID:                   goalID,
			CreatedAt:                now,
			UpdatedAt:                now,
		})
	}
	return tasks
}

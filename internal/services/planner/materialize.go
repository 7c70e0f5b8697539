package planner

import (
	"strings"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

// Materialize converts accepted schedule days into new, pending tasks. The
// tasks carry no user id; the caller assigns ownership before storing them.
func (s *Service) Materialize(days []models.ScheduleDay, goalID *uuid.UUID) []models.Task {
	now := s.now().UTC()
	tasks := []models.Task{}
	for _, day := range days {
		for _, item := range day.Items {
			tasks = append(tasks, models.Task{
				ID:                       s.newID(),
				Title:                    strings.TrimSpace(item.Activity),
				Description:              item.MoodAdjustment,
				Priority:                 item.Intensity.Priority(),
				Difficulty:               models.DifficultyMedium,
				EstimatedDurationMinutes: item.Duration,
				ScheduledTime:            strings.TrimSpace(item.Time),
				ScheduledDay:             day.Day,
				Completed:                false,
				GoalID:                   goalID,
				CreatedAt:                now,
				UpdatedAt:                now,
			})
		}
	}
	return tasks
}

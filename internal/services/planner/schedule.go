package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/mood"
	"github.com/benvon/study-planner/internal/prioritizer"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/google/uuid"
)

const (
	// FallbackScheduleStatus explains a prioritizer-only result to the user.
	FallbackScheduleStatus = "No AI schedule available. Showing your pending tasks in suggested order."
	// DefaultQuote accompanies every fallback result.
	DefaultQuote = "Every step forward counts. Keep going!"
)

// ScheduleInput is everything schedule synthesis needs about the user right now.
type ScheduleInput struct {
	MoodScore    int           `json:"mood_score"`
	EnergyLevel  int           `json:"energy_level"`
	Goals        []string      `json:"goals,omitempty"`
	GoalID       *uuid.UUID    `json:"goal_id,omitempty"`
	PendingTasks []models.Task `json:"-"`
	MoodHistory  []mood.Sample `json:"-"`
}

// ScheduleResponse is the shape a generated schedule must decode into.
type ScheduleResponse struct {
	Schedule          []models.ScheduleItem `json:"schedule" validate:"required,min=1,dive"`
	Recommendations   []string              `json:"recommendations"`
	MotivationalQuote string                `json:"motivational_quote"`
}

// ScheduleOutcome is always structurally valid. Exactly one of Days or the
// fallback ordering in Tasks describes the plan: Source says which.
type ScheduleOutcome struct {
	Source            Source               `json:"source"`
	Status            string               `json:"status,omitempty"`
	FailureKind       ai.FailureKind       `json:"failure_kind,omitempty"`
	Failure           error                `json:"-"`
	Trend             models.MoodTrend     `json:"trend"`
	Strategy          prioritizer.Strategy `json:"strategy"`
	Days              []models.ScheduleDay `json:"days"`
	Tasks             []models.Task        `json:"tasks"`
	Recommendations   []string             `json:"recommendations"`
	MotivationalQuote string               `json:"motivational_quote"`
}

// ValidateScheduleResponse decodes and checks a raw generation. It holds no
// state, so the same input always yields the same decision.
func ValidateScheduleResponse(raw string) (*ScheduleResponse, error) {
	resp, err := ai.ExtractJSON(opSchedule, raw, validateSchedule)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func validateSchedule(resp ScheduleResponse) error {
	if err := ai.ValidateStruct(resp); err != nil {
		return err
	}
	for i, item := range resp.Schedule {
		field := func(name string) string { return fmt.Sprintf("schedule[%d].%s", i, name) }
		if strings.TrimSpace(item.Time) == "" {
			return &ai.ValidationError{Field: field("time"), Reason: "blank"}
		}
		if strings.TrimSpace(item.Activity) == "" {
			return &ai.ValidationError{Field: field("activity"), Reason: "blank"}
		}
		if item.Duration > models.MaxDailyStudyMinutes {
			return &ai.ValidationError{
				Field:  field("duration"),
				Reason: fmt.Sprintf("%d minutes exceeds the daily cap of %d", item.Duration, models.MaxDailyStudyMinutes),
			}
		}
	}
	return nil
}

// BuildScheduleRequest assembles the generation request for in.
func BuildScheduleRequest(in ScheduleInput) ai.GenerateRequest {
	trend := mood.Trend(in.MoodHistory, in.MoodScore)
	ordered := prioritizer.Order(in.PendingTasks, in.MoodScore)
	return ai.GenerateRequest{
		Operation:    opSchedule,
		SystemPrompt: "You are a study planner that adapts schedules to the student's mood and energy. Respond with JSON only.",
		Prompt:       buildSchedulePrompt(in, trend, ordered),
		Schema:       scheduleSchema,
	}
}

// SynthesizeSchedule asks the generator for a schedule and enforces the
// daily cap, meditation and break rules on what comes back. Any failure
// yields the prioritizer ordering of the pending tasks instead.
func (s *Service) SynthesizeSchedule(ctx context.Context, in ScheduleInput) *ScheduleOutcome {
	outcome := &ScheduleOutcome{
		Trend:    mood.Trend(in.MoodHistory, in.MoodScore),
		Strategy: prioritizer.StrategyFor(in.MoodScore),
	}

	resp, err := generate(ctx, s, BuildScheduleRequest(in), validateSchedule)
	if err != nil {
		s.logFallback(opSchedule, err)
		outcome.Source = SourceFallback
		outcome.Status = FallbackScheduleStatus
		outcome.FailureKind = ai.KindOf(err)
		outcome.Failure = err
		outcome.Days = []models.ScheduleDay{}
		outcome.Tasks = prioritizer.Order(in.PendingTasks, in.MoodScore)
		outcome.Recommendations = []string{}
		outcome.MotivationalQuote = DefaultQuote
		return outcome
	}

	items := EnforceWellbeing(resp.Schedule)
	outcome.Source = SourceAI
	outcome.Days = SplitIntoDays(items)
	outcome.Tasks = s.Materialize(outcome.Days, in.GoalID)
	outcome.Recommendations = resp.Recommendations
	if outcome.Recommendations == nil {
		outcome.Recommendations = []string{}
	}
	outcome.MotivationalQuote = strings.TrimSpace(resp.MotivationalQuote)
	if outcome.MotivationalQuote == "" {
		outcome.MotivationalQuote = DefaultQuote
	}
	if len(outcome.Days) > 1 {
		outcome.Status = fmt.Sprintf("Schedule split over %d days to keep each day under %d minutes.",
			len(outcome.Days), models.MaxDailyStudyMinutes)
	}
	return outcome
}

package planner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/mood"
	"github.com/benvon/study-planner/internal/prioritizer"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func staticGenerator(raw string, err error) ai.Generator {
	return ai.GeneratorFunc(func(ctx context.Context, req ai.GenerateRequest) (string, error) {
		return raw, err
	})
}

func newTestService(gen ai.Generator) *Service {
	n := 0
	return NewService(gen, nil,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() uuid.UUID {
			n++
			return uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(n)})
		}),
	)
}

func pendingFixture() []models.Task {
	return []models.Task{
		{Title: "Essay draft", Priority: models.PriorityHigh, Difficulty: models.DifficultyHard},
		{Title: "Vocab review", Priority: models.PriorityLow, Difficulty: models.DifficultyEasy},
		{Title: "Done already", Priority: models.PriorityHigh, Completed: true},
		{Title: "Lab notes"},
	}
}

const validSchedule = `{
  "schedule": [
    {"time": "9:00 AM", "activity": "Mindfulness meditation", "duration": 10, "intensity": "low", "mood_adjustment": "Breathe"},
    {"time": "9:10 AM", "activity": "Essay draft", "duration": 50, "intensity": "high", "mood_adjustment": "Start strong"},
    {"time": "10:00 AM", "activity": "Short break", "duration": 5, "intensity": "low", "mood_adjustment": "Stretch"},
    {"time": "10:05 AM", "activity": "Vocab review", "duration": 30, "intensity": "medium", "mood_adjustment": "Keep it light"}
  ],
  "recommendations": ["Drink water"],
  "motivational_quote": "Keep going."
}`

func TestValidateScheduleResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{name: "well formed", raw: validSchedule},
		{name: "fenced", raw: "```json\n" + validSchedule + "\n```"},
		{name: "empty schedule", raw: `{"schedule": [], "recommendations": [], "motivational_quote": "x"}`, wantField: "ScheduleResponse.Schedule"},
		{name: "missing schedule", raw: `{"recommendations": []}`, wantField: "ScheduleResponse.Schedule"},
		{name: "missing duration", raw: `{"schedule": [{"time": "9:00 AM", "activity": "Read", "intensity": "low"}]}`, wantField: "ScheduleResponse.Schedule[0].Duration"},
		{name: "fractional duration", raw: `{"schedule": [{"time": "9:00 AM", "activity": "Read", "duration": 12.5, "intensity": "low"}]}`},
		{name: "string duration", raw: `{"schedule": [{"time": "9:00 AM", "activity": "Read", "duration": "30", "intensity": "low"}]}`},
		{name: "negative duration", raw: `{"schedule": [{"time": "9:00 AM", "activity": "Read", "duration": -5, "intensity": "low"}]}`, wantField: "ScheduleResponse.Schedule[0].Duration"},
		{name: "unknown intensity", raw: `{"schedule": [{"time": "9:00 AM", "activity": "Read", "duration": 30, "intensity": "extreme"}]}`, wantField: "ScheduleResponse.Schedule[0].Intensity"},
		{name: "missing time", raw: `{"schedule": [{"activity": "Read", "duration": 30, "intensity": "low"}]}`, wantField: "ScheduleResponse.Schedule[0].Time"},
		{name: "blank activity", raw: `{"schedule": [{"time": "9:00 AM", "activity": "   ", "duration": 30, "intensity": "low"}]}`, wantField: "schedule[0].activity"},
		{name: "over daily cap", raw: `{"schedule": [{"time": "9:00 AM", "activity": "Cram", "duration": 400, "intensity": "high"}]}`, wantField: "schedule[0].duration"},
		{name: "not json", raw: "I could not make a schedule today."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := ValidateScheduleResponse(tt.raw)
			if tt.name == "well formed" || tt.name == "fenced" {
				require.NoError(t, err)
				assert.Len(t, resp.Schedule, 4)
				return
			}

			require.Error(t, err)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, ai.ErrInvalidOutput)
			if tt.wantField != "" {
				var ve *ai.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantField, ve.Field)
			}
		})
	}
}

func TestValidateScheduleResponse_Idempotent(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{validSchedule, `{"schedule": []}`} {
		first, err1 := ValidateScheduleResponse(raw)
		second, err2 := ValidateScheduleResponse(raw)
		assert.Equal(t, err1 == nil, err2 == nil)
		assert.Equal(t, first, second)
	}
}

func TestSynthesizeSchedule_Accepted(t *testing.T) {
	t.Parallel()

	var captured ai.GenerateRequest
	gen := ai.GeneratorFunc(func(ctx context.Context, req ai.GenerateRequest) (string, error) {
		captured = req
		return validSchedule, nil
	})
	svc := newTestService(gen)
	goalID := uuid.New()

	out := svc.SynthesizeSchedule(context.Background(), ScheduleInput{
		MoodScore:    8,
		EnergyLevel:  6,
		Goals:        []string{"Finish essay"},
		GoalID:       &goalID,
		PendingTasks: pendingFixture(),
		MoodHistory:  []mood.Sample{{Score: 5}, {Score: 5}, {Score: 5}},
	})

	require.Equal(t, SourceAI, out.Source)
	assert.Equal(t, ai.FailureNone, out.FailureKind)
	assert.Equal(t, models.MoodTrendImproving, out.Trend)
	assert.Equal(t, prioritizer.StrategyImportantFirst, out.Strategy)
	assert.Equal(t, "Keep going.", out.MotivationalQuote)
	assert.Equal(t, []string{"Drink water"}, out.Recommendations)
	require.Len(t, out.Days, 1)

	require.Len(t, out.Tasks, 4)
	essay := out.Tasks[1]
	assert.Equal(t, "Essay draft", essay.Title)
	assert.Equal(t, "9:10 AM", essay.ScheduledTime)
	assert.Equal(t, 50, essay.EstimatedDurationMinutes)
	assert.Equal(t, models.PriorityHigh, essay.Priority)
	assert.False(t, essay.Completed)
	assert.Equal(t, 1, essay.ScheduledDay)
	assert.Equal(t, &goalID, essay.GoalID)
	assert.Equal(t, fixedNow, essay.CreatedAt)
	assert.Equal(t, models.PriorityMedium, out.Tasks[3].Priority)

	assert.Equal(t, opSchedule, captured.Operation)
	assert.Equal(t, scheduleSchema.Name, captured.Schema.Name)
	assert.Contains(t, captured.Prompt, "Finish essay")
	assert.Contains(t, captured.Prompt, "Essay draft")
	assert.NotContains(t, captured.Prompt, "Done already")
}

func TestSynthesizeSchedule_FallbackGuarantee(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		err      error
		wantKind ai.FailureKind
	}{
		{name: "empty array", raw: `{"schedule": [], "recommendations": [], "motivational_quote": ""}`, wantKind: ai.FailureValidation},
		{name: "missing duration", raw: `{"schedule": [{"time": "9:00 AM", "activity": "Read", "intensity": "low"}]}`, wantKind: ai.FailureValidation},
		{name: "bad intensity", raw: `{"schedule": [{"time": "9:00 AM", "activity": "Read", "duration": 30, "intensity": "max"}]}`, wantKind: ai.FailureValidation},
		{name: "one bad item among good ones", raw: `{"schedule": [
			{"time": "9:00 AM", "activity": "Read", "duration": 30, "intensity": "low"},
			{"time": "", "activity": "Write", "duration": 30, "intensity": "low"}]}`, wantKind: ai.FailureValidation},
		{name: "provider error", err: errors.New("boom"), wantKind: ai.FailureUnknown},
		{name: "deadline", err: context.DeadlineExceeded, wantKind: ai.FailureTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestService(staticGenerator(tt.raw, tt.err))
			tasks := pendingFixture()
			out := svc.SynthesizeSchedule(context.Background(), ScheduleInput{MoodScore: 3, PendingTasks: tasks})

			assert.Equal(t, SourceFallback, out.Source)
			assert.Equal(t, FallbackScheduleStatus, out.Status)
			assert.Equal(t, tt.wantKind, out.FailureKind)
			assert.Error(t, out.Failure)
			assert.Empty(t, out.Days)
			assert.NotNil(t, out.Days)
			assert.Equal(t, DefaultQuote, out.MotivationalQuote)
			assert.Equal(t, prioritizer.Order(tasks, 3), out.Tasks)
			assert.Equal(t, "Vocab review", out.Tasks[0].Title)
		})
	}
}

func TestSynthesizeSchedule_NoGenerator(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil)
	out := svc.SynthesizeSchedule(context.Background(), ScheduleInput{MoodScore: 9, PendingTasks: pendingFixture()})

	assert.False(t, svc.HasGenerator())
	assert.Equal(t, SourceFallback, out.Source)
	assert.Equal(t, ai.FailureUnavailable, out.FailureKind)
	assert.ErrorIs(t, out.Failure, ai.ErrNoGenerator)
	require.Len(t, out.Tasks, 3)
	assert.Equal(t, "Essay draft", out.Tasks[0].Title)
}

func TestSynthesizeSchedule_SplitsLongPlans(t *testing.T) {
	t.Parallel()

	raw := `{
	  "schedule": [
	    {"time": "8:00 AM", "activity": "Breathing meditation", "duration": 10, "intensity": "low", "mood_adjustment": ""},
	    {"time": "8:10 AM", "activity": "Calculus", "duration": 180, "intensity": "high", "mood_adjustment": ""},
	    {"time": "11:10 AM", "activity": "Physics", "duration": 170, "intensity": "high", "mood_adjustment": ""},
	    {"time": "2:00 PM", "activity": "Chemistry", "duration": 120, "intensity": "medium", "mood_adjustment": ""}
	  ],
	  "recommendations": [],
	  "motivational_quote": "One day at a time."
	}`
	svc := newTestService(staticGenerator(raw, nil))
	out := svc.SynthesizeSchedule(context.Background(), ScheduleInput{MoodScore: 6})

	require.Equal(t, SourceAI, out.Source)
	require.Len(t, out.Days, 2)
	for _, day := range out.Days {
		assert.LessOrEqual(t, day.TotalMinutes, models.MaxDailyStudyMinutes)
	}
	assert.Contains(t, out.Status, "2 days")

	var days []int
	for _, task := range out.Tasks {
		days = append(days, task.ScheduledDay)
	}
	assert.Equal(t, []int{1, 1, 1, 2, 2, 2}, days)
	assert.Equal(t, "Short break", out.Tasks[2].Title)
	assert.Equal(t, "11:10 AM", out.Tasks[2].ScheduledTime)
	assert.Equal(t, models.PriorityLow, out.Tasks[2].Priority)
	assert.Equal(t, "Physics", out.Tasks[3].Title)
	assert.Equal(t, "Short break", out.Tasks[4].Title)
	assert.Equal(t, "2:00 PM", out.Tasks[4].ScheduledTime)
	assert.Equal(t, "Chemistry", out.Tasks[5].Title)
}

func TestBuildScheduleRequest(t *testing.T) {
	t.Parallel()

	req := BuildScheduleRequest(ScheduleInput{MoodScore: 4, EnergyLevel: 2, PendingTasks: pendingFixture()})

	assert.Equal(t, opSchedule, req.Operation)
	assert.Contains(t, req.Prompt, "Current mood: 4/10 (bad")
	assert.Contains(t, req.Prompt, "360 minutes")
	assert.Contains(t, req.Prompt, "meditation")
	assert.Less(t, strings.Index(req.Prompt, "Vocab review"), strings.Index(req.Prompt, "Essay draft"))
}

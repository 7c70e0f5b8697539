package handlers

import (
	"net/http"
	"testing"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/prioritizer"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_GeneratedScheduleStoresTasks(t *testing.T) {
	t.Parallel()

	h := newHarness(t, scriptedGenerator(map[string]string{"generate_schedule": scheduleJSON}), nil)

	w := h.do(http.MethodPost, "/api/v1/schedule", map[string]any{"mood_score": 8, "energy_level": 7, "goals": []string{"Finish essay"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	outcome := decodeData[planner.ScheduleOutcome](t, w)

	assert.Equal(t, planner.SourceAI, outcome.Source)
	assert.Equal(t, prioritizer.StrategyImportantFirst, outcome.Strategy)
	require.Len(t, outcome.Days, 1)
	require.Len(t, outcome.Tasks, 4)
	assert.Equal(t, "Keep going.", outcome.MotivationalQuote)

	w = h.do(http.MethodGet, "/api/v1/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stored := decodeData[[]TaskView](t, w)
	assert.Len(t, stored, 4)
	for _, task := range stored {
		assert.Equal(t, "alice", task.UserID)
		assert.NotEmpty(t, task.ScheduledTime)
	}
}

func TestSchedule_FallbackStoresNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, scriptedGenerator(nil), nil)
	for _, title := range []string{"Essay", "Vocab"} {
		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/v1/tasks", map[string]any{"title": title}).Code)
	}

	w := h.do(http.MethodPost, "/api/v1/schedule", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	outcome := decodeData[planner.ScheduleOutcome](t, w)

	assert.Equal(t, planner.SourceFallback, outcome.Source)
	assert.Equal(t, planner.FallbackScheduleStatus, outcome.Status)
	assert.Empty(t, outcome.Days)
	assert.Len(t, outcome.Tasks, 2, "pending tasks in priority order")
	assert.Equal(t, prioritizer.StrategyBalanced, outcome.Strategy, "default mood")

	w = h.do(http.MethodGet, "/api/v1/tasks", nil)
	assert.Len(t, decodeData[[]TaskView](t, w), 2)
}

func TestSchedule_Validation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "mood too high", body: map[string]any{"mood_score": 11}},
		{name: "energy too low", body: map[string]any{"energy_level": -1}},
		{name: "bad goal id", body: map[string]any{"goal_id": "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(http.MethodPost, "/api/v1/schedule", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestSchedule_Jobs(t *testing.T) {
	t.Parallel()

	q := &recordingQueue{}
	h := newHarness(t, nil, q)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/v1/mood", map[string]any{"score": 2}).Code)

	w := h.do(http.MethodPost, "/api/v1/schedule/jobs", map[string]any{"goals": []string{"  Revise calculus  ", " "}})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	accepted := decodeData[JobAccepted](t, w)
	assert.Equal(t, queue.JobTypeSynthesizeSchedule, accepted.JobType)

	jobs := q.jobs()
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].Schedule)
	assert.Equal(t, accepted.JobID, jobs[0].ID)
	assert.Equal(t, 2, jobs[0].Schedule.MoodScore, "defaults to the latest logged mood")
	assert.Equal(t, defaultEnergyLevel, jobs[0].Schedule.EnergyLevel)
	assert.Equal(t, []string{"Revise calculus"}, jobs[0].Schedule.Goals)
	require.NotNil(t, jobs[0].Schedule.MoodEntryID, "records the entry the mood came from")

	offline := newHarness(t, nil, nil)
	w = offline.do(http.MethodPost, "/api/v1/schedule/jobs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSchedule_TrendMatchesMoodTrend(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	for _, score := range []int{1, 5, 5, 6} {
		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/v1/mood", map[string]any{"score": score}).Code)
	}

	w := h.do(http.MethodGet, "/api/v1/mood/trend", nil)
	require.Equal(t, http.StatusOK, w.Code)
	trend := decodeData[TrendResponse](t, w)
	require.Equal(t, 6, trend.CurrentScore)
	require.Equal(t, models.MoodTrendImproving, trend.Trend)

	w = h.do(http.MethodPost, "/api/v1/schedule", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	outcome := decodeData[planner.ScheduleOutcome](t, w)
	assert.Equal(t, trend.Trend, outcome.Trend, "the latest entry is the current score, not history")

	// An explicit score is a new reading, so every logged entry is history.
	w = h.do(http.MethodPost, "/api/v1/schedule", map[string]any{"mood_score": 6})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.MoodTrendStable, decodeData[planner.ScheduleOutcome](t, w).Trend)
}

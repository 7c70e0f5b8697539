package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/credentials"
	"github.com/benvon/study-planner/internal/intent"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/prioritizer"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

const studentFixture = `
energy_level: 6
goals: [Finish essay]
tasks:
  - title: Essay
    priority: high
    difficulty: hard
    estimated_duration_minutes: 50
  - title: Vocab
    priority: low
    difficulty: easy
    estimated_duration_minutes: 20
  - title: Old quiz
    completed: true
moods:
  - score: 4
    at: 2026-10-13T09:00:00Z
  - score: 4
    at: 2026-10-13T12:00:00Z
  - score: 4
    at: 2026-10-13T18:00:00Z
  - score: 9
    at: 2026-10-14T08:00:00Z
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testOptions(gen ai.Generator) *options {
	return &options{
		lookupKey: func() (string, error) { return "", credentials.ErrNotFound },
		newGenerator: func(*options, *zap.Logger) (ai.Generator, error) {
			if gen == nil {
				return nil, config.ErrNoAPIKey
			}
			return gen, nil
		},
		now: func() time.Time { return fixedNow },
	}
}

func run(t *testing.T, opts *options, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestClassify(t *testing.T) {
	out, err := run(t, testOptions(nil), "classify", "-o", "json", "I", "feel", "exhausted")
	require.NoError(t, err)

	var res classifyResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, intent.IntentMood, res.Intent)
	assert.Equal(t, intent.MoodTired, res.Mood)
	assert.Equal(t, intent.EnergyLow, res.Energy)
	assert.Equal(t, 4, res.MoodScore)

	out, err = run(t, testOptions(nil), "classify", "-o", "table", "plan my day")
	require.NoError(t, err)
	assert.Contains(t, out, "INTENT")
	assert.Contains(t, out, string(intent.IntentPlanner))

	_, err = run(t, testOptions(nil), "classify")
	assert.Error(t, err)
}

func TestPrioritize(t *testing.T) {
	path := writeFixture(t, studentFixture)

	out, err := run(t, testOptions(nil), "prioritize", "-o", "json", "-f", path, "--mood", "3")
	require.NoError(t, err)
	var low prioritizeResult
	require.NoError(t, json.Unmarshal([]byte(out), &low))
	assert.Equal(t, prioritizer.StrategyEasiestFirst, low.Strategy)
	require.Len(t, low.Tasks, 2, "completed tasks are dropped")
	assert.Equal(t, "Vocab", low.Tasks[0].Title)

	out, err = run(t, testOptions(nil), "prioritize", "-o", "json", "-f", path)
	require.NoError(t, err)
	var latest prioritizeResult
	require.NoError(t, json.Unmarshal([]byte(out), &latest))
	assert.Equal(t, 9, latest.MoodScore, "latest fixture mood")
	assert.Equal(t, "Essay", latest.Tasks[0].Title)

	_, err = run(t, testOptions(nil), "prioritize", "-f", path, "--mood", "12")
	assert.Error(t, err)

	_, err = run(t, testOptions(nil), "prioritize", "-f", writeFixture(t, "tasks:\n  - title: A\n"))
	assert.ErrorIs(t, err, errNoMood)
}

func TestTrend(t *testing.T) {
	path := writeFixture(t, studentFixture)

	out, err := run(t, testOptions(nil), "trend", "-o", "json", "-f", path)
	require.NoError(t, err)
	var res trendResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 9, res.CurrentScore)
	assert.Equal(t, models.MoodTrendImproving, res.Trend)
	assert.Equal(t, models.MoodLabelExcellent, res.Label)
	assert.Equal(t, 5, res.WeeklyAverage)
	assert.Equal(t, 4, res.Entries)

	out, err = run(t, testOptions(nil), "trend", "-o", "json", "-f", path, "--current", "1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, models.MoodTrendDeclining, res.Trend)
}

func TestFixtureValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad priority", content: "tasks:\n  - title: A\n    priority: urgent\n"},
		{name: "bad difficulty", content: "tasks:\n  - title: A\n    difficulty: brutal\n"},
		{name: "missing title", content: "tasks:\n  - priority: high\n"},
		{name: "mood out of range", content: "moods:\n  - score: 0\n"},
		{name: "not yaml", content: "tasks: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFixture(writeFixture(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := loadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSchedule(t *testing.T) {
	path := writeFixture(t, studentFixture)
	raw := `{"schedule": [
	  {"time": "9:00 AM", "activity": "Essay draft", "duration": 50, "intensity": "high", "mood_adjustment": "Ride the energy"},
	  {"time": "9:50 AM", "activity": "Vocab review", "duration": 20, "intensity": "medium", "mood_adjustment": "Keep it light"}
	], "recommendations": ["Hydrate"], "motivational_quote": "Onward."}`

	var prompt string
	gen := ai.GeneratorFunc(func(_ context.Context, req ai.GenerateRequest) (string, error) {
		prompt = req.Prompt
		return raw, nil
	})
	out, err := run(t, testOptions(gen), "schedule", "-o", "json", "-f", path, "-g", "Prepare slides")
	require.NoError(t, err)

	var outcome planner.ScheduleOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.Equal(t, planner.SourceAI, outcome.Source)
	assert.Equal(t, models.MoodTrendImproving, outcome.Trend, "latest mood is compared against the earlier ones")
	require.Len(t, outcome.Days, 1)
	// meditation prepended, break inserted between the two study blocks
	assert.Len(t, outcome.Days[0].Items, 4)
	assert.Contains(t, prompt, "Finish essay")
	assert.Contains(t, prompt, "Prepare slides")

	out, err = run(t, testOptions(nil), "schedule", "-o", "json", "-f", path)
	require.NoError(t, err, "a missing key falls back")
	var fallback planner.ScheduleOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &fallback))
	assert.Equal(t, planner.SourceFallback, fallback.Source)
	assert.Len(t, fallback.Tasks, 2)

	_, err = run(t, testOptions(nil), "schedule", "-f", path, "--energy", "11")
	assert.Error(t, err)
}

func TestBreakdown(t *testing.T) {
	raw := `{"tasks": [{"title": "Outline", "estimated_time": 30, "priority": "high"}], "motivational_quote": "Go.", "total_estimated_time": 30}`
	gen := ai.GeneratorFunc(func(context.Context, ai.GenerateRequest) (string, error) { return raw, nil })

	out, err := run(t, testOptions(gen), "breakdown", "-o", "table", "Write", "thesis")
	require.NoError(t, err)
	assert.Contains(t, out, "Outline")
	assert.Contains(t, out, "total minutes:")

	out, err = run(t, testOptions(nil), "breakdown", "-o", "json", "Write thesis")
	require.NoError(t, err)
	var breakdown planner.GoalBreakdown
	require.NoError(t, json.Unmarshal([]byte(out), &breakdown))
	assert.Equal(t, planner.SourceFallback, breakdown.Source)
	assert.Empty(t, breakdown.Tasks)
}

func TestKeyCommands(t *testing.T) {
	gokeyring.MockInit()

	cmd := newRootCmd(testOptions(nil))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("sk-from-stdin\n"))
	cmd.SetArgs([]string{"key", "set"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "stored")

	key, err := credentials.GetAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-stdin", key)

	out.Reset()
	cmd.SetArgs([]string{"key", "delete"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "removed")

	out.Reset()
	cmd.SetArgs([]string{"key", "delete"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No API key stored")
}

func TestKeyTest(t *testing.T) {
	ok := ai.GeneratorFunc(func(context.Context, ai.GenerateRequest) (string, error) { return `{"hello": true}`, nil })
	out, err := run(t, testOptions(ok), "key", "test", "--provider", "openai")
	require.NoError(t, err)
	assert.Contains(t, out, "accepted by openai")

	_, err = run(t, testOptions(nil), "key", "test")
	assert.ErrorIs(t, err, config.ErrNoAPIKey)

	denied := ai.GeneratorFunc(func(context.Context, ai.GenerateRequest) (string, error) {
		return "", &ai.ProviderError{Operation: "check_api_key", Kind: ai.FailureAuth, Err: errors.New("401")}
	})
	_, err = run(t, testOptions(denied), "key", "test")
	require.Error(t, err)
	assert.Equal(t, ai.FailureAuth, ai.KindOf(err))
}

func TestAPIKeyResolution(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	opts := testOptions(nil)
	opts.lookupKey = func() (string, error) { return "sk-keyring", nil }
	assert.Equal(t, "sk-keyring", opts.providerConfig()["api_key"])

	t.Setenv("OPENAI_API_KEY", "sk-env")
	assert.Equal(t, "sk-env", opts.apiKey())

	t.Setenv("OPENAI_API_KEY", "")
	opts.lookupKey = func() (string, error) { return "", credentials.ErrNotFound }
	_, err := defaultGenerator(opts, zap.NewNop())
	assert.ErrorIs(t, err, config.ErrNoAPIKey)
}

func TestOutputFormat(t *testing.T) {
	_, err := newPrinter(&bytes.Buffer{}, "xml")
	assert.Error(t, err)

	p, err := newPrinter(&bytes.Buffer{}, outputAuto)
	require.NoError(t, err)
	assert.True(t, p.json, "non-terminal writers get JSON")
}

package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/mood"
	"github.com/benvon/study-planner/internal/validation"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// fixture is the YAML description of a student's state:
//
//	mood_score: 4
//	energy_level: 6
//	goals: [Finish essay]
//	tasks:
//	  - title: Essay draft
//	    priority: high
//	    difficulty: hard
//	    estimated_duration_minutes: 50
//	moods:
//	  - score: 6
//	    at: 2026-10-12T09:00:00Z
type fixture struct {
	MoodScore   int           `yaml:"mood_score"`
	EnergyLevel int           `yaml:"energy_level"`
	Goals       []string      `yaml:"goals"`
	Tasks       []fixtureTask `yaml:"tasks"`
	Moods       []fixtureMood `yaml:"moods"`
}

type fixtureTask struct {
	Title                    string `yaml:"title"`
	Description              string `yaml:"description"`
	Priority                 string `yaml:"priority"`
	Difficulty               string `yaml:"difficulty"`
	EstimatedDurationMinutes int    `yaml:"estimated_duration_minutes"`
	ScheduledTime            string `yaml:"scheduled_time"`
	Completed                bool   `yaml:"completed"`
}

type fixtureMood struct {
	Score int       `yaml:"score"`
	At    time.Time `yaml:"at"`
}

func loadFixture(path string) (*fixture, error) {
	if path == "" {
		return &fixture{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("invalid fixture %s: %w", path, err)
	}
	return &f, nil
}

func (f *fixture) validate() error {
	if f.MoodScore != 0 && (f.MoodScore < models.MinMoodScore || f.MoodScore > models.MaxMoodScore) {
		return fmt.Errorf("mood_score %d is outside %d..%d", f.MoodScore, models.MinMoodScore, models.MaxMoodScore)
	}
	for i, t := range f.Tasks {
		if t.Priority != "" {
			if err := validation.ValidatePriority(t.Priority); err != nil {
				return fmt.Errorf("tasks[%d]: %w", i, err)
			}
		}
		if t.Difficulty != "" {
			if err := validation.ValidateDifficulty(t.Difficulty); err != nil {
				return fmt.Errorf("tasks[%d]: %w", i, err)
			}
		}
	}
	for i, t := range f.tasks() {
		if err := validation.Struct(t); err != nil {
			return fmt.Errorf("tasks[%d]: %w", i, err)
		}
	}
	for i, m := range f.Moods {
		if m.Score < models.MinMoodScore || m.Score > models.MaxMoodScore {
			return fmt.Errorf("moods[%d]: score %d is outside %d..%d", i, m.Score, models.MinMoodScore, models.MaxMoodScore)
		}
	}
	return nil
}

func (f *fixture) tasks() []models.Task {
	tasks := make([]models.Task, 0, len(f.Tasks))
	for _, t := range f.Tasks {
		tasks = append(tasks, models.Task{
			ID:                       uuid.New(),
			Title:                    t.Title,
			Description:              t.Description,
			Priority:                 models.Priority(t.Priority).OrDefault(),
			Difficulty:               models.Difficulty(t.Difficulty).OrDefault(),
			EstimatedDurationMinutes: t.EstimatedDurationMinutes,
			ScheduledTime:            t.ScheduledTime,
			Completed:                t.Completed,
		})
	}
	return tasks
}

// entries returns the moods newest first, the order a repository lists them
// in. Entries without a timestamp are spaced an hour apart in file order, the
// last one an hour before now.
func (f *fixture) entries(now time.Time) []models.MoodEntry {
	out := make([]models.MoodEntry, len(f.Moods))
	for i, m := range f.Moods {
		at := m.At
		if at.IsZero() {
			at = now.Add(-time.Duration(len(f.Moods)-i) * time.Hour)
		}
		out[len(f.Moods)-1-i] = models.MoodEntry{ID: uuid.New(), Score: m.Score, CreatedAt: at}
	}
	return out
}

func (f *fixture) history(now time.Time) []mood.Sample {
	return mood.SamplesFromEntries(f.entries(now))
}

var errNoMood = errors.New("no mood: pass --mood or set mood_score or moods in the fixture")

// moodScore picks the flag value, then mood_score, then the latest mood entry.
// The history it returns leaves out the entry the score was taken from.
func (f *fixture) moodScore(flagValue int, now time.Time) (int, []mood.Sample, error) {
	entries := f.entries(now)
	score := flagValue
	if score == 0 {
		score = f.MoodScore
	}
	if score == 0 {
		if latest, ok := mood.Current(entries); ok {
			score = latest.Score
			entries = mood.Excluding(entries, latest.ID)
		}
	}
	if score == 0 {
		return 0, nil, errNoMood
	}
	if score < models.MinMoodScore || score > models.MaxMoodScore {
		return 0, nil, fmt.Errorf("mood %d is outside %d..%d", score, models.MinMoodScore, models.MaxMoodScore)
	}
	return score, mood.SamplesFromEntries(entries), nil
}

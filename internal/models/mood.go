package models

import (
	"time"

	"github.com/google/uuid"
)

// MoodLabel is the display band for a mood score
type MoodLabel string

const (
	MoodLabelExcellent MoodLabel = "excellent"
	MoodLabelGood      MoodLabel = "good"
	MoodLabelNeutral   MoodLabel = "neutral"
	MoodLabelBad       MoodLabel = "bad"
	MoodLabelTerrible  MoodLabel = "terrible"
)

// MoodTrend classifies the recent trajectory of mood scores
type MoodTrend string

const (
	MoodTrendImproving MoodTrend = "improving"
	MoodTrendStable    MoodTrend = "stable"
	MoodTrendDeclining MoodTrend = "declining"
)

const (
	MinMoodScore = 1
	MaxMoodScore = 10
)

// MoodEntry is a single mood log. Entries are immutable once created except
// for explicit edits.
type MoodEntry struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Score       int       `json:"score" validate:"mood_score"`
	Label       MoodLabel `json:"label"`
	EnergyLevel int       `json:"energy_level,omitempty" validate:"omitempty,gte=1,lte=10"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClampMoodScore forces score into the 1..10 range.
func ClampMoodScore(score int) int {
	if score < MinMoodScore {
		return MinMoodScore
	}
	if score > MaxMoodScore {
		return MaxMoodScore
	}
	return score
}

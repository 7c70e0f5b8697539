// Package mood derives labels, trends and averages from mood scores.
package mood

import (
	"math"
	"sort"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

// trendWindow is the number of most recent samples compared against the current score.
const trendWindow = 3

// Sample is a scored point in a mood history.
type Sample struct {
	Score     int
	CreatedAt time.Time
}

// SamplesFromEntries converts stored entries into samples.
func SamplesFromEntries(entries []models.MoodEntry) []Sample {
	samples := make([]Sample, len(entries))
	for i, e := range entries {
		samples[i] = Sample{Score: e.Score, CreatedAt: e.CreatedAt}
	}
	return samples
}

// Label maps a score onto its display band.
func Label(score int) models.MoodLabel {
	switch {
	case score >= 9:
		return models.MoodLabelExcellent
	case score >= 7:
		return models.MoodLabelGood
	case score >= 5:
		return models.MoodLabelNeutral
	case score >= 3:
		return models.MoodLabelBad
	default:
		return models.MoodLabelTerrible
	}
}

// Trend compares current against the mean of the last three samples of
// history. Fewer than two samples is always stable. The history is read in
// chronological order. Samples sharing a timestamp are taken to be listed
// newest first, the order the repositories return them in.
func Trend(history []Sample, current int) models.MoodTrend {
	recent := lastN(chronological(history), trendWindow)
	if len(recent) < 2 {
		return models.MoodTrendStable
	}

	sum := 0
	for _, s := range recent {
		sum += s.Score
	}
	avg := float64(sum) / float64(len(recent))

	switch c := float64(current); {
	case c > avg+1:
		return models.MoodTrendImproving
	case c < avg-1:
		return models.MoodTrendDeclining
	default:
		return models.MoodTrendStable
	}
}

// Current returns the most recent entry, or false for an empty history.
func Current(entries []models.MoodEntry) (models.MoodEntry, bool) {
	if len(entries) == 0 {
		return models.MoodEntry{}, false
	}
	latest := entries[0]
	for _, e := range entries[1:] {
		if e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}
	return latest, true
}

// Excluding returns the entries other than the one with id, keeping their
// order. It is how the entry behind a current score is left out of the
// history that score is compared against.
func Excluding(entries []models.MoodEntry, id uuid.UUID) []models.MoodEntry {
	out := make([]models.MoodEntry, 0, len(entries))
	for _, e := range entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

// WeeklyAverage returns the rounded mean score of the samples recorded in the
// seven days before now. With no such samples it returns fallback.
func WeeklyAverage(history []Sample, now time.Time, fallback int) int {
	cutoff := now.AddDate(0, 0, -7)
	sum, n := 0, 0
	for _, s := range history {
		if s.CreatedAt.Before(cutoff) || s.CreatedAt.After(now) {
			continue
		}
		sum += s.Score
		n++
	}
	if n == 0 {
		return fallback
	}
	return int(math.Round(float64(sum) / float64(n)))
}

func chronological(history []Sample) []Sample {
	sorted := make([]Sample, len(history))
	for i, s := range history {
		sorted[len(history)-1-i] = s
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

func lastN(samples []Sample, n int) []Sample {
	if len(samples) <= n {
		return samples
	}
	return samples[len(samples)-n:]
}

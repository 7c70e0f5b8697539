package planner

import (
	"strings"
	"unicode"

	"github.com/benvon/study-planner/internal/models"
)

const (
	MinBreakMinutes      = 5
	MaxBreakMinutes      = 10
	MeditationMinutes    = 10
	insertedBreakTitle   = "Short break"
	insertedMeditation   = "Mindfulness meditation"
	insertedBreakNote    = "Stretch, hydrate and step away from the screen."
	insertedMeditateNote = "Settle in with a few minutes of slow breathing."
)

// ActivityKind classifies a schedule item by its activity text.
type ActivityKind int

const (
	ActivityStudy ActivityKind = iota
	ActivityBreak
	ActivityMeditation
)

var (
	meditationPrefixes = []string{"meditat", "mindful"}
	meditationWords    = map[string]bool{"breathing": true}
	breakWords         = map[string]bool{"break": true, "breaks": true, "rest": true, "resting": true}
	// Only a break when they are the whole activity: "Stretch goals" is study.
	standaloneBreakWords = map[string]bool{"pause": true, "stretch": true, "stretching": true}
)

// Classify returns the kind of activity an item describes by matching whole
// words, so "Goal breakdown" and "Interest rates" stay study blocks. Meditation
// is checked before breaks so "meditation break" counts as meditation.
func Classify(activity string) ActivityKind {
	words := strings.FieldsFunc(strings.ToLower(activity), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if meditationWords[w] {
			return ActivityMeditation
		}
		for _, prefix := range meditationPrefixes {
			if strings.HasPrefix(w, prefix) {
				return ActivityMeditation
			}
		}
	}
	for _, w := range words {
		if breakWords[w] {
			return ActivityBreak
		}
	}
	if len(words) == 1 && standaloneBreakWords[words[0]] {
		return ActivityBreak
	}
	return ActivityStudy
}

// EnforceWellbeing returns a copy of items in which break lengths are clamped
// to 5..10 minutes, adjacent study blocks are separated by a short break, and
// a meditation session exists. The input is not modified.
func EnforceWellbeing(items []models.ScheduleItem) []models.ScheduleItem {
	out := make([]models.ScheduleItem, 0, len(items)*2+1)
	hasMeditation := false

	for i, item := range items {
		kind := Classify(item.Activity)
		switch kind {
		case ActivityBreak:
			item.Duration = clamp(item.Duration, MinBreakMinutes, MaxBreakMinutes)
		case ActivityMeditation:
			hasMeditation = true
		}

		if kind == ActivityStudy && i > 0 && Classify(items[i-1].Activity) == ActivityStudy {
			out = append(out, breakBefore(items[i-1], item))
		}
		out = append(out, item)
	}

	if !hasMeditation {
		out = append([]models.ScheduleItem{meditationBefore(out)}, out...)
	}
	return out
}

// breakBefore builds a break that starts when prev ends, or at next's time
// when prev's time cannot be parsed.
func breakBefore(prev, next models.ScheduleItem) models.ScheduleItem {
	at := next.Time
	if start, err := models.ParseClock(prev.Time); err == nil {
		at = models.FormatClock(start + prev.Duration)
	}
	return models.ScheduleItem{
		Time:           at,
		Activity:       insertedBreakTitle,
		Duration:       MinBreakMinutes,
		Intensity:      models.IntensityLow,
		MoodAdjustment: insertedBreakNote,
	}
}

func meditationBefore(items []models.ScheduleItem) models.ScheduleItem {
	at := models.FormatClock(8 * 60)
	if len(items) > 0 {
		at = items[0].Time
		if start, err := models.ParseClock(items[0].Time); err == nil {
			at = models.FormatClock(start - MeditationMinutes)
		}
	}
	return models.ScheduleItem{
		Time:           at,
		Activity:       insertedMeditation,
		Duration:       MeditationMinutes,
		Intensity:      models.IntensityLow,
		MoodAdjustment: insertedMeditateNote,
	}
}

// SplitIntoDays packs items, in order, into days of at most 360 minutes.
// A break left at the start of a new day is dropped.
func SplitIntoDays(items []models.ScheduleItem) []models.ScheduleDay {
	days := []models.ScheduleDay{}

	for _, item := range items {
		last := len(days) - 1
		if last < 0 || days[last].TotalMinutes+item.Duration > models.MaxDailyStudyMinutes {
			if last >= 0 && Classify(item.Activity) == ActivityBreak {
				continue
			}
			days = append(days, models.ScheduleDay{Day: len(days) + 1, Items: []models.ScheduleItem{}})
			last++
		}
		days[last].Items = append(days[last].Items, item)
		days[last].TotalMinutes += item.Duration
	}
	return days
}

// TotalMinutes sums the durations of items.
func TotalMinutes(items []models.ScheduleItem) int {
	total := 0
	for _, item := range items {
		total += item.Duration
	}
	return total
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

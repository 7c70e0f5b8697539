package models

import (
	"fmt"
	"strings"
	"time"
)

// Intensity is a coarse workload label attached to a schedule item
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// IsValid reports whether i is one of the known intensities
func (i Intensity) IsValid() bool {
	switch i {
	case IntensityLow, IntensityMedium, IntensityHigh:
		return true
	}
	return false
}

// Priority maps intensity onto task priority one to one.
func (i Intensity) Priority() Priority {
	switch i {
	case IntensityLow:
		return PriorityLow
	case IntensityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// MaxDailyStudyMinutes caps the total scheduled minutes of a single day.
const MaxDailyStudyMinutes = 360

// ScheduleItem is one block of a generated schedule. Items are never stored
// on their own; they materialize into tasks.
type ScheduleItem struct {
	Time           string    `json:"time" validate:"required"`
	Activity       string    `json:"activity" validate:"required"`
	Duration       int       `json:"duration" validate:"gt=0"`
	Intensity      Intensity `json:"intensity" validate:"required,intensity"`
	MoodAdjustment string    `json:"mood_adjustment"`
}

// ScheduleDay groups the items that fit in one day's budget.
type ScheduleDay struct {
	Day          int            `json:"day"`
	Items        []ScheduleItem `json:"items"`
	TotalMinutes int            `json:"total_minutes"`
}

// TimeStatus tells whether a schedule slot is behind, at, or ahead of the clock
type TimeStatus string

const (
	TimeStatusPast    TimeStatus = "past"
	TimeStatusCurrent TimeStatus = "current"
	TimeStatusFuture  TimeStatus = "future"
)

var clockLayouts = []string{"3:04 PM", "3:04PM", "15:04"}

// ParseClock parses "HH:MM AM/PM" (or 24-hour "HH:MM") into minutes after midnight.
func ParseClock(value string) (int, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized clock time %q", value)
}

// FormatClock renders minutes after midnight as "H:MM AM/PM", wrapping past midnight.
func FormatClock(minutes int) string {
	minutes = ((minutes % (24 * 60)) + 24*60) % (24 * 60)
	t := time.Date(2000, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC)
	return t.Format("3:04 PM")
}

// ClassifyTime compares the hour of a schedule slot with the hour of now.
// Unparseable times are reported as future.
func ClassifyTime(slot string, now time.Time) TimeStatus {
	minutes, err := ParseClock(slot)
	if err != nil {
		return TimeStatusFuture
	}
	hour := minutes / 60
	switch {
	case hour < now.Hour():
		return TimeStatusPast
	case hour == now.Hour():
		return TimeStatusCurrent
	default:
		return TimeStatusFuture
	}
}

// ConversationEntry is one processed voice command and the reply it produced.
type ConversationEntry struct {
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
	Response  string `json:"response"`
}

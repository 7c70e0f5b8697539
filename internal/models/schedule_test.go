package models

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"9:00 AM", 540, false},
		{"09:30 AM", 570, false},
		{"12:15 PM", 735, false},
		{"12:05 AM", 5, false},
		{"3:45 pm", 945, false},
		{"2:00PM", 840, false},
		{"18:20", 1100, false},
		{"noon", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseClock(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minutes int
		want    string
	}{
		{540, "9:00 AM"},
		{735, "12:15 PM"},
		{1445, "12:05 AM"},
		{-60, "11:00 PM"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.minutes); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestClassifyTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	tests := []struct {
		slot string
		want TimeStatus
	}{
		{"9:00 AM", TimeStatusPast},
		{"2:00 PM", TimeStatusCurrent},
		{"2:59 PM", TimeStatusCurrent},
		{"4:00 PM", TimeStatusFuture},
		{"later", TimeStatusFuture},
	}
	for _, tt := range tests {
		if got := ClassifyTime(tt.slot, now); got != tt.want {
			t.Errorf("ClassifyTime(%q) = %s, want %s", tt.slot, got, tt.want)
		}
	}
}

func TestIntensity_Priority(t *testing.T) {
	t.Parallel()

	tests := map[Intensity]Priority{
		IntensityLow:    PriorityLow,
		IntensityMedium: PriorityMedium,
		IntensityHigh:   PriorityHigh,
	}
	for in, want := range tests {
		if got := in.Priority(); got != want {
			t.Errorf("%s.Priority() = %s, want %s", in, got, want)
		}
		if !in.IsValid() {
			t.Errorf("%s should be valid", in)
		}
	}
	if Intensity("extreme").IsValid() {
		t.Error("extreme should not be valid")
	}
}

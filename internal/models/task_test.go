package models

import (
	"errors"
	"testing"
	"time"
)

func TestPriority_OrDefault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value Priority
		want  Priority
		rank  int
	}{
		{"low", PriorityLow, PriorityLow, 0},
		{"medium", PriorityMedium, PriorityMedium, 1},
		{"high", PriorityHigh, PriorityHigh, 2},
		{"empty", Priority(""), PriorityMedium, 1},
		{"unknown", Priority("urgent"), PriorityMedium, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.value.OrDefault(); got != tt.want {
				t.Errorf("OrDefault() = %s, want %s", got, tt.want)
			}
			if got := tt.value.Rank(); got != tt.rank {
				t.Errorf("Rank() = %d, want %d", got, tt.rank)
			}
		})
	}
}

func TestDifficulty_OrDefault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value Difficulty
		want  Difficulty
		rank  int
	}{
		{"easy", DifficultyEasy, DifficultyEasy, 0},
		{"medium", DifficultyMedium, DifficultyMedium, 1},
		{"hard", DifficultyHard, DifficultyHard, 2},
		{"empty", Difficulty(""), DifficultyMedium, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.value.OrDefault(); got != tt.want {
				t.Errorf("OrDefault() = %s, want %s", got, tt.want)
			}
			if got := tt.value.Rank(); got != tt.rank {
				t.Errorf("Rank() = %d, want %d", got, tt.rank)
			}
		})
	}
}

func TestTask_Lifecycle(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := &Task{Title: "Read chapter 4"}

	if err := task.Pause(base); !errors.Is(err, ErrTaskNotRunning) {
		t.Fatalf("Pause() before Start error = %v, want ErrTaskNotRunning", err)
	}
	if err := task.Start(base); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := task.Pause(base.Add(10 * time.Minute)); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if task.TimeSpentSeconds != 600 {
		t.Errorf("TimeSpentSeconds = %d, want 600", task.TimeSpentSeconds)
	}
	if err := task.Start(base.Add(20 * time.Minute)); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if !task.StartedAt.Equal(base) {
		t.Errorf("StartedAt = %v, want first start %v", task.StartedAt, base)
	}
	if err := task.Complete(base.Add(25 * time.Minute)); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if task.TimeSpentSeconds != 900 {
		t.Errorf("TimeSpentSeconds = %d, want 900", task.TimeSpentSeconds)
	}
	if !task.Completed || task.CompletedAt == nil {
		t.Fatal("expected task to be completed with CompletedAt set")
	}
	if err := task.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants() error = %v", err)
	}
	if err := task.Start(base.Add(time.Hour)); !errors.Is(err, ErrTaskCompleted) {
		t.Errorf("Start() after Complete error = %v, want ErrTaskCompleted", err)
	}
}

func TestTask_CheckInvariants(t *testing.T) {
	t.Parallel()

	if err := (&Task{Completed: true}).CheckInvariants(); err == nil {
		t.Error("expected error for completed task without completed_at")
	}
	if err := (&Task{TimeSpentSeconds: -1}).CheckInvariants(); err == nil {
		t.Error("expected error for negative time spent")
	}
}

func TestPendingTasks(t *testing.T) {
	t.Parallel()

	tasks := []Task{{Title: "a"}, {Title: "b", Completed: true}, {Title: "c"}}
	got := PendingTasks(tasks)
	if len(got) != 2 || got[0].Title != "a" || got[1].Title != "c" {
		t.Errorf("PendingTasks() = %+v", got)
	}
}

func TestGoal_Normalize(t *testing.T) {
	t.Parallel()

	g := &Goal{Title: "Pass calculus", Progress: 140}
	g.Normalize()
	if g.Status != GoalStatusNotStarted {
		t.Errorf("Status = %s, want not_started", g.Status)
	}
	if g.Priority != PriorityMedium {
		t.Errorf("Priority = %s, want medium", g.Priority)
	}
	if g.Progress != 100 {
		t.Errorf("Progress = %d, want 100", g.Progress)
	}
}

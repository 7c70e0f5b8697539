package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

func TestMemoryTaskRepository_ScopedByUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryTaskRepository()

	mine := &models.Task{UserID: "alice", Title: "Read"}
	theirs := &models.Task{UserID: "bob", Title: "Write"}
	for _, task := range []*models.Task{mine, theirs} {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}
	if mine.ID == uuid.Nil || mine.CreatedAt.IsZero() {
		t.Fatal("Create() should assign an id and timestamps")
	}

	if _, err := repo.GetByID(ctx, "bob", mine.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() for another user error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "bob", mine.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() for another user error = %v, want ErrNotFound", err)
	}

	tasks, err := repo.GetByUserID(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUserID() failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Read" {
		t.Errorf("GetByUserID() = %+v, want only alice's task", tasks)
	}
}

func TestMemoryTaskRepository_CopiesRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	task := &models.Task{UserID: "alice", Title: "Original"}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	task.Title = "Changed outside the store"
	got, err := repo.GetByID(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if got.Title != "Original" {
		t.Errorf("stored title = %q, want %q", got.Title, "Original")
	}
}

func TestMemoryTaskRepository_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	task := &models.Task{UserID: "alice", Title: "Read"}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := task.Complete(time.Now()); err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if err := repo.Update(ctx, task); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	got, _ := repo.GetByID(ctx, "alice", task.ID)
	if !got.Completed || got.CompletedAt == nil {
		t.Errorf("Update() did not persist completion: %+v", got)
	}

	if err := repo.Delete(ctx, "alice", task.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := repo.Update(ctx, task); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() after delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryTaskRepository_CreateBatchIsAtomic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	existing := &models.Task{UserID: "alice", Title: "Existing"}
	if err := repo.Create(ctx, existing); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	batch := []models.Task{
		{UserID: "alice", Title: "New"},
		{ID: existing.ID, UserID: "alice", Title: "Duplicate"},
	}
	if err := repo.CreateBatch(ctx, batch); !errors.Is(err, ErrConflict) {
		t.Fatalf("CreateBatch() error = %v, want ErrConflict", err)
	}
	tasks, _ := repo.GetByUserID(ctx, "alice")
	if len(tasks) != 1 {
		t.Errorf("after failed batch got %d tasks, want 1", len(tasks))
	}

	ok := []models.Task{{UserID: "alice", Title: "A"}, {UserID: "alice", Title: "B"}}
	if err := repo.CreateBatch(ctx, ok); err != nil {
		t.Fatalf("CreateBatch() failed: %v", err)
	}
	tasks, _ = repo.GetByUserID(ctx, "alice")
	if len(tasks) != 3 || tasks[1].Title != "A" || tasks[2].Title != "B" {
		t.Errorf("GetByUserID() = %+v, want creation order", tasks)
	}
}

func TestMemoryGoalRepository_DeleteLeavesTasks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := NewMemoryRepositories()

	goal := &models.Goal{UserID: "alice", Title: "Pass the exam", Progress: 150}
	if err := repos.Goals.Create(ctx, goal); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if goal.Status != models.GoalStatusNotStarted || goal.Progress != 100 {
		t.Errorf("Create() should normalize, got status=%q progress=%d", goal.Status, goal.Progress)
	}

	task := &models.Task{UserID: "alice", Title: "Practice", GoalID: &goal.ID}
	if err := repos.Tasks.Create(ctx, task); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := repos.Goals.Delete(ctx, "alice", goal.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	got, err := repos.Tasks.GetByID(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("task should survive goal deletion: %v", err)
	}
	if got.GoalID == nil || *got.GoalID != goal.ID {
		t.Errorf("orphaned goal id should be kept, got %v", got.GoalID)
	}
}

func TestMemoryMoodRepository_NewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryMoodRepository()
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	for i, score := range []int{4, 9, 6} {
		entry := &models.MoodEntry{UserID: "alice", Score: score, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}
	if err := repo.Create(ctx, &models.MoodEntry{UserID: "bob", Score: 1}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	entries, err := repo.GetByUserID(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("GetByUserID() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("GetByUserID() returned %d entries, want 2", len(entries))
	}
	if entries[0].Score != 6 || entries[1].Score != 9 {
		t.Errorf("scores = %d,%d, want 6,9", entries[0].Score, entries[1].Score)
	}
	if entries[1].Label != models.MoodLabelExcellent {
		t.Errorf("label = %q, want %q", entries[1].Label, models.MoodLabelExcellent)
	}

	edit := entries[0]
	edit.Score = 2
	if err := repo.Update(ctx, &edit); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if edit.Label != models.MoodLabelTerrible {
		t.Errorf("Update() label = %q, want %q", edit.Label, models.MoodLabelTerrible)
	}
}

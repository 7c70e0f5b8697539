package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/mood"
	"github.com/benvon/study-planner/internal/prioritizer"
	"github.com/benvon/study-planner/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DefaultMoodScore stands in for the mood of a user who has never logged one.
const DefaultMoodScore = 5

// TaskHandler handles task-related requests
type TaskHandler struct {
	repos  *database.Repositories
	logger *zap.Logger
	now    func() time.Time
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(repos *database.Repositories, log *zap.Logger) *TaskHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskHandler{repos: repos, logger: log, now: time.Now}
}

// RegisterRoutes registers task routes on a router already prefixed with /tasks.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods(http.MethodGet)
	r.HandleFunc("", h.CreateTask).Methods(http.MethodPost)
	r.HandleFunc("/prioritized", h.PrioritizedTasks).Methods(http.MethodGet)
	r.HandleFunc("/{id}", h.UpdateTask).Methods(http.MethodPatch)
	r.HandleFunc("/{id}", h.DeleteTask).Methods(http.MethodDelete)
	r.HandleFunc("/{id}/start", h.lifecycle((*models.Task).Start)).Methods(http.MethodPost)
	r.HandleFunc("/{id}/pause", h.lifecycle((*models.Task).Pause)).Methods(http.MethodPost)
	r.HandleFunc("/{id}/complete", h.lifecycle((*models.Task).Complete)).Methods(http.MethodPost)
}

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title                    string            `json:"title" validate:"required,max=500"`
	Description              string            `json:"description" validate:"max=5000"`
	Priority                 models.Priority   `json:"priority" validate:"omitempty,priority"`
	Difficulty               models.Difficulty `json:"difficulty" validate:"omitempty,difficulty"`
	EstimatedDurationMinutes int               `json:"estimated_duration_minutes" validate:"gte=0,lte=1440"`
	DueDate                  *time.Time        `json:"due_date"`
	ScheduledTime            string            `json:"scheduled_time" validate:"max=16"`
	GoalID                   *uuid.UUID        `json:"goal_id"`
}

// UpdateTaskRequest represents a partial task update
type UpdateTaskRequest struct {
	Title                    *string            `json:"title" validate:"omitempty,max=500"`
	Description              *string            `json:"description" validate:"omitempty,max=5000"`
	Priority                 *models.Priority   `json:"priority" validate:"omitempty,priority"`
	Difficulty               *models.Difficulty `json:"difficulty" validate:"omitempty,difficulty"`
	EstimatedDurationMinutes *int               `json:"estimated_duration_minutes" validate:"omitempty,gte=0,lte=1440"`
	DueDate                  *time.Time         `json:"due_date"`
	ScheduledTime            *string            `json:"scheduled_time" validate:"omitempty,max=16"`
}

// TaskView is a task annotated with where its scheduled time falls relative to now.
type TaskView struct {
	models.Task
	TimeStatus models.TimeStatus `json:"time_status,omitempty"`
}

// PrioritizedResponse is the deterministic ordering of a user's pending tasks.
type PrioritizedResponse struct {
	MoodScore int                  `json:"mood_score"`
	Strategy  prioritizer.Strategy `json:"strategy"`
	Tasks     []models.Task        `json:"tasks"`
}

func (h *TaskHandler) view(task models.Task) TaskView {
	v := TaskView{Task: task}
	if task.ScheduledTime != "" && !task.Completed {
		v.TimeStatus = models.ClassifyTime(task.ScheduledTime, h.now())
	}
	return v
}

// ListTasks lists the user's tasks. ?status=pending|completed filters them.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && status != "pending" && status != "completed" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "status must be 'pending' or 'completed'")
		return
	}

	tasks, err := h.repos.Tasks.GetByUserID(r.Context(), userID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		if (status == "pending" && task.Completed) || (status == "completed" && !task.Completed) {
			continue
		}
		views = append(views, h.view(task))
	}
	respondJSON(w, http.StatusOK, views)
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	title := validation.SanitizeText(req.Title)
	if title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}
	if req.ScheduledTime != "" {
		if _, err := models.ParseClock(req.ScheduledTime); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	task := &models.Task{
		ID:                       uuid.New(),
		UserID:                   userID,
		Title:                    title,
		Description:              validation.SanitizeText(req.Description),
		Priority:                 req.Priority.OrDefault(),
		Difficulty:               req.Difficulty.OrDefault(),
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		DueDate:                  req.DueDate,
		ScheduledTime:            req.ScheduledTime,
		GoalID:                   req.GoalID,
	}

	if err := h.repos.Tasks.Create(r.Context(), task); err != nil {
		h.logger.Error("Failed to create task",
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.Error(err))
		respondStoreError(w, err, "Task")
		return
	}

	respondJSON(w, http.StatusCreated, h.view(*task))
}

// UpdateTask applies a partial update to a task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "task")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	task, err := h.repos.Tasks.GetByID(r.Context(), userID, id)
	if err != nil {
		respondStoreError(w, err, "Task")
		return
	}

	if req.Title != nil {
		title := validation.SanitizeText(*req.Title)
		if title == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = validation.SanitizeText(*req.Description)
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Difficulty != nil {
		task.Difficulty = *req.Difficulty
	}
	if req.EstimatedDurationMinutes != nil {
		task.EstimatedDurationMinutes = *req.EstimatedDurationMinutes
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.ScheduledTime != nil {
		if *req.ScheduledTime != "" {
			if _, err := models.ParseClock(*req.ScheduledTime); err != nil {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
				return
			}
		}
		task.ScheduledTime = *req.ScheduledTime
	}
	task.UpdatedAt = h.now().UTC()

	if err := h.repos.Tasks.Update(r.Context(), task); err != nil {
		respondStoreError(w, err, "Task")
		return
	}

	respondJSON(w, http.StatusOK, h.view(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "task")
	if !ok {
		return
	}

	if err := h.repos.Tasks.Delete(r.Context(), userID, id); err != nil {
		respondStoreError(w, err, "Task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// lifecycle adapts a task state transition into a handler.
func (h *TaskHandler) lifecycle(transition func(*models.Task, time.Time) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "task")
		if !ok {
			return
		}

		task, err := h.repos.Tasks.GetByID(r.Context(), userID, id)
		if err != nil {
			respondStoreError(w, err, "Task")
			return
		}

		if err := transition(task, h.now().UTC()); err != nil {
			if errors.Is(err, models.ErrTaskCompleted) || errors.Is(err, models.ErrTaskNotRunning) {
				respondJSONError(w, http.StatusConflict, "Conflict", err.Error())
				return
			}
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
			return
		}

		if err := h.repos.Tasks.Update(r.Context(), task); err != nil {
			respondStoreError(w, err, "Task")
			return
		}
		respondJSON(w, http.StatusOK, h.view(*task))
	}
}

// PrioritizedTasks returns the pending tasks in the order suggested for a
// mood score. ?mood=N overrides the user's latest logged mood.
func (h *TaskHandler) PrioritizedTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	score, ok := h.moodScore(w, r, userID)
	if !ok {
		return
	}

	tasks, err := h.repos.Tasks.GetByUserID(r.Context(), userID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	respondJSON(w, http.StatusOK, PrioritizedResponse{
		MoodScore: score,
		Strategy:  prioritizer.StrategyFor(score),
		Tasks:     prioritizer.Order(tasks, score),
	})
}

func (h *TaskHandler) moodScore(w http.ResponseWriter, r *http.Request, userID string) (int, bool) {
	if raw := r.URL.Query().Get("mood"); raw != "" {
		score, err := strconv.Atoi(raw)
		if err != nil || score < models.MinMoodScore || score > models.MaxMoodScore {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "mood must be an integer from 1 to 10")
			return 0, false
		}
		return score, true
	}
	score, _, err := currentMood(r, h.repos, userID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve mood history")
		return 0, false
	}
	return score, true
}

// currentMood is the score of the user's latest mood entry and that entry's
// id, or DefaultMoodScore and nil when there is none.
func currentMood(r *http.Request, repos *database.Repositories, userID string) (int, *uuid.UUID, error) {
	entries, err := repos.Moods.GetByUserID(r.Context(), userID, 1)
	if err != nil {
		return 0, nil, err
	}
	if latest, ok := mood.Current(entries); ok {
		return latest.Score, &latest.ID, nil
	}
	return DefaultMoodScore, nil, nil
}

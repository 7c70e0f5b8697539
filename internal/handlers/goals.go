package handlers

import (
	"net/http"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/benvon/study-planner/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// GoalHandler handles goal-related requests
type GoalHandler struct {
	repos    *database.Repositories
	planner  *planner.Service
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewGoalHandler creates a new goal handler. jobQueue may be nil, in which
// case only synchronous breakdowns are offered.
func NewGoalHandler(repos *database.Repositories, svc *planner.Service, jobQueue queue.JobQueue, log *zap.Logger) *GoalHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &GoalHandler{repos: repos, planner: svc, jobQueue: jobQueue, logger: log}
}

// RegisterRoutes registers goal routes on a router already prefixed with /goals.
func (h *GoalHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListGoals).Methods(http.MethodGet)
	r.HandleFunc("", h.CreateGoal).Methods(http.MethodPost)
	r.HandleFunc("/{id}/breakdown", h.BreakdownGoal).Methods(http.MethodPost)
}

// CreateGoalRequest represents a create goal request
type CreateGoalRequest struct {
	Title       string          `json:"title" validate:"required,max=500"`
	Description string          `json:"description" validate:"max=5000"`
	Priority    models.Priority `json:"priority" validate:"omitempty,priority"`
}

// BreakdownResponse is a synchronous goal breakdown and the tasks it stored.
type BreakdownResponse struct {
	Breakdown *planner.GoalBreakdown `json:"breakdown"`
	Tasks     []models.Task          `json:"tasks"`
	Goal      *models.Goal           `json:"goal"`
}

// JobAccepted acknowledges a queued job.
type JobAccepted struct {
	JobID   uuid.UUID     `json:"job_id"`
	JobType queue.JobType `json:"job_type"`
}

// ListGoals lists the user's goals, newest first
func (h *GoalHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	goals, err := h.repos.Goals.GetByUserID(r.Context(), userID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve goals")
		return
	}
	respondJSON(w, http.StatusOK, goals)
}

// CreateGoal creates a new goal
func (h *GoalHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateGoalRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	title := validation.SanitizeText(req.Title)
	if title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}

	goal := &models.Goal{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: validation.SanitizeText(req.Description),
		Status:      models.GoalStatusNotStarted,
		Priority:    req.Priority.OrDefault(),
	}
	if err := h.repos.Goals.Create(r.Context(), goal); err != nil {
		respondStoreError(w, err, "Goal")
		return
	}
	respondJSON(w, http.StatusCreated, goal)
}

// BreakdownGoal splits a goal into tasks. With ?async=true the work is
// queued for the worker and 202 is returned; otherwise the breakdown runs
// inline and, when the generator produced it, its tasks are stored.
func (h *GoalHandler) BreakdownGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "goal")
	if !ok {
		return
	}

	ctx := r.Context()
	goal, err := h.repos.Goals.GetByID(ctx, userID, id)
	if err != nil {
		respondStoreError(w, err, "Goal")
		return
	}

	if r.URL.Query().Get("async") == "true" {
		if h.jobQueue == nil {
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Background processing is not configured")
			return
		}
		job := queue.NewGoalBreakdownJob(userID, goal.ID, goal.Title)
		if err := h.jobQueue.Enqueue(ctx, job); err != nil {
			h.logger.Error("Failed to enqueue goal breakdown",
				zap.String("goal_id", goal.ID.String()),
				zap.Error(err))
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Failed to queue goal breakdown")
			return
		}
		respondJSON(w, http.StatusAccepted, JobAccepted{JobID: job.ID, JobType: job.Type})
		return
	}

	breakdown := h.planner.BreakdownGoal(ctx, goal.Title)
	resp := BreakdownResponse{Breakdown: breakdown, Tasks: []models.Task{}, Goal: goal}
	if breakdown.Source != planner.SourceAI {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	tasks := h.planner.MaterializeGoalTasks(breakdown.Tasks, &goal.ID)
	for i := range tasks {
		tasks[i].UserID = userID
	}
	if err := h.repos.Tasks.CreateBatch(ctx, tasks); err != nil {
		h.logger.Error("Failed to store goal tasks",
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store goal tasks")
		return
	}
	resp.Tasks = tasks

	if goal.Status == models.GoalStatusNotStarted {
		goal.Status = models.GoalStatusInProgress
		if err := h.repos.Goals.Update(ctx, goal); err != nil {
			h.logger.Warn("Failed to mark goal in progress",
				zap.String("goal_id", goal.ID.String()),
				zap.Error(err))
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

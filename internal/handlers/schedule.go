package handlers

import (
	"net/http"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/mood"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/benvon/study-planner/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// defaultEnergyLevel is used when a schedule request does not state one.
const defaultEnergyLevel = 5

// ScheduleHandler handles schedule synthesis requests
type ScheduleHandler struct {
	repos    *database.Repositories
	planner  *planner.Service
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewScheduleHandler creates a new schedule handler. jobQueue may be nil.
func NewScheduleHandler(repos *database.Repositories, svc *planner.Service, jobQueue queue.JobQueue, log *zap.Logger) *ScheduleHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScheduleHandler{repos: repos, planner: svc, jobQueue: jobQueue, logger: log}
}

// RegisterRoutes registers schedule routes on a router already prefixed with /schedule.
func (h *ScheduleHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.SynthesizeSchedule).Methods(http.MethodPost)
	r.HandleFunc("/jobs", h.EnqueueSchedule).Methods(http.MethodPost)
}

// ScheduleRequest describes the user's state for schedule synthesis. A
// missing mood score defaults to the latest logged mood.
type ScheduleRequest struct {
	MoodScore   int        `json:"mood_score" validate:"omitempty,mood_score"`
	EnergyLevel int        `json:"energy_level" validate:"omitempty,gte=1,lte=10"`
	Goals       []string   `json:"goals" validate:"max=20,dive,max=500"`
	GoalID      *uuid.UUID `json:"goal_id"`
}

// payload resolves defaults and sanitizes the request.
func (h *ScheduleHandler) payload(r *http.Request, userID string, req ScheduleRequest) (queue.SchedulePayload, error) {
	p := queue.SchedulePayload{
		MoodScore:   req.MoodScore,
		EnergyLevel: req.EnergyLevel,
		GoalID:      req.GoalID,
	}
	if p.MoodScore == 0 {
		score, entryID, err := currentMood(r, h.repos, userID)
		if err != nil {
			return p, err
		}
		p.MoodScore = score
		p.MoodEntryID = entryID
	}
	if p.EnergyLevel == 0 {
		p.EnergyLevel = defaultEnergyLevel
	}
	for _, goal := range req.Goals {
		if g := validation.SanitizeText(goal); g != "" {
			p.Goals = append(p.Goals, g)
		}
	}
	return p, nil
}

// SynthesizeSchedule builds a schedule inline. A generated schedule is
// stored as tasks; a fallback returns the prioritized pending tasks and
// stores nothing.
func (h *ScheduleHandler) SynthesizeSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ScheduleRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	ctx := r.Context()
	p, err := h.payload(r, userID, req)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve mood history")
		return
	}
	pending, history, err := h.repos.LoadScheduleContext(ctx, userID, p.MoodEntryID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load planning context")
		return
	}

	outcome := h.planner.SynthesizeSchedule(ctx, planner.ScheduleInput{
		MoodScore:    p.MoodScore,
		EnergyLevel:  p.EnergyLevel,
		Goals:        p.Goals,
		GoalID:       p.GoalID,
		PendingTasks: pending,
		MoodHistory:  mood.SamplesFromEntries(history),
	})

	if outcome.Source == planner.SourceAI {
		for i := range outcome.Tasks {
			outcome.Tasks[i].UserID = userID
		}
		if err := h.repos.Tasks.CreateBatch(ctx, outcome.Tasks); err != nil {
			h.logger.Error("Failed to store scheduled tasks",
				zap.String("user_id", logger.SanitizeUserID(userID)),
				zap.Error(err))
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store schedule")
			return
		}
	}

	respondJSON(w, http.StatusOK, outcome)
}

// EnqueueSchedule queues schedule synthesis for the worker
func (h *ScheduleHandler) EnqueueSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if h.jobQueue == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Background processing is not configured")
		return
	}

	var req ScheduleRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	p, err := h.payload(r, userID, req)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve mood history")
		return
	}

	job := queue.NewScheduleJob(userID, p)
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("Failed to enqueue schedule job",
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.Error(err))
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Failed to queue schedule synthesis")
		return
	}
	respondJSON(w, http.StatusAccepted, JobAccepted{JobID: job.ID, JobType: job.Type})
}

package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/study-planner/internal/conversation"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/intent"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/benvon/study-planner/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxGreetingNameLength = 50

// VoiceHandler handles voice commands and the per-user conversation they build.
type VoiceHandler struct {
	repos    *database.Repositories
	planner  *planner.Service
	sessions *conversation.Registry
	logger   *zap.Logger
}

// NewVoiceHandler creates a new voice handler
func NewVoiceHandler(repos *database.Repositories, svc *planner.Service, sessions *conversation.Registry, log *zap.Logger) *VoiceHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &VoiceHandler{repos: repos, planner: svc, sessions: sessions, logger: log}
}

// RegisterRoutes registers voice routes on a router already prefixed with /voice.
func (h *VoiceHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/command", h.Command).Methods(http.MethodPost)
	r.HandleFunc("/history", h.History).Methods(http.MethodGet)
	r.HandleFunc("/history", h.ClearHistory).Methods(http.MethodDelete)
	r.HandleFunc("/classify", h.Classify).Methods(http.MethodPost)
}

// UtteranceRequest carries one spoken or typed utterance
type UtteranceRequest struct {
	Utterance string `json:"utterance" validate:"max=2000"`
}

// CommandResponse is the interpretation of a command plus anything it created.
type CommandResponse struct {
	*planner.VoiceResult
	Task *models.Task `json:"task,omitempty"`
	Goal *models.Goal `json:"goal,omitempty"`
}

// ClassifyResponse is the keyword classification of an utterance with the
// canned reply and mood score it implies.
type ClassifyResponse struct {
	intent.Classification
	Reply     string `json:"reply"`
	MoodScore int    `json:"mood_score"`
}

// Command interprets an utterance in the context of the user's conversation.
// A newer command from the same user supersedes one still in flight.
func (h *VoiceHandler) Command(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UtteranceRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	var result *planner.VoiceResult
	h.sessions.GetOrCreate(userID).Turn(r.Context(), func(ctx context.Context, buf *conversation.Buffer) {
		result = h.planner.ProcessCommand(ctx, buf, validation.SanitizeText(req.Utterance))
	})

	resp := CommandResponse{VoiceResult: result}
	if result.Source == planner.SourceAI {
		h.apply(r.Context(), userID, &resp)
	}
	respondJSON(w, http.StatusOK, resp)
}

// apply creates the task or goal an add_task or add_goal command names.
// Failures are logged; the reply has already been recorded.
func (h *VoiceHandler) apply(ctx context.Context, userID string, resp *CommandResponse) {
	params := resp.Parameters
	title := validation.SanitizeText(params.Title)
	if title == "" {
		return
	}

	switch resp.Action {
	case planner.ActionAddTask:
		task := &models.Task{
			ID:          uuid.New(),
			UserID:      userID,
			Title:       title,
			Description: validation.SanitizeText(params.Description),
			Priority:    params.Priority.OrDefault(),
			Difficulty:  models.DifficultyMedium,
		}
		if err := h.repos.Tasks.Create(ctx, task); err != nil {
			h.logger.Warn("Failed to create task from voice command",
				zap.String("user_id", logger.SanitizeUserID(userID)),
				zap.Error(err))
			return
		}
		resp.Task = task
	case planner.ActionAddGoal:
		goal := &models.Goal{
			ID:          uuid.New(),
			UserID:      userID,
			Title:       title,
			Description: validation.SanitizeText(params.Description),
			Status:      models.GoalStatusNotStarted,
			Priority:    params.Priority.OrDefault(),
		}
		if err := h.repos.Goals.Create(ctx, goal); err != nil {
			h.logger.Warn("Failed to create goal from voice command",
				zap.String("user_id", logger.SanitizeUserID(userID)),
				zap.Error(err))
			return
		}
		resp.Goal = goal
	}
}

// History returns the user's conversation, oldest first
func (h *VoiceHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var export conversation.Export
	h.sessions.GetOrCreate(userID).View(func(buf *conversation.Buffer) {
		export = buf.Export()
	})
	respondJSON(w, http.StatusOK, export)
}

// ClearHistory ends the user's conversation
func (h *VoiceHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.sessions.End(userID)
	w.WriteHeader(http.StatusNoContent)
}

// Classify runs the keyword tables over an utterance without any generation
func (h *VoiceHandler) Classify(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req UtteranceRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	c := intent.Classify(validation.SanitizeText(req.Utterance))
	respondJSON(w, http.StatusOK, ClassifyResponse{
		Classification: c,
		Reply:          intent.Reply(c.Intent, c.Mood),
		MoodScore:      intent.MoodScore(c.Mood),
	})
}

// Greeting returns a short personalized welcome. ?name= overrides "Student".
func (h *VoiceHandler) Greeting(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	name := validation.SanitizeText(r.URL.Query().Get("name"))
	if runes := []rune(name); len(runes) > maxGreetingNameLength {
		name = string(runes[:maxGreetingNameLength])
	}
	respondJSON(w, http.StatusOK, h.planner.Greet(r.Context(), name))
}

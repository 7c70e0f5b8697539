package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/intent"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/mood"
	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/benvon/study-planner/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MoodHandler handles mood logging and mood-derived guidance
type MoodHandler struct {
	repos   *database.Repositories
	planner *planner.Service
	logger  *zap.Logger
	now     func() time.Time
}

// NewMoodHandler creates a new mood handler
func NewMoodHandler(repos *database.Repositories, svc *planner.Service, log *zap.Logger) *MoodHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &MoodHandler{repos: repos, planner: svc, logger: log, now: time.Now}
}

// RegisterRoutes registers mood routes on a router already prefixed with /mood.
func (h *MoodHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListMoods).Methods(http.MethodGet)
	r.HandleFunc("", h.LogMood).Methods(http.MethodPost)
	r.HandleFunc("/trend", h.MoodTrend).Methods(http.MethodGet)
	r.HandleFunc("/analyze", h.AnalyzeMood).Methods(http.MethodPost)
}

// LogMoodRequest records a mood. Either score or a detected mood word is
// required; score wins when both are present.
type LogMoodRequest struct {
	Score       int    `json:"score" validate:"omitempty,mood_score"`
	Mood        string `json:"mood" validate:"omitempty,oneof=happy sad angry tired motivated stressed neutral"`
	EnergyLevel int    `json:"energy_level" validate:"omitempty,gte=1,lte=10"`
	Notes       string `json:"notes" validate:"max=1000"`
}

// AnalyzeMoodRequest asks for study guidance for a mood
type AnalyzeMoodRequest struct {
	Score       int    `json:"score" validate:"mood_score"`
	Description string `json:"description" validate:"max=1000"`
}

// TrendResponse summarises the user's recent moods
type TrendResponse struct {
	CurrentScore  int              `json:"current_score"`
	Label         models.MoodLabel `json:"label"`
	Trend         models.MoodTrend `json:"trend"`
	WeeklyAverage int              `json:"weekly_average"`
	Entries       int              `json:"entries"`
}

// ListMoods returns the user's mood history, newest first. ?limit=N bounds it.
func (h *MoodHandler) ListMoods(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit := database.DefaultMoodHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be a positive integer")
			return
		}
		limit = min(parsed, database.DefaultMoodHistoryLimit)
	}

	entries, err := h.repos.Moods.GetByUserID(r.Context(), userID, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve mood history")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// LogMood stores a mood entry. The label is derived from the score.
func (h *MoodHandler) LogMood(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req LogMoodRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	score := req.Score
	if score == 0 {
		if req.Mood == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "score or mood is required")
			return
		}
		score = intent.MoodScore(intent.Mood(req.Mood))
	}

	entry := &models.MoodEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Score:       score,
		Label:       mood.Label(score),
		EnergyLevel: req.EnergyLevel,
		Notes:       validation.SanitizeText(req.Notes),
		CreatedAt:   h.now().UTC(),
	}
	if err := h.repos.Moods.Create(r.Context(), entry); err != nil {
		respondStoreError(w, err, "Mood entry")
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// MoodTrend compares the latest mood against the entries before it
func (h *MoodHandler) MoodTrend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	entries, err := h.repos.Moods.GetByUserID(r.Context(), userID, database.DefaultMoodHistoryLimit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve mood history")
		return
	}

	resp := TrendResponse{CurrentScore: DefaultMoodScore, Trend: models.MoodTrendStable, Entries: len(entries)}
	history := mood.SamplesFromEntries(entries)
	if current, ok := mood.Current(entries); ok {
		resp.CurrentScore = current.Score
		previous := mood.Excluding(entries, current.ID)
		resp.Trend = mood.Trend(mood.SamplesFromEntries(previous), current.Score)
	}
	resp.Label = mood.Label(resp.CurrentScore)
	resp.WeeklyAverage = mood.WeeklyAverage(history, h.now(), resp.CurrentScore)

	respondJSON(w, http.StatusOK, resp)
}

// AnalyzeMood returns study guidance for a mood score
func (h *MoodHandler) AnalyzeMood(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req AnalyzeMoodRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	analysis := h.planner.AnalyzeMood(r.Context(), req.Score, validation.SanitizeText(req.Description))
	respondJSON(w, http.StatusOK, analysis)
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/middleware"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

const scheduleJSON = `{
  "schedule": [
    {"time": "9:00 AM", "activity": "Mindfulness meditation", "duration": 10, "intensity": "low", "mood_adjustment": "Breathe"},
    {"time": "9:10 AM", "activity": "Essay draft", "duration": 50, "intensity": "high", "mood_adjustment": "Start strong"},
    {"time": "10:00 AM", "activity": "Short break", "duration": 5, "intensity": "low", "mood_adjustment": "Stretch"},
    {"time": "10:05 AM", "activity": "Vocab review", "duration": 30, "intensity": "medium", "mood_adjustment": "Keep it light"}
  ],
  "recommendations": ["Drink water"],
  "motivational_quote": "Keep going."
}`

const breakdownJSON = `{
  "tasks": [
    {"title": "Outline chapters", "description": "List the main sections", "estimated_time": 30, "priority": "high"},
    {"title": "Collect sources", "description": "Library search", "estimated_time": 60}
  ],
  "motivational_quote": "Start where you are.",
  "total_estimated_time": 90
}`

// scriptedGenerator answers each operation with a canned response. Unscripted
// operations fail with an unclassified provider error.
func scriptedGenerator(responses map[string]string) ai.Generator {
	return ai.GeneratorFunc(func(_ context.Context, req ai.GenerateRequest) (string, error) {
		raw, ok := responses[req.Operation]
		if !ok {
			return "", errors.New("connection refused")
		}
		return raw, nil
	})
}

type recordingQueue struct {
	mu       sync.Mutex
	enqueued []*queue.Job
	err      error
}

func (q *recordingQueue) Enqueue(_ context.Context, job *queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

func (q *recordingQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (q *recordingQueue) Close() error                      { return nil }
func (q *recordingQueue) HealthCheck(context.Context) error { return nil }

func (q *recordingQueue) jobs() []*queue.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*queue.Job(nil), q.enqueued...)
}

type apiHarness struct {
	t        *testing.T
	router   http.Handler
	repos    *database.Repositories
	verifier *middleware.TokenVerifier
	token    string
}

func newHarness(t *testing.T, gen ai.Generator, jobQueue queue.JobQueue) *apiHarness {
	t.Helper()

	verifier, err := middleware.NewTokenVerifier(testSecret, "")
	require.NoError(t, err)
	token, err := verifier.Issue("alice", time.Hour)
	require.NoError(t, err)

	repos := database.NewMemoryRepositories()
	router := NewRouter(RouterConfig{
		Repos:    repos,
		Planner:  planner.NewService(gen, zap.NewNop()),
		Queue:    jobQueue,
		Verifier: verifier,
		Logger:   zap.NewNop(),
	})
	return &apiHarness{t: t, router: router, repos: repos, verifier: verifier, token: token}
}

func (h *apiHarness) tokenFor(userID string) string {
	h.t.Helper()
	token, err := h.verifier.Issue(userID, time.Hour)
	require.NoError(h.t, err)
	return token
}

func (h *apiHarness) do(method, path string, body any) *httptest.ResponseRecorder {
	return h.doAs(h.token, method, path, body)
}

func (h *apiHarness) doAs(token, method, path string, body any) *httptest.ResponseRecorder {
	req := newTestRequest(method, path, body)
	if body == nil {
		req.Header.Del("Content-Type")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env), "body: %s", w.Body.String())
	require.True(t, env.Success, "expected success envelope, got %s: %s", env.Error, env.Message)
	return env.Data
}

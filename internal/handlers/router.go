package handlers

import (
	"net/http"
	"time"

	"github.com/benvon/study-planner/internal/conversation"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/middleware"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// ServiceName identifies the HTTP server in traces.
const ServiceName = "study-planner-api"

// RouterConfig carries everything the HTTP API is built from. Queue and
// RateLimit may be nil.
type RouterConfig struct {
	Repos          *database.Repositories
	Planner        *planner.Service
	Queue          queue.JobQueue
	Sessions       *conversation.Registry
	Verifier       *middleware.TokenVerifier
	RateLimit      func(http.Handler) http.Handler
	HealthChecks   map[string]Pinger
	FrontendURL    string
	EnableHSTS     bool
	Tracing        bool
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) *mux.Router {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = conversation.NewRegistry()
	}

	r := mux.NewRouter()

	// Registered first runs outermost.
	if cfg.Tracing {
		r.Use(otelmux.Middleware(ServiceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORSFromEnv(cfg.FrontendURL, log))
	r.Use(middleware.Logging(log))
	r.Use(middleware.ErrorHandler(log))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	// Public routes (no rate limiting for health checks)
	r.HandleFunc("/healthz", NewHealthChecker(cfg.HealthChecks).HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth(cfg.Verifier, log))
	if cfg.RateLimit != nil {
		api.Use(cfg.RateLimit)
	}

	NewTaskHandler(cfg.Repos, log).RegisterRoutes(api.PathPrefix("/tasks").Subrouter())
	NewGoalHandler(cfg.Repos, cfg.Planner, cfg.Queue, log).RegisterRoutes(api.PathPrefix("/goals").Subrouter())
	NewMoodHandler(cfg.Repos, cfg.Planner, log).RegisterRoutes(api.PathPrefix("/mood").Subrouter())
	NewScheduleHandler(cfg.Repos, cfg.Planner, cfg.Queue, log).RegisterRoutes(api.PathPrefix("/schedule").Subrouter())

	voice := NewVoiceHandler(cfg.Repos, cfg.Planner, sessions, log)
	voice.RegisterRoutes(api.PathPrefix("/voice").Subrouter())
	api.HandleFunc("/greeting", voice.Greeting).Methods(http.MethodGet)

	// Preflight requests; CORS middleware has already written the headers.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

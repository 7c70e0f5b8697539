package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/conversation"
	"github.com/benvon/study-planner/internal/credentials"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/handlers"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/middleware"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/benvon/study-planner/internal/telemetry"
	"go.uber.org/zap"
)

// requestTimeoutSlack is added to the AI timeout so a synchronous generation
// can finish before the request deadline.
const requestTimeoutSlack = 15 * time.Second

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ResolveAPIKey(credentials.GetAPIKey)

	// Override debug mode if flag is set
	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLoggerWithFile(debugMode, logger.FileOptions{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	tracing := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), handlers.ServiceName, cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracing = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Connect to database and bring the schema up to date
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	applied, err := db.EnsureSchema(context.Background())
	if err != nil {
		zapLogger.Fatal("failed_to_apply_migrations", zap.Error(err))
	}
	zapLogger.Info("connected_to_database", zap.Int("migrations_applied", applied))

	healthChecks := map[string]handlers.Pinger{
		"database": handlers.PingFunc(db.PingContext),
		"redis":    nil,
		"rabbitmq": nil,
	}

	// Rate limiting: Redis when reachable, otherwise per-process memory
	var rateLimit func(http.Handler) http.Handler
	redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
	if err != nil {
		zapLogger.Warn("redis_unavailable_using_in_memory_rate_limit", zap.Error(err))
		rateLimit, err = middleware.InMemoryRateLimit(cfg.RateLimit, zapLogger)
	} else {
		defer func() {
			if err := redisLimiter.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		healthChecks["redis"] = redisLimiter
		zapLogger.Info("connected_to_redis")
		rateLimit, err = redisLimiter.Middleware(cfg.RateLimit, zapLogger)
	}
	if err != nil {
		zapLogger.Fatal("invalid_rate_limit", zap.String("rate", cfg.RateLimit), zap.Error(err))
	}

	// RabbitMQ is optional; queued planning is disabled without it
	var jobQueue queue.JobQueue
	if cfg.RabbitMQURL != "" {
		rmq, err := connectQueue(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Warn("rabbitmq_unavailable_queued_planning_disabled", zap.Error(err))
		} else {
			defer func() {
				if err := rmq.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
			jobQueue = rmq
			healthChecks["rabbitmq"] = handlers.PingFunc(rmq.HealthCheck)
			zapLogger.Info("connected_to_rabbitmq")
		}
	}

	// Initialize AI provider; without one every operation uses its fallback
	var generator ai.Generator
	if err := cfg.RequireAPIKey(); err != nil {
		zapLogger.Warn("ai_key_not_configured_using_fallbacks")
	} else if generator, err = ai.NewGenerator(cfg.AIProvider, cfg.ProviderConfig(), zapLogger, debugMode); err != nil {
		zapLogger.Warn("failed_to_create_ai_provider_using_fallbacks", zap.Error(err))
		generator = nil
	}

	verifier, err := middleware.NewTokenVerifier(cfg.JWTSecret, "")
	if err != nil {
		zapLogger.Fatal("invalid_jwt_secret", zap.Error(err))
	}

	sessions := conversation.NewRegistry()
	requestTimeout := cfg.AITimeout + requestTimeoutSlack

	r := handlers.NewRouter(handlers.RouterConfig{
		Repos:          database.NewPostgresRepositories(db),
		Planner:        planner.NewService(generator, zapLogger),
		Queue:          jobQueue,
		Sessions:       sessions,
		Verifier:       verifier,
		RateLimit:      rateLimit,
		HealthChecks:   healthChecks,
		FrontendURL:    cfg.FrontendURL,
		EnableHSTS:     strings.HasPrefix(cfg.BaseURL, "https://"),
		Tracing:        tracing,
		RequestTimeout: requestTimeout,
		Logger:         zapLogger,
	})

	// Setup server
	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   requestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	go sweepSessions(bgCtx, sessions, cfg.SessionIdleTTL, zapLogger)

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	bgCancel()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueue retries the RabbitMQ connection with exponential backoff to
// ride out broker startup.
func connectQueue(url string, zapLogger *zap.Logger) (*queue.RabbitMQQueue, error) {
	const maxRetries = 5
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url, zapLogger)
		if err == nil {
			return q, nil
		}
		lastErr = err

		delay := min(initialDelay*time.Duration(1<<uint(attempt)), 30*time.Second)
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}
	return nil, lastErr
}

// sweepSessions ends conversations idle for longer than ttl.
func sweepSessions(ctx context.Context, sessions *conversation.Registry, ttl time.Duration, zapLogger *zap.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(ttl); n > 0 {
				zapLogger.Debug("swept_idle_conversations",
					zap.Int("ended", n),
					zap.Int("active", sessions.Len()))
			}
		}
	}
}

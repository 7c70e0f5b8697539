package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/credentials"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/benvon/study-planner/internal/telemetry"
	"github.com/benvon/study-planner/internal/workers"
	"go.uber.org/zap"
)

const serviceName = "study-planner-worker"

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireQueue(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.ResolveAPIKey(credentials.GetAPIKey)

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

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

	zapLogger.Info("Starting worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
	)

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(context.Background(), serviceName, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("Failed to initialize tracer", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("Failed to shut down tracer", zap.Error(err))
				}
			}()
		}
	}

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("Failed to close database connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to database")

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("Failed to close RabbitMQ connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to RabbitMQ", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	// Without a provider every job completes with its fallback
	var generator ai.Generator
	if cfg.RequireAPIKey() == nil {
		generator, err = ai.NewGenerator(cfg.AIProvider, cfg.ProviderConfig(), zapLogger, debugMode)
		if err != nil {
			zapLogger.Fatal("Failed to create AI provider", zap.String("provider", cfg.AIProvider), zap.Error(err))
		}
		zapLogger.Info("Initialized AI provider",
			zap.String("provider", cfg.AIProvider),
			zap.String("model", cfg.AIModel),
		)
	} else {
		zapLogger.Warn("No AI API key configured; jobs will use fallbacks")
	}

	worker := workers.NewPlannerWorker(
		planner.NewService(generator, zapLogger),
		database.NewPostgresRepositories(db),
		jobQueue,
		zapLogger,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if cfg.DLQGCInterval > 0 {
		sweeper := queue.NewDLQSweeper(jobQueue, cfg.DLQGCInterval, cfg.DLQRetention, zapLogger)
		go func() {
			if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("DLQ sweeper stopped", zap.Error(err))
			}
		}()
		zapLogger.Info("Started DLQ sweeper",
			zap.Duration("interval", cfg.DLQGCInterval),
			zap.Duration("retention", cfg.DLQRetention))
	}

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("Failed to start consuming messages", zap.Error(err))
	}

	zapLogger.Info("Worker started, consuming messages from queue")

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx, msgChan, errChan)
	}()

	// Wait for shutdown signal or the delivery channel to close
	select {
	case <-sigChan:
		zapLogger.Info("Shutdown signal received, stopping worker...")
	case <-done:
		zapLogger.Warn("Message channel closed, stopping worker...")
	}

	// Cancel context to stop processing
	cancel()
	<-done

	zapLogger.Info("Worker stopped")
}

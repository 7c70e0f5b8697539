// Package planner turns tasks, goals and mood into schedules and assistant
// replies. Every operation returns a usable result: when the generator fails
// or its output does not validate, a deterministic fallback is returned along
// with the failure kind.
package planner

import (
	"context"
	"time"

	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Source tells whether a result came from the generator or a fallback.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Service is stateless apart from its collaborators. A nil generator makes
// every operation take its fallback path.
type Service struct {
	generator ai.Generator
	logger    *zap.Logger
	now       func() time.Time
	newID     func() uuid.UUID
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how task ids are minted.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a planner service.
func NewService(generator ai.Generator, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		generator: generator,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasGenerator reports whether a generative provider is configured.
func (s *Service) HasGenerator() bool {
	return s.generator != nil
}

// generate runs a single generation and decodes it into T. It never retries.
func generate[T any](ctx context.Context, s *Service, req ai.GenerateRequest, validate ai.SchemaValidator[T]) (T, error) {
	var zero T
	if s.generator == nil {
		return zero, &ai.ProviderError{Operation: req.Operation, Kind: ai.FailureUnavailable, Err: ai.ErrNoGenerator}
	}
	raw, err := s.generator.Generate(ctx, req)
	if err != nil {
		return zero, ai.NewProviderError(req.Operation, err)
	}
	return ai.ExtractJSON(req.Operation, raw, validate)
}

func (s *Service) logFallback(operation string, err error) {
	s.logger.Warn("planner_fallback",
		zap.String("operation", operation),
		zap.String("failure_kind", string(ai.KindOf(err))),
		zap.Error(err),
	)
}

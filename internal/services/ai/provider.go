package ai

import (
	"context"

	"go.uber.org/zap"
)

// Schema describes the JSON shape a generation must conform to.
// Definition is a JSON Schema document.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// GenerateRequest is a single structured generation.
type GenerateRequest struct {
	// Operation names the call for logs, traces and observer events
	Operation    string
	SystemPrompt string
	Prompt       string
	Schema       Schema
}

// Generator is the generative text service. Generate returns the raw JSON
// text produced for req, or an error (usually a *ProviderError). A single
// call is made per invocation; implementations do not retry.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return f(ctx, req)
}

// ProviderFactory creates a generator from provider-specific settings
type ProviderFactory func(config map[string]string) (Generator, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (Generator, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}

// NewGenerator builds the named provider with every built-in provider
// registered and call events logged to logger.
func NewGenerator(name string, config map[string]string, logger *zap.Logger, debugMode bool) (Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := NewProviderRegistry()
	RegisterOpenAI(registry, logger, debugMode, NewLogObserver(logger))
	return registry.GetProvider(name, config)
}

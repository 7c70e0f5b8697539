package ai

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	defaultSystemPrompt = "You are a supportive study assistant. Respond with valid JSON only."
	tracerName          = "github.com/benvon/study-planner/internal/services/ai"
)

// OpenAIProvider implements Generator using OpenAI's chat completions API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	timeout   time.Duration
	logger    *zap.Logger
	debugMode bool
	observer  Observer
	tracer    trace.Tracer
}

// OpenAIOptions configures an OpenAIProvider.
type OpenAIOptions struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	Logger    *zap.Logger
	DebugMode bool
	Observer  Observer
}

// NewOpenAIProvider creates a new OpenAI provider with default settings
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithOptions(OpenAIOptions{APIKey: apiKey, Model: model})
}

// NewOpenAIProviderWithOptions creates a new OpenAI provider
func NewOpenAIProviderWithOptions(opts OpenAIOptions) *OpenAIProvider {
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenAIBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = NoopObserver{}
	}

	httpClient := &http.Client{
		Timeout: opts.Timeout,
	}

	// One attempt per call; a failure goes straight to the caller's fallback.
	client := openai.NewClient(
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(opts.BaseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)

	return &OpenAIProvider{
		client:    client,
		model:     opts.Model,
		timeout:   opts.Timeout,
		logger:    opts.Logger,
		debugMode: opts.DebugMode,
		observer:  opts.Observer,
		tracer:    otel.Tracer(tracerName),
	}
}

// Model returns the configured model name
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Generate sends req as a single chat completion constrained to req.Schema
// and returns the message content.
func (p *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "ai.generate", trace.WithAttributes(
		attribute.String("ai.operation", req.Operation),
		attribute.String("ai.model", p.model),
	))
	defer span.End()

	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(req.Prompt),
		},
		ResponseFormat: responseFormat(req.Schema),
	}

	requestID := ExtractRequestID(ctx)
	userID := ExtractUserID(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", req.Operation),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(req.Prompt)),
			zap.String("prompt_preview", SanitizePrompt(req.Prompt, true)),
			zap.String("user_id", userID),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err == nil && len(resp.Choices) == 0 {
		err = ErrNoChoices
	}
	if err != nil {
		pe := NewProviderError(req.Operation, err)
		span.RecordError(pe)
		span.SetStatus(codes.Error, string(pe.Kind))
		if p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", req.Operation),
				zap.String("model", p.model),
				zap.String("failure_kind", string(pe.Kind)),
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		p.observer.OnCallComplete(CallEvent{
			Operation:   req.Operation,
			Model:       p.model,
			Latency:     latency,
			FailureKind: pe.Kind,
		})
		return "", pe
	}

	content := resp.Choices[0].Message.Content
	span.SetAttributes(attribute.Int("ai.response_length", len(content)))
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", req.Operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("user_id", userID),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	p.observer.OnCallComplete(CallEvent{
		Operation: req.Operation,
		Model:     p.model,
		Latency:   latency,
		Success:   true,
	})
	return content, nil
}

func responseFormat(schema Schema) openai.ChatCompletionNewParamsResponseFormatUnion {
	if schema.Name == "" || schema.Definition == nil {
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	jsonSchema := shared.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   schema.Name,
		Schema: schema.Definition,
	}
	if schema.Description != "" {
		jsonSchema.Description = openai.String(schema.Description)
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{JSONSchema: jsonSchema},
	}
}

// RegisterOpenAI registers the OpenAI provider. Recognised config keys are
// api_key (required), base_url, model and timeout_seconds.
func RegisterOpenAI(registry *ProviderRegistry, logger *zap.Logger, debugMode bool, observer Observer) {
	registry.Register("openai", func(config map[string]string) (Generator, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		opts := OpenAIOptions{
			APIKey:    apiKey,
			BaseURL:   config["base_url"],
			Model:     config["model"],
			Logger:    logger,
			DebugMode: debugMode,
			Observer:  observer,
		}
		if raw := config["timeout_seconds"]; raw != "" {
			seconds, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid openai timeout_seconds %q: %w", raw, err)
			}
			opts.Timeout = time.Duration(seconds) * time.Second
		}

		return NewOpenAIProviderWithOptions(opts), nil
	})
}

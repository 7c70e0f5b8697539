package telemetry_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/handlers"
	"github.com/benvon/study-planner/internal/middleware"
	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/benvon/study-planner/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const secret = "0123456789abcdef0123456789abcdef"

// TestRouterTracePropagation verifies that API requests join an incoming
// trace and that spans started inside a handler's context share it.
func TestRouterTracePropagation(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.Cleanup(func() { _ = telemetry.Shutdown(context.Background(), tp) })

	verifier, err := middleware.NewTokenVerifier(secret, "")
	if err != nil {
		t.Fatalf("NewTokenVerifier() error = %v", err)
	}
	token, err := verifier.Issue("alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Repos:    database.NewMemoryRepositories(),
		Planner:  planner.NewService(nil, zap.NewNop()),
		Verifier: verifier,
		Tracing:  true,
		Logger:   zap.NewNop(),
	})

	tests := []struct {
		name        string
		path        string
		traceParent string
		wantTraceID string
	}{
		{
			name: "health check starts a new trace",
			path: "/healthz",
		},
		{
			name:        "api request joins the caller's trace",
			path:        "/api/v1/mood/trend",
			traceParent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
			wantTraceID: "4bf92f3577b34da6a3ce929d0e0e4736",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			if tt.traceParent != "" {
				req.Header.Set("traceparent", tt.traceParent)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status OK, got %d: %s", rr.Code, rr.Body.String())
			}
			if err := tp.ForceFlush(context.Background()); err != nil {
				t.Fatalf("Failed to flush tracer provider: %v", err)
			}

			spans := exporter.GetSpans()
			if len(spans) == 0 {
				t.Fatal("Expected a server span")
			}
			span := spans[0]
			if span.SpanKind != trace.SpanKindServer {
				t.Errorf("Expected server span, got %v", span.SpanKind)
			}
			if !span.SpanContext.TraceID().IsValid() {
				t.Error("Expected valid trace ID in span")
			}
			if tt.wantTraceID != "" && span.SpanContext.TraceID().String() != tt.wantTraceID {
				t.Errorf("Expected trace ID %s, got %s", tt.wantTraceID, span.SpanContext.TraceID())
			}
		})
	}
}

func TestStartSpanJoinsParent(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = telemetry.Shutdown(context.Background(), tp) })

	ctx, parent := telemetry.StartSpan(context.Background(), "planner.job")
	_, child := telemetry.StartSpan(ctx, "llm.generate")
	telemetry.EndSpan(child, nil)
	telemetry.EndSpan(parent, nil)

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(spans))
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("Expected the child span to be parented by planner.job")
	}
	if spans[0].SpanContext.TraceID() != spans[1].SpanContext.TraceID() {
		t.Error("Expected both spans in one trace")
	}
}

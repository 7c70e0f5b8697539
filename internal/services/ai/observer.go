package ai

import (
	"time"

	"go.uber.org/zap"
)

// CallEvent records the outcome of one generative call.
type CallEvent struct {
	Operation   string
	Model       string
	Latency     time.Duration
	Success     bool
	FailureKind FailureKind
}

// Observer receives an event for every generative call.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver writes call events to a zap logger.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates an Observer that logs events to logger.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnCallComplete(event CallEvent) {
	fields := []zap.Field{
		zap.String("operation", event.Operation),
		zap.String("model", event.Model),
		zap.Int64("latency_ms", event.Latency.Milliseconds()),
		zap.Bool("success", event.Success),
	}
	if !event.Success {
		fields = append(fields, zap.String("failure_kind", string(event.FailureKind)))
		o.logger.Warn("llm_call", fields...)
		return
	}
	o.logger.Info("llm_call", fields...)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}

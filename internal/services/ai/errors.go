package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
)

var (
	// ErrNoGenerator is returned when no generative provider is configured
	ErrNoGenerator = errors.New("no generator configured")
	// ErrInvalidOutput marks a generation that could not be decoded into the expected shape
	ErrInvalidOutput = errors.New("invalid generator output")
	// ErrNoChoices is returned when the provider response has no choices
	ErrNoChoices = errors.New("no choices in response")
)

// FailureKind classifies why a generation could not be used.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureValidation  FailureKind = "validation"
	FailureRateLimit   FailureKind = "rate_limit"
	FailureQuota       FailureKind = "quota"
	FailureAuth        FailureKind = "auth"
	FailureTimeout     FailureKind = "timeout"
	FailureCanceled    FailureKind = "canceled"
	FailureNetwork     FailureKind = "network"
	FailureUnavailable FailureKind = "unavailable"
	FailureUnknown     FailureKind = "unknown"
)

// Transient reports whether retrying later could plausibly succeed.
func (k FailureKind) Transient() bool {
	switch k {
	case FailureRateLimit, FailureTimeout, FailureNetwork, FailureUnavailable:
		return true
	}
	return false
}

// ValidationError is a generation that does not conform to its declared shape.
type ValidationError struct {
	Operation string
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid response field %s: %s", e.Operation, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: invalid response: %s", e.Operation, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidOutput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidOutput
}

// ProviderError is a failure of the generative call itself.
type ProviderError struct {
	Operation  string
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: provider error (%s, status %d): %v", e.Operation, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: provider error (%s): %v", e.Operation, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err, classifying it by API status code, context
// state, or network condition.
func NewProviderError(operation string, err error) *ProviderError {
	var existing *ProviderError
	if errors.As(err, &existing) {
		return existing
	}
	pe := &ProviderError{Operation: operation, Kind: FailureUnknown, Err: err}

	var apiErr *openai.Error
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		pe.Kind = FailureCanceled
	case errors.Is(err, context.DeadlineExceeded):
		pe.Kind = FailureTimeout
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.StatusCode
		pe.Kind = kindForStatus(apiErr.StatusCode, apiErr.Code)
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			pe.Kind = FailureTimeout
		} else {
			pe.Kind = FailureNetwork
		}
	}
	return pe
}

func kindForStatus(status int, code string) FailureKind {
	switch {
	case status == http.StatusTooManyRequests && code == "insufficient_quota":
		return FailureQuota
	case status == http.StatusTooManyRequests:
		return FailureRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return FailureAuth
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return FailureTimeout
	case status >= 500:
		return FailureUnavailable
	default:
		return FailureUnknown
	}
}

// KindOf returns the failure kind carried by err, or FailureNone for nil.
func KindOf(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return FailureValidation
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.Canceled) {
		return FailureCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	return FailureUnknown
}

// GetRetryDelay calculates the delay before retrying a queued job that failed
// with err on the given attempt. The generative call itself is never retried.
func GetRetryDelay(err error, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 10 {
		attempt = 10
	}
	shift := uint(attempt)

	switch KindOf(err) {
	case FailureQuota:
		delay := time.Hour * time.Duration(1<<shift)
		if delay > 24*time.Hour {
			delay = 24 * time.Hour
		}
		return delay
	case FailureRateLimit:
		delay := 60 * time.Second * time.Duration(1<<shift)
		if delay > 15*time.Minute {
			delay = 15 * time.Minute
		}
		return delay
	}

	// Default: exponential backoff starting at 5 seconds
	delay := 5 * time.Second * time.Duration(1<<shift)
	if delay > 5*time.Minute {
		delay = 5 * time.Minute
	}
	return delay
}

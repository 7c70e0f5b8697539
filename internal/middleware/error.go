package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/study-planner/internal/request"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every error the middleware chain writes
// itself, before a request reaches a handler.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
}

const panicMessage = "An unexpected error occurred"

// ErrorHandler recovers from panics in next. The panic value and stack go to
// the log only; the client gets a generic 500 carrying its request id. When
// the handler had already started its response the connection is left as is,
// and http.ErrAbortHandler is re-raised so net/http can abort the response.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracked := &startedWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic_recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", request.RequestIDFromContext(r.Context())),
					zap.Bool("response_started", tracked.started),
					zap.Stack("stack"),
				)
				if !tracked.started {
					writeJSONError(w, r, http.StatusInternalServerError, "Internal Server Error", panicMessage, logger)
				}
			}()
			next.ServeHTTP(tracked, r)
		})
	}
}

// startedWriter notes whether any part of the response has been sent.
type startedWriter struct {
	http.ResponseWriter
	started bool
}

func (w *startedWriter) WriteHeader(code int) {
	w.started = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *startedWriter) Write(b []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(b)
}

func (w *startedWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// writeJSONError writes an ErrorResponse with status. logger may be nil.
func writeJSONError(w http.ResponseWriter, r *http.Request, status int, errorType, message string, logger *zap.Logger) {
	body := ErrorResponse{
		Error:     errorType,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
		RequestID: request.RequestIDFromContext(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && logger != nil {
		logger.Warn("error_response_write_failed",
			zap.Int("status_code", status),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
}

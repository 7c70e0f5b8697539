package ai

import (
	"encoding/json"
	"strings"

	"github.com/benvon/study-planner/internal/validation"
)

// SchemaValidator checks a decoded value. It returns nil if valid.
type SchemaValidator[T any] func(T) error

// ExtractJSON decodes the first JSON object in raw into T and validates it.
// Markdown code fences and text around the object are ignored. Any failure is
// returned as a *ValidationError for operation.
func ExtractJSON[T any](operation, raw string, validate SchemaValidator[T]) (T, error) {
	var zero T

	block := extractJSONBlock(stripCodeFences(raw))
	if block == "" {
		return zero, &ValidationError{Operation: operation, Reason: "no JSON object found in response"}
	}

	var result T
	if err := json.Unmarshal([]byte(block), &result); err != nil {
		field := ""
		if typeErr, ok := err.(*json.UnmarshalTypeError); ok {
			field = typeErr.Field
		}
		return zero, &ValidationError{Operation: operation, Field: field, Reason: err.Error()}
	}

	if validate != nil {
		if err := validate(result); err != nil {
			if ve, ok := err.(*ValidationError); ok {
				if ve.Operation == "" {
					ve.Operation = operation
				}
				return zero, ve
			}
			return zero, &ValidationError{Operation: operation, Reason: err.Error()}
		}
	}

	return result, nil
}

// ValidateStruct runs the shared struct-tag validator over v and reports the
// first failing field.
func ValidateStruct[T any](v T) error {
	if err := validation.Struct(v); err != nil {
		field, tag := validation.FirstFieldError(err)
		if field == "" {
			return &ValidationError{Reason: err.Error()}
		}
		return &ValidationError{Field: field, Reason: "failed " + tag + " check"}
	}
	return nil
}

// stripCodeFences removes markdown code fence lines (```json ... ```).
func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// extractJSONBlock finds the first balanced { ... } block in the text.
func extractJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}

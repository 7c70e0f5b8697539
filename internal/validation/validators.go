package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/study-planner/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	register := map[string]validator.Func{
		"priority":    validatePriority,
		"difficulty":  validateDifficulty,
		"intensity":   validateIntensity,
		"goal_status": validateGoalStatus,
		"mood_score":  validateMoodScore,
	}
	for tag, fn := range register {
		if err := Validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}
}

func validatePriority(fl validator.FieldLevel) bool {
	return models.Priority(fl.Field().String()).IsValid()
}

func validateDifficulty(fl validator.FieldLevel) bool {
	return models.Difficulty(fl.Field().String()).IsValid()
}

func validateIntensity(fl validator.FieldLevel) bool {
	return models.Intensity(fl.Field().String()).IsValid()
}

func validateGoalStatus(fl validator.FieldLevel) bool {
	return models.GoalStatus(fl.Field().String()).IsValid()
}

func validateMoodScore(fl validator.FieldLevel) bool {
	score := fl.Field().Int()
	return score >= models.MinMoodScore && score <= models.MaxMoodScore
}

// Struct validates s against its struct tags
func Struct(s any) error {
	return Validate.Struct(s)
}

// FirstFieldError returns the namespace and failing tag of the first field
// error in err, or empty strings when err is not a validation error.
func FirstFieldError(err error) (field, tag string) {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "", ""
	}
	return verrs[0].Namespace(), verrs[0].Tag()
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidatePriority validates a Priority string value
func ValidatePriority(value string) error {
	if !models.Priority(value).IsValid() {
		return fmt.Errorf("invalid priority: %s (must be 'low', 'medium', or 'high')", value)
	}
	return nil
}

// ValidateDifficulty validates a Difficulty string value
func ValidateDifficulty(value string) error {
	if !models.Difficulty(value).IsValid() {
		return fmt.Errorf("invalid difficulty: %s (must be 'easy', 'medium', or 'hard')", value)
	}
	return nil
}

package planner

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/mood"
	"github.com/benvon/study-planner/internal/services/ai"
)

const (
	maxGreetingLength        = 100
	minRecommendedActivities = 3
	maxRecommendedActivities = 5
)

// ErrKeyCheckFailed is returned when the provider answers but not as asked.
var ErrKeyCheckFailed = errors.New("API key check returned an unexpected answer")

// MoodAnalysis is study guidance for a mood score.
type MoodAnalysis struct {
	Source                Source           `json:"source"`
	Label                 models.MoodLabel `json:"label"`
	StudySuggestion       string           `json:"study_suggestion" validate:"required"`
	IntensityAdjustment   string           `json:"intensity_adjustment" validate:"required"`
	MotivationalMessage   string           `json:"motivational_message" validate:"required"`
	RecommendedActivities []string         `json:"recommended_activities" validate:"required,min=1,dive,required"`
	FailureKind           ai.FailureKind   `json:"failure_kind,omitempty"`
}

func fallbackMoodAnalysis() MoodAnalysis {
	return MoodAnalysis{
		Source:                SourceFallback,
		StudySuggestion:       "Take a light review session",
		IntensityAdjustment:   "Reduce intensity by 20%",
		MotivationalMessage:   "It's okay to have off days. You're doing great!",
		RecommendedActivities: []string{"Light reading", "Review notes", "Take a break"},
	}
}

func moodLabel(score int) models.MoodLabel {
	return mood.Label(models.ClampMoodScore(score))
}

// AnalyzeMood suggests how to study given a mood score and a free-text
// description. Any failure yields fixed, gentle guidance.
func (s *Service) AnalyzeMood(ctx context.Context, score int, description string) *MoodAnalysis {
	score = models.ClampMoodScore(score)
	req := ai.GenerateRequest{
		Operation:    opMoodAnalysis,
		SystemPrompt: "You are a supportive study coach. Respond with JSON only.",
		Prompt:       buildMoodPrompt(score, strings.TrimSpace(description)),
		Schema:       moodAnalysisSchema,
	}

	analysis, err := generate(ctx, s, req, ai.ValidateStruct[MoodAnalysis])
	if err != nil {
		s.logFallback(opMoodAnalysis, err)
		analysis = fallbackMoodAnalysis()
		analysis.FailureKind = ai.KindOf(err)
	} else {
		analysis.Source = SourceAI
		analysis.FailureKind = ai.FailureNone
		if len(analysis.RecommendedActivities) > maxRecommendedActivities {
			analysis.RecommendedActivities = analysis.RecommendedActivities[:maxRecommendedActivities]
		}
		for _, extra := range fallbackMoodAnalysis().RecommendedActivities {
			if len(analysis.RecommendedActivities) >= minRecommendedActivities {
				break
			}
			analysis.RecommendedActivities = append(analysis.RecommendedActivities, extra)
		}
	}
	analysis.Label = moodLabel(score)
	return &analysis
}

// Greeting is a short personalized welcome.
type Greeting struct {
	Source      Source         `json:"source"`
	Text        string         `json:"greeting"`
	FailureKind ai.FailureKind `json:"failure_kind,omitempty"`
}

type greetingResponse struct {
	Greeting string `json:"greeting" validate:"required"`
}

func timeOfDay(hour int) string {
	switch {
	case hour < 12:
		return "Good morning"
	case hour < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// Greet writes a greeting for name that fits in 100 characters.
func (s *Service) Greet(ctx context.Context, name string) *Greeting {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Student"
	}
	salutation := timeOfDay(s.now().Hour())

	req := ai.GenerateRequest{
		Operation: opGreeting,
		Prompt:    buildGreetingPrompt(name, strings.ToLower(strings.TrimPrefix(salutation, "Good "))),
		Schema:    greetingSchema,
	}
	validate := func(g greetingResponse) error {
		if err := ai.ValidateStruct(g); err != nil {
			return err
		}
		if n := utf8.RuneCountInString(strings.TrimSpace(g.Greeting)); n == 0 || n >= maxGreetingLength {
			return &ai.ValidationError{Field: "greeting", Reason: "must be 1 to 99 characters"}
		}
		return nil
	}

	resp, err := generate(ctx, s, req, validate)
	if err != nil {
		s.logFallback(opGreeting, err)
		return &Greeting{
			Source:      SourceFallback,
			Text:        salutation + ", " + name + "! Ready to learn?",
			FailureKind: ai.KindOf(err),
		}
	}
	return &Greeting{Source: SourceAI, Text: strings.TrimSpace(resp.Greeting)}
}

type keyCheckResponse struct {
	Hello bool `json:"hello"`
}

// CheckAPIKey makes one minimal generation to confirm the provider accepts
// the configured credentials.
func (s *Service) CheckAPIKey(ctx context.Context) error {
	req := ai.GenerateRequest{
		Operation: opKeyCheck,
		Prompt:    `Reply with the JSON object {"hello": true}.`,
		Schema:    keyCheckSchema,
	}
	resp, err := generate[keyCheckResponse](ctx, s, req, nil)
	if err != nil {
		return err
	}
	if !resp.Hello {
		return ErrKeyCheckFailed
	}
	return nil
}

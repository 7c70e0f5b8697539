package planner

import (
	"context"
	"errors"
	"strings"

	"github.com/benvon/study-planner/internal/conversation"
	"github.com/benvon/study-planner/internal/intent"
	"github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/services/ai"
	"go.uber.org/zap"
)

const (
	// DefaultVoiceResponse is used when a generation carries no reply text.
	DefaultVoiceResponse = "I understand your request. How can I help you further?"
	// VoiceErrorResponse is the reply for a command that could not be processed.
	VoiceErrorResponse = "Sorry, I couldn't process your command. Please try again."
)

// Action is what the assistant decided to do with a command.
type Action string

const (
	ActionAddTask            Action = "add_task"
	ActionAddGoal            Action = "add_goal"
	ActionCheckSchedule      Action = "check_schedule"
	ActionAnalyzeMood        Action = "analyze_mood"
	ActionGenerateFlashcards Action = "generate_flashcards"
	ActionUnknown            Action = "unknown"
	ActionError              Action = "error"
)

var knownActions = []Action{
	ActionAddTask, ActionAddGoal, ActionCheckSchedule, ActionAnalyzeMood,
	ActionGenerateFlashcards, ActionUnknown, ActionError,
}

// IsValid reports whether a is one of the known actions
func (a Action) IsValid() bool {
	for _, known := range knownActions {
		if a == known {
			return true
		}
	}
	return false
}

func actionValues() []string {
	values := make([]string, len(knownActions))
	for i, a := range knownActions {
		values[i] = string(a)
	}
	return values
}

// VoiceParameters carries the fields of a task or goal named in a command.
type VoiceParameters struct {
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Priority    models.Priority `json:"priority,omitempty"`
	DueDate     string          `json:"due_date,omitempty"`
}

// VoiceResult is the interpretation of one command.
type VoiceResult struct {
	Intent         intent.Intent         `json:"intent"`
	Action         Action                `json:"action"`
	Parameters     VoiceParameters       `json:"parameters"`
	Response       string                `json:"response"`
	Classification intent.Classification `json:"classification"`
	Source         Source                `json:"source"`
	FailureKind    ai.FailureKind        `json:"failure_kind,omitempty"`
	// Recorded is false when the exchange was not appended to the buffer.
	Recorded bool `json:"recorded"`
}

type voiceResponse struct {
	Intent     intent.Intent   `json:"intent"`
	Action     Action          `json:"action"`
	Parameters VoiceParameters `json:"parameters"`
	Response   string          `json:"response"`
}

// ProcessCommand interprets an utterance using the conversation so far and
// records the exchange in buf. A call whose context is cancelled before the
// generation completes records nothing, so a superseded command never
// appears in the history.
func (s *Service) ProcessCommand(ctx context.Context, buf *conversation.Buffer, utterance string) *VoiceResult {
	command := strings.TrimSpace(utterance)
	result := &VoiceResult{Classification: intent.Classify(command)}

	if command == "" {
		result.Intent = intent.IntentGeneral
		result.Action = ActionUnknown
		result.Response = DefaultVoiceResponse
		result.Source = SourceFallback
		return result
	}

	req := ai.GenerateRequest{
		Operation:    opVoiceCommand,
		SystemPrompt: "You are a friendly study assistant. Respond with JSON only.",
		Prompt:       buildVoicePrompt(command, buf.Prompt()),
		Schema:       voiceCommandSchema,
	}
	resp, err := generate[voiceResponse](ctx, s, req, nil)

	switch {
	case err == nil:
		result.Source = SourceAI
		result.Intent = resp.Intent
		if !result.Intent.IsValid() {
			result.Intent = intent.IntentGeneral
		}
		result.Action = resp.Action
		if !result.Action.IsValid() {
			result.Action = ActionUnknown
		}
		result.Parameters = resp.Parameters
		if result.Parameters.Priority != "" {
			result.Parameters.Priority = result.Parameters.Priority.OrDefault()
		}
		result.Response = strings.TrimSpace(resp.Response)
		if result.Response == "" {
			result.Response = DefaultVoiceResponse
		}
	case ctx.Err() != nil:
		s.logger.Info("voice_command_superseded",
			zap.String("utterance", logger.SanitizeUtterance(command)),
			zap.Error(ctx.Err()),
		)
		result.Intent = result.Classification.Intent
		result.Action = ActionUnknown
		result.Response = VoiceErrorResponse
		result.Source = SourceFallback
		result.FailureKind = ai.KindOf(err)
		return result
	case errors.Is(err, ai.ErrNoGenerator):
		result.Source = SourceFallback
		result.FailureKind = ai.KindOf(err)
		result.Intent = result.Classification.Intent
		result.Action = offlineAction(result.Intent)
		result.Response = intent.Reply(result.Classification.Intent, result.Classification.Mood)
	default:
		s.logFallback(opVoiceCommand, err)
		result.Source = SourceFallback
		result.FailureKind = ai.KindOf(err)
		result.Intent = intent.IntentGeneral
		result.Action = ActionError
		result.Response = VoiceErrorResponse
	}

	buf.Append(command, result.Response)
	result.Recorded = true
	return result
}

// offlineAction picks the action implied by a keyword intent when no
// generator is available to extract parameters.
func offlineAction(i intent.Intent) Action {
	switch i {
	case intent.IntentPlanner:
		return ActionCheckSchedule
	case intent.IntentMood:
		return ActionAnalyzeMood
	case intent.IntentFlashcards:
		return ActionGenerateFlashcards
	default:
		return ActionUnknown
	}
}

package planner

import (
	"fmt"
	"strings"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/services/ai"
)

const (
	opSchedule      = "generate_schedule"
	opGoalBreakdown = "breakdown_goal"
	opVoiceCommand  = "process_voice_command"
	opMoodAnalysis  = "analyze_mood"
	opGreeting      = "generate_greeting"
	opKeyCheck      = "check_api_key"

	// maxPromptTasks bounds how many pending tasks are listed in a schedule prompt
	maxPromptTasks = 25
)

func stringProp() map[string]any  { return map[string]any{"type": "string"} }
func integerProp() map[string]any { return map[string]any{"type": "integer"} }

func enumProp(values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values}
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func object(required []string, props map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

var scheduleSchema = ai.Schema{
	Name:        "study_schedule",
	Description: "A study schedule with recommendations and a motivational quote",
	Definition: object([]string{"schedule", "recommendations", "motivational_quote"}, map[string]any{
		"schedule": arrayOf(object([]string{"time", "activity", "duration", "intensity", "mood_adjustment"}, map[string]any{
			"time":            stringProp(),
			"activity":        stringProp(),
			"duration":        integerProp(),
			"intensity":       enumProp("low", "medium", "high"),
			"mood_adjustment": stringProp(),
		})),
		"recommendations":    arrayOf(stringProp()),
		"motivational_quote": stringProp(),
	}),
}

var goalBreakdownSchema = ai.Schema{
	Name:        "goal_breakdown",
	Description: "Actionable tasks for a goal",
	Definition: object([]string{"tasks", "motivational_quote", "total_estimated_time"}, map[string]any{
		"tasks": arrayOf(object([]string{"title", "description", "estimated_time", "priority"}, map[string]any{
			"title":          stringProp(),
			"description":    stringProp(),
			"estimated_time": integerProp(),
			"priority":       enumProp("high", "medium", "low"),
		})),
		"motivational_quote":   stringProp(),
		"total_estimated_time": integerProp(),
	}),
}

var voiceCommandSchema = ai.Schema{
	Name:        "voice_command",
	Description: "Interpretation of an assistant command",
	Definition: object([]string{"intent", "action", "parameters", "response"}, map[string]any{
		"intent": enumProp("mood", "goals", "planner", "flashcards", "motivation", "general"),
		"action": enumProp(actionValues()...),
		"parameters": object(nil, map[string]any{
			"title":       stringProp(),
			"description": stringProp(),
			"priority":    enumProp("high", "medium", "low"),
			"due_date":    stringProp(),
		}),
		"response": stringProp(),
	}),
}

var moodAnalysisSchema = ai.Schema{
	Name:        "mood_analysis",
	Description: "Study guidance for the user's current mood",
	Definition: object([]string{"study_suggestion", "intensity_adjustment", "motivational_message", "recommended_activities"}, map[string]any{
		"study_suggestion":       stringProp(),
		"intensity_adjustment":   stringProp(),
		"motivational_message":   stringProp(),
		"recommended_activities": arrayOf(stringProp()),
	}),
}

var greetingSchema = ai.Schema{
	Name:       "greeting",
	Definition: object([]string{"greeting"}, map[string]any{"greeting": stringProp()}),
}

var keyCheckSchema = ai.Schema{
	Name:       "key_check",
	Definition: object([]string{"hello"}, map[string]any{"hello": map[string]any{"type": "boolean"}}),
}

func buildSchedulePrompt(in ScheduleInput, trend models.MoodTrend, ordered []models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a personalized study schedule for a student.\n")
	fmt.Fprintf(&b, "Current mood: %d/10 (%s, trend %s). Energy level: %d/10.\n",
		in.MoodScore, moodLabel(in.MoodScore), trend, in.EnergyLevel)
	if len(in.Goals) > 0 {
		fmt.Fprintf(&b, "Goals: %s.\n", strings.Join(in.Goals, ", "))
	}
	if len(ordered) > 0 {
		b.WriteString("Pending tasks in suggested order:\n")
		for i, t := range ordered {
			if i == maxPromptTasks {
				fmt.Fprintf(&b, "- and %d more\n", len(ordered)-maxPromptTasks)
				break
			}
			fmt.Fprintf(&b, "- %s (priority %s, difficulty %s", t.Title, t.Priority.OrDefault(), t.Difficulty.OrDefault())
			if t.EstimatedDurationMinutes > 0 {
				fmt.Fprintf(&b, ", about %d min", t.EstimatedDurationMinutes)
			}
			b.WriteString(")\n")
		}
	}
	fmt.Fprintf(&b, "Rules:\n")
	fmt.Fprintf(&b, "- If the total time exceeds %d minutes, split the work over multiple days with no more than %d minutes per day.\n",
		models.MaxDailyStudyMinutes, models.MaxDailyStudyMinutes)
	b.WriteString("- Include at least one meditation session and short breaks (5-10 minutes) between study blocks.\n")
	b.WriteString("- Label meditation and breaks clearly in the activity field.\n")
	b.WriteString("- Give each item a time as HH:MM AM/PM, an activity, a duration in minutes, an intensity (low, medium or high) and a mood_adjustment tip.\n")
	b.WriteString("- Add actionable recommendations and a motivational quote.")
	return b.String()
}

func buildGoalBreakdownPrompt(goal string) string {
	return fmt.Sprintf(`Break down the goal %q into %d actionable, specific daily tasks.
- Each task needs a title, a description, an estimated_time in minutes and a priority (high, medium or low).
- Include a motivational quote and the total estimated time for all tasks.`, goal, goalBreakdownTaskCount)
}

func buildVoicePrompt(command, history string) string {
	var b strings.Builder
	b.WriteString("You are a study assistant that interprets spoken commands.\n")
	if history != "" {
		b.WriteString("Previous conversation:\n")
		b.WriteString(history)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "User command: %q\n", command)
	b.WriteString("Identify the intent, the action to take, any task or goal parameters, and a short friendly response to speak back.")
	return b.String()
}

func buildMoodPrompt(score int, description string) string {
	return fmt.Sprintf(`Based on the student's mood score (%d/10) and description (%q), provide:
- a personalized study suggestion
- an intensity adjustment (work harder, take it easy, or maintain pace)
- a motivational message
- 3 to 5 recommended activities for the current state`, score, description)
}

func buildGreetingPrompt(name, timeOfDay string) string {
	return fmt.Sprintf("Write a friendly greeting for %s that encourages studying. Time of day: %s. Keep it under %d characters.",
		name, timeOfDay, maxGreetingLength)
}

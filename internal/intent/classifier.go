// Package intent classifies free-text utterances with fixed keyword tables.
//
// Each table is an ordered list of rules. Matching is case-insensitive
// substring search and the first rule with any matching keyword wins, so the
// order of the rules is part of the contract.
package intent

import "strings"

// Intent is what the user is asking the assistant to do
type Intent string

const (
	IntentPlanner    Intent = "planner"
	IntentMood       Intent = "mood"
	IntentMotivation Intent = "motivation"
	IntentFlashcards Intent = "flashcards"
	IntentGoals      Intent = "goals"
	IntentGeneral    Intent = "general"
)

// IsValid reports whether i is one of the known intents
func (i Intent) IsValid() bool {
	switch i {
	case IntentPlanner, IntentMood, IntentMotivation, IntentFlashcards, IntentGoals, IntentGeneral:
		return true
	}
	return false
}

// Mood is the emotional state detected in an utterance
type Mood string

const (
	MoodHappy     Mood = "happy"
	MoodSad       Mood = "sad"
	MoodAngry     Mood = "angry"
	MoodTired     Mood = "tired"
	MoodMotivated Mood = "motivated"
	MoodStressed  Mood = "stressed"
	MoodNeutral   Mood = "neutral"
)

// Energy is the energy level detected in an utterance
type Energy string

const (
	EnergyHigh   Energy = "high"
	EnergyMedium Energy = "medium"
	EnergyLow    Energy = "low"
)

// Rule pairs a label with the keywords that select it.
type Rule[L ~string] struct {
	Label    L
	Keywords []string
}

// Table is an ordered rule list with the label used when nothing matches.
type Table[L ~string] struct {
	Rules   []Rule[L]
	Default L
}

// Match returns the label of the first rule with a keyword contained in text,
// and whether any rule matched.
func (t Table[L]) Match(text string) (L, bool) {
	lower := strings.ToLower(text)
	for _, rule := range t.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Label, true
			}
		}
	}
	return t.Default, false
}

// Classify returns the label of the first matching rule or the default.
func (t Table[L]) Classify(text string) L {
	label, _ := t.Match(text)
	return label
}

// IntentTable is scanned planner, mood, motivation, flashcards, goals.
var IntentTable = Table[Intent]{
	Rules: []Rule[Intent]{
		{IntentPlanner, []string{"schedule", "plan", "organize"}},
		{IntentMood, []string{"mood", "feel", "emotion"}},
		{IntentMotivation, []string{"motivation", "inspire", "encourage"}},
		{IntentFlashcards, []string{"flashcard", "study", "learn"}},
		{IntentGoals, []string{"goal", "target", "objective"}},
	},
	Default: IntentGeneral,
}

// MoodTable is scanned happy, sad, angry, tired, motivated, stressed.
var MoodTable = Table[Mood]{
	Rules: []Rule[Mood]{
		{MoodHappy, []string{"happy", "excited", "great", "awesome", "amazing", "wonderful", "fantastic"}},
		{MoodSad, []string{"sad", "depressed", "down", "miserable", "terrible", "awful", "horrible"}},
		{MoodAngry, []string{"angry", "frustrated", "mad", "annoyed", "irritated", "upset"}},
		{MoodTired, []string{"tired", "exhausted", "sleepy", "drained", "fatigued"}},
		{MoodMotivated, []string{"motivated", "energized", "ready", "focused", "determined"}},
		{MoodStressed, []string{"stressed", "anxious", "worried", "overwhelmed", "nervous"}},
	},
	Default: MoodNeutral,
}

// EnergyTable is scanned high, medium, low.
var EnergyTable = Table[Energy]{
	Rules: []Rule[Energy]{
		{EnergyHigh, []string{"energized", "pumped", "ready", "focused", "alert", "awake"}},
		{EnergyMedium, []string{"okay", "fine", "normal", "average", "moderate"}},
		{EnergyLow, []string{"tired", "exhausted", "sleepy", "drained", "fatigued", "low energy"}},
	},
	Default: EnergyMedium,
}

// Classification is the independent result of all three tables.
type Classification struct {
	Intent Intent `json:"intent"`
	Mood   Mood   `json:"mood"`
	Energy Energy `json:"energy"`
}

// Classify runs text through the intent, mood and energy tables.
func Classify(text string) Classification {
	return Classification{
		Intent: IntentTable.Classify(text),
		Mood:   MoodTable.Classify(text),
		Energy: EnergyTable.Classify(text),
	}
}

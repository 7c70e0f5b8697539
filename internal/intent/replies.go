package intent

const defaultReplyKey Mood = ""

var replies = map[Intent]map[Mood]string{
	IntentPlanner: {
		MoodHappy:       "Great! Let's create an amazing schedule for you.",
		MoodSad:         "I understand. Let's make a gentle, manageable plan.",
		MoodTired:       "Let's create a schedule that respects your energy levels.",
		MoodStressed:    "Let's organize your day to reduce stress.",
		defaultReplyKey: "I'll help you plan your day effectively.",
	},
	IntentMood: {
		MoodHappy:       "I'm so glad you're feeling good! Let's keep that energy going.",
		MoodSad:         "It's okay to feel this way. Let's work on something that might help.",
		MoodTired:       "Rest is important. Let's adjust our plans accordingly.",
		MoodStressed:    "Let's take a moment to breathe and find some calm.",
		defaultReplyKey: "How can I help you feel better today?",
	},
	IntentMotivation: {
		MoodHappy:       "Your positive energy is contagious! Keep it up!",
		MoodSad:         "Remember, every expert was once a beginner. You've got this!",
		MoodTired:       "Small steps lead to big changes. Let's start with something simple.",
		MoodStressed:    "You're stronger than you think. Let's break this down together.",
		defaultReplyKey: "You're capable of amazing things. Let's get started!",
	},
	IntentFlashcards: {
		MoodHappy:       "Perfect! Let's make learning fun and engaging.",
		MoodSad:         "Learning can be a great distraction. Let's make it enjoyable.",
		MoodTired:       "Let's keep it light and easy. Small study sessions work wonders.",
		MoodStressed:    "Let's focus on one thing at a time. You'll do great.",
		defaultReplyKey: "Ready to learn something new!",
	},
}

// Reply returns a canned assistant reply for an intent and mood. Intents
// without their own table use the planner replies; moods without a reply get
// the table's default.
func Reply(i Intent, m Mood) string {
	table, ok := replies[i]
	if !ok {
		table = replies[IntentPlanner]
	}
	if reply, ok := table[m]; ok {
		return reply
	}
	return table[defaultReplyKey]
}

var moodScores = map[Mood]int{
	MoodHappy:     8,
	MoodSad:       3,
	MoodAngry:     2,
	MoodTired:     4,
	MoodMotivated: 7,
	MoodStressed:  3,
	MoodNeutral:   5,
}

// MoodScore converts a detected mood into a 1..10 score suitable for a mood entry.
func MoodScore(m Mood) int {
	if score, ok := moodScores[m]; ok {
		return score
	}
	return moodScores[MoodNeutral]
}

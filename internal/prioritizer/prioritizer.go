// Package prioritizer orders pending tasks without any model assistance.
package prioritizer

import (
	"sort"

	"github.com/benvon/study-planner/internal/models"
)

const (
	// LowMoodThreshold is the score below which easy work is surfaced first.
	LowMoodThreshold = 5
	// HighMoodThreshold is the score above which important work is surfaced first.
	HighMoodThreshold = 7
)

// Strategy names the ordering rule selected for a mood score.
type Strategy string

const (
	StrategyEasiestFirst   Strategy = "easiest_first"
	StrategyImportantFirst Strategy = "important_first"
	StrategyBalanced       Strategy = "balanced"
)

// StrategyFor selects the ordering rule for a mood score.
func StrategyFor(moodScore int) Strategy {
	switch {
	case moodScore < LowMoodThreshold:
		return StrategyEasiestFirst
	case moodScore > HighMoodThreshold:
		return StrategyImportantFirst
	default:
		return StrategyBalanced
	}
}

// Order returns the pending tasks of tasks in the order they should be
// tackled given moodScore. The input slice is not modified and tasks with
// equal keys keep their relative input order.
//
// Below mood 5 tasks go by ascending difficulty, then descending priority.
// Otherwise they go by descending priority, then ascending difficulty.
// Missing priority and difficulty both count as medium.
func Order(tasks []models.Task, moodScore int) []models.Task {
	ordered := models.PendingTasks(tasks)
	less := lessFunc(StrategyFor(moodScore))
	sort.SliceStable(ordered, func(i, j int) bool {
		return less(ordered[i], ordered[j])
	})
	return ordered
}

func lessFunc(strategy Strategy) func(a, b models.Task) bool {
	byDifficulty := func(a, b models.Task) (bool, bool) {
		da, db := a.Difficulty.Rank(), b.Difficulty.Rank()
		return da < db, da != db
	}
	byPriority := func(a, b models.Task) (bool, bool) {
		pa, pb := a.Priority.Rank(), b.Priority.Rank()
		return pa > pb, pa != pb
	}

	keys := []func(a, b models.Task) (bool, bool){byPriority, byDifficulty}
	if strategy == StrategyEasiestFirst {
		keys = []func(a, b models.Task) (bool, bool){byDifficulty, byPriority}
	}

	return func(a, b models.Task) bool {
		for _, key := range keys {
			if less, decided := key(a, b); decided {
				return less
			}
		}
		return false
	}
}

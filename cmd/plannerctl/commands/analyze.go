package commands

import (
	"strings"
	"text/tabwriter"

	"github.com/benvon/study-planner/internal/intent"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/mood"
	"github.com/benvon/study-planner/internal/prioritizer"
	"github.com/spf13/cobra"
)

type classifyResult struct {
	intent.Classification
	Reply     string `json:"reply"`
	MoodScore int    `json:"mood_score"`
}

func newClassifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <utterance>...",
		Short: "Classify an utterance by intent, mood and energy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			c := intent.Classify(strings.Join(args, " "))
			res := classifyResult{
				Classification: c,
				Reply:          intent.Reply(c.Intent, c.Mood),
				MoodScore:      intent.MoodScore(c.Mood),
			}
			return p.emit(res, func(tw *tabwriter.Writer) {
				row(tw, "INTENT", "MOOD", "ENERGY", "SCORE", "REPLY")
				row(tw, res.Intent, res.Mood, res.Energy, res.MoodScore, res.Reply)
			})
		},
	}
}

type prioritizeResult struct {
	MoodScore int                  `json:"mood_score"`
	Strategy  prioritizer.Strategy `json:"strategy"`
	Tasks     []models.Task        `json:"tasks"`
}

func newPrioritizeCmd(opts *options) *cobra.Command {
	var fixturePath string
	var moodScore int

	cmd := &cobra.Command{
		Use:   "prioritize",
		Short: "Order a fixture's pending tasks for a mood",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			f, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}
			score, _, err := f.moodScore(moodScore, opts.now())
			if err != nil {
				return err
			}

			res := prioritizeResult{
				MoodScore: score,
				Strategy:  prioritizer.StrategyFor(score),
				Tasks:     prioritizer.Order(f.tasks(), score),
			}
			return p.emit(res, func(tw *tabwriter.Writer) {
				row(tw, "#", "TITLE", "PRIORITY", "DIFFICULTY", "MINUTES")
				for i, t := range res.Tasks {
					row(tw, i+1, t.Title, t.Priority, t.Difficulty, t.EstimatedDurationMinutes)
				}
				row(tw)
				row(tw, "strategy:", res.Strategy, "mood:", res.MoodScore)
			})
		},
	}

	cmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "YAML fixture with tasks (required)")
	cmd.Flags().IntVarP(&moodScore, "mood", "m", 0, "Mood score 1-10 (defaults to the fixture)")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}

type trendResult struct {
	CurrentScore  int              `json:"current_score"`
	Label         models.MoodLabel `json:"label"`
	Trend         models.MoodTrend `json:"trend"`
	WeeklyAverage int              `json:"weekly_average"`
	Entries       int              `json:"entries"`
}

func newTrendCmd(opts *options) *cobra.Command {
	var fixturePath string
	var current int

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Compare a mood against a fixture's mood history",
		Long:  "Compare --current (or the fixture's mood_score) against the fixture's moods. Without either, the latest fixture mood is compared against the ones before it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			f, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}

			now := opts.now()
			score, history, err := f.moodScore(current, now)
			if err != nil {
				return err
			}

			res := trendResult{
				CurrentScore:  score,
				Label:         mood.Label(score),
				Trend:         mood.Trend(history, score),
				WeeklyAverage: mood.WeeklyAverage(f.history(now), now, score),
				Entries:       len(f.Moods),
			}
			return p.emit(res, func(tw *tabwriter.Writer) {
				row(tw, "CURRENT", "LABEL", "TREND", "WEEKLY AVG", "ENTRIES")
				row(tw, res.CurrentScore, res.Label, res.Trend, res.WeeklyAverage, res.Entries)
			})
		},
	}

	cmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "YAML fixture with moods (required)")
	cmd.Flags().IntVarP(&current, "current", "c", 0, "Current mood score 1-10")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}

package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/benvon/study-planner/internal/services/planner"
	"github.com/benvon/study-planner/internal/validation"
	"github.com/spf13/cobra"
)

const defaultEnergyLevel = 5

func newScheduleCmd(opts *options) *cobra.Command {
	var fixturePath string
	var moodScore, energy int
	var goals []string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Synthesize a study schedule for a fixture",
		Long:  "Ask the AI provider for a schedule built from the fixture's mood, tasks and goals. Without a usable key the pending tasks are printed in suggested order instead.",
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
			score, history, err := f.moodScore(moodScore, now)
			if err != nil {
				return err
			}
			if energy == 0 {
				energy = f.EnergyLevel
			}
			if energy == 0 {
				energy = defaultEnergyLevel
			}
			if energy < 1 || energy > 10 {
				return fmt.Errorf("energy %d is outside 1..10", energy)
			}

			svc, err := opts.plannerService(cmd, true)
			if err != nil {
				return err
			}
			outcome := svc.SynthesizeSchedule(cmd.Context(), planner.ScheduleInput{
				MoodScore:    score,
				EnergyLevel:  energy,
				Goals:        sanitizeAll(append(f.Goals, goals...)),
				PendingTasks: f.tasks(),
				MoodHistory:  history,
			})

			return p.emit(outcome, func(tw *tabwriter.Writer) {
				if outcome.Source == planner.SourceFallback {
					row(tw, "#", "TITLE", "PRIORITY", "DIFFICULTY", "MINUTES")
					for i, t := range outcome.Tasks {
						row(tw, i+1, t.Title, t.Priority, t.Difficulty, t.EstimatedDurationMinutes)
					}
				} else {
					row(tw, "DAY", "TIME", "ACTIVITY", "MINUTES", "INTENSITY")
					for _, day := range outcome.Days {
						for _, item := range day.Items {
							row(tw, day.Day, item.Time, item.Activity, item.Duration, item.Intensity)
						}
					}
				}
				row(tw)
				if outcome.Status != "" {
					row(tw, outcome.Status)
				}
				for _, rec := range outcome.Recommendations {
					row(tw, "- "+rec)
				}
				row(tw, "trend:", outcome.Trend, "strategy:", outcome.Strategy, "source:", outcome.Source)
				row(tw, fmt.Sprintf("%q", outcome.MotivationalQuote))
			})
		},
	}

	cmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "YAML fixture with tasks, goals and moods")
	cmd.Flags().IntVarP(&moodScore, "mood", "m", 0, "Mood score 1-10 (defaults to the fixture)")
	cmd.Flags().IntVarP(&energy, "energy", "e", 0, "Energy level 1-10 (defaults to the fixture, then 5)")
	cmd.Flags().StringArrayVarP(&goals, "goal", "g", nil, "Goal to plan for; repeatable")
	return cmd
}

func newBreakdownCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "breakdown <goal title>...",
		Short: "Break a goal into study tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			title := validation.SanitizeText(strings.Join(args, " "))
			if title == "" {
				return fmt.Errorf("goal title is empty")
			}

			svc, err := opts.plannerService(cmd, true)
			if err != nil {
				return err
			}
			breakdown := svc.BreakdownGoal(cmd.Context(), title)

			return p.emit(breakdown, func(tw *tabwriter.Writer) {
				if len(breakdown.Tasks) == 0 {
					row(tw, "No breakdown available.")
				} else {
					row(tw, "#", "TITLE", "PRIORITY", "MINUTES")
					for i, t := range breakdown.Tasks {
						row(tw, i+1, t.Title, t.Priority, t.EstimatedTime)
					}
					row(tw)
					row(tw, "total minutes:", breakdown.TotalEstimatedTime)
				}
				row(tw, fmt.Sprintf("%q", breakdown.MotivationalQuote))
			})
		},
	}
}

func sanitizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := validation.SanitizeText(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

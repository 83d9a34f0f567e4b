// ABOUTME: CLI commands for training maxes: add, list and strength test evaluation.
// ABOUTME: New maxes supersede old ones; history is kept.
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/planner"
)

// SourceManual tags training maxes entered on the command line.
const SourceManual = "MANUAL"

var (
	tmAt    string
	tmLift  string
	tmLimit int
)

var tmCmd = &cobra.Command{
	Use:   "tm",
	Short: "Manage training maxes",
	Long: `Training maxes load the main lifts of every generated block.

LIFTS:

  bench     Bench press
  squat     Back squat
  ohp       Overhead press
  deadlift  Deadlift`,
}

var tmAddCmd = &cobra.Command{
	Use:   "add <lift> <kg>",
	Short: "Record a training max",
	Long: `Record a training max for a main lift.

Examples:
  lift tm add bench 100
  lift tm add squat 142.5 --at 2025-10-01`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lift := strings.ToLower(args[0])
		if !models.IsValidLiftCode(lift) {
			return fmt.Errorf("unknown lift: %s (use %s)", args[0], strings.Join(models.AllLiftCodes, ", "))
		}
		kg, err := strconv.ParseFloat(args[1], 64)
		if err != nil || kg <= 0 {
			return fmt.Errorf("invalid weight: %s", args[1])
		}

		tm := models.NewTrainingMax(lift, kg, SourceManual)
		if tmAt != "" {
			t, err := parseDate(tmAt)
			if err != nil {
				return fmt.Errorf("invalid date: %s", tmAt)
			}
			tm.WithMeasuredAt(t)
		}

		if err := repo.AddTrainingMax(cmd.Context(), tm); err != nil {
			return fmt.Errorf("failed to add training max: %w", err)
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ %s training max %.1f kg\n", lift, kg)
		return nil
	},
}

var tmListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List training max history",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tmLift != "" && !models.IsValidLiftCode(tmLift) {
			return fmt.Errorf("unknown lift: %s", tmLift)
		}
		tms, err := repo.ListTrainingMaxes(cmd.Context(), tmLift, tmLimit)
		if err != nil {
			return fmt.Errorf("failed to list training maxes: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(tms) == 0 {
			fmt.Fprintln(out, "No training maxes recorded.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, tm := range tms {
			fmt.Fprintf(out, "%s  %s %7.1f kg  %s\n",
				faint.Sprint(tm.MeasuredAt.Format("2006-01-02")),
				padRight(tm.LiftCode, 9),
				tm.ValueKg,
				faint.Sprint(tm.Source))
		}
		return nil
	},
}

var tmEvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Derive training maxes from the latest strength test",
	Long: `Scan the sets logged during the latest strength test week. For each main
lift the set with the best estimated 1RM (Epley) sets a new training max at
90% of that estimate.

Pull sets from wger first with 'lift log pull', or enter them with 'lift log set'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		plan, err := repo.LatestTestPlan(ctx)
		if err != nil {
			return fmt.Errorf("failed to find strength test: %w", err)
		}
		if plan == nil {
			return fmt.Errorf("no strength test plan (run 'lift plan generate --test')")
		}

		const week = 1
		start := plan.WeekStart(week)
		end := start.AddDate(0, 0, 6)
		logs, err := repo.ListWorkoutLogs(ctx, start, end)
		if err != nil {
			return fmt.Errorf("failed to load workout logs: %w", err)
		}

		ev := planner.EvaluateStrengthTest(plan.ID, week, logs, end)
		out := cmd.OutOrStdout()
		if len(ev.Results) == 0 {
			color.New(color.FgYellow).Fprintf(out, "⚠ No qualifying sets logged between %s and %s\n",
				start.Format("2006-01-02"), end.Format("2006-01-02"))
			return nil
		}

		for _, r := range ev.Results {
			if err := repo.SaveStrengthTestResult(ctx, r); err != nil {
				return fmt.Errorf("failed to save test result: %w", err)
			}
		}
		for _, tm := range ev.TrainingMaxs {
			if err := repo.AddTrainingMax(ctx, tm); err != nil {
				return fmt.Errorf("failed to save training max: %w", err)
			}
		}

		for _, r := range ev.Results {
			fmt.Fprintf(out, "%s %5.1f kg x %-2d  e1RM %6.1f  ", padRight(r.LiftCode, 9), r.WeightKg, r.Reps, r.E1RMKg)
			color.New(color.FgGreen).Fprintf(out, "TM %.1f kg\n", r.TMKg)
		}
		return nil
	},
}

func init() {
	tmAddCmd.Flags().StringVar(&tmAt, "at", "", "measurement date (YYYY-MM-DD, default today)")
	tmListCmd.Flags().StringVarP(&tmLift, "lift", "l", "", "only this lift")
	tmListCmd.Flags().IntVarP(&tmLimit, "limit", "n", 20, "number of entries to show")

	tmCmd.AddCommand(tmAddCmd)
	tmCmd.AddCommand(tmListCmd)
	tmCmd.AddCommand(tmEvaluateCmd)
	rootCmd.AddCommand(tmCmd)
}

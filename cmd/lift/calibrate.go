// ABOUTME: CLI command recalibrating a plan week's target weights from logged sets.
// ABOUTME: Runs before export; exported weeks are left alone.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/planner"
	"github.com/harperreed/lift/internal/readiness"
)

var (
	calibrateWeek   int
	calibrateToday  string
	calibrateDryRun bool
)

var planCalibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Recalibrate target weights from logged sets",
	Long: `Move each exercise's target weight toward what was actually lifted.

The last four logged sets of an exercise are averaged. Meeting the target
at RIR 2 or less raises it by 5% (7.5% at RIR 1 or less, 2.5% at RIR 2);
missing it or leaving more than 2 reps in reserve lowers it by 5%. Poor
recovery halves increases and makes decreases 7.5%. Results are rounded to
2.5 kg.

Defaults to the upcoming week. Exported weeks cannot be calibrated.

Examples:
  lift plan calibrate
  lift plan calibrate --week 3 --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		today := time.Now()
		if calibrateToday != "" {
			t, err := parseDate(calibrateToday)
			if err != nil {
				return fmt.Errorf("invalid --today date: %s", calibrateToday)
			}
			today = t
		}

		var plan *models.Plan
		week := calibrateWeek
		var err error
		if week > 0 {
			plan, err = currentPlan(ctx, today)
			if err == nil && week > plan.WeekCount {
				err = fmt.Errorf("week %d is outside the %d-week plan", week, plan.WeekCount)
			}
		} else {
			plan, week, err = upcomingWeek(ctx, today)
		}
		if err != nil {
			return err
		}

		exported, err := repo.WasWeekExported(ctx, plan.ID, week)
		if err != nil {
			return fmt.Errorf("failed to check export: %w", err)
		}
		if exported {
			return fmt.Errorf("week %d was already exported", week)
		}

		cal, good, err := calibratePlanWeek(ctx, plan, week)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		recovery := "good"
		if !good {
			recovery = "poor"
		}
		fmt.Fprintf(out, "Week %d starting %s, recovery %s\n", week, plan.WeekStart(week).Format("2006-01-02"), recovery)
		for _, note := range cal.Notes {
			fmt.Fprintf(out, "  %s\n", note)
		}

		if calibrateDryRun {
			color.New(color.FgYellow).Fprintf(out, "Dry run: %d target weights would change\n", len(cal.Changes))
			return nil
		}
		if len(cal.Changes) == 0 {
			fmt.Fprintln(out, "No target weights changed")
			return nil
		}
		rows := make([]models.WorkoutPrescription, 0, len(cal.Changes))
		for _, c := range cal.Changes {
			rows = append(rows, c.Row)
		}
		if err := repo.UpdatePrescriptions(ctx, rows); err != nil {
			return fmt.Errorf("failed to save targets: %w", err)
		}
		color.New(color.FgGreen).Fprintf(out, "✓ Updated %d target weights\n", len(rows))
		return nil
	},
}

// calibratePlanWeek runs calibration for one week using every set logged and
// every summary recorded before the week starts.
func calibratePlanWeek(ctx context.Context, plan *models.Plan, week int) (planner.Calibration, bool, error) {
	rows, err := repo.GetPlanWeekRows(ctx, plan.ID, week)
	if err != nil {
		return planner.Calibration{}, false, fmt.Errorf("failed to load week: %w", err)
	}
	start := plan.WeekStart(week)
	before := start.AddDate(0, 0, -1)

	logs, err := repo.ListWorkoutLogs(ctx, time.Time{}, before)
	if err != nil {
		return planner.Calibration{}, false, fmt.Errorf("failed to load workout logs: %w", err)
	}
	history := make(map[int][]models.WorkoutLog)
	for _, l := range logs {
		history[l.ExerciseID] = append(history[l.ExerciseID], l)
	}

	days, err := repo.ListDailySummaries(ctx, time.Time{}, before)
	if err != nil {
		return planner.Calibration{}, false, fmt.Errorf("failed to load summaries: %w", err)
	}
	good := readiness.RecoveryGood(readiness.Snapshot(days, start))

	return planner.Calibrate(rows, history, good), good, nil
}

func init() {
	planCalibrateCmd.Flags().IntVarP(&calibrateWeek, "week", "w", 0, "week number (default: upcoming week)")
	planCalibrateCmd.Flags().StringVar(&calibrateToday, "today", "", "treat this date as today (YYYY-MM-DD)")
	planCalibrateCmd.Flags().BoolVar(&calibrateDryRun, "dry-run", false, "show changes without saving")

	planCmd.AddCommand(planCalibrateCmd)
}

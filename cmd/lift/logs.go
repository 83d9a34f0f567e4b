// ABOUTME: CLI commands for logging review inputs and performed sets.
// ABOUTME: Daily summaries and muscle volume feed the weekly review; sets feed strength tests.
package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/planner"
	"github.com/harperreed/lift/internal/rules"
)

var (
	logRHR     float64
	logSleep   float64
	logPlanned bool
	logSetRIR  float64
	pullFrom   string
	pullTo     string
)

var logCmd = &cobra.Command{
	Use:     "log",
	Aliases: []string{"l"},
	Short:   "Log recovery data, training volume and sets",
	Long: `Record the inputs of the weekly review and strength test evaluation.

COMMANDS:

  summary   Resting heart rate and sleep for a day
  volume    Planned or executed volume (kg) for a muscle group
  set       One performed set
  pull      Import performed sets from wger`,
}

var logSummaryCmd = &cobra.Command{
	Use:   "summary <date>",
	Short: "Log resting heart rate and sleep for a day",
	Long: `Log resting heart rate (bpm) and sleep (minutes) for a day. Logging the
same day again updates only the values given.

Examples:
  lift log summary 2025-10-08 --rhr 52 --sleep 450
  lift log summary 2025-10-09 --sleep 390`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate(args[0])
		if err != nil {
			return fmt.Errorf("invalid date: %s", args[0])
		}

		s := models.DailySummary{Date: date}
		if cmd.Flags().Changed("rhr") {
			if logRHR <= 0 {
				return fmt.Errorf("resting heart rate must be positive")
			}
			s.RestingHR = models.Float(logRHR)
		}
		if cmd.Flags().Changed("sleep") {
			if logSleep < 0 {
				return fmt.Errorf("sleep minutes cannot be negative")
			}
			s.SleepMinutes = models.Float(logSleep)
		}
		if s.RestingHR == nil && s.SleepMinutes == nil {
			return fmt.Errorf("at least one of --rhr or --sleep is required")
		}

		if err := repo.AddDailySummary(cmd.Context(), s); err != nil {
			return fmt.Errorf("failed to log summary: %w", err)
		}

		var parts []string
		if s.RestingHR != nil {
			parts = append(parts, fmt.Sprintf("RHR %.0f", *s.RestingHR))
		}
		if s.SleepMinutes != nil {
			parts = append(parts, fmt.Sprintf("sleep %.0f min", *s.SleepMinutes))
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ %s %s\n",
			date.Format("2006-01-02"), strings.Join(parts, ", "))
		return nil
	},
}

var logVolumeCmd = &cobra.Command{
	Use:   "volume <date> <group> <kg>",
	Short: "Log training volume for a muscle group",
	Long: `Log volume (sets x reps x kg) for a muscle group.

Executed volume adds up per day. Planned volume (--planned) is set for the
week containing the date and replaces any earlier value.

Examples:
  lift log volume 2025-10-06 chest 4200 --planned
  lift log volume 2025-10-08 chest 1900`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate(args[0])
		if err != nil {
			return fmt.Errorf("invalid date: %s", args[0])
		}
		group := strings.ToLower(strings.TrimSpace(args[1]))
		if group == "" {
			return fmt.Errorf("muscle group is required")
		}
		kg, err := strconv.ParseFloat(args[2], 64)
		if err != nil || kg < 0 {
			return fmt.Errorf("invalid volume: %s", args[2])
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		if logPlanned {
			weekStart := planner.NextMonday(date.AddDate(0, 0, -6))
			if err := repo.SetPlannedVolume(ctx, weekStart, group, kg); err != nil {
				return fmt.Errorf("failed to set planned volume: %w", err)
			}
			color.New(color.FgGreen).Fprintf(out, "✓ Planned %s %.0f kg for week of %s\n",
				group, kg, weekStart.Format("2006-01-02"))
			return nil
		}

		if err := repo.AddActualVolume(ctx, date, group, kg); err != nil {
			return fmt.Errorf("failed to log volume: %w", err)
		}
		color.New(color.FgGreen).Fprintf(out, "✓ %s %s %.0f kg\n", date.Format("2006-01-02"), group, kg)
		return nil
	},
}

var logSetCmd = &cobra.Command{
	Use:   "set <date> <exercise> <reps> <kg>",
	Short: "Log one performed set",
	Long: `Log one performed set. The exercise is a main lift code or a wger exercise id.

Examples:
  lift log set 2025-10-06 bench 8 85
  lift log set 2025-10-07 73 10 60 --rir 2`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate(args[0])
		if err != nil {
			return fmt.Errorf("invalid date: %s", args[0])
		}
		exerciseID, err := parseExercise(args[1])
		if err != nil {
			return err
		}
		reps, err := strconv.Atoi(args[2])
		if err != nil || reps <= 0 {
			return fmt.Errorf("invalid reps: %s", args[2])
		}
		kg, err := strconv.ParseFloat(args[3], 64)
		if err != nil || kg < 0 {
			return fmt.Errorf("invalid weight: %s", args[3])
		}

		l := models.NewWorkoutLog(date, exerciseID, reps, kg)
		if cmd.Flags().Changed("rir") {
			if logSetRIR < 0 {
				return fmt.Errorf("invalid rir: %.1f", logSetRIR)
			}
			l.WithRIR(models.Float(logSetRIR))
		}
		if err := repo.AddWorkoutLog(cmd.Context(), l); err != nil {
			return fmt.Errorf("failed to log set: %w", err)
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ %s %s %d x %.1f kg\n",
			date.Format("2006-01-02"), exerciseLabel(exerciseID), reps, kg)
		return nil
	},
}

var logPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Import performed sets from wger",
	Long: `Import logged sets from wger into the local store. Sets already stored
(same day, exercise, reps and weight) are skipped.

Defaults to the last seven days.

Examples:
  lift log pull
  lift log pull --from 2025-10-06 --to 2025-10-12`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		to := time.Now()
		if pullTo != "" {
			t, err := parseDate(pullTo)
			if err != nil {
				return fmt.Errorf("invalid --to date: %s", pullTo)
			}
			to = t
		}
		from := to.AddDate(0, 0, -6)
		if pullFrom != "" {
			t, err := parseDate(pullFrom)
			if err != nil {
				return fmt.Errorf("invalid --from date: %s", pullFrom)
			}
			from = t
		}
		if from.After(to) {
			return fmt.Errorf("--from is after --to")
		}

		client, err := newWgerClient(false)
		if err != nil {
			return fmt.Errorf("wger not configured: %w", err)
		}
		entries, err := client.WorkoutLogs(ctx, from, to)
		if err != nil {
			return fmt.Errorf("failed to pull logs: %w", err)
		}

		existing, err := repo.ListWorkoutLogs(ctx, from, to)
		if err != nil {
			return fmt.Errorf("failed to load workout logs: %w", err)
		}
		seen := make(map[string]int, len(existing))
		for _, l := range existing {
			seen[setKey(l)]++
		}

		var added, skipped, invalid int
		for _, e := range entries {
			date, err := e.ParsedDate()
			if err != nil {
				invalid++
				continue
			}
			reps, rerr := e.Repetitions.Float64()
			kg, werr := e.Weight.Float64()
			if rerr != nil || werr != nil || reps <= 0 {
				invalid++
				continue
			}
			l := models.NewWorkoutLog(date, e.Exercise, int(reps), kg).WithRIR(e.ParsedRIR())
			if key := setKey(*l); seen[key] > 0 {
				seen[key]--
				skipped++
				continue
			}
			if err := repo.AddWorkoutLog(ctx, l); err != nil {
				return fmt.Errorf("failed to store set: %w", err)
			}
			added++
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ Pulled %d sets", added)
		fmt.Fprintf(out, " (%d already stored", skipped)
		if invalid > 0 {
			fmt.Fprintf(out, ", %d unreadable", invalid)
		}
		fmt.Fprintln(out, ")")
		return nil
	},
}

// parseExercise accepts a main lift code or a numeric exercise id.
func parseExercise(s string) (int, error) {
	if id, ok := rules.LiftID(strings.ToLower(s)); ok {
		return id, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("unknown exercise: %s (use a lift code or exercise id)", s)
	}
	return id, nil
}

func exerciseLabel(id int) string {
	if code, ok := rules.LiftCode(id); ok {
		return code
	}
	return fmt.Sprintf("#%d", id)
}

func setKey(l models.WorkoutLog) string {
	return fmt.Sprintf("%s/%d/%d/%.2f", l.Date.Format("2006-01-02"), l.ExerciseID, l.Reps, l.WeightKg)
}

func init() {
	logSummaryCmd.Flags().Float64Var(&logRHR, "rhr", 0, "resting heart rate (bpm)")
	logSummaryCmd.Flags().Float64Var(&logSleep, "sleep", 0, "sleep (minutes)")
	logVolumeCmd.Flags().BoolVar(&logPlanned, "planned", false, "set planned volume for the week")
	logSetCmd.Flags().Float64Var(&logSetRIR, "rir", 0, "reps in reserve")
	logPullCmd.Flags().StringVar(&pullFrom, "from", "", "first day (YYYY-MM-DD)")
	logPullCmd.Flags().StringVar(&pullTo, "to", "", "last day (YYYY-MM-DD, default today)")

	logCmd.AddCommand(logSummaryCmd)
	logCmd.AddCommand(logVolumeCmd)
	logCmd.AddCommand(logSetCmd)
	logCmd.AddCommand(logPullCmd)
	rootCmd.AddCommand(logCmd)
}

// ABOUTME: CLI commands for generating and showing training plans.
// ABOUTME: Plans print as a table, or as JSON/YAML plan records.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/planner"
	"github.com/harperreed/lift/internal/rules"
	"github.com/harperreed/lift/internal/storage"
)

var (
	planStart  string
	planTest   bool
	showWeek   int
	showFormat string
)

var planCmd = &cobra.Command{
	Use:     "plan",
	Aliases: []string{"p"},
	Short:   "Generate and show training plans",
	Long: `Generate training blocks and inspect them.

COMMANDS:

  generate   Build a four week block (or a one week strength test)
  show       Print the active plan

A block always starts on a Monday. Main lifts are loaded from your latest
training maxes; without one, the percentage is kept but no weight is set.`,
}

var planGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new plan",
	Long: `Generate a new plan starting on the Monday on or after --start.

Examples:
  lift plan generate
  lift plan generate --start 2025-10-06
  lift plan generate --test`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()
		if planStart != "" {
			t, err := parseDate(planStart)
			if err != nil {
				return fmt.Errorf("invalid start date: %s", planStart)
			}
			start = t
		}

		tms, err := repo.GetLatestTrainingMaxes(ctx)
		if err != nil {
			return fmt.Errorf("failed to load training maxes: %w", err)
		}

		factory := planner.NewFactory(rules.DefaultPools())
		var plan *models.Plan
		if planTest {
			plan = factory.BuildStrengthTest(start, tms)
		} else {
			plan = factory.BuildBlock(start, tms)
		}

		if _, err := repo.SaveFullPlan(ctx, plan); err != nil {
			return fmt.Errorf("failed to save plan: %w", err)
		}

		out := cmd.OutOrStdout()
		kind := fmt.Sprintf("%d-week block", plan.WeekCount)
		if plan.IsTest {
			kind = "strength test"
		}
		color.New(color.FgGreen).Fprintf(out, "✓ Generated %s\n", kind)
		fmt.Fprintf(out, "  %s %s to %s\n",
			color.New(color.Faint).Sprint(plan.ID.String()[:8]),
			plan.StartDate.Format("2006-01-02"),
			plan.EndDate().Format("2006-01-02"))

		var missing []string
		for _, code := range models.AllLiftCodes {
			if tms[code] == nil {
				missing = append(missing, code)
			}
		}
		if len(missing) > 0 {
			color.New(color.FgYellow).Fprintf(out, "⚠ No training max for %s; target weights left empty\n", strings.Join(missing, ", "))
		}
		return nil
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active plan",
	Long: `Show the plan covering today (or the next plan if none has started).

FORMATS:

  table   One line per prescription (default)
  json    Plan record as JSON
  yaml    Plan record as YAML

Examples:
  lift plan show
  lift plan show --week 2
  lift plan show --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		plan, err := currentPlan(ctx, time.Now())
		if err != nil {
			return err
		}
		if showWeek < 0 || showWeek > plan.WeekCount {
			return fmt.Errorf("week %d is outside the plan (1-%d)", showWeek, plan.WeekCount)
		}

		if showWeek > 0 {
			w := plan.Week(showWeek)
			plan.Weeks = []models.Week{*w}
		}

		out := cmd.OutOrStdout()
		switch showFormat {
		case "table":
			return printPlanTable(ctx, out, plan)
		case "json":
			data, err := json.MarshalIndent(storage.NewPlanRecord(plan), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		case "yaml":
			data, err := yaml.Marshal(storage.NewPlanRecord(plan))
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(data))
		default:
			return fmt.Errorf("unknown format: %s (use table, json, or yaml)", showFormat)
		}
		return nil
	},
}

// currentPlan returns the full plan covering now, else the one starting next
// Monday, else the most recent.
func currentPlan(ctx context.Context, now time.Time) (*models.Plan, error) {
	for _, day := range []time.Time{now, planner.NextMonday(now)} {
		p, err := repo.GetActivePlan(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("failed to load active plan: %w", err)
		}
		if p != nil {
			return repo.GetPlan(ctx, p.ID)
		}
	}
	plans, err := repo.ListPlans(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	if len(plans) == 0 {
		return nil, errNoPlan
	}
	return repo.GetPlan(ctx, plans[0].ID)
}

func printPlanTable(ctx context.Context, out io.Writer, plan *models.Plan) error {
	faint := color.New(color.Faint)
	bold := color.New(color.Bold)

	kind := "block"
	if plan.IsTest {
		kind = "strength test"
	}
	fmt.Fprintf(out, "Plan %s (%s) %s to %s\n",
		plan.ID.String()[:8], kind,
		plan.StartDate.Format("2006-01-02"), plan.EndDate().Format("2006-01-02"))

	for _, w := range plan.Weeks {
		exported, err := repo.WasWeekExported(ctx, plan.ID, w.WeekNumber)
		if err != nil {
			return fmt.Errorf("failed to check export: %w", err)
		}
		status := ""
		if exported {
			status = color.New(color.FgGreen).Sprint(" exported")
		}
		if rules.IsDeload(w.WeekNumber) && !plan.IsTest {
			status += faint.Sprint(" deload")
		}
		fmt.Fprintln(out)
		bold.Fprintf(out, "Week %d", w.WeekNumber)
		fmt.Fprintf(out, " %s%s\n", faint.Sprint(plan.WeekStart(w.WeekNumber).Format("Mon Jan 2")), status)

		for _, rx := range w.Prescriptions {
			fmt.Fprintf(out, "  %s %s %s %s\n",
				time.Weekday(rx.DayOfWeek % 7).String()[:3],
				faint.Sprint(shortTime(rx.ScheduledTime)),
				padRight(string(rx.Role), 10),
				describeRow(rx))
		}
	}
	return nil
}

// describeRow renders the prescription part of a table line.
func describeRow(rx models.WorkoutPrescription) string {
	if rx.IsCardio {
		return rx.Comment
	}
	name := fmt.Sprintf("#%d", rx.ExerciseID)
	if code, ok := rules.LiftCode(rx.ExerciseID); ok {
		name = code
	}
	parts := []string{padRight(name, 8), fmt.Sprintf("%dx%d", rx.Sets, rx.Reps)}
	if rx.Percent1RM != nil {
		parts = append(parts, fmt.Sprintf("@%.1f%%", *rx.Percent1RM))
	}
	if rx.TargetWeightKg != nil {
		parts = append(parts, fmt.Sprintf("%.1f kg", *rx.TargetWeightKg))
	}
	if rx.RIRCue != nil {
		parts = append(parts, fmt.Sprintf("RIR %.1f", *rx.RIRCue))
	}
	if rx.IsAMRAP {
		parts = append(parts, "AMRAP")
	}
	return strings.Join(parts, " ")
}

// shortTime trims "HH:MM:SS" to "HH:MM".
func shortTime(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// parseDate accepts a calendar day, or a timestamp whose day is used.
func parseDate(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.ParseInLocation(f, s, time.Local); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

func init() {
	planGenerateCmd.Flags().StringVar(&planStart, "start", "", "start date (YYYY-MM-DD), moved to the next Monday")
	planGenerateCmd.Flags().BoolVar(&planTest, "test", false, "generate a one week strength test")
	planShowCmd.Flags().IntVarP(&showWeek, "week", "w", 0, "show a single week")
	planShowCmd.Flags().StringVarP(&showFormat, "format", "f", "table", "output format (table, json, yaml)")

	planCmd.AddCommand(planGenerateCmd)
	planCmd.AddCommand(planShowCmd)
	rootCmd.AddCommand(planCmd)
}

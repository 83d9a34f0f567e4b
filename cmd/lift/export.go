// ABOUTME: CLI command exporting one plan week to wger.
// ABOUTME: Weeks already sent are skipped unless --force is given.
package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/export"
)

var (
	exportWeek   int
	exportDryRun bool
	exportForce  bool
	exportJSON   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a plan week to wger",
	Long: `Export a week of the active plan to wger as a routine. Without --week the
upcoming week (starting next Monday, or today if it is Monday) is exported.

Each week is sent once. --force deletes the days of the existing routine and
sends the week again.

Examples:
  lift export --dry-run
  lift export --dry-run --json
  lift export --week 2 --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		plan, week, err := upcomingWeek(ctx, time.Now())
		if err != nil && exportWeek == 0 {
			return err
		}
		if exportWeek != 0 {
			if plan == nil {
				if plan, err = currentPlan(ctx, time.Now()); err != nil {
					return err
				}
			}
			if exportWeek < 1 || exportWeek > plan.WeekCount {
				return fmt.Errorf("week %d is outside the plan (1-%d)", exportWeek, plan.WeekCount)
			}
			week = exportWeek
		}

		dryRun, force := exportFlags(exportDryRun, exportForce)
		exporter, err := newExporter(dryRun)
		if err != nil {
			return fmt.Errorf("wger not configured: %w", err)
		}

		res, err := exporter.Export(ctx, export.Request{
			PlanID:         plan.ID,
			WeekNumber:     week,
			WeekStart:      plan.WeekStart(week),
			DryRun:         dryRun,
			ForceOverwrite: force,
		})
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if exportJSON && res.Payload != nil {
			data, err := json.MarshalIndent(res.Payload, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		switch res.Status {
		case export.StatusSkipped:
			color.New(color.FgYellow).Fprintf(out, "⚠ Week %d already exported (use --force to resend)\n", week)
		case export.StatusDryRun:
			color.New(color.FgCyan).Fprintf(out, "Dry run: %s\n", res.RoutineName)
			if res.Payload != nil {
				for _, d := range res.Payload.Days {
					fmt.Fprintf(out, "  %s  %d exercises\n", padRight(export.DayName(d.DayOfWeek), 10), len(d.Exercises))
				}
			}
		default:
			color.New(color.FgGreen).Fprintf(out, "✓ Exported week %d as %s", week, res.RoutineName)
			fmt.Fprintf(out, " (routine %d", res.RoutineID)
			if res.DaysDeleted > 0 {
				fmt.Fprintf(out, ", replaced %d days", res.DaysDeleted)
			}
			fmt.Fprintln(out, ")")
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().IntVarP(&exportWeek, "week", "w", 0, "week number of the active plan")
	exportCmd.Flags().BoolVar(&exportDryRun, "dry-run", false, "build the payload without sending it")
	exportCmd.Flags().BoolVar(&exportForce, "force", false, "resend a week that was already exported")
	exportCmd.Flags().BoolVar(&exportJSON, "json", false, "print the payload as JSON")

	rootCmd.AddCommand(exportCmd)
}

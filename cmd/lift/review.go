// ABOUTME: CLI command running the weekly review by hand.
// ABOUTME: Adjusts and exports the upcoming week, or previews the decision.
package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/review"
)

var (
	reviewToday   string
	reviewDryRun  bool
	reviewForce   bool
	reviewPreview bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review last week and prepare the next",
	Long: `Compare last week's resting heart rate, sleep and volume with your baseline,
scale the upcoming week of the plan, export it to wger and send a summary.

Run on Sunday, or let 'lift serve' do it on schedule. Week 1 of a block is
never adjusted.

Examples:
  lift review
  lift review --preview
  lift review --today 2025-10-12 --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		today := time.Now()
		if reviewToday != "" {
			t, err := parseDate(reviewToday)
			if err != nil {
				return fmt.Errorf("invalid date: %s", reviewToday)
			}
			today = t
		}

		dryRun, force := exportFlags(reviewDryRun, reviewForce)
		exporter, err := newExporter(dryRun || reviewPreview)
		if err != nil {
			return fmt.Errorf("wger not configured: %w", err)
		}
		reviewer := newReviewer(exporter, review.Options{DryRun: dryRun, ForceOverwrite: force})

		out := cmd.OutOrStdout()
		if reviewPreview {
			outcome, err := reviewer.Preview(ctx, today)
			if err != nil {
				return fmt.Errorf("preview failed: %w", err)
			}
			printOutcome(out, outcome, true)
			return nil
		}

		outcome, err := reviewer.Run(ctx, today)
		if err != nil {
			return fmt.Errorf("review failed (%s): %w", review.Classify(err), err)
		}
		printOutcome(out, outcome, false)
		return nil
	},
}

func printOutcome(out io.Writer, o *review.Outcome, preview bool) {
	switch o.Status {
	case review.StatusNoPlan, review.StatusOutOfWindow, review.StatusSkipped:
		color.New(color.FgYellow).Fprintf(out, "⚠ Nothing to do: %s\n", o.Reason)
		return
	}

	if preview {
		d := o.Decision
		color.New(color.Bold).Fprintf(out, "Week %d starting %s\n", o.UpcomingWeek, o.WeekStart.Format("2006-01-02"))
		fmt.Fprintf(out, "  Recovery     %s\n", o.Recovery.Severity)
		fmt.Fprintf(out, "  Sets         x%.2f\n", d.SetMultiplier)
		fmt.Fprintf(out, "  RIR          %+.1f\n", d.RIRDelta)
		fmt.Fprintf(out, "  Intensity    %+.1f%%\n", d.IntensityDeltaAbs)
		for _, r := range d.Reasons {
			fmt.Fprintf(out, "  - %s\n", r)
		}
		return
	}

	color.New(color.FgGreen).Fprintln(out, "✓ Review applied")
	fmt.Fprintln(out, review.FormatMessage(o))
	if !o.Notified {
		color.New(color.Faint).Fprintln(out, "(no notification sent)")
	}
}

func init() {
	reviewCmd.Flags().StringVar(&reviewToday, "today", "", "review as if today were this date (YYYY-MM-DD)")
	reviewCmd.Flags().BoolVar(&reviewDryRun, "dry-run", false, "build the export payload without sending it")
	reviewCmd.Flags().BoolVar(&reviewForce, "force", false, "re-export a week that was already sent")
	reviewCmd.Flags().BoolVar(&reviewPreview, "preview", false, "show the decision without changing anything")

	rootCmd.AddCommand(reviewCmd)
}

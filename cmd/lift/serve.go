// ABOUTME: CLI command running the scheduled review and sync jobs.
// ABOUTME: Also serves Prometheus metrics until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/export"
	"github.com/harperreed/lift/internal/log"
	"github.com/harperreed/lift/internal/metrics"
	"github.com/harperreed/lift/internal/review"
	"github.com/harperreed/lift/internal/scheduler"
)

// Job names registered by serve.
const (
	jobReview = "review"
	jobSync   = "sync"
)

var (
	serveRunNow    string
	serveNoMetrics bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the weekly review and daily sync on a schedule",
	Long: `Run in the foreground. The Sunday review adjusts and exports the upcoming
week; every morning sync exports the current week if it was never sent.

SCHEDULE (cron with seconds, local time):

  review   schedule.review in config (default "0 0 16 * * 0", Sunday 16:00)
  sync     schedule.sync in config   (default "0 30 6 * * *", daily 06:30)

Only one job runs at a time; a job that fires while another runs is skipped.
Metrics are served on metrics_addr (default 127.0.0.1:9464) at /metrics.

Examples:
  lift serve
  lift serve --run-now review`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, force := exportFlags(false, false)
		exporter, err := newExporter(dryRun)
		if err != nil {
			return fmt.Errorf("wger not configured: %w", err)
		}
		reviewer := newReviewer(exporter, review.Options{DryRun: dryRun, ForceOverwrite: force})

		sched := scheduler.New(time.Local)
		if err := sched.Add(jobReview, cfg.GetReviewSpec(), reviewJob(reviewer)); err != nil {
			return err
		}
		if err := sched.Add(jobSync, cfg.GetSyncSpec(), syncJob(exporter, dryRun)); err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		logger := log.WithComponent("serve")
		var srv *http.Server
		if !serveNoMetrics {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			srv = &http.Server{
				Addr:              cfg.GetMetricsAddr(),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error().Err(err).Str("addr", srv.Addr).Msg("metrics server failed")
				}
			}()
			logger.Info().Str("addr", srv.Addr).Msg("serving metrics")
		}

		sched.Start(ctx)
		color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ Scheduler running (Ctrl-C to stop)")

		if serveRunNow != "" {
			if _, err := sched.RunNow(serveRunNow); err != nil {
				logger.Error().Err(err).Str("job", serveRunNow).Msg("run-now failed")
			}
		}

		<-ctx.Done()
		logger.Info().Msg("shutting down")
		sched.Stop()

		if srv != nil {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("metrics server shutdown: %w", err)
			}
		}
		return nil
	},
}

func reviewJob(reviewer *review.Reviewer) scheduler.Func {
	return func(ctx context.Context) error {
		_, err := reviewer.Run(ctx, time.Now())
		return err
	}
}

// syncJob catches up on the current week if it was never exported, for
// example after a failed review. The upcoming week belongs to the review so
// that its adjustment is in place before anything is sent.
func syncJob(exporter *export.Exporter, dryRun bool) scheduler.Func {
	return func(ctx context.Context) error {
		return syncWeek(ctx, exporter, dryRun, time.Now())
	}
}

// syncWeek exports the plan week containing now. Having no plan is not a
// failure.
func syncWeek(ctx context.Context, exporter *export.Exporter, dryRun bool, now time.Time) error {
	plan, week, err := currentWeek(ctx, now)
	if errors.Is(err, errNoPlan) || errors.Is(err, errOutsidePlan) {
		logger := log.WithComponent("sync")
		logger.Info().Err(err).Msg("nothing to sync")
		return nil
	}
	if err != nil {
		return err
	}
	_, err = exporter.Export(ctx, export.Request{
		PlanID:     plan.ID,
		WeekNumber: week,
		WeekStart:  plan.WeekStart(week),
		DryRun:     dryRun,
	})
	return err
}

func init() {
	serveCmd.Flags().StringVar(&serveRunNow, "run-now", "", "run a job (review or sync) once at startup")
	serveCmd.Flags().BoolVar(&serveNoMetrics, "no-metrics", false, "do not serve /metrics")

	rootCmd.AddCommand(serveCmd)
}

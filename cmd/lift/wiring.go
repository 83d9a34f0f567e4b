// ABOUTME: Builds exporter, notifier and reviewer from the loaded config.
// ABOUTME: Shared by the review, export, serve and mcp commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/lift/internal/adjust"
	"github.com/harperreed/lift/internal/config"
	"github.com/harperreed/lift/internal/export"
	"github.com/harperreed/lift/internal/log"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/notify"
	"github.com/harperreed/lift/internal/planner"
	"github.com/harperreed/lift/internal/review"
	"github.com/harperreed/lift/internal/wger"
)

// newWgerClient returns nil without error when wger is not configured and
// optional is set.
func newWgerClient(optional bool) (*wger.Client, error) {
	client, err := wger.NewClient(cfg.Wger())
	if err != nil {
		unconfigured := errors.Is(err, config.ErrMissingBaseURL) || errors.Is(err, config.ErrMissingCredentials)
		if optional && unconfigured {
			return nil, nil
		}
		return nil, err
	}
	return client, nil
}

// newExporter builds an exporter. A dry run works without wger settings.
func newExporter(dryRun bool) (*export.Exporter, error) {
	client, err := newWgerClient(dryRun)
	if err != nil {
		return nil, err
	}
	var remote export.Remote
	if client != nil {
		remote = client
	}
	wc := cfg.Wger()
	return export.NewExporter(repo, remote, export.Options{
		RoutinePrefix: wc.RoutinePrefix,
		BlazeMode:     wc.BlazeMode,
	}), nil
}

// newNotifier returns the Telegram notifier, or Noop when it is not
// configured or cannot connect.
func newNotifier() notify.Notifier {
	tc := cfg.Telegram()
	if tc.Token == "" || tc.ChatID == 0 {
		return notify.Noop{}
	}
	tg, err := notify.NewTelegram(tc)
	if err != nil {
		logger := log.WithComponent("cli")
		logger.Warn().Err(err).Msg("telegram unavailable, notifications disabled")
		return notify.Noop{}
	}
	return tg
}

func newReviewer(exporter *export.Exporter, opts review.Options) *review.Reviewer {
	return review.NewReviewer(review.Deps{
		Plans:     repo,
		Summaries: repo,
		Volume:    repo,
		Adjuster:  adjust.NewAdjuster(repo),
		Exporter:  exporter,
		Notifier:  newNotifier(),
	}, opts)
}

// exportFlags combines command flags with config and environment defaults.
func exportFlags(dryRun, force bool) (bool, bool) {
	wc := cfg.Wger()
	return dryRun || wc.DryRun, force || wc.ForceOverwrite
}

// upcomingWeek returns the plan covering the Monday on or after now and
// that week's number.
func upcomingWeek(ctx context.Context, now time.Time) (*models.Plan, int, error) {
	return planWeek(ctx, planner.NextMonday(now))
}

// currentWeek returns the plan week that contains now.
func currentWeek(ctx context.Context, now time.Time) (*models.Plan, int, error) {
	return planWeek(ctx, planner.NextMonday(now.AddDate(0, 0, -6)))
}

func planWeek(ctx context.Context, monday time.Time) (*models.Plan, int, error) {
	plan, err := repo.GetActivePlan(ctx, monday)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load active plan: %w", err)
	}
	if plan == nil {
		return nil, 0, errNoPlan
	}
	week, ok := review.UpcomingWeek(plan, monday)
	if !ok {
		return nil, 0, fmt.Errorf("week starting %s: %w", monday.Format("2006-01-02"), errOutsidePlan)
	}
	return plan, week, nil
}

var (
	errNoPlan      = errors.New("no active plan (run 'lift plan generate')")
	errOutsidePlan = errors.New("outside the active plan")
)

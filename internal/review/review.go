// ABOUTME: Weekly review cycle: classify last week, adjust and export the next.
// ABOUTME: Sends one summary notification; send failures are only logged.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/harperreed/lift/internal/adjust"
	"github.com/harperreed/lift/internal/export"
	"github.com/harperreed/lift/internal/log"
	"github.com/harperreed/lift/internal/metrics"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/notify"
	"github.com/harperreed/lift/internal/planner"
	"github.com/harperreed/lift/internal/readiness"
)

// Status is the outcome of a review run.
type Status string

const (
	StatusNoPlan      Status = "no_plan"
	StatusOutOfWindow Status = "out_of_window"
	StatusSkipped     Status = "skipped"
	StatusApplied     Status = "applied"
	StatusFailed      Status = "failed"
)

// PlanSource finds the plan covering a date.
type PlanSource interface {
	GetActivePlan(ctx context.Context, asOf time.Time) (*models.Plan, error)
}

// SummarySource reads daily biometric summaries.
type SummarySource interface {
	ListDailySummaries(ctx context.Context, from, to time.Time) ([]models.DailySummary, error)
}

// VolumeSource reads planned and executed volume per muscle group.
type VolumeSource interface {
	GetPlannedVolume(ctx context.Context, weekStart time.Time) (map[string]float64, error)
	GetActualVolume(ctx context.Context, from, to time.Time) (map[string]float64, error)
}

// Applier rewrites an upcoming week.
type Applier interface {
	Apply(ctx context.Context, planID uuid.UUID, week int, d models.AdjustmentDecision) (*adjust.Summary, error)
}

// Exporter delivers a week to the remote platform.
type Exporter interface {
	Export(ctx context.Context, req export.Request) (*export.Result, error)
}

// Deps bundles the collaborators of a Reviewer.
type Deps struct {
	Plans     PlanSource
	Summaries SummarySource
	Volume    VolumeSource
	Adjuster  Applier
	Exporter  Exporter
	Notifier  notify.Notifier
}

// Options control export behavior during a run.
type Options struct {
	DryRun         bool
	ForceOverwrite bool
}

// StepError names the step of the cycle that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("review %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Outcome describes one review run.
type Outcome struct {
	RunID         string
	Status        Status
	Reason        string
	PlanID        uuid.UUID
	UpcomingWeek  int
	WeekStart     time.Time
	WindowStart   time.Time
	WindowEnd     time.Time
	Readiness     models.ReadinessSnapshot
	Recovery      readiness.Recovery
	Adherence     readiness.Adherence
	Decision      models.AdjustmentDecision
	AdjustSkipped bool
	AdjustNote    string
	Export        *export.Result
	Notified      bool
}

// Reviewer runs the weekly cycle.
type Reviewer struct {
	deps     Deps
	opts     Options
	newRunID func() string
	logger   zerolog.Logger
}

// NewReviewer creates a Reviewer. A nil notifier drops messages.
func NewReviewer(deps Deps, opts Options) *Reviewer {
	if deps.Notifier == nil {
		deps.Notifier = notify.Noop{}
	}
	return &Reviewer{
		deps:     deps,
		opts:     opts,
		newRunID: func() string { return ulid.Make().String() },
		logger:   log.WithComponent("review"),
	}
}

// Preview computes the decision for the week after today without
// changing anything.
func (r *Reviewer) Preview(ctx context.Context, today time.Time) (*Outcome, error) {
	out, plan, err := r.locate(ctx, today)
	if err != nil || plan == nil {
		return out, err
	}
	if err := r.decide(ctx, out); err != nil {
		return out, err
	}
	return out, nil
}

// Run reviews last week, adjusts and exports the upcoming week, then
// notifies.
func (r *Reviewer) Run(ctx context.Context, today time.Time) (*Outcome, error) {
	out, err := r.run(ctx, today)
	status := StatusFailed
	if out != nil && err == nil {
		status = out.Status
	}
	metrics.ReviewsTotal.WithLabelValues(string(status)).Inc()
	if err != nil {
		r.logger.Error().Err(err).Str("class", Classify(err)).Msg("review failed")
	}
	return out, err
}

func (r *Reviewer) run(ctx context.Context, today time.Time) (*Outcome, error) {
	out, plan, err := r.locate(ctx, today)
	if err != nil || plan == nil {
		return out, err
	}
	logger := r.logger.With().Str("run_id", out.RunID).Str("plan_id", plan.ID.String()).Int("week", out.UpcomingWeek).Logger()

	if err := r.decide(ctx, out); err != nil {
		return out, err
	}
	metrics.RecordDecision(out.Decision.SetMultiplier, out.Decision.IntensityDeltaAbs)

	if r.opts.DryRun {
		out.AdjustSkipped = true
		out.AdjustNote = "dry run"
	} else if _, err := r.deps.Adjuster.Apply(ctx, plan.ID, out.UpcomingWeek, out.Decision); err != nil {
		switch {
		case errors.Is(err, adjust.ErrWeekExported):
			out.AdjustNote = "week already exported"
		case errors.Is(err, adjust.ErrAlreadyAdjusted):
			out.AdjustNote = "week already adjusted"
		default:
			return out, &StepError{Step: "adjust", Err: err}
		}
		logger.Info().Str("reason", out.AdjustNote).Msg("adjustment skipped")
		out.AdjustSkipped = true
	}

	res, err := r.deps.Exporter.Export(ctx, export.Request{
		PlanID:         plan.ID,
		WeekNumber:     out.UpcomingWeek,
		WeekStart:      out.WeekStart,
		DryRun:         r.opts.DryRun,
		ForceOverwrite: r.opts.ForceOverwrite,
	})
	if err != nil {
		return out, &StepError{Step: "export", Err: err}
	}
	out.Export = res
	out.Status = StatusApplied

	if err := r.deps.Notifier.Notify(ctx, FormatMessage(out)); err != nil {
		logger.Warn().Err(err).Msg("notification failed")
	} else {
		out.Notified = true
	}

	logger.Info().
		Float64("set_multiplier", out.Decision.SetMultiplier).
		Float64("rir_delta", out.Decision.RIRDelta).
		Float64("intensity_delta", out.Decision.IntensityDeltaAbs).
		Str("export", string(res.Status)).
		Msg("review applied")
	return out, nil
}

// locate resolves the active plan and the upcoming week. A nil plan means
// the outcome is final.
func (r *Reviewer) locate(ctx context.Context, today time.Time) (*Outcome, *models.Plan, error) {
	out := &Outcome{RunID: r.newRunID()}

	plan, err := r.deps.Plans.GetActivePlan(ctx, today)
	if err != nil {
		return out, nil, &StepError{Step: "load plan", Err: err}
	}
	if plan == nil {
		out.Status = StatusNoPlan
		out.Reason = "no active plan"
		return out, nil, nil
	}
	out.PlanID = plan.ID

	upcoming := planner.NextMonday(today)
	out.WeekStart = upcoming
	out.WindowStart = upcoming.AddDate(0, 0, -7)
	out.WindowEnd = upcoming.AddDate(0, 0, -1)

	week, ok := UpcomingWeek(plan, upcoming)
	if !ok {
		out.Status = StatusOutOfWindow
		out.Reason = fmt.Sprintf("week starting %s is outside the plan", upcoming.Format("2006-01-02"))
		return out, nil, nil
	}
	out.UpcomingWeek = week
	if week == 1 {
		out.Status = StatusSkipped
		out.Reason = "upcoming is week 1, no prior week to review"
		return out, nil, nil
	}
	return out, plan, nil
}

// decide reads both snapshots and fills in the decision.
func (r *Reviewer) decide(ctx context.Context, out *Outcome) error {
	days, err := r.deps.Summaries.ListDailySummaries(ctx, time.Time{}, out.WindowEnd)
	if err != nil {
		return &StepError{Step: "read summaries", Err: err}
	}
	out.Readiness = readiness.Snapshot(days, out.WeekStart)

	planned, err := r.deps.Volume.GetPlannedVolume(ctx, out.WindowStart)
	if err != nil {
		return &StepError{Step: "read planned volume", Err: err}
	}
	actual, err := r.deps.Volume.GetActualVolume(ctx, out.WindowStart, out.WindowEnd)
	if err != nil {
		return &StepError{Step: "read actual volume", Err: err}
	}

	out.Recovery = readiness.ClassifyRecovery(out.Readiness)
	out.Adherence = readiness.ClassifyAdherence(models.AdherenceSnapshot{Planned: planned, Actual: actual}, out.Recovery.Severity)
	out.Decision = readiness.Combine(out.Recovery, out.Adherence)
	return nil
}

// UpcomingWeek returns the plan week that starts on monday.
func UpcomingWeek(plan *models.Plan, monday time.Time) (int, bool) {
	from, to := civilDate(plan.StartDate), civilDate(monday)
	if to.Before(from) {
		return 0, false
	}
	days := int(to.Sub(from).Hours() / 24)
	week := 1 + days/7
	if week > plan.WeekCount {
		return 0, false
	}
	return week, true
}

// civilDate drops the clock and zone so dates compare by calendar day.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

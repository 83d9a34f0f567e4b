// ABOUTME: Applies an adjustment decision to a not-yet-exported plan week.
// ABOUTME: Scales sets, raises RIR cues and shifts main-lift intensity.
package adjust

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/harperreed/lift/internal/log"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/planner"
	"github.com/harperreed/lift/internal/rules"
)

var (
	// ErrWeekExported is returned when the week has already been delivered.
	ErrWeekExported = errors.New("week already exported")
	// ErrAlreadyAdjusted is returned when a decision was already applied to
	// the week.
	ErrAlreadyAdjusted = errors.New("week already adjusted")
)

// Store is the slice of storage the adjuster needs.
type Store interface {
	WasWeekExported(ctx context.Context, planID uuid.UUID, week int) (bool, error)
	GetPlanWeekRows(ctx context.Context, planID uuid.UUID, week int) ([]models.WorkoutPrescription, error)
	GetLatestTrainingMaxes(ctx context.Context) (map[string]*float64, error)
	GetAdjustment(ctx context.Context, planID uuid.UUID, week int) (*models.AdjustmentDecision, error)
	ApplyAdjustment(ctx context.Context, planID uuid.UUID, week int, d models.AdjustmentDecision, rows []models.WorkoutPrescription) error
}

// Summary reports what changed.
type Summary struct {
	RowsChanged int
	Neutral     bool
}

// Adjuster rewrites upcoming weeks.
type Adjuster struct {
	store  Store
	logger zerolog.Logger
}

// NewAdjuster creates an Adjuster over store.
func NewAdjuster(store Store) *Adjuster {
	return &Adjuster{store: store, logger: log.WithComponent("adjust")}
}

// Apply rewrites the week's prescriptions according to d. A week takes at
// most one non-neutral decision; later calls return ErrAlreadyAdjusted.
func (a *Adjuster) Apply(ctx context.Context, planID uuid.UUID, week int, d models.AdjustmentDecision) (*Summary, error) {
	exported, err := a.store.WasWeekExported(ctx, planID, week)
	if err != nil {
		return nil, fmt.Errorf("check export record: %w", err)
	}
	if exported {
		return nil, fmt.Errorf("plan %s week %d: %w", planID, week, ErrWeekExported)
	}
	if d.IsNeutral() {
		return &Summary{Neutral: true}, nil
	}
	prev, err := a.store.GetAdjustment(ctx, planID, week)
	if err != nil {
		return nil, fmt.Errorf("check adjustment log: %w", err)
	}
	if prev != nil {
		return nil, fmt.Errorf("plan %s week %d: %w", planID, week, ErrAlreadyAdjusted)
	}

	rows, err := a.store.GetPlanWeekRows(ctx, planID, week)
	if err != nil {
		return nil, fmt.Errorf("load week rows: %w", err)
	}

	var tms map[string]*float64
	if d.IntensityDeltaAbs != 0 {
		if tms, err = a.store.GetLatestTrainingMaxes(ctx); err != nil {
			return nil, fmt.Errorf("load training maxes: %w", err)
		}
	}

	changed := make([]models.WorkoutPrescription, 0, len(rows))
	for _, rx := range rows {
		if next, ok := adjustRow(rx, d, tms); ok {
			changed = append(changed, next)
		}
	}
	if err := a.store.ApplyAdjustment(ctx, planID, week, d, changed); err != nil {
		return nil, fmt.Errorf("apply adjustment: %w", err)
	}

	a.logger.Info().
		Str("plan_id", planID.String()).
		Int("week", week).
		Float64("set_multiplier", d.SetMultiplier).
		Float64("rir_delta", d.RIRDelta).
		Float64("intensity_delta", d.IntensityDeltaAbs).
		Int("rows_changed", len(changed)).
		Msg("week adjusted")
	return &Summary{RowsChanged: len(changed)}, nil
}

// adjustRow returns the adjusted row and whether anything changed. Cardio
// rows are left alone.
func adjustRow(rx models.WorkoutPrescription, d models.AdjustmentDecision, tms map[string]*float64) (models.WorkoutPrescription, bool) {
	if rx.IsCardio {
		return rx, false
	}
	out := rx

	out.Sets = ScaleSets(rx.Sets, d.SetMultiplier)

	if d.RIRDelta > 0 {
		rir := d.RIRDelta
		if rx.RIRCue != nil {
			rir += *rx.RIRCue
		}
		out.RIRCue = models.Float(rir)
	}

	if d.IntensityDeltaAbs != 0 && rx.IsMainLift() && rx.Percent1RM != nil {
		pct := *rx.Percent1RM + d.IntensityDeltaAbs
		out.Percent1RM = models.Float(pct)
		var tm *float64
		if code, ok := rules.LiftCode(rx.ExerciseID); ok {
			tm = tms[code]
		}
		out.TargetWeightKg = planner.TargetWeight(tm, pct)
	}

	return out, !sameAdjustable(rx, out)
}

// ScaleSets multiplies and rounds half up, never below one set.
func ScaleSets(sets int, multiplier float64) int {
	return max(1, int(math.Floor(float64(sets)*multiplier+0.5)))
}

func sameAdjustable(a, b models.WorkoutPrescription) bool {
	return a.Sets == b.Sets &&
		eqFloat(a.RIRCue, b.RIRCue) &&
		eqFloat(a.Percent1RM, b.Percent1RM) &&
		eqFloat(a.TargetWeightKg, b.TargetWeightKg)
}

func eqFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

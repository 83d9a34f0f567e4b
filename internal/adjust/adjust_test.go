// ABOUTME: Tests for applying adjustment decisions to stored plan weeks.
// ABOUTME: Uses a real SQLite store seeded with a generated block.
package adjust

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/planner"
	"github.com/harperreed/lift/internal/rules"
	"github.com/harperreed/lift/internal/storage"
)

var monday = time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) (*storage.DB, *models.Plan) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "lift.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for code, kg := range map[string]float64{
		models.LiftBench: 100, models.LiftSquat: 140, models.LiftOHP: 60, models.LiftDeadlift: 180,
	} {
		require.NoError(t, db.AddTrainingMax(ctx, models.NewTrainingMax(code, kg, "manual")))
	}
	tms, err := db.GetLatestTrainingMaxes(ctx)
	require.NoError(t, err)

	plan := planner.NewFactory(rules.DefaultPools()).BuildBlock(monday, tms)
	_, err = db.SaveFullPlan(ctx, plan)
	require.NoError(t, err)
	return db, plan
}

func byRole(rows []models.WorkoutPrescription, role models.Role) []models.WorkoutPrescription {
	var out []models.WorkoutPrescription
	for _, r := range rows {
		if r.Role == role {
			out = append(out, r)
		}
	}
	return out
}

func TestScaleSets(t *testing.T) {
	tests := []struct {
		sets int
		mult float64
		want int
	}{
		{4, 0.8, 3},
		{3, 0.9, 3},
		{5, 0.9, 5},
		{1, 0.8, 1},
		{4, 1.1, 4},
		{4, 1.2, 5},
		{3, 1.0, 3},
	}
	for _, tt := range tests {
		if got := ScaleSets(tt.sets, tt.mult); got != tt.want {
			t.Errorf("ScaleSets(%d, %v) = %d, want %d", tt.sets, tt.mult, got, tt.want)
		}
	}
}

func TestApplyReducesVolumeAndIntensity(t *testing.T) {
	ctx := context.Background()
	db, plan := setupStore(t)

	before, err := db.GetPlanWeekRows(ctx, plan.ID, 2)
	require.NoError(t, err)

	d := models.AdjustmentDecision{SetMultiplier: 0.8, RIRDelta: 1, IntensityDeltaAbs: -2.5}
	sum, err := NewAdjuster(db).Apply(ctx, plan.ID, 2, d)
	require.NoError(t, err)
	assert.Positive(t, sum.RowsChanged)

	after, err := db.GetPlanWeekRows(ctx, plan.ID, 2)
	require.NoError(t, err)
	require.Len(t, after, len(before))

	for i := range before {
		b, a := before[i], after[i]
		if b.IsCardio {
			assert.Equal(t, b, a, "cardio untouched")
			continue
		}
		assert.Equal(t, ScaleSets(b.Sets, 0.8), a.Sets)
		require.NotNil(t, a.RIRCue)
		assert.Equal(t, *b.RIRCue+1, *a.RIRCue)
	}

	for _, m := range byRole(after, models.RoleMain) {
		assert.Equal(t, 75.0, *m.Percent1RM, "77.5 - 2.5")
		if m.ExerciseID == rules.BenchID {
			assert.Equal(t, 75.0, *m.TargetWeightKg)
		}
		if m.ExerciseID == rules.SquatID {
			assert.Equal(t, 105.0, *m.TargetWeightKg)
		}
	}
}

func TestApplyNeutralIsNoop(t *testing.T) {
	ctx := context.Background()
	db, plan := setupStore(t)

	before, err := db.GetPlanWeekRows(ctx, plan.ID, 2)
	require.NoError(t, err)

	sum, err := NewAdjuster(db).Apply(ctx, plan.ID, 2, models.NeutralDecision())
	require.NoError(t, err)
	assert.True(t, sum.Neutral)

	after, err := db.GetPlanWeekRows(ctx, plan.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApplyNegativeRIRDeltaIgnored(t *testing.T) {
	ctx := context.Background()
	db, plan := setupStore(t)

	before, err := db.GetPlanWeekRows(ctx, plan.ID, 3)
	require.NoError(t, err)

	d := models.AdjustmentDecision{SetMultiplier: 1.2, RIRDelta: -1}
	_, err = NewAdjuster(db).Apply(ctx, plan.ID, 3, d)
	require.NoError(t, err)

	after, err := db.GetPlanWeekRows(ctx, plan.ID, 3)
	require.NoError(t, err)
	for i := range before {
		if before[i].RIRCue != nil {
			assert.Equal(t, *before[i].RIRCue, *after[i].RIRCue)
		}
	}
}

func TestApplyRefusesExportedWeek(t *testing.T) {
	ctx := context.Background()
	db, plan := setupStore(t)
	require.NoError(t, db.RecordExport(ctx, &models.ExportRecord{
		PlanID: plan.ID, WeekNumber: 2, PayloadChecksum: "x", RoutineID: 1, ExportedAt: time.Now(),
	}, []byte("{}"), nil))

	before, err := db.GetPlanWeekRows(ctx, plan.ID, 2)
	require.NoError(t, err)

	_, err = NewAdjuster(db).Apply(ctx, plan.ID, 2, models.AdjustmentDecision{SetMultiplier: 0.8})
	assert.ErrorIs(t, err, ErrWeekExported)

	after, err := db.GetPlanWeekRows(ctx, plan.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApplyOnlyOncePerWeek(t *testing.T) {
	ctx := context.Background()
	db, plan := setupStore(t)

	before, err := db.GetPlanWeekRows(ctx, plan.ID, 2)
	require.NoError(t, err)

	d := models.AdjustmentDecision{SetMultiplier: 0.8, RIRDelta: 1}
	adj := NewAdjuster(db)
	_, err = adj.Apply(ctx, plan.ID, 2, d)
	require.NoError(t, err)
	first, err := db.GetPlanWeekRows(ctx, plan.ID, 2)
	require.NoError(t, err)

	_, err = adj.Apply(ctx, plan.ID, 2, d)
	assert.ErrorIs(t, err, ErrAlreadyAdjusted)

	after, err := db.GetPlanWeekRows(ctx, plan.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, first, after)
	for i := range before {
		if !before[i].IsCardio {
			assert.Equal(t, ScaleSets(before[i].Sets, 0.8), after[i].Sets)
		}
	}

	// Neutral decisions never touch the log, so they stay a no-op.
	sum, err := adj.Apply(ctx, plan.ID, 2, models.NeutralDecision())
	require.NoError(t, err)
	assert.True(t, sum.Neutral)
}

func TestAdjustRowMissingRIRCue(t *testing.T) {
	rx := models.WorkoutPrescription{ExerciseID: 83, Role: models.RoleAssistance, Sets: 3, Reps: 10}

	out, changed := adjustRow(rx, models.AdjustmentDecision{SetMultiplier: 1, RIRDelta: 2}, nil)
	assert.True(t, changed)
	require.NotNil(t, out.RIRCue)
	assert.Equal(t, 2.0, *out.RIRCue)

	_, changed = adjustRow(rx, models.AdjustmentDecision{SetMultiplier: 1, RIRDelta: -1}, nil)
	assert.False(t, changed)
}

func TestAdjustRowMissingTrainingMax(t *testing.T) {
	rx := models.WorkoutPrescription{
		ExerciseID: rules.DeadliftID, Role: models.RoleMain, Sets: 5, Reps: 3,
		RIRCue: models.Float(1), Percent1RM: models.Float(85), TargetWeightKg: models.Float(150),
	}
	out, changed := adjustRow(rx, models.AdjustmentDecision{SetMultiplier: 1, IntensityDeltaAbs: 2.5}, map[string]*float64{})

	assert.True(t, changed)
	assert.Equal(t, 87.5, *out.Percent1RM)
	assert.Nil(t, out.TargetWeightKg, "no TM means no target")
}

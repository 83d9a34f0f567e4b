// ABOUTME: Tests for the SQLite Repository implementation.
// ABOUTME: Covers plans, training maxes, export records and review inputs.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/lift/internal/models"
)

var monday = time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC)

// setupTestDB creates a test database in a temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "lift.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func samplePlan() *models.Plan {
	p := models.NewPlan(monday, 2, false)
	for n := 1; n <= 2; n++ {
		w := models.Week{ID: uuid.New(), PlanID: p.ID, WeekNumber: n}
		w.Prescriptions = []models.WorkoutPrescription{
			{ID: uuid.New(), DayOfWeek: 1, ExerciseID: 99999, Role: models.RoleCardio, Sets: 1, Reps: 1, ScheduledTime: "06:15:00", IsCardio: true},
			{ID: uuid.New(), DayOfWeek: 1, ExerciseID: 73, Role: models.RoleMain, Sets: 4, Reps: 8,
				RIRCue: models.Float(2), Percent1RM: models.Float(70), TargetWeightKg: models.Float(70), ScheduledTime: "07:05:00", IsAMRAP: true},
			{ID: uuid.New(), DayOfWeek: 2, ExerciseID: 615, Role: models.RoleMain, Sets: 4, Reps: 8,
				RIRCue: models.Float(2), Percent1RM: models.Float(70), ScheduledTime: "06:00:00"},
		}
		p.Weeks = append(p.Weeks, w)
	}
	return p
}

func TestSaveFullPlanAndReadBack(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	p := samplePlan()
	id, err := db.SaveFullPlan(ctx, p)
	if err != nil {
		t.Fatalf("SaveFullPlan failed: %v", err)
	}
	if id != p.ID {
		t.Errorf("returned id %v, want %v", id, p.ID)
	}

	rows, err := db.GetPlanWeekRows(ctx, id, 2)
	if err != nil {
		t.Fatalf("GetPlanWeekRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].DayOfWeek != 1 || !rows[0].IsCardio {
		t.Errorf("first row should be Monday cardio, got %+v", rows[0])
	}
	main := rows[1]
	if main.Role != models.RoleMain || main.TargetWeightKg == nil || *main.TargetWeightKg != 70 || !main.IsAMRAP {
		t.Errorf("main row mismatch: %+v", main)
	}
	if rows[2].TargetWeightKg != nil {
		t.Errorf("nil target should survive round trip, got %v", *rows[2].TargetWeightKg)
	}

	full, err := db.GetPlan(ctx, id)
	if err != nil {
		t.Fatalf("GetPlan failed: %v", err)
	}
	if len(full.Weeks) != 2 || len(full.Weeks[0].Prescriptions) != 3 {
		t.Errorf("GetPlan returned %d weeks", len(full.Weeks))
	}
}

func TestSaveFullPlanIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	p := samplePlan()
	// Duplicate (week, exercise, day) violates the unique constraint.
	dup := p.Weeks[1].Prescriptions[1]
	dup.ID = uuid.New()
	p.Weeks[1].Prescriptions = append(p.Weeks[1].Prescriptions, dup)

	if _, err := db.SaveFullPlan(ctx, p); err == nil {
		t.Fatal("expected unique constraint error")
	}

	plans, err := db.ListPlans(ctx, 0)
	if err != nil {
		t.Fatalf("ListPlans failed: %v", err)
	}
	if len(plans) != 0 {
		t.Errorf("failed save left %d plans behind", len(plans))
	}
}

func TestGetActivePlan(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	p := samplePlan()
	if _, err := db.SaveFullPlan(ctx, p); err != nil {
		t.Fatalf("SaveFullPlan failed: %v", err)
	}

	tests := []struct {
		asOf   time.Time
		active bool
	}{
		{monday.AddDate(0, 0, -1), false},
		{monday, true},
		{monday.AddDate(0, 0, 13), true},
		{monday.AddDate(0, 0, 14), false},
	}
	for _, tt := range tests {
		got, err := db.GetActivePlan(ctx, tt.asOf)
		if err != nil {
			t.Fatalf("GetActivePlan(%s) failed: %v", tt.asOf.Format("2006-01-02"), err)
		}
		if (got != nil) != tt.active {
			t.Errorf("GetActivePlan(%s) = %v, want active=%v", tt.asOf.Format("2006-01-02"), got, tt.active)
		}
		if got != nil && (got.ID != p.ID || got.WeekCount != 2 || !got.StartDate.Equal(monday)) {
			t.Errorf("active plan mismatch: %+v", got)
		}
	}
}

func TestUpdatePrescriptions(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	p := samplePlan()
	if _, err := db.SaveFullPlan(ctx, p); err != nil {
		t.Fatalf("SaveFullPlan failed: %v", err)
	}

	rows, _ := db.GetPlanWeekRows(ctx, p.ID, 2)
	rows[1].Sets = 3
	rows[1].RIRCue = models.Float(3)
	rows[1].Percent1RM = models.Float(67.5)
	if err := db.UpdatePrescriptions(ctx, rows); err != nil {
		t.Fatalf("UpdatePrescriptions failed: %v", err)
	}

	got, _ := db.GetPlanWeekRows(ctx, p.ID, 2)
	if got[1].Sets != 3 || *got[1].RIRCue != 3 || *got[1].Percent1RM != 67.5 {
		t.Errorf("update not persisted: %+v", got[1])
	}
	week1, _ := db.GetPlanWeekRows(ctx, p.ID, 1)
	if week1[1].Sets != 4 {
		t.Errorf("week 1 should be untouched, sets=%d", week1[1].Sets)
	}

	missing := []models.WorkoutPrescription{{ID: uuid.New()}}
	if err := db.UpdatePrescriptions(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyAdjustmentOncePerWeek(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	p := samplePlan()
	if _, err := db.SaveFullPlan(ctx, p); err != nil {
		t.Fatalf("SaveFullPlan failed: %v", err)
	}

	if dec, err := db.GetAdjustment(ctx, p.ID, 2); err != nil || dec != nil {
		t.Fatalf("expected no adjustment yet, got %+v, %v", dec, err)
	}

	dec := models.AdjustmentDecision{SetMultiplier: 0.8, RIRDelta: 1}
	rows, _ := db.GetPlanWeekRows(ctx, p.ID, 2)
	rows[1].Sets = 3
	if err := db.ApplyAdjustment(ctx, p.ID, 2, dec, rows[1:2]); err != nil {
		t.Fatalf("ApplyAdjustment failed: %v", err)
	}

	got, err := db.GetAdjustment(ctx, p.ID, 2)
	if err != nil || got == nil {
		t.Fatalf("GetAdjustment = %+v, %v", got, err)
	}
	if got.SetMultiplier != 0.8 || got.RIRDelta != 1 {
		t.Errorf("recorded decision %+v, want %+v", got, dec)
	}

	rows[1].Sets = 2
	if err := db.ApplyAdjustment(ctx, p.ID, 2, dec, rows[1:2]); !errors.Is(err, ErrAlreadyAdjusted) {
		t.Errorf("expected ErrAlreadyAdjusted, got %v", err)
	}
	after, _ := db.GetPlanWeekRows(ctx, p.ID, 2)
	if after[1].Sets != 3 {
		t.Errorf("second adjustment must not write rows, sets=%d", after[1].Sets)
	}

	if dec, _ := db.GetAdjustment(ctx, p.ID, 1); dec != nil {
		t.Errorf("week 1 should have no adjustment, got %+v", dec)
	}
}

func TestTrainingMaxes(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	old := models.NewTrainingMax(models.LiftBench, 95, "manual").WithMeasuredAt(monday.AddDate(0, 0, -30))
	cur := models.NewTrainingMax(models.LiftBench, 100, "AMRAP_EPLEY").WithMeasuredAt(monday)
	sq := models.NewTrainingMax(models.LiftSquat, 140, "manual").WithMeasuredAt(monday)
	for _, tm := range []*models.TrainingMax{old, cur, sq} {
		if err := db.AddTrainingMax(ctx, tm); err != nil {
			t.Fatalf("AddTrainingMax failed: %v", err)
		}
	}

	latest, err := db.GetLatestTrainingMaxes(ctx)
	if err != nil {
		t.Fatalf("GetLatestTrainingMaxes failed: %v", err)
	}
	if latest[models.LiftBench] == nil || *latest[models.LiftBench] != 100 {
		t.Errorf("bench = %v, want 100", latest[models.LiftBench])
	}
	if latest[models.LiftSquat] == nil || *latest[models.LiftSquat] != 140 {
		t.Errorf("squat = %v, want 140", latest[models.LiftSquat])
	}
	if v, ok := latest[models.LiftDeadlift]; !ok || v != nil {
		t.Errorf("deadlift should be present and nil, got %v (present=%v)", v, ok)
	}

	hist, err := db.ListTrainingMaxes(ctx, models.LiftBench, 0)
	if err != nil {
		t.Fatalf("ListTrainingMaxes failed: %v", err)
	}
	if len(hist) != 2 || hist[0].ValueKg != 100 {
		t.Errorf("history should keep superseded rows newest first, got %d rows", len(hist))
	}
}

func TestExportRecords(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	p := samplePlan()
	if _, err := db.SaveFullPlan(ctx, p); err != nil {
		t.Fatalf("SaveFullPlan failed: %v", err)
	}

	exported, err := db.WasWeekExported(ctx, p.ID, 1)
	if err != nil || exported {
		t.Fatalf("WasWeekExported = %v, %v; want false", exported, err)
	}
	if _, err := db.GetExportRecord(ctx, p.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	rec := &models.ExportRecord{PlanID: p.ID, WeekNumber: 1, PayloadChecksum: "abc", RoutineID: 42}
	if err := db.RecordExport(ctx, rec, []byte(`{"a":1}`), []byte(`{"id":42}`)); err != nil {
		t.Fatalf("RecordExport failed: %v", err)
	}
	exported, _ = db.WasWeekExported(ctx, p.ID, 1)
	if !exported {
		t.Error("week 1 should be exported")
	}

	// A forced re-export overwrites the record.
	rec2 := &models.ExportRecord{PlanID: p.ID, WeekNumber: 1, PayloadChecksum: "def", RoutineID: 43}
	if err := db.RecordExport(ctx, rec2, []byte(`{}`), nil); err != nil {
		t.Fatalf("RecordExport overwrite failed: %v", err)
	}
	got, err := db.GetExportRecord(ctx, p.ID, 1)
	if err != nil {
		t.Fatalf("GetExportRecord failed: %v", err)
	}
	if got.PayloadChecksum != "def" || got.RoutineID != 43 {
		t.Errorf("record not replaced: %+v", got)
	}
}

func TestDailySummaries(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	if err := db.AddDailySummary(ctx, models.DailySummary{Date: monday, RestingHR: models.Float(52)}); err != nil {
		t.Fatalf("AddDailySummary failed: %v", err)
	}
	// Second write for the same day fills sleep and keeps HR.
	if err := db.AddDailySummary(ctx, models.DailySummary{Date: monday, SleepMinutes: models.Float(410)}); err != nil {
		t.Fatalf("AddDailySummary failed: %v", err)
	}
	_ = db.AddDailySummary(ctx, models.DailySummary{Date: monday.AddDate(0, 0, -10), RestingHR: models.Float(50)})

	got, err := db.ListDailySummaries(ctx, monday.AddDate(0, 0, -7), monday)
	if err != nil {
		t.Fatalf("ListDailySummaries failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d summaries, want 1", len(got))
	}
	if got[0].RestingHR == nil || *got[0].RestingHR != 52 || got[0].SleepMinutes == nil || *got[0].SleepMinutes != 410 {
		t.Errorf("merged summary mismatch: %+v", got[0])
	}
}

func TestVolume(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	_ = db.SetPlannedVolume(ctx, monday, "chest", 1000)
	_ = db.SetPlannedVolume(ctx, monday, "chest", 1200)
	_ = db.SetPlannedVolume(ctx, monday, "legs", 2000)
	_ = db.AddActualVolume(ctx, monday, "chest", 500)
	_ = db.AddActualVolume(ctx, monday.AddDate(0, 0, 2), "chest", 400)
	_ = db.AddActualVolume(ctx, monday.AddDate(0, 0, 9), "chest", 999)

	planned, err := db.GetPlannedVolume(ctx, monday)
	if err != nil {
		t.Fatalf("GetPlannedVolume failed: %v", err)
	}
	if planned["chest"] != 1200 || planned["legs"] != 2000 {
		t.Errorf("planned = %v", planned)
	}

	actual, err := db.GetActualVolume(ctx, monday, monday.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("GetActualVolume failed: %v", err)
	}
	if actual["chest"] != 900 {
		t.Errorf("actual chest = %v, want 900", actual["chest"])
	}
	if _, ok := actual["legs"]; ok {
		t.Error("legs has no executed volume")
	}
}

func TestWorkoutLogsAndStrengthResults(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	_ = db.AddWorkoutLog(ctx, models.NewWorkoutLog(monday, 73, 8, 110).WithRIR(models.Float(2)))
	_ = db.AddWorkoutLog(ctx, models.NewWorkoutLog(monday.AddDate(0, 0, 4), 184, 6, 180))
	_ = db.AddWorkoutLog(ctx, models.NewWorkoutLog(monday.AddDate(0, 0, 8), 73, 5, 120))

	logs, err := db.ListWorkoutLogs(ctx, monday, monday.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("ListWorkoutLogs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[0].RIR == nil || *logs[0].RIR != 2 {
		t.Errorf("bench RIR = %v, want 2", logs[0].RIR)
	}
	if logs[1].RIR != nil {
		t.Errorf("deadlift RIR = %v, want none", *logs[1].RIR)
	}

	p := models.NewPlan(monday, 1, true)
	if _, err := db.SaveFullPlan(ctx, p); err != nil {
		t.Fatalf("SaveFullPlan failed: %v", err)
	}
	res := models.StrengthTestResult{PlanID: p.ID, WeekNumber: 1, LiftCode: models.LiftBench, TestDate: monday, Reps: 8, WeightKg: 110, E1RMKg: 139.3, TMKg: 125}
	if err := db.SaveStrengthTestResult(ctx, res); err != nil {
		t.Fatalf("SaveStrengthTestResult failed: %v", err)
	}
	res.TMKg = 127.5
	if err := db.SaveStrengthTestResult(ctx, res); err != nil {
		t.Fatalf("SaveStrengthTestResult upsert failed: %v", err)
	}

	tp, err := db.LatestTestPlan(ctx)
	if err != nil || tp == nil || tp.ID != p.ID {
		t.Errorf("LatestTestPlan = %v, %v", tp, err)
	}
}

// ABOUTME: Training max, workout log and strength test persistence.
// ABOUTME: Training maxes are append-only; the latest row per lift wins.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/lift/internal/models"
)

// AddTrainingMax stores a new training max. Older rows for the same lift are
// kept as history.
func (d *DB) AddTrainingMax(ctx context.Context, tm *models.TrainingMax) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO training_max (id, lift_code, value_kg, measured_at, source)
		VALUES (?, ?, ?, ?, ?)`,
		tm.ID.String(),
		tm.LiftCode,
		tm.ValueKg,
		tm.MeasuredAt.UTC().Format(time.RFC3339),
		tm.Source,
	)
	if err != nil {
		return fmt.Errorf("add training max: %w", err)
	}
	return nil
}

// GetLatestTrainingMaxes returns the newest value for each main lift. Lifts
// without any recorded max map to nil.
func (d *DB) GetLatestTrainingMaxes(ctx context.Context) (map[string]*float64, error) {
	out := make(map[string]*float64, len(models.AllLiftCodes))
	for _, code := range models.AllLiftCodes {
		out[code] = nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT lift_code, value_kg FROM training_max t
		WHERE measured_at = (
			SELECT MAX(measured_at) FROM training_max WHERE lift_code = t.lift_code
		)
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("latest training maxes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var v float64
		if err := rows.Scan(&code, &v); err != nil {
			return nil, fmt.Errorf("scan training max: %w", err)
		}
		out[code] = &v
	}
	return out, rows.Err()
}

// ListTrainingMaxes returns training max history, newest first. An empty
// lift code lists all lifts.
func (d *DB) ListTrainingMaxes(ctx context.Context, liftCode string, limit int) ([]*models.TrainingMax, error) {
	query := `SELECT id, lift_code, value_kg, measured_at, source FROM training_max`
	var args []interface{}
	if liftCode != "" {
		query += " WHERE lift_code = ?"
		args = append(args, liftCode)
	}
	query += " ORDER BY measured_at DESC, created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list training maxes: %w", err)
	}
	defer rows.Close()

	var out []*models.TrainingMax
	for rows.Next() {
		var tm models.TrainingMax
		var idStr, measured string
		if err := rows.Scan(&idStr, &tm.LiftCode, &tm.ValueKg, &measured, &tm.Source); err != nil {
			return nil, fmt.Errorf("scan training max: %w", err)
		}
		tm.ID, _ = uuid.Parse(idStr)
		tm.MeasuredAt, _ = time.Parse(time.RFC3339, measured)
		out = append(out, &tm)
	}
	return out, rows.Err()
}

// AddWorkoutLog stores one performed set.
func (d *DB) AddWorkoutLog(ctx context.Context, l *models.WorkoutLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO workout_log (id, date, exercise_id, reps, weight_kg, rir)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID.String(), l.Date.Format(dateLayout), l.ExerciseID, l.Reps, l.WeightKg, nullFloat(l.RIR))
	if err != nil {
		return fmt.Errorf("add workout log: %w", err)
	}
	return nil
}

// ListWorkoutLogs returns logged sets with from <= date <= to.
func (d *DB) ListWorkoutLogs(ctx context.Context, from, to time.Time) ([]models.WorkoutLog, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, date, exercise_id, reps, weight_kg, rir
		FROM workout_log
		WHERE date BETWEEN ? AND ?
		ORDER BY date, exercise_id, weight_kg DESC, reps DESC`,
		from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list workout logs: %w", err)
	}
	defer rows.Close()

	var out []models.WorkoutLog
	for rows.Next() {
		var l models.WorkoutLog
		var idStr, date string
		var rir sql.NullFloat64
		if err := rows.Scan(&idStr, &date, &l.ExerciseID, &l.Reps, &l.WeightKg, &rir); err != nil {
			return nil, fmt.Errorf("scan workout log: %w", err)
		}
		l.RIR = floatPtr(rir)
		l.ID, _ = uuid.Parse(idStr)
		l.Date, _ = time.Parse(dateLayout, date)
		out = append(out, l)
	}
	return out, rows.Err()
}

// SaveStrengthTestResult upserts the result for (plan, week, lift).
func (d *DB) SaveStrengthTestResult(ctx context.Context, r models.StrengthTestResult) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO strength_test_result (plan_id, week_number, lift_code, test_date, reps, weight_kg, e1rm_kg, tm_kg)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (plan_id, week_number, lift_code) DO UPDATE SET
			test_date = excluded.test_date,
			reps = excluded.reps,
			weight_kg = excluded.weight_kg,
			e1rm_kg = excluded.e1rm_kg,
			tm_kg = excluded.tm_kg`,
		r.PlanID.String(), r.WeekNumber, r.LiftCode, r.TestDate.Format(dateLayout),
		r.Reps, r.WeightKg, r.E1RMKg, r.TMKg)
	if err != nil {
		return fmt.Errorf("save strength test result: %w", err)
	}
	return nil
}

// LatestTestPlan returns the most recent strength-test plan, or nil.
func (d *DB) LatestTestPlan(ctx context.Context) (*models.Plan, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, start_date, week_count, is_test, created_at
		FROM plans WHERE is_test = 1
		ORDER BY start_date DESC, created_at DESC LIMIT 1`)
	p, err := scanPlan(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// ABOUTME: Plan, week and prescription persistence for SQLite storage.
// ABOUTME: Plans are written in one transaction together with their weeks and rows.
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

// SaveFullPlan stores a plan with all weeks and prescriptions atomically.
func (d *DB) SaveFullPlan(ctx context.Context, p *models.Plan) (uuid.UUID, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin plan tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO plans (id, start_date, end_date, week_count, is_test, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID.String(),
		p.StartDate.Format(dateLayout),
		p.EndDate().Format(dateLayout),
		p.WeekCount,
		boolInt(p.IsTest),
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert plan: %w", err)
	}

	for i := range p.Weeks {
		w := &p.Weeks[i]
		if w.ID == uuid.Nil {
			w.ID = uuid.New()
		}
		w.PlanID = p.ID
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO plan_weeks (id, plan_id, week_number) VALUES (?, ?, ?)`,
			w.ID.String(), p.ID.String(), w.WeekNumber); err != nil {
			return uuid.Nil, fmt.Errorf("insert week %d: %w", w.WeekNumber, err)
		}

		for j := range w.Prescriptions {
			rx := &w.Prescriptions[j]
			if rx.ID == uuid.Nil {
				rx.ID = uuid.New()
			}
			rx.WeekID = w.ID
			if err := insertPrescription(ctx, tx, rx); err != nil {
				return uuid.Nil, fmt.Errorf("insert week %d day %d exercise %d: %w",
					w.WeekNumber, rx.DayOfWeek, rx.ExerciseID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("commit plan: %w", err)
	}
	return p.ID, nil
}

func insertPrescription(ctx context.Context, tx *sql.Tx, rx *models.WorkoutPrescription) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO workout_prescriptions (
			id, week_id, day_of_week, exercise_id, role, sets, reps, rir_cue,
			percent_1rm, target_weight_kg, scheduled_time, is_cardio, is_amrap, comment
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rx.ID.String(),
		rx.WeekID.String(),
		rx.DayOfWeek,
		rx.ExerciseID,
		string(rx.Role),
		rx.Sets,
		rx.Reps,
		nullFloat(rx.RIRCue),
		nullFloat(rx.Percent1RM),
		nullFloat(rx.TargetWeightKg),
		rx.ScheduledTime,
		boolInt(rx.IsCardio),
		boolInt(rx.IsAMRAP),
		rx.Comment,
	)
	return err
}

// GetActivePlan returns the most recently started plan whose date range
// covers asOf, without its weeks. It returns nil, nil when no plan is active.
func (d *DB) GetActivePlan(ctx context.Context, asOf time.Time) (*models.Plan, error) {
	day := asOf.Format(dateLayout)
	row := d.db.QueryRowContext(ctx, `
		SELECT id, start_date, week_count, is_test, created_at
		FROM plans
		WHERE start_date <= ? AND end_date >= ?
		ORDER BY start_date DESC, created_at DESC
		LIMIT 1`, day, day)

	p, err := scanPlan(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// GetPlan returns a plan with all weeks and prescriptions.
func (d *DB) GetPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, start_date, week_count, is_test, created_at
		FROM plans WHERE id = ?`, planID.String())
	p, err := scanPlan(row)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, week_number FROM plan_weeks WHERE plan_id = ? ORDER BY week_number`,
		planID.String())
	if err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var idStr string
		w := models.Week{PlanID: p.ID}
		if err := rows.Scan(&idStr, &w.WeekNumber); err != nil {
			return nil, fmt.Errorf("scan week: %w", err)
		}
		w.ID, _ = uuid.Parse(idStr)
		p.Weeks = append(p.Weeks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range p.Weeks {
		rx, err := d.GetPlanWeekRows(ctx, p.ID, p.Weeks[i].WeekNumber)
		if err != nil {
			return nil, err
		}
		p.Weeks[i].Prescriptions = rx
	}
	return p, nil
}

// GetPlanWeekRows returns a week's prescriptions ordered by day, keeping the
// order in which the planner emitted them within a day.
func (d *DB) GetPlanWeekRows(ctx context.Context, planID uuid.UUID, week int) ([]models.WorkoutPrescription, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT wp.id, wp.week_id, wp.day_of_week, wp.exercise_id, wp.role, wp.sets, wp.reps,
		       wp.rir_cue, wp.percent_1rm, wp.target_weight_kg, wp.scheduled_time,
		       wp.is_cardio, wp.is_amrap, wp.comment
		FROM workout_prescriptions wp
		JOIN plan_weeks pw ON pw.id = wp.week_id
		WHERE pw.plan_id = ? AND pw.week_number = ?
		ORDER BY wp.day_of_week, wp.rowid`,
		planID.String(), week)
	if err != nil {
		return nil, fmt.Errorf("get week rows: %w", err)
	}
	defer rows.Close()

	return scanPrescriptions(rows)
}

// UpdatePrescriptions rewrites the adjustable fields of existing rows in a
// single transaction.
func (d *DB) UpdatePrescriptions(ctx context.Context, rows []models.WorkoutPrescription) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updatePrescriptions(ctx, tx, rows); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// ApplyAdjustment rewrites rows and records the decision for (plan, week) in
// one transaction. A week that already has a recorded adjustment fails with
// ErrAlreadyAdjusted and nothing is written.
func (d *DB) ApplyAdjustment(ctx context.Context, planID uuid.UUID, week int, dec models.AdjustmentDecision, rows []models.WorkoutPrescription) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin adjustment tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO adjustment_log (plan_id, week_number, set_multiplier, rir_delta, intensity_delta, rows_changed, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (plan_id, week_number) DO NOTHING`,
		planID.String(), week, dec.SetMultiplier, dec.RIRDelta, dec.IntensityDeltaAbs,
		len(rows), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record adjustment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plan %s week %d: %w", planID, week, ErrAlreadyAdjusted)
	}

	if err := updatePrescriptions(ctx, tx, rows); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit adjustment: %w", err)
	}
	return nil
}

// GetAdjustment returns the decision recorded for (plan, week), or nil.
func (d *DB) GetAdjustment(ctx context.Context, planID uuid.UUID, week int) (*models.AdjustmentDecision, error) {
	var dec models.AdjustmentDecision
	err := d.db.QueryRowContext(ctx, `
		SELECT set_multiplier, rir_delta, intensity_delta
		FROM adjustment_log WHERE plan_id = ? AND week_number = ?`,
		planID.String(), week).Scan(&dec.SetMultiplier, &dec.RIRDelta, &dec.IntensityDeltaAbs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get adjustment: %w", err)
	}
	return &dec, nil
}

func updatePrescriptions(ctx context.Context, tx *sql.Tx, rows []models.WorkoutPrescription) error {
	for _, rx := range rows {
		res, err := tx.ExecContext(ctx, `
			UPDATE workout_prescriptions
			SET sets = ?, reps = ?, rir_cue = ?, percent_1rm = ?, target_weight_kg = ?
			WHERE id = ?`,
			rx.Sets, rx.Reps, nullFloat(rx.RIRCue), nullFloat(rx.Percent1RM),
			nullFloat(rx.TargetWeightKg), rx.ID.String())
		if err != nil {
			return fmt.Errorf("update prescription %s: %w", rx.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("update prescription %s: %w", rx.ID, ErrNotFound)
		}
	}
	return nil
}

// ListPlans returns plans without weeks, most recent first.
func (d *DB) ListPlans(ctx context.Context, limit int) ([]*models.Plan, error) {
	query := `
		SELECT id, start_date, week_count, is_test, created_at
		FROM plans
		ORDER BY start_date DESC, created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlan(row rowScanner) (*models.Plan, error) {
	var p models.Plan
	var idStr, start, created string
	var isTest int

	err := row.Scan(&idStr, &start, &p.WeekCount, &isTest, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan plan: %w", err)
	}

	p.ID, _ = uuid.Parse(idStr)
	p.StartDate, _ = time.Parse(dateLayout, start)
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	p.IsTest = isTest == 1
	return &p, nil
}

func scanPrescriptions(rows *sql.Rows) ([]models.WorkoutPrescription, error) {
	var out []models.WorkoutPrescription

	for rows.Next() {
		var rx models.WorkoutPrescription
		var idStr, weekStr, role string
		var rir, pct, target sql.NullFloat64
		var isCardio, isAMRAP int

		err := rows.Scan(&idStr, &weekStr, &rx.DayOfWeek, &rx.ExerciseID, &role, &rx.Sets, &rx.Reps,
			&rir, &pct, &target, &rx.ScheduledTime, &isCardio, &isAMRAP, &rx.Comment)
		if err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}

		rx.ID, _ = uuid.Parse(idStr)
		rx.WeekID, _ = uuid.Parse(weekStr)
		rx.Role = models.Role(role)
		rx.RIRCue = floatPtr(rir)
		rx.Percent1RM = floatPtr(pct)
		rx.TargetWeightKg = floatPtr(target)
		rx.IsCardio = isCardio == 1
		rx.IsAMRAP = isAMRAP == 1

		out = append(out, rx)
	}

	return out, rows.Err()
}

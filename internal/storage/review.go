// ABOUTME: Export log, daily summary and muscle volume persistence.
// ABOUTME: Supplies the idempotency guard and the weekly review inputs.
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

// WasWeekExported reports whether an export record exists for (plan, week).
func (d *DB) WasWeekExported(ctx context.Context, planID uuid.UUID, week int) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM export_log WHERE plan_id = ? AND week_number = ?`,
		planID.String(), week).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check export: %w", err)
	}
	return n > 0, nil
}

// GetExportRecord returns the export record for (plan, week) or ErrNotFound.
func (d *DB) GetExportRecord(ctx context.Context, planID uuid.UUID, week int) (*models.ExportRecord, error) {
	var rec models.ExportRecord
	var idStr, exported string
	err := d.db.QueryRowContext(ctx, `
		SELECT plan_id, week_number, payload_checksum, routine_id, exported_at
		FROM export_log WHERE plan_id = ? AND week_number = ?`,
		planID.String(), week).Scan(&idStr, &rec.WeekNumber, &rec.PayloadChecksum, &rec.RoutineID, &exported)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get export record: %w", err)
	}
	rec.PlanID, _ = uuid.Parse(idStr)
	rec.ExportedAt, _ = time.Parse(time.RFC3339, exported)
	return &rec, nil
}

// RecordExport writes the export record together with the payload sent and
// the remote response. A forced re-export replaces the earlier record.
func (d *DB) RecordExport(ctx context.Context, rec *models.ExportRecord, payload, response []byte) error {
	if rec.ExportedAt.IsZero() {
		rec.ExportedAt = time.Now()
	}
	var resp sql.NullString
	if response != nil {
		resp = sql.NullString{String: string(response), Valid: true}
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO export_log (plan_id, week_number, payload_checksum, routine_id, payload, response, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (plan_id, week_number) DO UPDATE SET
			payload_checksum = excluded.payload_checksum,
			routine_id = excluded.routine_id,
			payload = excluded.payload,
			response = excluded.response,
			exported_at = excluded.exported_at`,
		rec.PlanID.String(), rec.WeekNumber, rec.PayloadChecksum, rec.RoutineID,
		string(payload), resp, rec.ExportedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	return nil
}

// AddDailySummary upserts one day of biometrics. Nil fields keep any value
// already stored for that day.
func (d *DB) AddDailySummary(ctx context.Context, s models.DailySummary) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO daily_summary (date, resting_hr, sleep_minutes)
		VALUES (?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET
			resting_hr = COALESCE(excluded.resting_hr, daily_summary.resting_hr),
			sleep_minutes = COALESCE(excluded.sleep_minutes, daily_summary.sleep_minutes)`,
		s.Date.Format(dateLayout), nullFloat(s.RestingHR), nullFloat(s.SleepMinutes))
	if err != nil {
		return fmt.Errorf("add daily summary: %w", err)
	}
	return nil
}

// ListDailySummaries returns summaries with from <= date <= to, oldest first.
func (d *DB) ListDailySummaries(ctx context.Context, from, to time.Time) ([]models.DailySummary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT date, resting_hr, sleep_minutes
		FROM daily_summary
		WHERE date BETWEEN ? AND ?
		ORDER BY date`,
		from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list daily summaries: %w", err)
	}
	defer rows.Close()

	var out []models.DailySummary
	for rows.Next() {
		var s models.DailySummary
		var date string
		var rhr, sleep sql.NullFloat64
		if err := rows.Scan(&date, &rhr, &sleep); err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}
		s.Date, _ = time.Parse(dateLayout, date)
		s.RestingHR = floatPtr(rhr)
		s.SleepMinutes = floatPtr(sleep)
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetPlannedVolume sets the planned kg for a muscle group in a week.
func (d *DB) SetPlannedVolume(ctx context.Context, weekStart time.Time, group string, kg float64) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO planned_volume (week_start, group_id, kg) VALUES (?, ?, ?)
		ON CONFLICT (week_start, group_id) DO UPDATE SET kg = excluded.kg`,
		weekStart.Format(dateLayout), group, kg)
	if err != nil {
		return fmt.Errorf("set planned volume: %w", err)
	}
	return nil
}

// AddActualVolume records executed kg for a muscle group on a day.
func (d *DB) AddActualVolume(ctx context.Context, date time.Time, group string, kg float64) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO actual_volume (date, group_id, kg) VALUES (?, ?, ?)`,
		date.Format(dateLayout), group, kg)
	if err != nil {
		return fmt.Errorf("add actual volume: %w", err)
	}
	return nil
}

// GetPlannedVolume returns planned kg per group for the week starting weekStart.
func (d *DB) GetPlannedVolume(ctx context.Context, weekStart time.Time) (map[string]float64, error) {
	return d.volumeByGroup(ctx, `
		SELECT group_id, kg FROM planned_volume WHERE week_start = ?`,
		weekStart.Format(dateLayout))
}

// GetActualVolume sums executed kg per group over from <= date <= to.
func (d *DB) GetActualVolume(ctx context.Context, from, to time.Time) (map[string]float64, error) {
	return d.volumeByGroup(ctx, `
		SELECT group_id, SUM(kg) FROM actual_volume
		WHERE date BETWEEN ? AND ?
		GROUP BY group_id`,
		from.Format(dateLayout), to.Format(dateLayout))
}

func (d *DB) volumeByGroup(ctx context.Context, query string, args ...interface{}) (map[string]float64, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query volume: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var group string
		var kg float64
		if err := rows.Scan(&group, &kg); err != nil {
			return nil, fmt.Errorf("scan volume: %w", err)
		}
		out[group] = kg
	}
	return out, rows.Err()
}

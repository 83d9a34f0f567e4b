// ABOUTME: Backup export and import of plans and training maxes.
// ABOUTME: Supports JSON and YAML; plan records are also used to print plans.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/lift/internal/models"
)

// ExportData represents the full backup format.
type ExportData struct {
	Version       string              `json:"version" yaml:"version"`
	ExportedAt    time.Time           `json:"exported_at" yaml:"exported_at"`
	Tool          string              `json:"tool" yaml:"tool"`
	TrainingMaxes []TrainingMaxRecord `json:"training_maxes" yaml:"training_maxes"`
	Plans         []PlanRecord        `json:"plans" yaml:"plans"`
}

// TrainingMaxRecord is the serialized form of a training max.
type TrainingMaxRecord struct {
	Lift       string    `json:"lift" yaml:"lift"`
	ValueKg    float64   `json:"value_kg" yaml:"value_kg"`
	MeasuredAt time.Time `json:"measured_at" yaml:"measured_at"`
	Source     string    `json:"source" yaml:"source"`
}

// PlanRecord is the serialized form of a plan with its weeks.
type PlanRecord struct {
	ID        string       `json:"id" yaml:"id"`
	StartDate string       `json:"start_date" yaml:"start_date"`
	WeekCount int          `json:"week_count" yaml:"week_count"`
	IsTest    bool         `json:"is_test,omitempty" yaml:"is_test,omitempty"`
	Weeks     []WeekRecord `json:"weeks" yaml:"weeks"`
}

// WeekRecord is one serialized week.
type WeekRecord struct {
	Number int                  `json:"week_number" yaml:"week_number"`
	Rows   []PrescriptionRecord `json:"rows" yaml:"rows"`
}

// PrescriptionRecord is one serialized prescription row.
type PrescriptionRecord struct {
	Day            int      `json:"day_of_week" yaml:"day_of_week"`
	ExerciseID     int      `json:"exercise_id" yaml:"exercise_id"`
	Role           string   `json:"role" yaml:"role"`
	Sets           int      `json:"sets" yaml:"sets"`
	Reps           int      `json:"reps" yaml:"reps"`
	RIRCue         *float64 `json:"rir_cue,omitempty" yaml:"rir_cue,omitempty"`
	Percent1RM     *float64 `json:"percent_1rm,omitempty" yaml:"percent_1rm,omitempty"`
	TargetWeightKg *float64 `json:"target_weight_kg,omitempty" yaml:"target_weight_kg,omitempty"`
	ScheduledTime  string   `json:"scheduled_time" yaml:"scheduled_time"`
	IsCardio       bool     `json:"is_cardio,omitempty" yaml:"is_cardio,omitempty"`
	IsAMRAP        bool     `json:"is_amrap,omitempty" yaml:"is_amrap,omitempty"`
	Comment        string   `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// NewPlanRecord converts a plan with weeks into its serialized form.
func NewPlanRecord(p *models.Plan) PlanRecord {
	rec := PlanRecord{
		ID:        p.ID.String(),
		StartDate: p.StartDate.Format(dateLayout),
		WeekCount: p.WeekCount,
		IsTest:    p.IsTest,
	}
	for _, w := range p.Weeks {
		rec.Weeks = append(rec.Weeks, NewWeekRecord(w.WeekNumber, w.Prescriptions))
	}
	return rec
}

// NewWeekRecord converts a week's rows into its serialized form.
func NewWeekRecord(number int, rows []models.WorkoutPrescription) WeekRecord {
	wr := WeekRecord{Number: number}
	for _, rx := range rows {
		wr.Rows = append(wr.Rows, PrescriptionRecord{
			Day:            rx.DayOfWeek,
			ExerciseID:     rx.ExerciseID,
			Role:           string(rx.Role),
			Sets:           rx.Sets,
			Reps:           rx.Reps,
			RIRCue:         rx.RIRCue,
			Percent1RM:     rx.Percent1RM,
			TargetWeightKg: rx.TargetWeightKg,
			ScheduledTime:  rx.ScheduledTime,
			IsCardio:       rx.IsCardio,
			IsAMRAP:        rx.IsAMRAP,
			Comment:        rx.Comment,
		})
	}
	return wr
}

// toModel converts a serialized plan back into a model with fresh row ids.
func (r PlanRecord) toModel() (*models.Plan, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse plan id %q: %w", r.ID, err)
	}
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return nil, fmt.Errorf("parse start date %q: %w", r.StartDate, err)
	}

	p := &models.Plan{ID: id, StartDate: start, WeekCount: r.WeekCount, IsTest: r.IsTest, CreatedAt: time.Now()}
	for _, wr := range r.Weeks {
		w := models.Week{ID: uuid.New(), PlanID: id, WeekNumber: wr.Number}
		for _, row := range wr.Rows {
			w.Prescriptions = append(w.Prescriptions, models.WorkoutPrescription{
				ID:             uuid.New(),
				WeekID:         w.ID,
				DayOfWeek:      row.Day,
				ExerciseID:     row.ExerciseID,
				Role:           models.Role(row.Role),
				Sets:           row.Sets,
				Reps:           row.Reps,
				RIRCue:         row.RIRCue,
				Percent1RM:     row.Percent1RM,
				TargetWeightKg: row.TargetWeightKg,
				ScheduledTime:  row.ScheduledTime,
				IsCardio:       row.IsCardio,
				IsAMRAP:        row.IsAMRAP,
				Comment:        row.Comment,
			})
		}
		p.Weeks = append(p.Weeks, w)
	}
	return p, nil
}

// GetAllData retrieves all plans and training maxes for backup.
func (d *DB) GetAllData(ctx context.Context) (*ExportData, error) {
	tms, err := d.ListTrainingMaxes(ctx, "", 0)
	if err != nil {
		return nil, fmt.Errorf("list training maxes: %w", err)
	}

	plans, err := d.ListPlans(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Tool:       "lift",
	}
	for _, tm := range tms {
		data.TrainingMaxes = append(data.TrainingMaxes, TrainingMaxRecord{
			Lift:       tm.LiftCode,
			ValueKg:    tm.ValueKg,
			MeasuredAt: tm.MeasuredAt,
			Source:     tm.Source,
		})
	}
	for _, p := range plans {
		full, err := d.GetPlan(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		data.Plans = append(data.Plans, NewPlanRecord(full))
	}
	return data, nil
}

// ImportData restores a backup. Plans that already exist are rejected by the
// primary key, so import into an empty database.
func (d *DB) ImportData(ctx context.Context, data *ExportData) error {
	for _, tm := range data.TrainingMaxes {
		m := models.NewTrainingMax(tm.Lift, tm.ValueKg, tm.Source).WithMeasuredAt(tm.MeasuredAt)
		if err := d.AddTrainingMax(ctx, m); err != nil {
			return fmt.Errorf("import training max: %w", err)
		}
	}
	for _, pr := range data.Plans {
		p, err := pr.toModel()
		if err != nil {
			return fmt.Errorf("import plan: %w", err)
		}
		if _, err := d.SaveFullPlan(ctx, p); err != nil {
			return fmt.Errorf("import plan %s: %w", pr.ID, err)
		}
	}
	return nil
}

// ExportJSON exports all data as JSON.
func (d *DB) ExportJSON(ctx context.Context) ([]byte, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all data as YAML.
func (d *DB) ExportYAML(ctx context.Context) ([]byte, error) {
	data, err := d.GetAllData(ctx)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(data)
}

// ImportJSON imports data from JSON bytes.
func (d *DB) ImportJSON(ctx context.Context, raw []byte) error {
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return d.ImportData(ctx, &data)
}

// ImportYAML imports data from YAML bytes.
func (d *DB) ImportYAML(ctx context.Context, raw []byte) error {
	var data ExportData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("unmarshal YAML: %w", err)
	}
	return d.ImportData(ctx, &data)
}

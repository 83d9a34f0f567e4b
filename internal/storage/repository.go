// ABOUTME: Repository interface for plan, training and review data.
// ABOUTME: The engine depends on this contract; DB is the SQLite implementation.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/lift/internal/models"
)

// Repository defines the storage interface used by the planner, adjuster,
// exporter and review cycle. This interface allows swapping implementations
// (e.g., for testing).
type Repository interface {
	// Training maxes
	GetLatestTrainingMaxes(ctx context.Context) (map[string]*float64, error)
	AddTrainingMax(ctx context.Context, tm *models.TrainingMax) error
	ListTrainingMaxes(ctx context.Context, liftCode string, limit int) ([]*models.TrainingMax, error)

	// Plans
	SaveFullPlan(ctx context.Context, p *models.Plan) (uuid.UUID, error)
	GetActivePlan(ctx context.Context, asOf time.Time) (*models.Plan, error)
	GetPlanWeekRows(ctx context.Context, planID uuid.UUID, week int) ([]models.WorkoutPrescription, error)
	UpdatePrescriptions(ctx context.Context, rows []models.WorkoutPrescription) error

	// Adjustments
	ApplyAdjustment(ctx context.Context, planID uuid.UUID, week int, dec models.AdjustmentDecision, rows []models.WorkoutPrescription) error
	GetAdjustment(ctx context.Context, planID uuid.UUID, week int) (*models.AdjustmentDecision, error)

	// Export idempotency
	WasWeekExported(ctx context.Context, planID uuid.UUID, week int) (bool, error)
	GetExportRecord(ctx context.Context, planID uuid.UUID, week int) (*models.ExportRecord, error)
	RecordExport(ctx context.Context, rec *models.ExportRecord, payload, response []byte) error

	// Review inputs
	AddDailySummary(ctx context.Context, s models.DailySummary) error
	ListDailySummaries(ctx context.Context, from, to time.Time) ([]models.DailySummary, error)
	SetPlannedVolume(ctx context.Context, weekStart time.Time, group string, kg float64) error
	AddActualVolume(ctx context.Context, date time.Time, group string, kg float64) error
	GetPlannedVolume(ctx context.Context, weekStart time.Time) (map[string]float64, error)
	GetActualVolume(ctx context.Context, from, to time.Time) (map[string]float64, error)

	// Strength tests
	AddWorkoutLog(ctx context.Context, l *models.WorkoutLog) error
	ListWorkoutLogs(ctx context.Context, from, to time.Time) ([]models.WorkoutLog, error)
	SaveStrengthTestResult(ctx context.Context, r models.StrengthTestResult) error

	// Lifecycle
	Close() error
}

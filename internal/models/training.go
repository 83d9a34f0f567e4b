// ABOUTME: Training max, strength test and workout log models.
// ABOUTME: Training maxes are superseded by newer rows, never deleted.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Lift codes for the four main lifts.
const (
	LiftSquat    = "squat"
	LiftBench    = "bench"
	LiftDeadlift = "deadlift"
	LiftOHP      = "ohp"
)

// AllLiftCodes lists the main lift codes in display order.
var AllLiftCodes = []string{LiftBench, LiftSquat, LiftOHP, LiftDeadlift}

// IsValidLiftCode checks if a string names a main lift.
func IsValidLiftCode(s string) bool {
	for _, c := range AllLiftCodes {
		if c == s {
			return true
		}
	}
	return false
}

// TrainingMax is the reference weight used for percentage-based loading.
type TrainingMax struct {
	ID         uuid.UUID
	LiftCode   string
	ValueKg    float64
	MeasuredAt time.Time
	Source     string
}

// NewTrainingMax creates a TrainingMax measured now.
func NewTrainingMax(liftCode string, valueKg float64, source string) *TrainingMax {
	return &TrainingMax{
		ID:         uuid.New(),
		LiftCode:   liftCode,
		ValueKg:    valueKg,
		MeasuredAt: time.Now(),
		Source:     source,
	}
}

// WithMeasuredAt sets a custom measurement timestamp.
func (tm *TrainingMax) WithMeasuredAt(t time.Time) *TrainingMax {
	tm.MeasuredAt = t
	return tm
}

// StrengthTestResult records the best AMRAP set of a test week for one lift.
type StrengthTestResult struct {
	PlanID     uuid.UUID
	WeekNumber int
	LiftCode   string
	TestDate   time.Time
	Reps       int
	WeightKg   float64
	E1RMKg     float64
	TMKg       float64
}

// WorkoutLog is one performed set pulled from the tracking platform.
type WorkoutLog struct {
	ID         uuid.UUID
	Date       time.Time
	ExerciseID int
	Reps       int
	WeightKg   float64
	RIR        *float64
}

// NewWorkoutLog creates a WorkoutLog with a generated UUID.
func NewWorkoutLog(date time.Time, exerciseID, reps int, weightKg float64) *WorkoutLog {
	return &WorkoutLog{
		ID:         uuid.New(),
		Date:       date,
		ExerciseID: exerciseID,
		Reps:       reps,
		WeightKg:   weightKg,
	}
}

// WithRIR sets the reps in reserve reported for the set.
func (l *WorkoutLog) WithRIR(rir *float64) *WorkoutLog {
	l.RIR = rir
	return l
}

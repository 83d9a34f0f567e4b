// ABOUTME: Readiness, adherence and adjustment value objects for weekly review.
// ABOUTME: Also holds DailySummary inputs and the ExportRecord idempotency marker.
package models

import (
	"time"

	"github.com/google/uuid"
)

// DailySummary is one day of biometric data. Nil means not recorded.
type DailySummary struct {
	Date         time.Time
	RestingHR    *float64
	SleepMinutes *float64
}

// ReadinessSnapshot compares last week's recovery markers with baseline.
// A zero value means the metric was unavailable.
type ReadinessSnapshot struct {
	AvgRHR        float64
	BaselineRHR   float64
	AvgSleep      float64
	BaselineSleep float64
}

// AdherenceSnapshot holds planned and executed volume in kg per muscle group.
type AdherenceSnapshot struct {
	Planned map[string]float64
	Actual  map[string]float64
}

// AdjustmentDecision bounds how the upcoming week changes. It is applied and
// logged, never persisted.
type AdjustmentDecision struct {
	SetMultiplier     float64
	RIRDelta          float64
	IntensityDeltaAbs float64
	Reasons           []string
}

// NeutralDecision returns a decision that changes nothing.
func NeutralDecision() AdjustmentDecision {
	return AdjustmentDecision{SetMultiplier: 1.0}
}

// IsNeutral reports whether applying the decision would be a no-op.
func (d AdjustmentDecision) IsNeutral() bool {
	return d.SetMultiplier == 1.0 && d.RIRDelta == 0 && d.IntensityDeltaAbs == 0
}

// ExportRecord marks a plan week as delivered to the remote platform.
type ExportRecord struct {
	PlanID          uuid.UUID
	WeekNumber      int
	PayloadChecksum string
	RoutineID       int
	ExportedAt      time.Time
}

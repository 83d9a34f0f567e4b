// ABOUTME: Load arithmetic shared by plan building and adjustment.
// ABOUTME: Plate rounding, percentage targets, Monday alignment and Epley e1RM.
package planner

import (
	"math"
	"time"
)

// PlateIncrement is the smallest loadable weight step in kg.
const PlateIncrement = 2.5

// TrainingMaxFactor is the share of an estimated 1RM used as training max.
const TrainingMaxFactor = 0.9

// Round2p5 rounds a weight to the nearest 2.5 kg.
func Round2p5(kg float64) float64 {
	return math.Round(kg/PlateIncrement) * PlateIncrement
}

// TargetWeight computes the rounded load for a percentage of a training max.
// A nil training max yields a nil target.
func TargetWeight(tm *float64, percent float64) *float64 {
	if tm == nil {
		return nil
	}
	w := Round2p5(*tm * percent / 100.0)
	return &w
}

// Epley estimates a one-rep max as weight * (1 + reps/30).
func Epley(weightKg float64, reps int) float64 {
	return weightKg * (1.0 + float64(reps)/30.0)
}

// TrainingMaxFromE1RM derives a training max from an estimated 1RM.
func TrainingMaxFromE1RM(e1rm float64) float64 {
	return Round2p5(e1rm * TrainingMaxFactor)
}

// NextMonday returns the Monday on or after d, truncated to midnight in d's
// location.
func NextMonday(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	offset := (8 - int(day.Weekday())) % 7
	return day.AddDate(0, 0, offset)
}

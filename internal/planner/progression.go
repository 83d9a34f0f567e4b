// ABOUTME: Calibrates target weights of a plan week from logged sets.
// ABOUTME: Loads met at low RIR step up; misses, high RIR and poor recovery step down.
package planner

import (
	"fmt"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/rules"
)

const (
	// ProgressionStep is the base fractional change of a target weight.
	ProgressionStep = 0.05
	// CalibrationHistory is how many of the most recent logged sets count.
	CalibrationHistory = 4
)

// TargetChange is one prescription whose target weight moved.
type TargetChange struct {
	Row    models.WorkoutPrescription
	Before *float64
	After  float64
}

// Calibration holds the changed rows and one note per weighted exercise.
type Calibration struct {
	Changes []TargetChange
	Notes   []string
}

// Calibrate moves target weights toward what was actually lifted. history is
// keyed by exercise id with the oldest set first. Cardio rows are ignored.
func Calibrate(rows []models.WorkoutPrescription, history map[int][]models.WorkoutLog, recoveryGood bool) Calibration {
	var c Calibration
	for _, rx := range rows {
		if rx.IsCardio {
			continue
		}
		next, note := calibrateRow(rx, history[rx.ExerciseID], recoveryGood)
		c.Notes = append(c.Notes, note)
		if next == nil {
			continue
		}
		row := rx
		row.TargetWeightKg = next
		c.Changes = append(c.Changes, TargetChange{Row: row, Before: rx.TargetWeightKg, After: *next})
	}
	return c
}

func calibrateRow(rx models.WorkoutPrescription, sets []models.WorkoutLog, recoveryGood bool) (*float64, string) {
	name := exerciseName(rx.ExerciseID)
	recovery := "recovery good"
	if !recoveryGood {
		recovery = "recovery poor"
	}
	if len(sets) == 0 {
		return nil, fmt.Sprintf("%s: no history, target kept (%s)", name, recovery)
	}
	if len(sets) > CalibrationHistory {
		sets = sets[len(sets)-CalibrationHistory:]
	}

	var weights, rirs []float64
	for _, s := range sets {
		if s.WeightKg > 0 {
			weights = append(weights, s.WeightKg)
		}
		if s.RIR != nil {
			rirs = append(rirs, *s.RIR)
		}
	}
	if len(weights) == 0 {
		return nil, fmt.Sprintf("%s: no weighted sets, target kept (%s)", name, recovery)
	}

	avgWeight := average(weights)
	target := avgWeight
	if rx.TargetWeightKg != nil {
		target = *rx.TargetWeightKg
	}

	inc, dec := ProgressionStep, ProgressionStep
	detail := "no RIR, " + recovery
	useRIR := len(rirs) > 0
	var avgRIR float64
	if useRIR {
		avgRIR = average(rirs)
		detail = fmt.Sprintf("avg RIR %.1f, %s", avgRIR, recovery)
		switch {
		case avgRIR <= 1:
			inc += ProgressionStep / 2
		case avgRIR >= 2:
			inc /= 2
		}
	}
	if !recoveryGood {
		inc /= 2
		dec *= 1.5
	}

	var next float64
	var note string
	switch {
	case avgWeight >= target && (!useRIR || avgRIR <= 2):
		next = Round2p5(target * (1 + inc))
		note = fmt.Sprintf("%s: +%.1f%% (%s)", name, inc*100, detail)
	default:
		next = Round2p5(target * (1 - dec))
		note = fmt.Sprintf("%s: -%.1f%% (%s)", name, dec*100, detail)
	}

	if rx.TargetWeightKg != nil && next == *rx.TargetWeightKg {
		return nil, fmt.Sprintf("%s: no change at %.1f kg (%s)", name, next, detail)
	}
	return &next, note
}

func exerciseName(id int) string {
	if code, ok := rules.LiftCode(id); ok {
		return code
	}
	return fmt.Sprintf("exercise #%d", id)
}

func average(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

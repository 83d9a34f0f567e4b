// ABOUTME: Strength-test evaluation from logged AMRAP sets.
// ABOUTME: Picks the best Epley e1RM per main lift and derives new training maxes.
package planner

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/rules"
)

// SourceAMRAPEpley tags training maxes derived from a strength test.
const SourceAMRAPEpley = "AMRAP_EPLEY"

// Sets outside this rep range are ignored when estimating a max.
const (
	minTestReps = 1
	maxTestReps = 20
)

// Evaluation is the outcome of a strength-test week.
type Evaluation struct {
	Results      []models.StrengthTestResult
	TrainingMaxs []*models.TrainingMax
}

// EvaluateStrengthTest scans the logs of a test week and, for each main lift,
// keeps the set with the highest estimated 1RM. Lifts with no qualifying set
// are left out. New training maxes are stamped with weekEnd.
func EvaluateStrengthTest(planID uuid.UUID, weekNumber int, logs []models.WorkoutLog, weekEnd time.Time) Evaluation {
	type best struct {
		log  models.WorkoutLog
		e1rm float64
	}
	top := make(map[int]best)

	for _, l := range logs {
		if !rules.IsMainLift(l.ExerciseID) {
			continue
		}
		if l.Reps < minTestReps || l.Reps > maxTestReps || l.WeightKg <= 0 {
			continue
		}
		e := Epley(l.WeightKg, l.Reps)
		if cur, ok := top[l.ExerciseID]; !ok || e > cur.e1rm {
			top[l.ExerciseID] = best{log: l, e1rm: e}
		}
	}

	var ev Evaluation
	for _, id := range rules.MainLiftIDs() {
		b, ok := top[id]
		if !ok {
			continue
		}
		code, _ := rules.LiftCode(id)
		tm := TrainingMaxFromE1RM(b.e1rm)
		ev.Results = append(ev.Results, models.StrengthTestResult{
			PlanID:     planID,
			WeekNumber: weekNumber,
			LiftCode:   code,
			TestDate:   b.log.Date,
			Reps:       b.log.Reps,
			WeightKg:   b.log.WeightKg,
			E1RMKg:     math.Round(b.e1rm*10) / 10,
			TMKg:       tm,
		})
		ev.TrainingMaxs = append(ev.TrainingMaxs,
			models.NewTrainingMax(code, tm, SourceAMRAPEpley).WithMeasuredAt(weekEnd))
	}
	return ev
}

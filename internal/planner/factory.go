// ABOUTME: Builds in-memory training blocks and strength-test weeks.
// ABOUTME: Output plans are ready for Repository.SaveFullPlan.
package planner

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/harperreed/lift/internal/log"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/rules"
)

// TrainingMaxes maps lift code to training max in kg. A nil value means the
// lift has no known max.
type TrainingMaxes map[string]*float64

// Comments attached to generated rows.
const (
	CommentAMRAP     = "Last set AMRAP"
	CommentAMRAPTest = "AMRAP Test"
	CommentCardio    = "Blaze"
)

// Factory creates plans from the progression rules and exercise pools.
type Factory struct {
	Pools rules.Pools

	// NewID generates plan ids. Defaults to uuid.New; tests pin it so
	// exercise selection is reproducible.
	NewID func() uuid.UUID

	logger zerolog.Logger
}

// NewFactory creates a Factory with the given pools.
func NewFactory(pools rules.Pools) *Factory {
	return &Factory{
		Pools:  pools,
		NewID:  uuid.New,
		logger: log.WithComponent("planner"),
	}
}

func (f *Factory) newPlan(start time.Time, weeks int, isTest bool) *models.Plan {
	p := models.NewPlan(NextMonday(start), weeks, isTest)
	if f.NewID != nil {
		p.ID = f.NewID()
	}
	return p
}

// BuildBlock builds a standard four week block starting on the Monday on or
// after start.
func (f *Factory) BuildBlock(start time.Time, tms TrainingMaxes) *models.Plan {
	plan := f.newPlan(start, rules.BlockWeeks, false)
	rot := NewRotation()

	for w := 1; w <= rules.BlockWeeks; w++ {
		week := models.Week{ID: uuid.New(), PlanID: plan.ID, WeekNumber: w}
		scheme := rules.WeekScheme(w)

		for _, dow := range rules.LiftingDays {
			mainID, _ := rules.MainLiftForDay(dow)
			slot, _ := rules.WeightSlot(dow)
			rng := seededRand(plan.ID, w, dow)

			if c, ok := cardioRow(week.ID, dow); ok {
				week.Prescriptions = append(week.Prescriptions, c)
			}

			main := models.WorkoutPrescription{
				ID:             uuid.New(),
				WeekID:         week.ID,
				DayOfWeek:      dow,
				ExerciseID:     mainID,
				Role:           models.RoleMain,
				Sets:           scheme.Sets,
				Reps:           scheme.Reps,
				RIRCue:         models.Float(scheme.RIRCue),
				Percent1RM:     models.Float(scheme.Percent1RM),
				TargetWeightKg: TargetWeight(tms.forLift(mainID), scheme.Percent1RM),
				ScheduledTime:  slot,
				IsAMRAP:        scheme.AMRAP,
			}
			if scheme.AMRAP {
				main.Comment = CommentAMRAP
			}
			week.Prescriptions = append(week.Prescriptions, main)

			assistance := rot.PickAssistance(mainID, f.Pools.AssistanceFor(mainID), 2, rng)
			for i, exID := range assistance {
				acc := rules.Assistance1
				if i == 1 {
					acc = rules.Assistance2
				}
				week.Prescriptions = append(week.Prescriptions,
					accessoryRow(week.ID, dow, exID, models.RoleAssistance, acc, w, slot))
			}
			if len(assistance) < 2 {
				f.logger.Warn().Int("main_lift", mainID).Int("pool", len(f.Pools.AssistanceFor(mainID))).
					Msg("assistance pool too small")
			}

			if coreID, ok := rot.PickCore(f.Pools.Core, rng); ok {
				week.Prescriptions = append(week.Prescriptions,
					accessoryRow(week.ID, dow, coreID, models.RoleCore, rules.Core, w, slot))
			}
		}

		// Wednesday and any other cardio-only days.
		for _, dow := range rules.CardioDays {
			if _, lifting := rules.MainLiftForDay(dow); lifting {
				continue
			}
			if c, ok := cardioRow(week.ID, dow); ok {
				week.Prescriptions = append(week.Prescriptions, c)
			}
		}

		plan.Weeks = append(plan.Weeks, week)
	}

	f.logger.Debug().Str("plan_id", plan.ID.String()).
		Str("start", plan.StartDate.Format("2006-01-02")).
		Msg("built training block")
	return plan
}

// BuildStrengthTest builds a one week test: cardio on every class day and a
// single AMRAP top set per main lift at the test percentage.
func (f *Factory) BuildStrengthTest(start time.Time, tms TrainingMaxes) *models.Plan {
	plan := f.newPlan(start, rules.TestWeeks, true)
	week := models.Week{ID: uuid.New(), PlanID: plan.ID, WeekNumber: 1}

	for _, dow := range rules.CardioDays {
		if c, ok := cardioRow(week.ID, dow); ok {
			week.Prescriptions = append(week.Prescriptions, c)
		}
	}

	for _, dow := range rules.LiftingDays {
		mainID, _ := rules.MainLiftForDay(dow)
		pct, _ := rules.TestPercent(mainID)
		slot, _ := rules.WeightSlot(dow)
		week.Prescriptions = append(week.Prescriptions, models.WorkoutPrescription{
			ID:             uuid.New(),
			WeekID:         week.ID,
			DayOfWeek:      dow,
			ExerciseID:     mainID,
			Role:           models.RoleMain,
			Sets:           1,
			Reps:           1,
			Percent1RM:     models.Float(pct),
			TargetWeightKg: TargetWeight(tms.forLift(mainID), pct),
			ScheduledTime:  slot,
			IsAMRAP:        true,
			Comment:        CommentAMRAPTest,
		})
	}

	plan.Weeks = []models.Week{week}
	f.logger.Debug().Str("plan_id", plan.ID.String()).Msg("built strength test")
	return plan
}

func (t TrainingMaxes) forLift(exerciseID int) *float64 {
	code, ok := rules.LiftCode(exerciseID)
	if !ok {
		return nil
	}
	return t[code]
}

func cardioRow(weekID uuid.UUID, dow int) (models.WorkoutPrescription, bool) {
	at, ok := rules.CardioTime(dow)
	if !ok {
		return models.WorkoutPrescription{}, false
	}
	return models.WorkoutPrescription{
		ID:            uuid.New(),
		WeekID:        weekID,
		DayOfWeek:     dow,
		ExerciseID:    rules.CardioID,
		Role:          models.RoleCardio,
		Sets:          1,
		Reps:          1,
		ScheduledTime: at,
		IsCardio:      true,
		Comment:       CommentCardio,
	}, true
}

func accessoryRow(weekID uuid.UUID, dow, exerciseID int, role models.Role, s rules.AccessoryScheme, week int, slot string) models.WorkoutPrescription {
	return models.WorkoutPrescription{
		ID:            uuid.New(),
		WeekID:        weekID,
		DayOfWeek:     dow,
		ExerciseID:    exerciseID,
		Role:          role,
		Sets:          s.SetsFor(week),
		Reps:          s.Reps(week),
		RIRCue:        models.Float(s.RIRCue),
		ScheduledTime: slot,
	}
}

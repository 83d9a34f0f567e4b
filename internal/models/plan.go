// ABOUTME: Plan, Week and WorkoutPrescription models for training blocks.
// ABOUTME: A Plan owns its Weeks; a Week owns its prescription rows.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies what part of a session a prescription fills.
type Role string

const (
	RoleCardio     Role = "cardio"
	RoleMain       Role = "main"
	RoleAssistance Role = "assistance"
	RoleCore       Role = "core"
)

// Plan is a multi-week training block (or a one-week strength test).
type Plan struct {
	ID        uuid.UUID
	StartDate time.Time
	WeekCount int
	IsTest    bool
	CreatedAt time.Time
	Weeks     []Week // Populated when building or fetching a full plan
}

// NewPlan creates a Plan with a generated UUID.
func NewPlan(start time.Time, weekCount int, isTest bool) *Plan {
	return &Plan{
		ID:        uuid.New(),
		StartDate: start,
		WeekCount: weekCount,
		IsTest:    isTest,
		CreatedAt: time.Now(),
	}
}

// Week returns the week with the given number, or nil.
func (p *Plan) Week(number int) *Week {
	for i := range p.Weeks {
		if p.Weeks[i].WeekNumber == number {
			return &p.Weeks[i]
		}
	}
	return nil
}

// WeekStart returns the Monday that begins the given week of the plan.
func (p *Plan) WeekStart(number int) time.Time {
	return p.StartDate.AddDate(0, 0, (number-1)*7)
}

// EndDate returns the last day (Sunday) covered by the plan.
func (p *Plan) EndDate() time.Time {
	return p.StartDate.AddDate(0, 0, p.WeekCount*7-1)
}

// Week is one training week of a plan.
type Week struct {
	ID            uuid.UUID
	PlanID        uuid.UUID
	WeekNumber    int
	Prescriptions []WorkoutPrescription
}

// WorkoutPrescription is a single exercise scheduled on one day of a week.
// Percent1RM and TargetWeightKg are only set for main lifts; TargetWeightKg
// stays nil when no training max is known.
type WorkoutPrescription struct {
	ID             uuid.UUID
	WeekID         uuid.UUID
	DayOfWeek      int // 1=Mon ... 7=Sun
	ExerciseID     int
	Role           Role
	Sets           int
	Reps           int
	RIRCue         *float64
	Percent1RM     *float64
	TargetWeightKg *float64
	ScheduledTime  string // HH:MM:SS
	IsCardio       bool
	IsAMRAP        bool
	Comment        string
}

// IsMainLift reports whether the prescription is a percentage-based main lift.
func (w WorkoutPrescription) IsMainLift() bool {
	return w.Role == RoleMain
}

// Float returns a pointer to v. Handy for optional prescription fields.
func Float(v float64) *float64 {
	return &v
}

// ABOUTME: Static progression tables for the four-day main-lift template.
// ABOUTME: Week schemes, lift ids, weekday mapping, slot times and test-week percentages.
package rules

import "github.com/harperreed/lift/internal/models"

// Catalog exercise ids for the main lifts and the fixed cardio class.
const (
	SquatID    = 615
	BenchID    = 73
	DeadliftID = 184
	OHPID      = 566
	CardioID   = 99999
)

// Block lengths.
const (
	BlockWeeks = 4
	TestWeeks  = 1
	DeloadWeek = 4
)

// CardioDurationMinutes is how long the fixed cardio class runs.
const CardioDurationMinutes = 45

// Scheme is the main-lift prescription for one week of a block.
type Scheme struct {
	Sets       int
	Reps       int
	Percent1RM float64
	RIRCue     float64
	AMRAP      bool
}

// AccessoryScheme is a rep-range prescription for assistance or core work.
type AccessoryScheme struct {
	Sets     int
	RepsLow  int
	RepsHigh int
	RIRCue   float64
}

// Reps picks the rep target for a week: the top of the range in week one,
// the bottom afterwards.
func (a AccessoryScheme) Reps(week int) int {
	if week == 1 {
		return a.RepsHigh
	}
	return a.RepsLow
}

// SetsFor returns the set count for a week; the deload week drops one set.
func (a AccessoryScheme) SetsFor(week int) int {
	if IsDeload(week) {
		return a.Sets - 1
	}
	return a.Sets
}

// Weeks 1 volume, 2 strength-hybrid, 3 peak strength, 4 deload.
var weekSchemes = map[int]Scheme{
	1: {Sets: 4, Reps: 8, Percent1RM: 70.0, RIRCue: 2.0, AMRAP: true},
	2: {Sets: 5, Reps: 5, Percent1RM: 77.5, RIRCue: 2.0, AMRAP: true},
	3: {Sets: 5, Reps: 3, Percent1RM: 85.0, RIRCue: 1.0, AMRAP: true},
	4: {Sets: 3, Reps: 5, Percent1RM: 60.0, RIRCue: 3.0},
}

var (
	Assistance1 = AccessoryScheme{Sets: 3, RepsLow: 10, RepsHigh: 12, RIRCue: 2.0}
	Assistance2 = AccessoryScheme{Sets: 3, RepsLow: 8, RepsHigh: 10, RIRCue: 2.0}
	Core        = AccessoryScheme{Sets: 3, RepsLow: 10, RepsHigh: 15, RIRCue: 2.0}
)

// WeekScheme returns the main-lift scheme for a week number. Weeks past the
// table reuse the deload scheme.
func WeekScheme(week int) Scheme {
	if s, ok := weekSchemes[week]; ok {
		return s
	}
	return weekSchemes[DeloadWeek]
}

// IsDeload reports whether a week number is the deload week.
func IsDeload(week int) bool {
	return week == DeloadWeek
}

// LiftingDays lists the weekdays that carry a main lift, in order.
var LiftingDays = []int{1, 2, 4, 5}

// mainLiftByDay maps weekday (1=Mon) to the main lift trained that day.
var mainLiftByDay = map[int]int{
	1: BenchID,
	2: SquatID,
	4: OHPID,
	5: DeadliftID,
}

// MainLiftForDay returns the main lift for a weekday, if any.
func MainLiftForDay(dow int) (int, bool) {
	id, ok := mainLiftByDay[dow]
	return id, ok
}

// MainLiftIDs lists the main lifts in weekday order.
func MainLiftIDs() []int {
	ids := make([]int, 0, len(LiftingDays))
	for _, d := range LiftingDays {
		ids = append(ids, mainLiftByDay[d])
	}
	return ids
}

// IsMainLift reports whether an exercise id is one of the four main lifts.
func IsMainLift(exerciseID int) bool {
	_, ok := liftCodeByID[exerciseID]
	return ok
}

var liftCodeByID = map[int]string{
	SquatID:    models.LiftSquat,
	BenchID:    models.LiftBench,
	DeadliftID: models.LiftDeadlift,
	OHPID:      models.LiftOHP,
}

// LiftCode returns the training-max key for a main lift id.
func LiftCode(exerciseID int) (string, bool) {
	code, ok := liftCodeByID[exerciseID]
	return code, ok
}

// LiftID returns the exercise id for a lift code.
func LiftID(code string) (int, bool) {
	for id, c := range liftCodeByID {
		if c == code {
			return id, true
		}
	}
	return 0, false
}

// Cardio class start times by weekday.
var cardioTimes = map[int]string{
	1: "06:15:00",
	2: "07:00:00",
	3: "07:00:00",
	4: "06:15:00",
	5: "07:15:00",
}

// CardioDays lists weekdays with a cardio class, in order.
var CardioDays = []int{1, 2, 3, 4, 5}

// CardioTime returns the cardio start time for a weekday, if there is a class.
func CardioTime(dow int) (string, bool) {
	t, ok := cardioTimes[dow]
	return t, ok
}

// WeightSlot returns the lifting start time for a weekday. Cardio-first days
// (Mon, Thu) lift after the class; weights-first days (Tue, Fri) lift before.
func WeightSlot(dow int) (string, bool) {
	switch dow {
	case 1, 4:
		return "07:05:00", true
	case 2, 5:
		return "06:00:00", true
	}
	return "", false
}

// testPercents are the AMRAP top-set percentages of the strength test week.
var testPercents = map[int]float64{
	BenchID:    85.0,
	SquatID:    87.5,
	OHPID:      85.0,
	DeadliftID: 90.0,
}

// TestPercent returns the strength-test percentage for a main lift.
func TestPercent(exerciseID int) (float64, bool) {
	p, ok := testPercents[exerciseID]
	return p, ok
}

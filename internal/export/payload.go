// ABOUTME: Builds the per-week export payload grouped by weekday.
// ABOUTME: The checksum is SHA-256 over key-sorted JSON of the payload.
package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/lift/internal/models"
)

// Payload is the remote-facing view of one plan week.
type Payload struct {
	PlanID     string       `json:"plan_id"`
	WeekNumber int          `json:"week_number"`
	Days       []DayPayload `json:"days"`
}

// DayPayload holds one weekday's exercises in prescription order.
type DayPayload struct {
	DayOfWeek int               `json:"day_of_week"`
	Exercises []ExercisePayload `json:"exercises"`
}

// ExercisePayload is one prescription as sent to the remote platform.
type ExercisePayload struct {
	Exercise       int      `json:"exercise"`
	Role           string   `json:"role"`
	Sets           int      `json:"sets"`
	Reps           int      `json:"reps"`
	RIR            *float64 `json:"rir,omitempty"`
	Percent1RM     *float64 `json:"percent_1rm,omitempty"`
	TargetWeightKg *float64 `json:"target_weight_kg,omitempty"`
	ScheduledTime  string   `json:"scheduled_time"`
	IsCardio       bool     `json:"is_cardio,omitempty"`
	IsAMRAP        bool     `json:"is_amrap,omitempty"`
	Comment        string   `json:"comment,omitempty"`
}

// BuildPayload groups rows by day in ascending order, keeping row order
// within a day.
func BuildPayload(planID uuid.UUID, week int, rows []models.WorkoutPrescription) *Payload {
	byDay := make(map[int][]ExercisePayload)
	for _, rx := range rows {
		byDay[rx.DayOfWeek] = append(byDay[rx.DayOfWeek], ExercisePayload{
			Exercise:       rx.ExerciseID,
			Role:           string(rx.Role),
			Sets:           rx.Sets,
			Reps:           rx.Reps,
			RIR:            rx.RIRCue,
			Percent1RM:     rx.Percent1RM,
			TargetWeightKg: rx.TargetWeightKg,
			ScheduledTime:  rx.ScheduledTime,
			IsCardio:       rx.IsCardio,
			IsAMRAP:        rx.IsAMRAP,
			Comment:        rx.Comment,
		})
	}

	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)

	p := &Payload{PlanID: planID.String(), WeekNumber: week, Days: make([]DayPayload, 0, len(days))}
	for _, d := range days {
		p.Days = append(p.Days, DayPayload{DayOfWeek: d, Exercises: byDay[d]})
	}
	return p
}

// Canonical returns the payload as JSON with object keys sorted.
func (p *Payload) Canonical() ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// Checksum returns the hex SHA-256 of the canonical payload.
func (p *Payload) Checksum() (string, error) {
	raw, err := p.Canonical()
	if err != nil {
		return "", fmt.Errorf("canonical payload: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// RoutineName names the remote routine after the week's Monday, for example
// "Lift Wk 6 October 25".
func RoutineName(prefix string, weekStart time.Time) string {
	name := fmt.Sprintf("Wk %d %s %s", weekStart.Day(), weekStart.Month(), weekStart.Format("06"))
	if prefix == "" {
		return name
	}
	return prefix + " " + name
}

// DayName returns the weekday name for 1=Mon..7=Sun.
func DayName(dow int) string {
	if dow < 1 || dow > 7 {
		return fmt.Sprintf("Day %d", dow)
	}
	return time.Weekday(dow % 7).String()
}

// ABOUTME: Export pipeline that pushes one plan week to wger at most once.
// ABOUTME: Skips recorded weeks, supports dry runs and forced overwrites.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/harperreed/lift/internal/config"
	"github.com/harperreed/lift/internal/log"
	"github.com/harperreed/lift/internal/metrics"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/wger"
)

// Status is the outcome of an export request.
type Status string

const (
	StatusSkipped  Status = "skipped"
	StatusDryRun   Status = "dry_run"
	StatusExported Status = "exported"
)

// DefaultBlazeExerciseID is the wger exercise used for cardio classes in
// exercise mode.
const DefaultBlazeExerciseID = 1630

var (
	ErrEmptyWeek = errors.New("week has no prescriptions")
	ErrNoRemote  = errors.New("no remote client configured")
)

// Store is the slice of storage the exporter needs.
type Store interface {
	GetPlanWeekRows(ctx context.Context, planID uuid.UUID, week int) ([]models.WorkoutPrescription, error)
	WasWeekExported(ctx context.Context, planID uuid.UUID, week int) (bool, error)
	RecordExport(ctx context.Context, rec *models.ExportRecord, payload, response []byte) error
}

// Remote is the wger surface the exporter writes through.
type Remote interface {
	FindOrCreateRoutine(ctx context.Context, name, description string, start, end time.Time) (*wger.Routine, error)
	DeleteAllDays(ctx context.Context, routineID int) (int, error)
	CreateDay(ctx context.Context, routineID, order int, name string) (*wger.Day, error)
	CreateSlot(ctx context.Context, dayID, order int, comment string) (*wger.Slot, error)
	CreateSlotEntry(ctx context.Context, slotID, exerciseID, order int, comment string) (*wger.SlotEntry, error)
	SetConfig(ctx context.Context, kind wger.ConfigKind, slotEntryID int, value string) error
}

var _ Remote = (*wger.Client)(nil)

// Options tune naming and cardio handling.
type Options struct {
	RoutinePrefix   string
	BlazeMode       string
	BlazeExerciseID int
	Now             func() time.Time
}

// Request selects the week to export.
type Request struct {
	PlanID         uuid.UUID
	WeekNumber     int
	WeekStart      time.Time
	DryRun         bool
	ForceOverwrite bool
}

// Result describes what an export did.
type Result struct {
	Status      Status
	PlanID      uuid.UUID
	WeekNumber  int
	RoutineName string
	RoutineID   int
	Checksum    string
	DaysDeleted int
	Payload     *Payload
}

// Exporter delivers plan weeks to the remote platform.
type Exporter struct {
	store  Store
	remote Remote
	opts   Options
	logger zerolog.Logger
}

// NewExporter builds an exporter. remote may be nil when only dry runs and
// skips are expected.
func NewExporter(store Store, remote Remote, opts Options) *Exporter {
	if opts.BlazeMode == "" {
		opts.BlazeMode = config.BlazeComment
	}
	if opts.BlazeExerciseID == 0 {
		opts.BlazeExerciseID = DefaultBlazeExerciseID
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Exporter{store: store, remote: remote, opts: opts, logger: log.WithComponent("export")}
}

// Export runs the pipeline for one week.
func (e *Exporter) Export(ctx context.Context, req Request) (*Result, error) {
	res, err := e.export(ctx, req)
	if err != nil {
		metrics.ExportsTotal.WithLabelValues("failed").Inc()
		e.logger.Error().Err(err).
			Str("plan_id", req.PlanID.String()).
			Int("week", req.WeekNumber).
			Msg("export failed")
		return nil, err
	}
	metrics.ExportsTotal.WithLabelValues(string(res.Status)).Inc()
	return res, nil
}

func (e *Exporter) export(ctx context.Context, req Request) (*Result, error) {
	logger := e.logger.With().Str("plan_id", req.PlanID.String()).Int("week", req.WeekNumber).Logger()
	res := &Result{
		PlanID:      req.PlanID,
		WeekNumber:  req.WeekNumber,
		RoutineName: RoutineName(e.opts.RoutinePrefix, req.WeekStart),
	}

	if !req.ForceOverwrite {
		done, err := e.store.WasWeekExported(ctx, req.PlanID, req.WeekNumber)
		if err != nil {
			return nil, fmt.Errorf("check export record: %w", err)
		}
		if done {
			logger.Info().Msg("week already exported, skipping")
			res.Status = StatusSkipped
			return res, nil
		}
	}

	rows, err := e.store.GetPlanWeekRows(ctx, req.PlanID, req.WeekNumber)
	if err != nil {
		return nil, fmt.Errorf("load week rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("plan %s week %d: %w", req.PlanID, req.WeekNumber, ErrEmptyWeek)
	}

	payload := BuildPayload(req.PlanID, req.WeekNumber, rows)
	res.Payload = payload
	if res.Checksum, err = payload.Checksum(); err != nil {
		return nil, err
	}

	if req.DryRun {
		logger.Info().Int("days", len(payload.Days)).Msg("dry run, nothing sent")
		res.Status = StatusDryRun
		return res, nil
	}
	if e.remote == nil {
		return nil, ErrNoRemote
	}

	created, err := e.push(ctx, req, res, payload)
	if err != nil {
		return nil, err
	}

	canonical, err := payload.Canonical()
	if err != nil {
		return nil, fmt.Errorf("canonical payload: %w", err)
	}
	response, err := json.Marshal(created)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	rec := &models.ExportRecord{
		PlanID:          req.PlanID,
		WeekNumber:      req.WeekNumber,
		PayloadChecksum: res.Checksum,
		RoutineID:       res.RoutineID,
		ExportedAt:      e.opts.Now().UTC(),
	}
	if err := e.store.RecordExport(ctx, rec, canonical, response); err != nil {
		return nil, fmt.Errorf("record export: %w", err)
	}

	logger.Info().Int("routine_id", res.RoutineID).Str("routine", res.RoutineName).Msg("week exported")
	res.Status = StatusExported
	return res, nil
}

type createdSlot struct {
	SlotID      int `json:"slot_id"`
	SlotEntryID int `json:"slot_entry_id,omitempty"`
	Exercise    int `json:"exercise,omitempty"`
}

type createdDay struct {
	ID        int           `json:"id"`
	DayOfWeek int           `json:"day_of_week"`
	Slots     []createdSlot `json:"slots"`
}

type created struct {
	RoutineID int          `json:"routine_id"`
	Days      []createdDay `json:"days"`
}

// push writes routine, days, slots, entries and configs in that nesting
// order. Any error aborts before a record is written.
func (e *Exporter) push(ctx context.Context, req Request, res *Result, p *Payload) (*created, error) {
	end := req.WeekStart.AddDate(0, 0, 6)
	desc := fmt.Sprintf("Plan %s week %d", req.PlanID, req.WeekNumber)
	routine, err := e.remote.FindOrCreateRoutine(ctx, res.RoutineName, desc, req.WeekStart, end)
	if err != nil {
		return nil, err
	}
	res.RoutineID = routine.ID

	if req.ForceOverwrite {
		if res.DaysDeleted, err = e.remote.DeleteAllDays(ctx, routine.ID); err != nil {
			return nil, err
		}
	}

	out := &created{RoutineID: routine.ID}
	for i, day := range p.Days {
		d, err := e.remote.CreateDay(ctx, routine.ID, i+1, DayName(day.DayOfWeek))
		if err != nil {
			return nil, err
		}
		cd := createdDay{ID: d.ID, DayOfWeek: day.DayOfWeek}
		for j, ex := range day.Exercises {
			slot, err := e.pushExercise(ctx, d.ID, j+1, ex)
			if err != nil {
				return nil, err
			}
			cd.Slots = append(cd.Slots, slot)
		}
		out.Days = append(out.Days, cd)
	}
	return out, nil
}

func (e *Exporter) pushExercise(ctx context.Context, dayID, order int, ex ExercisePayload) (createdSlot, error) {
	exerciseID := ex.Exercise
	if ex.IsCardio {
		if e.opts.BlazeMode != config.BlazeExercise {
			slot, err := e.remote.CreateSlot(ctx, dayID, order, cardioComment(ex))
			if err != nil {
				return createdSlot{}, err
			}
			return createdSlot{SlotID: slot.ID}, nil
		}
		exerciseID = e.opts.BlazeExerciseID
	}

	slot, err := e.remote.CreateSlot(ctx, dayID, order, slotComment(ex))
	if err != nil {
		return createdSlot{}, err
	}
	entry, err := e.remote.CreateSlotEntry(ctx, slot.ID, exerciseID, 1, entryComment(ex))
	if err != nil {
		return createdSlot{}, err
	}
	if ex.Sets > 0 {
		if err := e.remote.SetConfig(ctx, wger.ConfigSets, entry.ID, strconv.Itoa(ex.Sets)); err != nil {
			return createdSlot{}, err
		}
	}
	if ex.Reps > 0 {
		if err := e.remote.SetConfig(ctx, wger.ConfigReps, entry.ID, strconv.Itoa(ex.Reps)); err != nil {
			return createdSlot{}, err
		}
	}
	if ex.RIR != nil {
		if err := e.remote.SetConfig(ctx, wger.ConfigRIR, entry.ID, strconv.FormatFloat(*ex.RIR, 'f', 1, 64)); err != nil {
			return createdSlot{}, err
		}
	}
	return createdSlot{SlotID: slot.ID, SlotEntryID: entry.ID, Exercise: exerciseID}, nil
}

// slotComment flags AMRAP sets; other slots carry the row comment.
func slotComment(ex ExercisePayload) string {
	switch {
	case !ex.IsAMRAP || strings.Contains(ex.Comment, "AMRAP"):
		return ex.Comment
	case ex.Comment == "":
		return "AMRAP"
	}
	return "AMRAP: " + ex.Comment
}

// cardioComment names the class and its start time, e.g. "Blaze 06:15".
func cardioComment(ex ExercisePayload) string {
	name := ex.Comment
	if name == "" {
		name = "Blaze class"
	}
	if len(ex.ScheduledTime) >= 5 {
		return name + " " + ex.ScheduledTime[:5]
	}
	return name
}

// entryComment carries the target load for main lifts.
func entryComment(ex ExercisePayload) string {
	if ex.TargetWeightKg == nil {
		return ""
	}
	if ex.Percent1RM != nil {
		return fmt.Sprintf("Target %.1f kg (%.1f%%)", *ex.TargetWeightKg, *ex.Percent1RM)
	}
	return fmt.Sprintf("Target %.1f kg", *ex.TargetWeightKg)
}

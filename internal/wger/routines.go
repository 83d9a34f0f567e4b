// ABOUTME: Routine, day, slot and config endpoints used by the exporter.
// ABOUTME: Also reads workout logs for strength-test evaluation.
package wger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Routine is a wger routine (one exported training week).
type Routine struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

// Day is a training day inside a routine.
type Day struct {
	ID      int    `json:"id"`
	Routine int    `json:"routine"`
	Order   int    `json:"order"`
	Name    string `json:"name"`
}

// Slot holds one exercise position in a day.
type Slot struct {
	ID      int    `json:"id"`
	Day     int    `json:"day"`
	Order   int    `json:"order"`
	Comment string `json:"comment"`
}

// SlotEntry binds an exercise to a slot.
type SlotEntry struct {
	ID       int    `json:"id"`
	Slot     int    `json:"slot"`
	Exercise int    `json:"exercise"`
	Order    int    `json:"order"`
	Comment  string `json:"comment"`
}

// ConfigKind selects a per-slot-entry progression config endpoint.
type ConfigKind string

const (
	ConfigSets ConfigKind = "sets"
	ConfigReps ConfigKind = "reps"
	ConfigRIR  ConfigKind = "rir"
)

var configEndpoints = map[ConfigKind]string{
	ConfigSets: "/sets-config/",
	ConfigReps: "/repetitions-config/",
	ConfigRIR:  "/rir-config/",
}

// FindOrCreateRoutine returns the routine with this name and start date,
// creating it when none exists.
func (c *Client) FindOrCreateRoutine(ctx context.Context, name, description string, start, end time.Time) (*Routine, error) {
	q := url.Values{"name": {name}, "start": {start.Format(dateLayout)}}
	raw, err := c.request(ctx, http.MethodGet, "/routine/", q, nil)
	if err != nil {
		return nil, fmt.Errorf("find routine: %w", err)
	}
	if raw != nil {
		var p page
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode routines: %w", err)
		}
		if len(p.Results) > 0 {
			var r Routine
			if err := json.Unmarshal(p.Results[0], &r); err != nil {
				return nil, fmt.Errorf("decode routine: %w", err)
			}
			c.logger.Info().Int("routine_id", r.ID).Str("name", name).Msg("reusing routine")
			return &r, nil
		}
	}

	var r Routine
	body := map[string]any{
		"name":        name,
		"description": description,
		"start":       start.Format(dateLayout),
		"end":         end.Format(dateLayout),
	}
	if err := c.create(ctx, "/routine/", body, &r); err != nil {
		return nil, fmt.Errorf("create routine: %w", err)
	}
	c.logger.Info().Int("routine_id", r.ID).Str("name", name).Msg("created routine")
	return &r, nil
}

// DeleteAllDays removes every day of a routine and returns how many were
// deleted.
func (c *Client) DeleteAllDays(ctx context.Context, routineID int) (int, error) {
	items, err := c.GetAllPages(ctx, "/day/", url.Values{"routine": {strconv.Itoa(routineID)}})
	if err != nil {
		return 0, fmt.Errorf("list days: %w", err)
	}
	for _, item := range items {
		var d Day
		if err := json.Unmarshal(item, &d); err != nil {
			return 0, fmt.Errorf("decode day: %w", err)
		}
		if _, err := c.request(ctx, http.MethodDelete, fmt.Sprintf("/day/%d/", d.ID), nil, nil); err != nil {
			return 0, fmt.Errorf("delete day %d: %w", d.ID, err)
		}
	}
	return len(items), nil
}

// CreateDay adds a named day at the given position.
func (c *Client) CreateDay(ctx context.Context, routineID, order int, name string) (*Day, error) {
	var d Day
	body := map[string]any{"routine": routineID, "order": order, "name": name}
	if err := c.create(ctx, "/day/", body, &d); err != nil {
		return nil, fmt.Errorf("create day: %w", err)
	}
	return &d, nil
}

// CreateSlot adds a slot. Comments are cut to 200 characters.
func (c *Client) CreateSlot(ctx context.Context, dayID, order int, comment string) (*Slot, error) {
	var s Slot
	body := map[string]any{"day": dayID, "order": order, "comment": truncate(comment, 200)}
	if err := c.create(ctx, "/slot/", body, &s); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}
	return &s, nil
}

// CreateSlotEntry puts an exercise into a slot. Comments are cut to 100
// characters.
func (c *Client) CreateSlotEntry(ctx context.Context, slotID, exerciseID, order int, comment string) (*SlotEntry, error) {
	var e SlotEntry
	body := map[string]any{
		"slot":     slotID,
		"exercise": exerciseID,
		"order":    order,
		"comment":  truncate(comment, 100),
	}
	if err := c.create(ctx, "/slot-entry/", body, &e); err != nil {
		return nil, fmt.Errorf("create slot entry: %w", err)
	}
	return &e, nil
}

// SetConfig writes a repeating value for the first iteration of a slot
// entry. wger expects decimal values as strings.
func (c *Client) SetConfig(ctx context.Context, kind ConfigKind, slotEntryID int, value string) error {
	path, ok := configEndpoints[kind]
	if !ok {
		return fmt.Errorf("unknown config kind %q", kind)
	}
	body := map[string]any{
		"slot_entry": slotEntryID,
		"iteration":  1,
		"value":      value,
		"operation":  "r",
		"step":       "na",
		"repeat":     true,
	}
	if _, err := c.request(ctx, http.MethodPost, path, nil, body); err != nil {
		return fmt.Errorf("set %s config: %w", kind, err)
	}
	return nil
}

func (c *Client) create(ctx context.Context, path string, body, out any) error {
	raw, err := c.request(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("POST %s: empty response", path)
	}
	return json.Unmarshal(raw, out)
}

// LogEntry is one performed set as recorded in wger.
type LogEntry struct {
	ID          int         `json:"id"`
	Date        string      `json:"date"`
	Exercise    int         `json:"exercise"`
	Repetitions json.Number `json:"repetitions"`
	Weight      json.Number `json:"weight"`
	RIR         json.Number `json:"rir"`
}

// WorkoutLogs lists logged sets between from and to inclusive.
func (c *Client) WorkoutLogs(ctx context.Context, from, to time.Time) ([]LogEntry, error) {
	q := url.Values{
		"ordering":  {"date"},
		"limit":     {"200"},
		"date__gte": {from.Format(dateLayout)},
		"date__lte": {to.Format(dateLayout)},
	}
	items, err := c.GetAllPages(ctx, "/workoutlog/", q)
	if err != nil {
		return nil, fmt.Errorf("list workout logs: %w", err)
	}
	entries := make([]LogEntry, 0, len(items))
	for _, item := range items {
		var e LogEntry
		if err := json.Unmarshal(item, &e); err != nil {
			return nil, fmt.Errorf("decode workout log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ParsedRIR returns the reps in reserve, or nil when none was logged.
func (e LogEntry) ParsedRIR() *float64 {
	if e.RIR == "" {
		return nil
	}
	v, err := e.RIR.Float64()
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// ParsedDate returns the calendar day of the entry.
func (e LogEntry) ParsedDate() (time.Time, error) {
	d := e.Date
	if len(d) > len(dateLayout) {
		d = d[:len(dateLayout)]
	}
	return time.Parse(dateLayout, d)
}

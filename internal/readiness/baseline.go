// ABOUTME: Builds readiness snapshots from daily summaries.
// ABOUTME: Last-7-day averages against a 60-day baseline that excludes that week.
package readiness

import (
	"time"

	"github.com/harperreed/lift/internal/models"
)

const (
	// ObservationDays is the window assessed before the upcoming week.
	ObservationDays = 7
	// BaselineDays is how far back the baseline looks, before the observation window.
	BaselineDays = 60
)

// Window returns the first day of history needed to build a snapshot for the
// week starting on weekStart, and the last day (the Sunday before).
func Window(weekStart time.Time) (from, to time.Time) {
	to = weekStart.AddDate(0, 0, -1)
	from = to.AddDate(0, 0, -(ObservationDays + BaselineDays - 1))
	return from, to
}

// Snapshot compares the seven days before weekStart with the preceding sixty.
// Any readings in the observation week are averaged, however few. If the
// baseline window has no data the mean of all supplied history is used
// instead. Metrics with no observation readings stay zero.
func Snapshot(days []models.DailySummary, weekStart time.Time) models.ReadinessSnapshot {
	obsEnd := dateOnly(weekStart).AddDate(0, 0, -1)
	obsStart := obsEnd.AddDate(0, 0, -(ObservationDays - 1))
	baseStart := obsStart.AddDate(0, 0, -BaselineDays)

	rhr := series(days, func(d models.DailySummary) *float64 { return d.RestingHR })
	sleep := series(days, func(d models.DailySummary) *float64 { return d.SleepMinutes })

	var s models.ReadinessSnapshot
	s.AvgRHR, s.BaselineRHR = observe(rhr, obsStart, obsEnd, baseStart)
	s.AvgSleep, s.BaselineSleep = observe(sleep, obsStart, obsEnd, baseStart)
	return s
}

type point struct {
	day time.Time
	v   float64
}

// series drops missing and zero readings.
func series(days []models.DailySummary, get func(models.DailySummary) *float64) []point {
	out := make([]point, 0, len(days))
	for _, d := range days {
		v := get(d)
		if v == nil || *v == 0 {
			continue
		}
		out = append(out, point{day: dateOnly(d.Date), v: *v})
	}
	return out
}

func observe(pts []point, obsStart, obsEnd, baseStart time.Time) (avg, baseline float64) {
	var obs, base, all []float64
	for _, p := range pts {
		all = append(all, p.v)
		switch {
		case !p.day.Before(obsStart) && !p.day.After(obsEnd):
			obs = append(obs, p.v)
		case !p.day.Before(baseStart) && p.day.Before(obsStart):
			base = append(base, p.v)
		}
	}
	if len(obs) == 0 {
		return 0, 0
	}
	if len(base) == 0 {
		base = all
	}
	return mean(obs), mean(base)
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ABOUTME: Turns recovery markers and volume compliance into a bounded adjustment.
// ABOUTME: Recovery severity sets volume and RIR; adherence nudges volume and intensity.
package readiness

import (
	"fmt"
	"math"

	"github.com/harperreed/lift/internal/models"
)

// Severity grades how far recovery markers drifted from baseline.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityMild:
		return "mild"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	default:
		return "none"
	}
}

// Breach thresholds in percent, ascending: mild, moderate, severe.
var (
	rhrThresholds   = [3]float64{5.0, 7.5, 10.0}
	sleepThresholds = [3]float64{10.0, 15.0, 20.0}
)

var severityEffects = map[Severity]struct {
	multiplier float64
	rirDelta   float64
}{
	SeverityNone:     {1.00, 0},
	SeverityMild:     {0.90, 1},
	SeverityModerate: {0.80, 2},
	SeveritySevere:   {0.70, 3},
}

// Decision bounds.
const (
	MinSetMultiplier  = 0.80
	MaxSetMultiplier  = 1.20
	MaxIntensityDelta = 5.0
)

// Adherence cut-offs on the actual/planned ratio.
const (
	LowAdherence  = 0.70
	HighAdherence = 1.10
	maintainBand  = 0.90

	reduceMultiplier   = 0.80
	reduceIntensity    = -2.5
	increaseMultiplier = 1.10
)

// Recovery is the classified state of the readiness snapshot.
type Recovery struct {
	Severity      Severity
	SetMultiplier float64
	RIRDelta      float64
	RHRBreach     float64 // percent above baseline, 0 when within or unknown
	SleepBreach   float64 // percent below baseline, 0 when within or unknown
	Reasons       []string
}

// ClassifyRecovery grades a readiness snapshot. Each metric is graded on its
// own thresholds and the worse grade wins. Unknown metrics count as no breach.
func ClassifyRecovery(s models.ReadinessSnapshot) Recovery {
	var r Recovery

	if s.AvgRHR > 0 && s.BaselineRHR > 0 {
		r.RHRBreach = math.Max(0, (s.AvgRHR-s.BaselineRHR)/s.BaselineRHR) * 100
	}
	if s.AvgSleep > 0 && s.BaselineSleep > 0 {
		r.SleepBreach = math.Max(0, (s.BaselineSleep-s.AvgSleep)/s.BaselineSleep) * 100
	}

	r.Severity = max(grade(r.RHRBreach, rhrThresholds), grade(r.SleepBreach, sleepThresholds))
	eff := severityEffects[r.Severity]
	r.SetMultiplier = eff.multiplier
	r.RIRDelta = eff.rirDelta

	r.Reasons = append(r.Reasons, fmt.Sprintf("Recovery: %s", r.Severity))
	if r.RHRBreach > 0 {
		r.Reasons = append(r.Reasons, fmt.Sprintf("Resting HR %.1f exceeds baseline %.1f by %.1f%%",
			s.AvgRHR, s.BaselineRHR, r.RHRBreach))
	}
	if r.SleepBreach > 0 {
		r.Reasons = append(r.Reasons, fmt.Sprintf("Sleep %.0f min below baseline %.0f min by %.1f%%",
			s.AvgSleep, s.BaselineSleep, r.SleepBreach))
	}
	return r
}

func grade(breach float64, thresholds [3]float64) Severity {
	switch {
	case breach >= thresholds[2]:
		return SeveritySevere
	case breach >= thresholds[1]:
		return SeverityModerate
	case breach >= thresholds[0]:
		return SeverityMild
	default:
		return SeverityNone
	}
}

// Direction is the volume trend suggested by adherence.
type Direction string

const (
	DirectionReduce   Direction = "reduce"
	DirectionMaintain Direction = "maintain"
	DirectionIncrease Direction = "increase"
)

// Adherence is the classified planned-vs-actual volume.
type Adherence struct {
	Direction      Direction
	Ratio          float64
	LowGroups      int
	HighGroups     int
	SetMultiplier  float64
	IntensityDelta float64
}

// ClassifyAdherence compares executed volume with plan across the groups that
// had planned volume. Increasing is only allowed when recovery is clean.
func ClassifyAdherence(s models.AdherenceSnapshot, recovery Severity) Adherence {
	var planned, actual float64
	a := Adherence{Direction: DirectionMaintain, SetMultiplier: 1.0}

	for group, p := range s.Planned {
		if p <= 0 {
			continue
		}
		act := s.Actual[group]
		planned += p
		actual += act
		switch r := act / p; {
		case r < LowAdherence:
			a.LowGroups++
		case r > HighAdherence:
			a.HighGroups++
		}
	}

	a.Ratio = 1.0
	if planned > 0 {
		a.Ratio = actual / planned
	}

	switch {
	case a.Ratio < LowAdherence || a.LowGroups >= 2:
		a.Direction = DirectionReduce
		a.SetMultiplier = reduceMultiplier
		a.IntensityDelta = reduceIntensity
	case a.Ratio > HighAdherence && recovery == SeverityNone:
		a.Direction = DirectionIncrease
		a.SetMultiplier = increaseMultiplier
	}
	return a
}

// Decide classifies both snapshots and combines them.
func Decide(r models.ReadinessSnapshot, a models.AdherenceSnapshot) models.AdjustmentDecision {
	rec := ClassifyRecovery(r)
	return Combine(rec, ClassifyAdherence(a, rec.Severity))
}

// Combine merges a recovery grade and an adherence verdict into a clamped
// decision. RIR only ever eases off, and intensity never rises on poor
// recovery.
func Combine(rec Recovery, adh Adherence) models.AdjustmentDecision {
	d := models.AdjustmentDecision{
		SetMultiplier:     clamp(rec.SetMultiplier*adh.SetMultiplier, MinSetMultiplier, MaxSetMultiplier),
		RIRDelta:          math.Max(0, rec.RIRDelta),
		IntensityDeltaAbs: adh.IntensityDelta,
	}

	d.Reasons = append(d.Reasons, rec.Reasons...)
	d.Reasons = append(d.Reasons, fmt.Sprintf("Adherence: ratio %.2f, %d low / %d high groups, %s",
		adh.Ratio, adh.LowGroups, adh.HighGroups, adh.Direction))

	if adh.Direction == DirectionIncrease && rec.Severity >= SeverityModerate {
		d.IntensityDeltaAbs = 0
		d.Reasons = append(d.Reasons, fmt.Sprintf("Intensity increase suppressed: recovery %s", rec.Severity))
	}
	d.IntensityDeltaAbs = clamp(d.IntensityDeltaAbs, -MaxIntensityDelta, MaxIntensityDelta)
	return d
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Limits for the calibration recovery flag.
const (
	RHRAllowedIncrease   = 0.10
	SleepAllowedFraction = 0.85
)

// RecoveryGood reports whether resting HR stayed within 10% above baseline
// and sleep at or above 85% of baseline. Missing data counts as good.
func RecoveryGood(s models.ReadinessSnapshot) bool {
	if s.AvgRHR == 0 || s.BaselineRHR == 0 || s.AvgSleep == 0 || s.BaselineSleep == 0 {
		return true
	}
	return s.AvgRHR <= s.BaselineRHR*(1+RHRAllowedIncrease) &&
		s.AvgSleep >= s.BaselineSleep*SleepAllowedFraction
}

// ABOUTME: Review notification text and failure classification.
// ABOUTME: Classify maps errors onto transient, remote and fatal buckets.
package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/lift/internal/readiness"
	"github.com/harperreed/lift/internal/retry"
	"github.com/harperreed/lift/internal/wger"
)

// Failure classes reported by Classify.
const (
	ClassTransient = "transient"
	ClassRemote    = "remote"
	ClassFatal     = "fatal"
)

// Classify buckets a review error. Transient means retries ran out; remote
// means the platform rejected a request; everything else is fatal.
func Classify(err error) string {
	var te *retry.TransientError
	if errors.As(err, &te) {
		return ClassTransient
	}
	var apiErr *wger.APIError
	if errors.As(err, &apiErr) {
		return ClassRemote
	}
	return ClassFatal
}

// FormatMessage renders the summary sent after a review.
func FormatMessage(out *Outcome) string {
	d := out.Decision
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly review complete for plan %s, week %d.\n", out.PlanID, out.UpcomingWeek)
	fmt.Fprintf(&b, "Set multiplier %.2f, RIR delta %+.1f, intensity delta %+.1f percent on main lifts.\n",
		d.SetMultiplier, d.RIRDelta, d.IntensityDeltaAbs)
	fmt.Fprintf(&b, "Window reviewed %s to %s.\n",
		out.WindowStart.Format("2006-01-02"), out.WindowEnd.Format("2006-01-02"))

	for _, reason := range d.Reasons {
		b.WriteString("- ")
		b.WriteString(reason)
		b.WriteByte('\n')
	}

	s := readiness.Summarize(out.Recovery)
	b.WriteString(s.Headline)
	if s.Tip != "" {
		b.WriteString(". ")
		b.WriteString(s.Tip)
	}

	if out.AdjustSkipped {
		fmt.Fprintf(&b, "\nPrescriptions left unchanged (%s).", out.AdjustNote)
	}
	if out.Export != nil {
		fmt.Fprintf(&b, "\nExport: %s", out.Export.Status)
		if out.Export.RoutineName != "" {
			fmt.Fprintf(&b, " (%s)", out.Export.RoutineName)
		}
	}
	return b.String()
}

// ABOUTME: Human-facing readiness headline and tip derived from a recovery grade.
// ABOUTME: Used in review notifications and the MCP preview.
package readiness

import "strings"

// Summary is a short readiness verdict for messages.
type Summary struct {
	State    string
	Headline string
	Tip      string
}

var stateBySeverity = map[Severity]string{
	SeverityNone:     "ready",
	SeverityMild:     "lagging",
	SeverityModerate: "low",
	SeveritySevere:   "critical",
}

// Summarize builds a headline and, when recovery dipped, a tip. Metric
// specific tips win over severity defaults.
func Summarize(r Recovery) Summary {
	if r.Severity == SeverityNone {
		return Summary{State: "ready", Headline: "Recovery steady"}
	}
	s := Summary{
		State:    stateBySeverity[r.Severity],
		Headline: "Recovery dip detected (" + r.Severity.String() + ")",
	}
	for _, reason := range r.Reasons {
		note := strings.ToLower(reason)
		if strings.Contains(note, "sleep") {
			s.Tip = "Prioritise sleep tonight and keep sessions easy."
			return s
		}
		if strings.Contains(note, "resting hr") {
			s.Tip = "Stay aerobic-only today and add breathing work."
			return s
		}
	}
	switch r.Severity {
	case SeverityMild:
		s.Tip = "Dial effort back a touch and stack light recovery habits."
	case SeverityModerate:
		s.Tip = "Keep intensity low and give yourself extra warm-up and cool-down."
	case SeveritySevere:
		s.Tip = "Swap intense work for pure recovery until metrics rebound."
	}
	return s
}

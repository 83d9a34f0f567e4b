// ABOUTME: Prometheus collectors for exports, reviews and remote calls.
// ABOUTME: Registered on a package registry served by `lift serve` at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every lift collector plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var (
	// Export metrics
	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lift_exports_total",
			Help: "Export attempts by result status",
		},
		[]string{"status"},
	)

	// Review metrics
	ReviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lift_reviews_total",
			Help: "Weekly review runs by result status",
		},
		[]string{"status"},
	)

	LastSetMultiplier = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lift_last_set_multiplier",
			Help: "Set multiplier of the most recent review decision",
		},
	)

	LastIntensityDelta = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lift_last_intensity_delta",
			Help: "Intensity delta (percent points) of the most recent review decision",
		},
	)

	// Scheduler metrics
	JobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lift_job_runs_total",
			Help: "Scheduled job runs by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	// Remote metrics
	RemoteRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lift_remote_retries_total",
			Help: "Retries of transient remote failures by target",
		},
		[]string{"target"},
	)

	RemoteRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lift_remote_request_duration_seconds",
			Help:    "Remote request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"remote", "method"},
	)
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(ExportsTotal)
	Registry.MustRegister(ReviewsTotal)
	Registry.MustRegister(LastSetMultiplier)
	Registry.MustRegister(LastIntensityDelta)
	Registry.MustRegister(JobRunsTotal)
	Registry.MustRegister(RemoteRetriesTotal)
	Registry.MustRegister(RemoteRequestDuration)
}

// Handler returns the Prometheus HTTP handler for the lift registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// CountRetry matches retry.Policy.OnRetry.
func CountRetry(target string, _ int, _ time.Duration) {
	RemoteRetriesTotal.WithLabelValues(target).Inc()
}

// RecordDecision stores the latest adjustment in the decision gauges.
func RecordDecision(setMultiplier, intensityDelta float64) {
	LastSetMultiplier.Set(setMultiplier)
	LastIntensityDelta.Set(intensityDelta)
}

// Timer measures the duration of an operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDurationVec records the elapsed seconds on a histogram vec.
func (t *Timer) ObserveDurationVec(h *prometheus.HistogramVec, labels ...string) {
	h.WithLabelValues(labels...).Observe(t.Duration().Seconds())
}

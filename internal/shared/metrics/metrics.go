package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "letter_press"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	throttleRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "throttle_rejections_total",
			Help:      "Requests rejected by the per-IP throttle.",
		},
		[]string{"throttle"},
	)

	physicalSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "physical_request",
			Name:      "submissions_total",
			Help:      "Physical request rows created, by initial status.",
		},
		[]string{"status"},
	)

	physicalTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "physical_request",
			Name:      "transitions_total",
			Help:      "Physical request status transitions.",
		},
		[]string{"from", "to"},
	)

	rateLimitRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "physical_request",
			Name:      "rate_limit_rejections_total",
			Help:      "Submissions rejected by the per-person live request limit.",
		},
	)

	counterDrift = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "physical_request",
			Name:      "counter_drift_total",
			Help:      "Letters whose cached counters disagreed with the ledger during reconciliation.",
		},
		[]string{"trigger"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Notification deliveries per sink and result.",
		},
		[]string{"sink", "result"},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs per job and result.",
		},
		[]string{"job", "result"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"job"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		throttleRejections,
		physicalSubmissions,
		physicalTransitions,
		rateLimitRejections,
		counterDrift,
		notifications,
		jobRuns,
		jobDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ObserveHTTP(method, route, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func ThrottleRejected(name string) {
	throttleRejections.WithLabelValues(name).Inc()
}

func PhysicalSubmitted(status string, count int) {
	physicalSubmissions.WithLabelValues(status).Add(float64(count))
}

func PhysicalTransition(from, to string) {
	physicalTransitions.WithLabelValues(from, to).Inc()
}

func RateLimitRejected() {
	rateLimitRejections.Inc()
}

func CounterDrift(trigger string, letters int) {
	if letters <= 0 {
		return
	}
	counterDrift.WithLabelValues(trigger).Add(float64(letters))
}

func NotificationDelivered(sink string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	notifications.WithLabelValues(sink, result).Inc()
}

func NotificationDropped() {
	notifications.WithLabelValues("queue", "dropped").Inc()
}

func JobRun(job string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	jobRuns.WithLabelValues(job, result).Inc()
	jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

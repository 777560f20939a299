package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Login methods and outcomes used as label values
const (
	LoginMethodPassword = "password"
	LoginMethodQR       = "qr"

	LoginSuccess     = "success"
	LoginFailure     = "failure"
	LoginMalformed   = "malformed"
	LoginRateLimited = "rate_limited"
)

var (
	completionsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gymdesk",
		Subsystem: "ledger",
		Name:      "completions_recorded_total",
		Help:      "Workout completions written to the ledger, by outcome.",
	}, []string{"completed"})
	completionConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymdesk",
		Subsystem: "ledger",
		Name:      "completion_conflicts_total",
		Help:      "Completion writes rejected by the (session, client, date) unique constraint.",
	})
	completionPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gymdesk",
		Subsystem: "ledger",
		Name:      "last_completion_recorded_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completion written to the ledger.",
	})
	logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gymdesk",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts by method and outcome.",
	}, []string{"method", "outcome"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gymdesk",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(completionsRecorded, completionConflicts, completionPersistGauge, logins, httpDuration)
}

// RecordCompletion counts a completion write and moves the persistence watermark.
func RecordCompletion(completed bool, ts time.Time) {
	completionsRecorded.WithLabelValues(strconv.FormatBool(completed)).Inc()
	if !ts.IsZero() {
		completionPersistGauge.Set(float64(ts.Unix()))
	}
}

// RecordCompletionConflict counts a duplicate completion rejected by storage.
func RecordCompletionConflict() {
	completionConflicts.Inc()
}

// RecordLogin counts a login attempt.
func RecordLogin(method, outcome string) {
	logins.WithLabelValues(method, outcome).Inc()
}

// ObserveHTTPRequest records the latency of one handled request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

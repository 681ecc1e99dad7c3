package dispatch

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchd_dispatch_calls_total",
			Help: "Total number of remote calls issued through a gateway.",
		},
		[]string{"method", "outcome"},
	)

	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "benchd_dispatch_call_duration_seconds",
			Help:    "Remote call duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	releaseFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "benchd_dispatch_release_failures_total",
			Help: "Total number of handle releases that reported an error.",
		},
	)
)

func init() {
	prometheus.MustRegister(callsTotal)
	prometheus.MustRegister(callDuration)
	prometheus.MustRegister(releaseFailuresTotal)
}

// observeCall records one completed call with its outcome label.
func observeCall(method string, start time.Time, err error) {
	outcome := "ok"
	var te *TimeoutError
	var ee *ExecError
	switch {
	case err == nil:
	case errors.As(err, &te):
		outcome = "timeout"
	case errors.As(err, &ee):
		outcome = "exec_error"
	default:
		outcome = "remote_error"
	}
	callsTotal.WithLabelValues(method, outcome).Inc()
	callDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

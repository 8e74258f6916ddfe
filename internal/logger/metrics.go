package logger

import "github.com/prometheus/client_golang/prometheus"

var (
	// logEvents counts emitted log events by severity.
	logEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "log_events_total",
			Help: "Total number of structured log events emitted.",
		},
		[]string{"severity"},
	)

	// fanoutFailures counts failed alert/persist attempts.
	fanoutFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "log_fanout_failures_total",
			Help: "Total number of failed alert or persistence attempts.",
		},
		[]string{"target"},
	)
)

const (
	targetAlert   = "alert"
	targetPersist = "persist"
)

func init() {
	prometheus.MustRegister(logEvents, fanoutFailures)
}

package orchestrator

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsStarted   *prometheus.CounterVec
	sessionsCompleted *prometheus.CounterVec
	promotionsTotal   prometheus.Counter
	queueLength       prometheus.Gauge
	notifyFailures    prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Gauge, prometheus.Counter) {
	started := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charging_sessions_started_total",
			Help: "Number of charging sessions started",
		},
		[]string{"admission"},
	)
	completed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charging_sessions_completed_total",
			Help: "Number of charging sessions completed",
		},
		[]string{"reached_target"},
	)
	promotions := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_promotions_total",
			Help: "Number of queue entries promoted to a charger",
		},
	)
	length := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_length",
			Help: "Current number of waiting queue entries",
		},
	)
	failures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Number of notification deliveries that failed",
		},
	)
	return started, completed, promotions, length, failures
}

func init() {
	sessionsStarted, sessionsCompleted, promotionsTotal, queueLength, notifyFailures = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers orchestrator metrics on the provided
// registry. If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(sessionsStarted, sessionsCompleted, promotionsTotal, queueLength, notifyFailures)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	sessionsStarted, sessionsCompleted, promotionsTotal, queueLength, notifyFailures = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

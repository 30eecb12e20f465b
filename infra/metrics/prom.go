package metrics

import (
	coremetrics "github.com/chargeq/chargeq/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records orchestration events in Prometheus metrics.
type PromSink struct {
	sessions *prometheus.CounterVec
	queue    *prometheus.CounterVec
	length   prometheus.Gauge
}

// NewPromSink registers sink metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeq_session_events_total",
		Help: "Total number of session lifecycle events",
	}, []string{"action"})
	queue := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeq_queue_events_total",
		Help: "Total number of waiting list events",
	}, []string{"action"})
	length := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargeq_queue_length",
		Help: "Current number of waiting requesters",
	})

	if err := reg.Register(sessions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			sessions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(queue); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			queue = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(length); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			length = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{sessions: sessions, queue: queue, length: length}, nil
}

// RecordSessionEvent increments the session counter for the event action.
func (s *PromSink) RecordSessionEvent(ev coremetrics.SessionEvent) error {
	s.sessions.WithLabelValues(ev.Action).Inc()
	return nil
}

// RecordQueueEvent increments the queue counter and tracks the queue length.
func (s *PromSink) RecordQueueEvent(ev coremetrics.QueueEvent) error {
	s.queue.WithLabelValues(ev.Action).Inc()
	if s.length != nil {
		s.length.Set(float64(ev.QueueLength))
	}
	return nil
}

package metrics

import coremetrics "github.com/chargeq/chargeq/core/metrics"

// MultiSink fanouts orchestration events to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSessionEvent forwards the event to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordSessionEvent(ev coremetrics.SessionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSessionEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordQueueEvent forwards the event to all sinks.
func (m *MultiSink) RecordQueueEvent(ev coremetrics.QueueEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordQueueEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// FromConfig assembles the configured sinks. With nothing enabled it
// returns a NopSink so callers never hold a nil sink.
func FromConfig(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	var sinks []coremetrics.MetricsSink
	if cfg.PrometheusEnabled {
		prom, err := NewPromSink(cfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, prom)
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, NewInfluxSinkWithFallback(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}

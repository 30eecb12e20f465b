package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/chargeq/chargeq/core/metrics"
)

func TestPromSinkRecordsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	if err := sink.RecordSessionEvent(coremetrics.SessionEvent{Action: "started", RequesterID: "u1", SlotID: 1, Time: time.Now()}); err != nil {
		t.Fatalf("session event: %v", err)
	}
	if err := sink.RecordSessionEvent(coremetrics.SessionEvent{Action: "completed", RequesterID: "u1", SlotID: 1, Time: time.Now()}); err != nil {
		t.Fatalf("session event: %v", err)
	}
	if err := sink.RecordQueueEvent(coremetrics.QueueEvent{Action: "joined", RequesterID: "u2", Position: 1, QueueLength: 1, Time: time.Now()}); err != nil {
		t.Fatalf("queue event: %v", err)
	}

	ps := sink.(*PromSink)
	if got := testutil.ToFloat64(ps.sessions.WithLabelValues("started")); got != 1 {
		t.Errorf("started counter = %v", got)
	}
	if got := testutil.ToFloat64(ps.sessions.WithLabelValues("completed")); got != 1 {
		t.Errorf("completed counter = %v", got)
	}
	if got := testutil.ToFloat64(ps.length); got != 1 {
		t.Errorf("queue length = %v", got)
	}
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("second registration: %v", err)
	}
}

// Package metrics defines the observability sink contract for charging
// orchestration events.
package metrics

import "time"

// SessionEvent records a session lifecycle transition.
type SessionEvent struct {
	Action        string // "started", "completed", "promoted"
	RequesterID   string
	SlotID        int
	StartPercent  float64
	TargetPercent float64
	FinalPercent  float64
	ReachedTarget bool
	Time          time.Time
}

// QueueEvent records a waiting-list transition.
type QueueEvent struct {
	Action      string // "joined", "left", "promoted"
	RequesterID string
	Position    int
	QueueLength int
	Time        time.Time
}

// MetricsSink records orchestration events for observability purposes.
// Implementations must tolerate being called concurrently.
type MetricsSink interface {
	RecordSessionEvent(ev SessionEvent) error
	RecordQueueEvent(ev QueueEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordSessionEvent(SessionEvent) error { return nil }
func (NopSink) RecordQueueEvent(QueueEvent) error     { return nil }

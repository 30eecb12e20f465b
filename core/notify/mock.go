package notify

import (
	"context"
	"fmt"
	"sync"
)

// MockNotifier records notifications for tests and can be configured to
// fail.
type MockNotifier struct {
	mu           sync.Mutex
	Fail         bool
	ChargerJoins []ChargerJoin
	ChargerLeft  []ChargerLeave
	QueueJoins   []QueueJoin
	QueueLeft    []QueueLeave
	QueueEmpties []QueueEmpty
}

// NewMockNotifier creates an empty MockNotifier.
func NewMockNotifier() *MockNotifier { return &MockNotifier{} }

func (m *MockNotifier) err() error {
	if m.Fail {
		return fmt.Errorf("notify failed")
	}
	return nil
}

func (m *MockNotifier) NotifyChargerJoin(_ context.Context, ev ChargerJoin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChargerJoins = append(m.ChargerJoins, ev)
	return m.err()
}

func (m *MockNotifier) NotifyChargerLeave(_ context.Context, ev ChargerLeave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChargerLeft = append(m.ChargerLeft, ev)
	return m.err()
}

func (m *MockNotifier) NotifyQueueJoin(_ context.Context, ev QueueJoin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueueJoins = append(m.QueueJoins, ev)
	return m.err()
}

func (m *MockNotifier) NotifyQueueLeave(_ context.Context, ev QueueLeave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueueLeft = append(m.QueueLeft, ev)
	return m.err()
}

func (m *MockNotifier) NotifyQueueEmpty(_ context.Context, ev QueueEmpty) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueueEmpties = append(m.QueueEmpties, ev)
	return m.err()
}

// Counts returns the per-kind notification counts under the lock.
func (m *MockNotifier) Counts() (joins, leaves, qjoins, qleaves, empties int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChargerJoins), len(m.ChargerLeft), len(m.QueueJoins), len(m.QueueLeft), len(m.QueueEmpties)
}

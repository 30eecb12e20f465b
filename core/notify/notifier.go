package notify

import "context"

// Notifier delivers human-readable event summaries to an external channel.
type Notifier interface {
	NotifyChargerJoin(ctx context.Context, ev ChargerJoin) error
	NotifyChargerLeave(ctx context.Context, ev ChargerLeave) error
	NotifyQueueJoin(ctx context.Context, ev QueueJoin) error
	NotifyQueueLeave(ctx context.Context, ev QueueLeave) error
	NotifyQueueEmpty(ctx context.Context, ev QueueEmpty) error
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) NotifyChargerJoin(context.Context, ChargerJoin) error   { return nil }
func (NopNotifier) NotifyChargerLeave(context.Context, ChargerLeave) error { return nil }
func (NopNotifier) NotifyQueueJoin(context.Context, QueueJoin) error       { return nil }
func (NopNotifier) NotifyQueueLeave(context.Context, QueueLeave) error     { return nil }
func (NopNotifier) NotifyQueueEmpty(context.Context, QueueEmpty) error     { return nil }

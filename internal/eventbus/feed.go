// Package eventbus carries record-change events from the store to read-side
// consumers inside the process.
package eventbus

import (
	"sync"

	"github.com/chargeq/chargeq/core/store"
)

// ChangeFeed fans record changes out to subscribers. Delivery is
// best-effort: a subscriber with a full buffer misses the event rather than
// blocking the publisher.
type ChangeFeed interface {
	Publish(store.RecordChange)
	Subscribe() <-chan store.RecordChange
	Unsubscribe(<-chan store.RecordChange)
	Close()
}

// Feed is the default ChangeFeed implementation using fan-out channels.
type Feed struct {
	mu     sync.RWMutex
	subs   []chan store.RecordChange
	closed bool
}

// New creates an empty Feed.
func New() *Feed { return &Feed{} }

// Publish sends the change to all subscribers without blocking.
func (f *Feed) Publish(c store.RecordChange) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	for _, ch := range f.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel.
func (f *Feed) Subscribe() <-chan store.RecordChange {
	ch := make(chan store.RecordChange, 16)
	f.mu.Lock()
	if f.closed {
		close(ch)
	} else {
		f.subs = append(f.subs, ch)
	}
	f.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (f *Feed) Unsubscribe(sub <-chan store.RecordChange) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, ch := range f.subs {
		if ch == sub {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			if !f.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and drops them.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	for _, ch := range f.subs {
		close(ch)
	}
	f.subs = nil
	f.mu.Unlock()
}

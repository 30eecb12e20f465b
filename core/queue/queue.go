// Package queue maintains the FIFO waiting list. Positions are dense and
// 1-based; every removal path renumbers the remaining entries from a fresh
// read so the sequence stays contiguous.
package queue

import (
	"context"
	"fmt"

	"github.com/chargeq/chargeq/core/model"
	"github.com/chargeq/chargeq/core/store"
)

// Queue orders waiting requesters on top of the record store.
type Queue struct {
	store store.Store
}

// New creates a Queue over the given store.
func New(st store.Store) *Queue { return &Queue{store: st} }

// Append adds the requester at the tail and returns the stored entry with
// its assigned position. The store rejects requesters that are already
// queued or charging with store.ErrConflict.
func (q *Queue) Append(ctx context.Context, e model.QueueEntry) (model.QueueEntry, error) {
	return q.store.CreateQueueEntry(ctx, e)
}

// Remove deletes the requester's entry and renumbers the remainder. It is
// idempotent: removing an absent entry reports ok=false without error, so a
// promotion racing a voluntary leave cannot double-process the record.
func (q *Queue) Remove(ctx context.Context, requesterID string) (model.QueueEntry, bool, error) {
	e, ok, err := q.store.DeleteQueueEntry(ctx, requesterID)
	if err != nil {
		return model.QueueEntry{}, false, err
	}
	if !ok {
		return model.QueueEntry{}, false, nil
	}
	if err := q.reorder(ctx); err != nil {
		return e, true, fmt.Errorf("reorder after removal: %w", err)
	}
	return e, true, nil
}

// Renumber restores dense 1..N positions after an entry was consumed
// outside Remove, such as a promotion swapping the head for a session.
func (q *Queue) Renumber(ctx context.Context) error { return q.reorder(ctx) }

// PeekFirst returns the entry at position 1, if any.
func (q *Queue) PeekFirst(ctx context.Context) (model.QueueEntry, bool, error) {
	entries, err := q.store.QueueEntries(ctx)
	if err != nil {
		return model.QueueEntry{}, false, err
	}
	if len(entries) == 0 {
		return model.QueueEntry{}, false, nil
	}
	return entries[0], true, nil
}

// Entries lists the current queue in position order.
func (q *Queue) Entries(ctx context.Context) ([]model.QueueEntry, error) {
	return q.store.QueueEntries(ctx)
}

// Len returns the number of waiting entries.
func (q *Queue) Len(ctx context.Context) (int, error) {
	entries, err := q.store.QueueEntries(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// reorder renumbers all remaining entries 1..N in their current relative
// order, computed from a fresh read rather than a cached list.
func (q *Queue) reorder(ctx context.Context) error {
	entries, err := q.store.QueueEntries(ctx)
	if err != nil {
		return err
	}
	positions := make(map[string]int, len(entries))
	for i, e := range entries {
		positions[e.ID] = i + 1
	}
	return q.store.SetQueuePositions(ctx, positions)
}

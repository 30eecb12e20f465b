// Package store defines the persistence contract for charging sessions and
// queue entries. Implementations must make the conditional writes atomic:
// two concurrent claims of the same slot, or two inserts for the same
// requester, must resolve to exactly one winner.
package store

import (
	"context"

	"github.com/chargeq/chargeq/core/model"
)

// Store is the durable record store consumed by the orchestrator. All
// mutations either fully apply or fully fail; no partial state is left
// behind on error.
type Store interface {
	// CreateSession inserts the session only if its slot has no active
	// session and the requester holds neither an active session nor a queue
	// entry. ErrConflict is returned otherwise.
	CreateSession(ctx context.Context, s model.Session) (model.Session, error)
	// CompleteSession marks the requester's active session completed and
	// returns it. ErrNotFound is returned when no active session exists.
	CompleteSession(ctx context.Context, requesterID string) (model.Session, error)
	// ActiveSessions lists sessions currently occupying a slot.
	ActiveSessions(ctx context.Context) ([]model.Session, error)
	// ActiveSessionFor returns the requester's active session, or
	// ErrNotFound.
	ActiveSessionFor(ctx context.Context, requesterID string) (model.Session, error)

	// PromoteQueueEntry atomically replaces the requester's queue entry
	// with the given session. ErrNotFound is returned when the requester
	// has no entry; ErrConflict when the slot is occupied or the requester
	// already holds an active session. On failure the entry is left in
	// place.
	PromoteQueueEntry(ctx context.Context, s model.Session) (model.Session, error)

	// CreateQueueEntry appends the entry at position count+1 if the
	// requester holds neither an active session nor a queue entry.
	// ErrConflict is returned otherwise.
	CreateQueueEntry(ctx context.Context, e model.QueueEntry) (model.QueueEntry, error)
	// DeleteQueueEntry removes the requester's entry and reports whether a
	// record existed. Deleting an absent entry is not an error.
	DeleteQueueEntry(ctx context.Context, requesterID string) (model.QueueEntry, bool, error)
	// QueueEntries lists current entries in ascending position order.
	QueueEntries(ctx context.Context) ([]model.QueueEntry, error)
	// QueueEntryFor returns the requester's entry, or ErrNotFound.
	QueueEntryFor(ctx context.Context, requesterID string) (model.QueueEntry, error)
	// SetQueuePositions renumbers the given entries. Callers compute the
	// dense 1..N sequence from a fresh read of all remaining entries.
	SetQueuePositions(ctx context.Context, positions map[string]int) error
}

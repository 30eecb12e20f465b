// Package memstore provides the in-memory reference implementation of the
// store contract. A single mutex makes every conditional write atomic, so
// concurrent claims of one slot resolve to exactly one winner.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chargeq/chargeq/core/model"
	"github.com/chargeq/chargeq/core/store"
	"github.com/chargeq/chargeq/internal/eventbus"
)

// Store keeps sessions and queue entries in process memory and publishes a
// record change for every mutation.
type Store struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	entries  map[string]model.QueueEntry
	feed     eventbus.ChangeFeed
	now      func() time.Time
}

// New creates an empty Store. The feed may be nil when no consumer needs
// change events.
func New(feed eventbus.ChangeFeed) *Store {
	return &Store{
		sessions: make(map[string]model.Session),
		entries:  make(map[string]model.QueueEntry),
		feed:     feed,
		now:      time.Now,
	}
}

func (s *Store) publish(kind store.RecordKind, action store.ChangeAction, recordID, requesterID string) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(store.RecordChange{
		Kind:        kind,
		Action:      action,
		RecordID:    recordID,
		RequesterID: requesterID,
		At:          s.now(),
	})
}

func (s *Store) requesterBusyLocked(requesterID string) bool {
	for _, sess := range s.sessions {
		if sess.Active() && sess.Requester.ID == requesterID {
			return true
		}
	}
	for _, e := range s.entries {
		if e.Requester.ID == requesterID {
			return true
		}
	}
	return false
}

// CreateSession inserts the session if the slot is free and the requester is
// idle.
func (s *Store) CreateSession(ctx context.Context, sess model.Session) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.Active() && existing.SlotID == sess.SlotID {
			return model.Session{}, store.ErrConflict
		}
	}
	if s.requesterBusyLocked(sess.Requester.ID) {
		return model.Session{}, store.ErrConflict
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.Status = model.SessionCharging
	s.sessions[sess.ID] = sess
	s.publish(store.KindSession, store.ActionCreate, sess.ID, sess.Requester.ID)
	return sess, nil
}

// CompleteSession marks the requester's active session completed.
func (s *Store) CompleteSession(ctx context.Context, requesterID string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.Active() && sess.Requester.ID == requesterID {
			sess.Status = model.SessionCompleted
			s.sessions[id] = sess
			s.publish(store.KindSession, store.ActionUpdate, id, requesterID)
			return sess, nil
		}
	}
	return model.Session{}, store.ErrNotFound
}

// ActiveSessions lists charging sessions ordered by slot identity.
func (s *Store) ActiveSessions(ctx context.Context) ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Session
	for _, sess := range s.sessions {
		if sess.Active() {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotID < out[j].SlotID })
	return out, nil
}

// ActiveSessionFor returns the requester's charging session.
func (s *Store) ActiveSessionFor(ctx context.Context, requesterID string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.Active() && sess.Requester.ID == requesterID {
			return sess, nil
		}
	}
	return model.Session{}, store.ErrNotFound
}

// PromoteQueueEntry swaps the requester's queue entry for a session in one
// atomic step, so the busy rule never rejects the requester's own entry.
func (s *Store) PromoteQueueEntry(ctx context.Context, sess model.Session) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entryID string
	for id, e := range s.entries {
		if e.Requester.ID == sess.Requester.ID {
			entryID = id
			break
		}
	}
	if entryID == "" {
		return model.Session{}, store.ErrNotFound
	}
	for _, existing := range s.sessions {
		if existing.Active() && (existing.SlotID == sess.SlotID || existing.Requester.ID == sess.Requester.ID) {
			return model.Session{}, store.ErrConflict
		}
	}
	delete(s.entries, entryID)
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.Status = model.SessionCharging
	s.sessions[sess.ID] = sess
	s.publish(store.KindQueueEntry, store.ActionDelete, entryID, sess.Requester.ID)
	s.publish(store.KindSession, store.ActionCreate, sess.ID, sess.Requester.ID)
	return sess, nil
}

// CreateQueueEntry appends the entry at the next dense position.
func (s *Store) CreateQueueEntry(ctx context.Context, e model.QueueEntry) (model.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requesterBusyLocked(e.Requester.ID) {
		return model.QueueEntry{}, store.ErrConflict
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e.Position = len(s.entries) + 1
	s.entries[e.ID] = e
	s.publish(store.KindQueueEntry, store.ActionCreate, e.ID, e.Requester.ID)
	return e, nil
}

// DeleteQueueEntry removes the requester's entry if present.
func (s *Store) DeleteQueueEntry(ctx context.Context, requesterID string) (model.QueueEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.Requester.ID == requesterID {
			delete(s.entries, id)
			s.publish(store.KindQueueEntry, store.ActionDelete, id, requesterID)
			return e, true, nil
		}
	}
	return model.QueueEntry{}, false, nil
}

// QueueEntries lists entries in ascending position order.
func (s *Store) QueueEntries(ctx context.Context) ([]model.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.QueueEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// QueueEntryFor returns the requester's queue entry.
func (s *Store) QueueEntryFor(ctx context.Context, requesterID string) (model.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Requester.ID == requesterID {
			return e, nil
		}
	}
	return model.QueueEntry{}, store.ErrNotFound
}

// SetQueuePositions renumbers entries by record identifier.
func (s *Store) SetQueuePositions(ctx context.Context, positions map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, pos := range positions {
		e, ok := s.entries[id]
		if !ok || e.Position == pos {
			continue
		}
		e.Position = pos
		s.entries[id] = e
		s.publish(store.KindQueueEntry, store.ActionUpdate, id, e.Requester.ID)
	}
	return nil
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chargeq/chargeq/core/charging"
	"github.com/chargeq/chargeq/core/model"
	"github.com/chargeq/chargeq/core/store"
)

// Progress is the live view of a session. Level and remaining time are
// recomputed from the charging curve on every read; the stored estimate is
// never trusted.
type Progress struct {
	Session          model.Session     `json:"session"`
	CurrentPercent   float64           `json:"current_percent"`
	RemainingMinutes int               `json:"remaining_minutes"`
	RemainingDisplay string            `json:"remaining_display"`
	Insights         charging.Insights `json:"insights"`
}

// ListSlots returns the occupancy snapshot of the charger pool.
func (o *Orchestrator) ListSlots(ctx context.Context) ([]model.Slot, error) {
	active, err := o.store.ActiveSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sessions: %w", err)
	}
	return o.pool.Snapshot(active), nil
}

// ListQueue returns the waiting list in position order.
func (o *Orchestrator) ListQueue(ctx context.Context) ([]model.QueueEntry, error) {
	return o.queue.Entries(ctx)
}

// SessionFor returns the requester's active session, if any.
func (o *Orchestrator) SessionFor(ctx context.Context, requesterID string) (model.Session, bool, error) {
	sess, err := o.store.ActiveSessionFor(ctx, requesterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Session{}, false, nil
		}
		return model.Session{}, false, err
	}
	return sess, true, nil
}

// QueueEntryFor returns the requester's queue entry, if any.
func (o *Orchestrator) QueueEntryFor(ctx context.Context, requesterID string) (model.QueueEntry, bool, error) {
	e, err := o.store.QueueEntryFor(ctx, requesterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.QueueEntry{}, false, nil
		}
		return model.QueueEntry{}, false, err
	}
	return e, true, nil
}

// ProgressFor computes the live progress of the requester's session at now.
func (o *Orchestrator) ProgressFor(ctx context.Context, requesterID string, now time.Time) (Progress, bool, error) {
	sess, ok, err := o.SessionFor(ctx, requesterID)
	if err != nil || !ok {
		return Progress{}, ok, err
	}
	prof := o.profileFor(sess.Requester)
	level := o.estimator.LevelAt(prof, sess.StartPercent, sess.TargetPercent, sess.StartedAt, now, o.tempF)
	remaining := o.estimator.DurationMinutes(prof, level, sess.TargetPercent, o.tempF)
	return Progress{
		Session:          sess,
		CurrentPercent:   level,
		RemainingMinutes: remaining,
		RemainingDisplay: charging.FormatMinutes(remaining),
		Insights:         o.estimator.InsightsFor(sess.StartPercent, sess.TargetPercent, o.tempF),
	}, true, nil
}

// Package orchestrator owns every Session and QueueEntry lifecycle
// transition. All mutation flows through its operations; the store resolves
// races between concurrent callers through atomic conditional writes, so no
// cross-request lock is held here.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chargeq/chargeq/core/charging"
	"github.com/chargeq/chargeq/core/logger"
	"github.com/chargeq/chargeq/core/metrics"
	"github.com/chargeq/chargeq/core/model"
	"github.com/chargeq/chargeq/core/notify"
	"github.com/chargeq/chargeq/core/pool"
	"github.com/chargeq/chargeq/core/profile"
	"github.com/chargeq/chargeq/core/queue"
	"github.com/chargeq/chargeq/core/store"
)

// Orchestrator coordinates the charger pool, the waiting queue and the
// estimator.
type Orchestrator struct {
	store     store.Store
	pool      *pool.Pool
	queue     *queue.Queue
	estimator *charging.Estimator
	profiles  profile.Finder
	notifier  notify.Notifier
	logger    logger.Logger
	sink      metrics.MetricsSink
	tempF     float64
	now       func() time.Time
	notifyWG  sync.WaitGroup
}

// Admission is the outcome of a charge request: either a session on a free
// slot or a queue entry.
type Admission struct {
	Session *model.Session
	Entry   *model.QueueEntry
}

// New creates an Orchestrator. The ambient temperature is used for every
// estimate; zero selects the default.
func New(st store.Store, p *pool.Pool, est *charging.Estimator, profiles profile.Finder, n notify.Notifier, sink metrics.MetricsSink, log logger.Logger, tempF float64) (*Orchestrator, error) {
	if st == nil || p == nil || est == nil {
		return nil, fmt.Errorf("orchestrator: nil parameter provided to New")
	}
	if profiles == nil {
		profiles = profile.NoneFinder{}
	}
	if n == nil {
		n = notify.NopNotifier{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if tempF == 0 {
		tempF = charging.DefaultAmbientF
	}
	return &Orchestrator{
		store:     st,
		pool:      p,
		queue:     queue.New(st),
		estimator: est,
		profiles:  profiles,
		notifier:  n,
		logger:    log,
		sink:      sink,
		tempF:     tempF,
		now:       time.Now,
	}, nil
}

// SetClock overrides the time source. Intended for tests.
func (o *Orchestrator) SetClock(now func() time.Time) { o.now = now }

// Close waits for in-flight notification deliveries.
func (o *Orchestrator) Close() error {
	o.notifyWG.Wait()
	return nil
}

// profileFor resolves the requester's vehicle profile, nil when unknown.
func (o *Orchestrator) profileFor(r model.Requester) *model.VehicleProfile {
	p, ok := o.profiles.Find(r.VehicleModel, r.VehicleYear, r.VehicleTrim)
	if !ok {
		return nil
	}
	return &p
}

// dispatch runs a notification delivery without blocking the operation that
// triggered it. Failures are logged and counted, never propagated.
func (o *Orchestrator) dispatch(name string, fn func(context.Context) error) {
	o.notifyWG.Add(1)
	go func() {
		defer o.notifyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			notifyFailures.Inc()
			if o.logger != nil {
				o.logger.Errorf("%s notification failed: %v", name, err)
			}
		}
	}()
}

// RequestCharging admits the requester to a free slot, or appends them to
// the queue when all slots are busy. ErrAlreadyActive is returned when the
// requester already holds a session or an entry; a lost race for the last
// free slot surfaces as store.ErrConflict and is safe to retry.
func (o *Orchestrator) RequestCharging(ctx context.Context, r model.Requester, startPercent, targetPercent float64) (Admission, error) {
	if err := validatePercents(startPercent, targetPercent); err != nil {
		return Admission{}, err
	}
	if _, err := o.store.ActiveSessionFor(ctx, r.ID); err == nil {
		return Admission{}, ErrAlreadyActive
	} else if !errors.Is(err, store.ErrNotFound) {
		return Admission{}, fmt.Errorf("read session: %w", err)
	}
	if _, err := o.store.QueueEntryFor(ctx, r.ID); err == nil {
		return Admission{}, ErrAlreadyActive
	} else if !errors.Is(err, store.ErrNotFound) {
		return Admission{}, fmt.Errorf("read queue entry: %w", err)
	}

	active, err := o.store.ActiveSessions(ctx)
	if err != nil {
		return Admission{}, fmt.Errorf("read sessions: %w", err)
	}
	if slot, free := o.pool.FirstAvailable(active); free {
		sess, err := o.admit(ctx, r, slot, startPercent, targetPercent, false)
		if err != nil {
			return Admission{}, err
		}
		return Admission{Session: &sess}, nil
	}

	entry, err := o.queue.Append(ctx, model.QueueEntry{
		Requester:     r,
		StartPercent:  startPercent,
		TargetPercent: targetPercent,
		CreatedAt:     o.now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Admission{}, ErrAlreadyActive
		}
		return Admission{}, fmt.Errorf("append to queue: %w", err)
	}
	o.recordQueueEvent(ctx, "joined", entry.Requester.ID, entry.Position)
	if o.logger != nil {
		o.logger.Infof("%s joined queue at position %d", r.ID, entry.Position)
	}
	o.dispatch("queue join", func(ctx context.Context) error {
		return o.notifier.NotifyQueueJoin(ctx, notify.QueueJoin{
			Requester:     entry.Requester,
			Position:      entry.Position,
			StartPercent:  entry.StartPercent,
			TargetPercent: entry.TargetPercent,
			At:            entry.CreatedAt,
		})
	})
	return Admission{Entry: &entry}, nil
}

// admit creates a session on the given slot. A direct admission goes
// through CreateSession; a promotion swaps the queue entry for the session
// atomically so the busy rule never sees the requester's own entry. A lost
// race returns store.ErrConflict untouched.
func (o *Orchestrator) admit(ctx context.Context, r model.Requester, slot model.Slot, startPercent, targetPercent float64, promoted bool) (model.Session, error) {
	now := o.now()
	prof := o.profileFor(r)
	sess := model.Session{
		Requester:      r,
		SlotID:         slot.ID,
		StartPercent:   startPercent,
		TargetPercent:  targetPercent,
		StartedAt:      now,
		EstimatedEndAt: o.estimator.CompletionAt(prof, startPercent, targetPercent, o.tempF, now),
		Status:         model.SessionCharging,
	}
	var created model.Session
	var err error
	if promoted {
		created, err = o.store.PromoteQueueEntry(ctx, sess)
	} else {
		created, err = o.store.CreateSession(ctx, sess)
	}
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return model.Session{}, fmt.Errorf("claim slot %d: %w", slot.ID, err)
		case promoted && errors.Is(err, store.ErrNotFound):
			return model.Session{}, fmt.Errorf("promote %s: %w", r.ID, err)
		default:
			return model.Session{}, fmt.Errorf("create session: %w", err)
		}
	}

	admission := "direct"
	if promoted {
		admission = "promoted"
	}
	sessionsStarted.WithLabelValues(admission).Inc()
	if err := o.sink.RecordSessionEvent(metrics.SessionEvent{
		Action:        "started",
		RequesterID:   r.ID,
		SlotID:        slot.ID,
		StartPercent:  startPercent,
		TargetPercent: targetPercent,
		Time:          now,
	}); err != nil && o.logger != nil {
		o.logger.Errorf("metrics error: %v", err)
	}
	if o.logger != nil {
		o.logger.Infof("%s charging on slot %d (%s admission), done ~%s",
			r.ID, slot.ID, admission, created.EstimatedEndAt.Format(time.RFC3339))
	}
	o.dispatch("charger join", func(ctx context.Context) error {
		return o.notifier.NotifyChargerJoin(ctx, notify.ChargerJoin{
			Requester:      created.Requester,
			SlotID:         slot.ID,
			SlotName:       slot.Name,
			StartPercent:   created.StartPercent,
			TargetPercent:  created.TargetPercent,
			EstimatedEndAt: created.EstimatedEndAt,
			Promoted:       promoted,
			At:             now,
		})
	})
	return created, nil
}

// StopCharging completes the requester's session, frees the slot and
// promotes from the queue. Stopping without an active session is a no-op so
// duplicate client requests are harmless.
func (o *Orchestrator) StopCharging(ctx context.Context, requesterID string) (bool, error) {
	sess, err := o.store.CompleteSession(ctx, requesterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("complete session: %w", err)
	}

	now := o.now()
	prof := o.profileFor(sess.Requester)
	finalLevel := o.estimator.LevelAt(prof, sess.StartPercent, sess.TargetPercent, sess.StartedAt, now, o.tempF)
	reached := finalLevel >= sess.TargetPercent
	sessionsCompleted.WithLabelValues(fmt.Sprintf("%t", reached)).Inc()
	if err := o.sink.RecordSessionEvent(metrics.SessionEvent{
		Action:        "completed",
		RequesterID:   requesterID,
		SlotID:        sess.SlotID,
		StartPercent:  sess.StartPercent,
		TargetPercent: sess.TargetPercent,
		FinalPercent:  finalLevel,
		ReachedTarget: reached,
		Time:          now,
	}); err != nil && o.logger != nil {
		o.logger.Errorf("metrics error: %v", err)
	}
	if o.logger != nil {
		o.logger.Infof("%s stopped charging on slot %d at %.1f%% (target %.1f%%)",
			requesterID, sess.SlotID, finalLevel, sess.TargetPercent)
	}
	o.dispatch("charger leave", func(ctx context.Context) error {
		return o.notifier.NotifyChargerLeave(ctx, notify.ChargerLeave{
			Requester:     sess.Requester,
			SlotID:        sess.SlotID,
			SlotName:      o.slotName(sess.SlotID),
			FinalPercent:  finalLevel,
			TargetPercent: sess.TargetPercent,
			ReachedTarget: reached,
			At:            now,
		})
	})

	if err := o.promote(ctx); err != nil {
		return true, fmt.Errorf("promote after stop: %w", err)
	}
	return true, nil
}

// LeaveQueue removes the requester's entry and renumbers the remainder.
// Leaving without an entry is a no-op.
func (o *Orchestrator) LeaveQueue(ctx context.Context, requesterID string) (bool, error) {
	entry, ok, err := o.queue.Remove(ctx, requesterID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	o.recordQueueEvent(ctx, "left", requesterID, entry.Position)
	if o.logger != nil {
		o.logger.Infof("%s left queue from position %d", requesterID, entry.Position)
	}
	at := o.now()
	o.dispatch("queue leave", func(ctx context.Context) error {
		return o.notifier.NotifyQueueLeave(ctx, notify.QueueLeave{
			Requester: entry.Requester,
			Position:  entry.Position,
			Reason:    notify.ReasonLeft,
			At:        at,
		})
	})

	remaining, err := o.queue.Len(ctx)
	if err != nil {
		return true, fmt.Errorf("read queue length: %w", err)
	}
	if remaining == 0 {
		o.dispatch("queue empty", func(ctx context.Context) error {
			return o.notifier.NotifyQueueEmpty(ctx, notify.QueueEmpty{At: at})
		})
	}
	return true, nil
}

// promote moves queue heads onto free slots until no slot is free or the
// queue is empty. One pass runs to a fixed point so several slots freed at
// once all get filled.
func (o *Orchestrator) promote(ctx context.Context) error {
	promoted := false
	qlen, err := o.queue.Len(ctx)
	if err != nil {
		return err
	}
	// Bounded by the work available at entry; conflicts from concurrent
	// orchestrators shrink the remaining work rather than looping forever.
	attempts := qlen + o.pool.Size()
	for ; attempts > 0; attempts-- {
		active, err := o.store.ActiveSessions(ctx)
		if err != nil {
			return err
		}
		slot, free := o.pool.FirstAvailable(active)
		if !free {
			break
		}
		head, ok, err := o.queue.PeekFirst(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if _, err := o.admit(ctx, head.Requester, slot, head.StartPercent, head.TargetPercent, true); err != nil {
			if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
				continue // another writer won this slot or consumed the entry; re-read
			}
			return err
		}
		if err := o.queue.Renumber(ctx); err != nil {
			return err
		}
		promotionsTotal.Inc()
		o.recordQueueEvent(ctx, "promoted", head.Requester.ID, head.Position)
		if o.logger != nil {
			o.logger.Infof("promoted %s from queue position %d to slot %d", head.Requester.ID, head.Position, slot.ID)
		}
		at := o.now()
		o.dispatch("queue leave", func(ctx context.Context) error {
			return o.notifier.NotifyQueueLeave(ctx, notify.QueueLeave{
				Requester: head.Requester,
				Position:  head.Position,
				Reason:    notify.ReasonMovedToCharger,
				At:        at,
			})
		})
		promoted = true
	}
	if attempts == 0 && o.logger != nil {
		o.logger.Warnf("promotion pass exhausted its retries on write conflicts; waiting for the next free slot")
	}
	if promoted {
		remaining, err := o.queue.Len(ctx)
		if err != nil {
			return err
		}
		if remaining == 0 {
			at := o.now()
			o.dispatch("queue empty", func(ctx context.Context) error {
				return o.notifier.NotifyQueueEmpty(ctx, notify.QueueEmpty{At: at})
			})
		}
	}
	return nil
}

func (o *Orchestrator) recordQueueEvent(ctx context.Context, action, requesterID string, position int) {
	qlen, err := o.queue.Len(ctx)
	if err != nil {
		qlen = -1
	} else {
		queueLength.Set(float64(qlen))
	}
	if err := o.sink.RecordQueueEvent(metrics.QueueEvent{
		Action:      action,
		RequesterID: requesterID,
		Position:    position,
		QueueLength: qlen,
		Time:        o.now(),
	}); err != nil && o.logger != nil {
		o.logger.Errorf("metrics error: %v", err)
	}
}

func (o *Orchestrator) slotName(id int) string {
	for _, s := range o.pool.Snapshot(nil) {
		if s.ID == id {
			return s.Name
		}
	}
	return ""
}

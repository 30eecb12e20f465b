package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chargeq/chargeq/core/model"
	"github.com/chargeq/chargeq/core/store"
	"github.com/chargeq/chargeq/internal/eventbus"
)

// Advisory lock key serializing conditional writes, mirroring the single
// writer the admission rules assume.
const writeLockKey = int64(0x63686172676571) // "chargeq"

const uniqueViolation = "23505"

// Store is the PostgreSQL implementation of the store contract.
type Store struct {
	db   *sql.DB
	feed eventbus.ChangeFeed
	now  func() time.Time
}

// New creates a Store over an open connection pool. The feed may be nil
// when no consumer needs change events.
func New(db *sql.DB, feed eventbus.ChangeFeed) *Store {
	return &Store{db: db, feed: feed, now: time.Now}
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

// withWriteLock runs fn inside a transaction holding the advisory lock.
func (s *Store) withWriteLock(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", writeLockKey); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Store) requesterBusy(ctx context.Context, tx *sql.Tx, requesterID string) (bool, error) {
	var busy bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM sessions WHERE requester_id = $1 AND status = 'charging')
		    OR EXISTS (SELECT 1 FROM queue_entries WHERE requester_id = $1)`,
		requesterID).Scan(&busy)
	return busy, err
}

const sessionColumns = `id, requester_id, display_name, vehicle_model, vehicle_year, vehicle_trim,
	slot_id, start_percent, target_percent, started_at, estimated_end_at, status`

func scanSession(row interface{ Scan(...any) error }) (model.Session, error) {
	var sess model.Session
	var status string
	err := row.Scan(
		&sess.ID,
		&sess.Requester.ID,
		&sess.Requester.DisplayName,
		&sess.Requester.VehicleModel,
		&sess.Requester.VehicleYear,
		&sess.Requester.VehicleTrim,
		&sess.SlotID,
		&sess.StartPercent,
		&sess.TargetPercent,
		&sess.StartedAt,
		&sess.EstimatedEndAt,
		&status,
	)
	sess.Status = model.SessionStatus(status)
	return sess, err
}

// CreateSession inserts the session if the slot is free and the requester is
// idle.
func (s *Store) CreateSession(ctx context.Context, sess model.Session) (model.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.Status = model.SessionCharging
	err := s.withWriteLock(ctx, func(tx *sql.Tx) error {
		var occupied bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM sessions WHERE slot_id = $1 AND status = 'charging')`,
			sess.SlotID).Scan(&occupied); err != nil {
			return err
		}
		if occupied {
			return store.ErrConflict
		}
		busy, err := s.requesterBusy(ctx, tx, sess.Requester.ID)
		if err != nil {
			return err
		}
		if busy {
			return store.ErrConflict
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sessions (`+sessionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			sess.ID,
			sess.Requester.ID,
			sess.Requester.DisplayName,
			sess.Requester.VehicleModel,
			sess.Requester.VehicleYear,
			sess.Requester.VehicleTrim,
			sess.SlotID,
			sess.StartPercent,
			sess.TargetPercent,
			sess.StartedAt,
			sess.EstimatedEndAt,
			string(sess.Status),
		)
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	})
	if err != nil {
		return model.Session{}, err
	}
	s.publish(store.KindSession, store.ActionCreate, sess.ID, sess.Requester.ID)
	return sess, nil
}

// CompleteSession marks the requester's active session completed.
func (s *Store) CompleteSession(ctx context.Context, requesterID string) (model.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE sessions SET status = 'completed'
		WHERE requester_id = $1 AND status = 'charging'
		RETURNING `+sessionColumns,
		requesterID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, store.ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	s.publish(store.KindSession, store.ActionUpdate, sess.ID, requesterID)
	return sess, nil
}

// ActiveSessions lists charging sessions ordered by slot identity.
func (s *Store) ActiveSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE status = 'charging' ORDER BY slot_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// ActiveSessionFor returns the requester's charging session.
func (s *Store) ActiveSessionFor(ctx context.Context, requesterID string) (model.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE requester_id = $1 AND status = 'charging'`,
		requesterID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, store.ErrNotFound
	}
	return sess, err
}

const entryColumns = `id, requester_id, display_name, vehicle_model, vehicle_year, vehicle_trim,
	start_percent, target_percent, position, created_at`

func scanEntry(row interface{ Scan(...any) error }) (model.QueueEntry, error) {
	var e model.QueueEntry
	err := row.Scan(
		&e.ID,
		&e.Requester.ID,
		&e.Requester.DisplayName,
		&e.Requester.VehicleModel,
		&e.Requester.VehicleYear,
		&e.Requester.VehicleTrim,
		&e.StartPercent,
		&e.TargetPercent,
		&e.Position,
		&e.CreatedAt,
	)
	return e, err
}

// PromoteQueueEntry deletes the requester's queue entry and inserts the
// session in one transaction; a conflict rolls the delete back so the entry
// survives.
func (s *Store) PromoteQueueEntry(ctx context.Context, sess model.Session) (model.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.Status = model.SessionCharging
	var entryID string
	err := s.withWriteLock(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`DELETE FROM queue_entries WHERE requester_id = $1 RETURNING id`,
			sess.Requester.ID)
		if err := row.Scan(&entryID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}
		var occupied bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM sessions WHERE slot_id = $1 AND status = 'charging')`,
			sess.SlotID).Scan(&occupied); err != nil {
			return err
		}
		if occupied {
			return store.ErrConflict
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (`+sessionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			sess.ID,
			sess.Requester.ID,
			sess.Requester.DisplayName,
			sess.Requester.VehicleModel,
			sess.Requester.VehicleYear,
			sess.Requester.VehicleTrim,
			sess.SlotID,
			sess.StartPercent,
			sess.TargetPercent,
			sess.StartedAt,
			sess.EstimatedEndAt,
			string(sess.Status),
		)
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	})
	if err != nil {
		return model.Session{}, err
	}
	s.publish(store.KindQueueEntry, store.ActionDelete, entryID, sess.Requester.ID)
	s.publish(store.KindSession, store.ActionCreate, sess.ID, sess.Requester.ID)
	return sess, nil
}

// CreateQueueEntry appends the entry at the next dense position.
func (s *Store) CreateQueueEntry(ctx context.Context, e model.QueueEntry) (model.QueueEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	err := s.withWriteLock(ctx, func(tx *sql.Tx) error {
		busy, err := s.requesterBusy(ctx, tx, e.Requester.ID)
		if err != nil {
			return err
		}
		if busy {
			return store.ErrConflict
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) + 1 FROM queue_entries`).Scan(&e.Position); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO queue_entries (`+entryColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			e.ID,
			e.Requester.ID,
			e.Requester.DisplayName,
			e.Requester.VehicleModel,
			e.Requester.VehicleYear,
			e.Requester.VehicleTrim,
			e.StartPercent,
			e.TargetPercent,
			e.Position,
			e.CreatedAt,
		)
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	})
	if err != nil {
		return model.QueueEntry{}, err
	}
	s.publish(store.KindQueueEntry, store.ActionCreate, e.ID, e.Requester.ID)
	return e, nil
}

// DeleteQueueEntry removes the requester's entry if present.
func (s *Store) DeleteQueueEntry(ctx context.Context, requesterID string) (model.QueueEntry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM queue_entries WHERE requester_id = $1
		RETURNING `+entryColumns,
		requesterID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.QueueEntry{}, false, nil
	}
	if err != nil {
		return model.QueueEntry{}, false, err
	}
	s.publish(store.KindQueueEntry, store.ActionDelete, e.ID, requesterID)
	return e, true, nil
}

// QueueEntries lists entries in ascending position order.
func (s *Store) QueueEntries(ctx context.Context) ([]model.QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM queue_entries
		ORDER BY position, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.QueueEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// QueueEntryFor returns the requester's queue entry.
func (s *Store) QueueEntryFor(ctx context.Context, requesterID string) (model.QueueEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM queue_entries WHERE requester_id = $1`,
		requesterID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.QueueEntry{}, store.ErrNotFound
	}
	return e, err
}

// SetQueuePositions renumbers entries by record identifier.
func (s *Store) SetQueuePositions(ctx context.Context, positions map[string]int) error {
	type change struct {
		id, requesterID string
	}
	var changed []change
	err := s.withWriteLock(ctx, func(tx *sql.Tx) error {
		changed = changed[:0]
		for id, pos := range positions {
			row := tx.QueryRowContext(ctx, `
				UPDATE queue_entries SET position = $2
				WHERE id = $1 AND position <> $2
				RETURNING requester_id`,
				id, pos)
			var requesterID string
			if err := row.Scan(&requesterID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return err
			}
			changed = append(changed, change{id: id, requesterID: requesterID})
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, c := range changed {
		s.publish(store.KindQueueEntry, store.ActionUpdate, c.id, c.requesterID)
	}
	return nil
}

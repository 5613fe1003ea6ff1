package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"console_rental/internal/models"

	"github.com/jmoiron/sqlx"
)

type SessionSQLite struct {
	db sqlx.ExtContext
}

func NewSessionSQLite(db sqlx.ExtContext) *SessionSQLite {
	return &SessionSQLite{db: db}
}

var _ SessionRepo = (*SessionSQLite)(nil)

const (
	insertSessionSQL = `
		INSERT INTO sessions (id, device_id, member_id, user_id, start_at, end_at, duration, cost, payment_type, status, is_member_transaction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	updateSessionSQL = `
		UPDATE sessions
		SET end_at = ?, duration = ?, cost = ?, status = ?
		WHERE id = ?
	`

	selectSessionColumns = `
		SELECT id, device_id, member_id, user_id, start_at, end_at, duration, cost, payment_type, status, is_member_transaction
		FROM sessions
	`
)

func (r *SessionSQLite) Create(ctx context.Context, s models.Session) error {
	_, err := r.db.ExecContext(ctx, insertSessionSQL,
		s.ID,
		s.DeviceID,
		s.MemberID,
		s.UserID,
		s.Start.UTC(),
		utcPtr(s.End),
		s.Duration,
		s.Cost,
		string(s.PaymentType),
		string(s.Status),
		s.IsMemberTransaction,
	)
	if err != nil {
		return fmt.Errorf("insert session %q: %w", s.ID, err)
	}
	return nil
}

// Update writes the mutable part of a session: end, duration, cost and status.
func (r *SessionSQLite) Update(ctx context.Context, s models.Session) error {
	res, err := r.db.ExecContext(ctx, updateSessionSQL,
		utcPtr(s.End),
		s.Duration,
		s.Cost,
		string(s.Status),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update session %q: %w", s.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session %q: rows affected: %w", s.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("session %q: %w", s.ID, ErrNotFound)
	}
	return nil
}

func (r *SessionSQLite) Get(ctx context.Context, id string) (models.Session, error) {
	return r.getOne(ctx, selectSessionColumns+` WHERE id = ?`, "session "+id, id)
}

func (r *SessionSQLite) ActiveForDevice(ctx context.Context, deviceID string) (models.Session, error) {
	return r.getOne(ctx,
		selectSessionColumns+` WHERE device_id = ? AND status = ?`,
		"active session of device "+deviceID,
		deviceID, string(models.SessionActive),
	)
}

func (r *SessionSQLite) getOne(ctx context.Context, q, what string, args ...any) (models.Session, error) {
	var s models.Session
	if err := sqlx.GetContext(ctx, r.db, &s, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, fmt.Errorf("%s: %w", what, ErrNotFound)
		}
		return models.Session{}, fmt.Errorf("select %s: %w", what, err)
	}
	s.Start = utc(s.Start)
	s.End = utcPtr(s.End)
	return s, nil
}

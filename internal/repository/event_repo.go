package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"console_rental/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type EventSQLite struct {
	db sqlx.ExtContext
}

func NewEventSQLite(db sqlx.ExtContext) *EventSQLite { return &EventSQLite{db: db} }

var _ EventRepo = (*EventSQLite)(nil)

const (
	insertEventSQL = `
		INSERT INTO activity_events (id, session_id, device_id, activity_type, occurred_at, duration_added, cost_added, payment_method, wallet_before, wallet_after, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectEventColumns = `
		SELECT id, session_id, device_id, activity_type, occurred_at, duration_added, cost_added, payment_method, wallet_before, wallet_after, meta
		FROM activity_events
	`
)

// eventRow mirrors activity_events; meta is stored as JSON text.
type eventRow struct {
	ID            string         `db:"id"`
	SessionID     string         `db:"session_id"`
	DeviceID      string         `db:"device_id"`
	Type          string         `db:"activity_type"`
	OccurredAt    time.Time      `db:"occurred_at"`
	DurationAdded *int64         `db:"duration_added"`
	CostAdded     *int64         `db:"cost_added"`
	PaymentMethod *string        `db:"payment_method"`
	WalletBefore  *int64         `db:"wallet_before"`
	WalletAfter   *int64         `db:"wallet_after"`
	Meta          sql.NullString `db:"meta"`
}

func (row eventRow) toModel() models.ActivityEvent {
	ev := models.ActivityEvent{
		ID:            row.ID,
		SessionID:     row.SessionID,
		DeviceID:      row.DeviceID,
		Type:          models.ActivityType(row.Type),
		Timestamp:     row.OccurredAt.UTC(),
		DurationAdded: row.DurationAdded,
		CostAdded:     row.CostAdded,
		PaymentMethod: row.PaymentMethod,
		WalletBefore:  row.WalletBefore,
		WalletAfter:   row.WalletAfter,
	}
	if row.Meta.Valid && row.Meta.String != "" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(row.Meta.String), &meta); err == nil {
			ev.Metadata = meta
		} else {
			ev.Metadata = map[string]any{"raw": row.Meta.String} // keep raw if malformed
		}
	}
	return ev
}

// Append inserts a ledger entry. Missing ID and Timestamp are filled in.
func (r *EventSQLite) Append(ctx context.Context, e models.ActivityEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.SessionID == "" {
		return fmt.Errorf("append %s event: empty session id", e.Type)
	}

	var meta *string
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal %s event metadata: %w", e.Type, err)
		}
		s := string(b)
		meta = &s
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.ID,
		e.SessionID,
		e.DeviceID,
		strings.ToLower(strings.TrimSpace(string(e.Type))),
		e.Timestamp.UTC(),
		e.DurationAdded,
		e.CostAdded,
		e.PaymentMethod,
		e.WalletBefore,
		e.WalletAfter,
		meta,
	)
	if err != nil {
		return fmt.Errorf("insert %s event for session %q: %w", e.Type, e.SessionID, err)
	}
	return nil
}

// ListBySession returns every entry of one session ordered by time.
func (r *EventSQLite) ListBySession(ctx context.Context, sessionID string) ([]models.ActivityEvent, error) {
	return r.selectEvents(ctx, selectEventColumns+` WHERE session_id = ? ORDER BY occurred_at ASC, rowid ASC`, sessionID)
}

// List returns entries filtered by [from, to] (inclusive), type and device, ordered ASC.
func (r *EventSQLite) List(ctx context.Context, f EventFilter) ([]models.ActivityEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !f.From.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, f.To.UTC())
	}
	if typ := strings.ToLower(strings.TrimSpace(f.Type)); typ != "" {
		conds = append(conds, "activity_type = ?")
		args = append(args, typ)
	}
	if f.DeviceID != "" {
		conds = append(conds, "device_id = ?")
		args = append(args, f.DeviceID)
	}

	q := selectEventColumns
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC, rowid ASC"

	return r.selectEvents(ctx, q, args...)
}

func (r *EventSQLite) selectEvents(ctx context.Context, q string, args ...any) ([]models.ActivityEvent, error) {
	var rows []eventRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("select activity events: %w", err)
	}
	out := make([]models.ActivityEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

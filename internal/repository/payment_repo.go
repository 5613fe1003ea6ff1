package repository

import (
	"context"
	"fmt"
	"time"

	"console_rental/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PaymentSQLite struct {
	db sqlx.ExtContext
}

func NewPaymentSQLite(db sqlx.ExtContext) *PaymentSQLite {
	return &PaymentSQLite{db: db}
}

const insertPaymentSQL = `
	INSERT INTO payments (id, shift_id, user_id, session_id, amount, type, method, note, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (r *PaymentSQLite) Record(ctx context.Context, p models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, insertPaymentSQL,
		p.ID,
		p.ShiftID,
		p.UserID,
		p.SessionID,
		p.Amount,
		string(p.Type),
		p.Method,
		p.Note,
		p.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert %s payment: %w", p.Type, err)
	}
	return nil
}

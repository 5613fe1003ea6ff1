package models

import "time"

type PaymentKind string

const (
	PaymentRental  PaymentKind = "rental"
	PaymentAddTime PaymentKind = "add_time"
	PaymentProduct PaymentKind = "product"
)

// Payment is a charge collected at the counter during a shift.
type Payment struct {
	ID        string      `json:"id" db:"id"`
	ShiftID   *string     `json:"shift_id,omitempty" db:"shift_id"`
	UserID    *int        `json:"user_id,omitempty" db:"user_id"`
	SessionID *string     `json:"session_id,omitempty" db:"session_id"`
	Amount    int64       `json:"amount" db:"amount"`
	Type      PaymentKind `json:"type" db:"type"`
	Method    string      `json:"method" db:"method"`
	Note      string      `json:"note,omitempty" db:"note"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

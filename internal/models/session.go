package models

import "time"

type PaymentType string

const (
	PaymentUpfront PaymentType = "upfront"
	PaymentAtEnd   PaymentType = "end"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Session is one billable rental of one device.
// Duration is the billed allotment while active and the consumed time once completed.
// Cost is nil for pay-at-end sessions until they are ended.
type Session struct {
	ID                  string        `json:"id" db:"id"`
	DeviceID            string        `json:"device_id" db:"device_id"`
	MemberID            *string       `json:"member_id,omitempty" db:"member_id"`
	UserID              *int          `json:"user_id,omitempty" db:"user_id"`
	Start               time.Time     `json:"start" db:"start_at"`
	End                 *time.Time    `json:"end,omitempty" db:"end_at"`
	Duration            *int64        `json:"duration,omitempty" db:"duration"`
	Cost                *int64        `json:"cost,omitempty" db:"cost"`
	PaymentType         PaymentType   `json:"payment_type" db:"payment_type"`
	Status              SessionStatus `json:"status" db:"status"`
	IsMemberTransaction bool          `json:"is_member_transaction" db:"is_member_transaction"`
}

package models

import "time"

type ActivityType string

const (
	ActivityStart   ActivityType = "start"
	ActivityResume  ActivityType = "resume"
	ActivityStop    ActivityType = "stop"
	ActivityAddTime ActivityType = "add_time"
	ActivityEnd     ActivityType = "end"
)

// ActivityEvent is a single append-only ledger entry of a session.
type ActivityEvent struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"session_id"`
	DeviceID      string         `json:"device_id"`
	Type          ActivityType   `json:"activity_type"`
	Timestamp     time.Time      `json:"timestamp"`
	DurationAdded *int64         `json:"duration_added,omitempty"`
	CostAdded     *int64         `json:"cost_added,omitempty"`
	PaymentMethod *string        `json:"payment_method,omitempty"`
	WalletBefore  *int64         `json:"wallet_before,omitempty"`
	WalletAfter   *int64         `json:"wallet_after,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

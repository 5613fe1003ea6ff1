package console_rental

import (
	"time"

	"console_rental/internal/models"
)

// DeviceStatus is the read model of a device: the persisted timer fields plus
// values derived from the anchor at the moment of the read.
type DeviceStatus struct {
	Device           models.Device   `json:"device"`
	ActiveSession    *models.Session `json:"active_session,omitempty"`
	ElapsedSeconds   int64           `json:"elapsed_seconds"`
	RemainingSeconds *int64          `json:"remaining_seconds,omitempty"` // nil when unlimited
	ObservedAt       time.Time       `json:"observed_at"`
}

// UsageReport is the ledger-derived consumption of a session at a point in time.
type UsageReport struct {
	SessionID    string    `json:"session_id"`
	UsageSeconds int64     `json:"usage_seconds"`
	Cost         int64     `json:"cost"`     // cost the usage would bill
	Complete     bool      `json:"complete"` // session already ended
	ComputedAt   time.Time `json:"computed_at"`
}

package models

import "time"

// TimerStatus is the lifecycle position of a device's rental timer.
type TimerStatus string

const (
	TimerIdle    TimerStatus = "idle"
	TimerRunning TimerStatus = "running"
	TimerPaused  TimerStatus = "paused"
	TimerEnded   TimerStatus = "ended"
)

// Device is a rentable console together with its persisted timer state.
//
// TimerStart is set only while TimerStatus is running. TimerDuration holds the
// remaining budget in seconds relative to TimerStart (or to the pause point while
// paused) and is nil for unlimited pay-at-end sessions.
type Device struct {
	ID            string      `json:"id" db:"id"`
	Name          string      `json:"name" db:"name"`
	CategoryID    string      `json:"category_id" db:"category_id"`
	TimerStatus   TimerStatus `json:"timer_status" db:"timer_status"`
	TimerStart    *time.Time  `json:"timer_start,omitempty" db:"timer_start"`
	TimerDuration *int64      `json:"timer_duration,omitempty" db:"timer_duration"`
	TimerElapsed  int64       `json:"timer_elapsed" db:"timer_elapsed"`
	LastPausedAt  *time.Time  `json:"last_paused_at,omitempty" db:"last_paused_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// Unlimited reports whether the device is running a pay-at-end session with no budget.
func (d Device) Unlimited() bool { return d.TimerDuration == nil }

// ClearTimer resets every timer field and leaves the device in the given status.
func (d *Device) ClearTimer(status TimerStatus) {
	d.TimerStatus = status
	d.TimerStart = nil
	d.TimerDuration = nil
	d.TimerElapsed = 0
	d.LastPausedAt = nil
}

package service

import (
	"time"

	"console_rental/internal/models"
)

// Counter payment methods recorded on the ledger.
const (
	PaymentMethodCash    = "cash"
	PaymentMethodDeposit = "deposit"
)

// StartParams describes a new rental. A nil DurationSeconds starts an
// unlimited pay-at-end session, which members cannot use.
type StartParams struct {
	DeviceID        string
	DurationSeconds *int64
	MemberID        *string
	PIN             *string
	PaymentMethod   string // counter method for non-member upfront payments
	UserID          *int
	ShiftID         *string
}

type AddTimeParams struct {
	DeviceID          string
	AdditionalMinutes int64
	UseDeposit        bool
	PaymentMethod     string
	UserID            *int
	ShiftID           *string
}

type EndParams struct {
	DeviceID       string
	ProductsAmount int64 // products sold with the session, charged at the counter
	PaymentMethod  string
	UserID         *int
	ShiftID        *string
}

type StartResult struct {
	Session models.Session       `json:"session"`
	Device  models.Device        `json:"device"`
	Wallet  *models.WalletChange `json:"wallet,omitempty"`
}

type AddTimeResult struct {
	Session          models.Session       `json:"session"`
	Device           models.Device        `json:"device"`
	CostAdded        int64                `json:"cost_added"`
	RemainingSeconds int64                `json:"remaining_seconds"`
	Wallet           *models.WalletChange `json:"wallet,omitempty"`
}

type EndResult struct {
	Session      models.Session       `json:"session"`
	Device       models.Device        `json:"device"`
	UsageSeconds int64                `json:"usage_seconds"`
	Refund       int64                `json:"refund"`
	FinalCost    int64                `json:"final_cost"`
	Expired      bool                 `json:"expired"`
	Wallet       *models.WalletChange `json:"wallet,omitempty"`
}

// ActivityFilter supports history filtering by time range, type and device.
type ActivityFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Type     string    // "", "start", "resume", "stop", "add_time", "end"
	DeviceID string
}

// SweepReport summarizes one expiry reconciliation pass.
type SweepReport struct {
	Checked     int      `json:"checked"`
	Expired     int      `json:"expired"`
	SkippedBusy int      `json:"skipped_busy"`
	Failed      int      `json:"failed"`
	EndedIDs    []string `json:"ended_device_ids,omitempty"`
}

func methodOrCash(m string) string {
	if m == "" {
		return PaymentMethodCash
	}
	return m
}

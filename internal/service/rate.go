package service

import (
	"math"

	"console_rental/internal/models"
)

// MaxSessionSeconds caps a single booking, including time added later.
const MaxSessionSeconds int64 = 7 * 24 * 3600

// CalculateCost prices usageSeconds with the category's rate card:
// costPerPeriod * usage / (periodMinutes * 60), rounded half up.
// Every price in the system (upfront, pay-at-end, add-time, refund) goes through it.
func CalculateCost(usageSeconds int64, cat models.RateCategory) (int64, error) {
	if usageSeconds < 0 {
		return 0, invalidInput("usage seconds must not be negative, got %d", usageSeconds)
	}
	if cat.PeriodMinutes <= 0 || cat.PeriodMinutes > math.MaxInt64/120 {
		return 0, invalidInput("rate category %q: period minutes out of range, got %d", cat.ID, cat.PeriodMinutes)
	}
	if cat.CostPerPeriod < 0 {
		return 0, invalidInput("rate category %q: cost per period must not be negative, got %d", cat.ID, cat.CostPerPeriod)
	}

	den := cat.PeriodMinutes * 60
	// 2*cost*usage + den must fit in int64.
	if cat.CostPerPeriod > 0 && usageSeconds > (math.MaxInt64-den)/2/cat.CostPerPeriod {
		return 0, invalidInput("rate category %q: %d seconds at %d per period is out of range", cat.ID, usageSeconds, cat.CostPerPeriod)
	}
	return (2*cat.CostPerPeriod*usageSeconds + den) / (2 * den), nil
}

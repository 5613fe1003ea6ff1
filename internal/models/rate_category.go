package models

// RateCategory is the rate card applied to every device assigned to it:
// CostPerPeriod minor currency units per PeriodMinutes of play.
type RateCategory struct {
	ID            string `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	CostPerPeriod int64  `json:"cost_per_period" db:"cost_per_period"`
	PeriodMinutes int64  `json:"period_minutes" db:"period_minutes"`
}

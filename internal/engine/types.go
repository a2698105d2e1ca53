// Package engine implements the draw allocation engine: eligibility filtering,
// prize pool computation, winner selection, prize distribution and the per-cycle
// orchestration that turns them into a draw record plus side-effect commands.
//
// Everything in this package is a pure computation over its arguments. Storage,
// scheduling and delivery live with the caller.
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeeksPerMonth is the fixed number of draw cycles a month of revenue is spread over.
const WeeksPerMonth = 4

// Money is an amount in integer minor units (e.g. paise).
type Money int64

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String renders the amount in major units with two decimals, e.g. "375.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Configuration is the versioned draw configuration, immutable within one cycle.
type Configuration struct {
	DrawSharePercent        int   `json:"drawSharePercent"`
	ProfitSharePercent      int   `json:"profitSharePercent"`
	MaintenanceSharePercent int   `json:"maintenanceSharePercent"`
	WinnersPerDraw          int   `json:"winnersPerDraw"`
	MinimumRewardAmount     Money `json:"minimumRewardAmount"`
	EligibilityCooldownDays int   `json:"eligibilityCooldownDays"`
	PreflightLeadDays       int   `json:"preflightLeadDays"`
}

// Cooldown returns the eligibility cooldown as a duration.
func (c Configuration) Cooldown() time.Duration {
	return time.Duration(c.EligibilityCooldownDays) * 24 * time.Hour
}

// Subscriber is the read-only view of a subscriber the engine works on.
type Subscriber struct {
	ID           string     `json:"id"`
	Contact      string     `json:"contact"`
	IsSubscribed bool       `json:"isSubscribed"`
	LastWonAt    *time.Time `json:"lastWonAt,omitempty"`
}

// Allocation pairs a winner with the amount they receive.
type Allocation struct {
	SubscriberID string `json:"subscriberId"`
	Contact      string `json:"contact"`
	Amount       Money  `json:"amount"`
}

// DrawStatus is the terminal status of a draw record.
type DrawStatus string

const (
	DrawStatusCompleted DrawStatus = "completed"
	DrawStatusFailed    DrawStatus = "failed"
)

// DrawRecord is the auditable output of one cycle.
type DrawRecord struct {
	CycleID       string       `json:"cycleId"`
	Timestamp     time.Time    `json:"timestamp"`
	Status        DrawStatus   `json:"status"`
	EligibleCount int          `json:"eligibleCount"`
	TotalRevenue  Money        `json:"totalRevenue"`
	TotalPool     Money        `json:"totalPool,omitempty"`
	Allocations   []Allocation `json:"allocations,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Seed          int64        `json:"seed"`
}

package payments

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks the lifecycle of a dues payment.
type Status string

const (
	// StatusPending awaits gateway confirmation.
	StatusPending Status = "pending"
	// StatusPaid is confirmed via webhook.
	StatusPaid Status = "paid"
	// StatusFailed is terminally unsuccessful.
	StatusFailed Status = "failed"
)

// Payment is a league dues charge for one member.
type Payment struct {
	ID          uuid.UUID
	LeagueID    int64
	UserID      int64
	AmountCents int64
	Currency    string
	Status      Status
	GatewayRef  string
	CreatedAt   time.Time
	PaidAt      *time.Time
}

// FinanceSummary aggregates dues collection for a league.
type FinanceSummary struct {
	LeagueID       int64 `json:"league_id"`
	PaidCount      int   `json:"paid_count"`
	PendingCount   int   `json:"pending_count"`
	FailedCount    int   `json:"failed_count"`
	TotalPaidCents int64 `json:"total_paid_cents"`
}

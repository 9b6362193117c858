package entries

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks the review state of a submission.
type Status string

const (
	// StatusPending awaits manual review or the auto-approve sweep.
	StatusPending Status = "pending"
	// StatusApproved counts toward league scoring.
	StatusApproved Status = "approved"
	// StatusRejected is excluded from scoring.
	StatusRejected Status = "rejected"
)

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Entry is a recorded workout activity pending validation. ReviewedBy is nil
// for entries approved by the system sweep.
type Entry struct {
	ID         uuid.UUID
	LeagueID   int64
	TeamID     int64
	UserID     int64
	ActivityID int64
	Value      float64
	Status     Status
	Note       string
	ReviewNote string
	ReviewedBy *int64
	ReviewedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SweepResult reports the outcome of one auto-approve pass.
type SweepResult struct {
	ApprovedCount int         `json:"approved_count"`
	EntryIDs      []uuid.UUID `json:"entry_ids"`
}

// RejectedSummary aggregates a user's rejected submissions within a league.
type RejectedSummary struct {
	LeagueID       int64      `json:"league_id"`
	UserID         int64      `json:"user_id"`
	Count          int        `json:"count"`
	TotalValue     float64    `json:"total_value"`
	LastRejectedAt *time.Time `json:"last_rejected_at,omitempty"`
}

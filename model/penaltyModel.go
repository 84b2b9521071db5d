// model/penalty.go
package model

import "time"

type PenaltyStatus string

const (
	PenaltyValid   PenaltyStatus = "VALID"
	PenaltyCleared PenaltyStatus = "CLEARED"
)

// PenaltyEntry is one row of the per-user penalty ledger. Point and user
// never change after creation; only status and the paid flag transition.
// Entries are soft-deleted: revoked or reset entries flip to CLEARED and
// stay around for audit.
type PenaltyEntry struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user_id"`
	Point     int           `json:"point"`
	Status    PenaltyStatus `json:"status"`
	Reason    string        `json:"reason"`
	Paid      bool          `json:"paid"`
	GivenAt   time.Time     `json:"given_at"`
	CreatedAt time.Time     `json:"created_at"`
	ClearedAt *time.Time    `json:"cleared_at,omitempty"`
}

// PenaltySummary is the admin detail-screen header for one user.
type PenaltySummary struct {
	UserID        int64      `json:"user_id"`
	TotalPoints   int        `json:"total_points"`
	ActiveEntries int        `json:"active_entries"`
	LastGivenAt   *time.Time `json:"last_given_at,omitempty"`
	LastReason    string     `json:"last_reason,omitempty"`
}

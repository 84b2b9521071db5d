package webhookrepo

import (
	"context"
	"time"
)

// OverdueEvent is the payload posted when a rental goes overdue.
type OverdueEvent struct {
	RentalID int64     `json:"rental_id"`
	UserID   int64     `json:"user_id"`
	ItemID   int64     `json:"item_id"`
	EndDate  time.Time `json:"end_date"`
}

type Repo interface {
	NotifyOverdue(ctx context.Context, ev OverdueEvent) error
}

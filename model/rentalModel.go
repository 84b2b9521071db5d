// model/rental.go
package model

import "time"

type RentalStatus string

const (
	RentalRequested       RentalStatus = "REQUESTED"
	RentalApproved        RentalStatus = "APPROVED"
	RentalRented          RentalStatus = "RENTED"
	RentalReturnRequested RentalStatus = "RETURN_REQUESTED"
	RentalReturned        RentalStatus = "RETURNED"
)

type Rental struct {
	ID               int64        `json:"id"`
	UserID           int64        `json:"user_id"`
	ItemID           int64        `json:"item_id"`
	Status           RentalStatus `json:"status"`
	StartDate        time.Time    `json:"start_date"`
	EndDate          time.Time    `json:"end_date"`
	ActualReturnDate *time.Time   `json:"actual_return_date,omitempty"`
	Overdue          bool         `json:"overdue"`
	CreatedAt        time.Time    `json:"created_at"`
}

// RentalHistory is one row per status transition, kept for audit.
type RentalHistory struct {
	ID        int64        `json:"id"`
	RentalID  int64        `json:"rental_id"`
	Status    RentalStatus `json:"status"`
	ChangedAt time.Time    `json:"changed_at"`
	Memo      string       `json:"memo,omitempty"`
}

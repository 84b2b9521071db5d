package rentalsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/binkim00/rentex/model"
	itemrepo "github.com/binkim00/rentex/repository/item"
	rentalrepo "github.com/binkim00/rentex/repository/rental"
)

// errors used by controllers

type ErrCode string

const (
	ErrItemNotFound ErrCode = "ITEM_NOT_FOUND"
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrConflict     ErrCode = "DATE_CONFLICT"
	ErrBadDates     ErrCode = "BAD_DATES"
	ErrNotOwner     ErrCode = "NOT_OWNER"
	ErrWrongStatus  ErrCode = "WRONG_STATUS"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// ActiveSet is the rental statuses that occupy an item's availability for a
// date range. Two policies are in use and callers must pick one explicitly.
type ActiveSet []model.RentalStatus

var (
	// BroadActiveSet blocks a new request while any earlier request for the
	// item is still in flight, including ones not yet approved. Used at
	// request creation.
	BroadActiveSet = ActiveSet{model.RentalRequested, model.RentalApproved, model.RentalRented}

	// NarrowActiveSet counts only rentals that hold or are about to hold the
	// item. Used at approval time, where pending requests must not block each
	// other (the one being approved is itself still REQUESTED).
	NarrowActiveSet = ActiveSet{model.RentalApproved, model.RentalRented, model.RentalReturnRequested}
)

// HistoryRow = repository shape
type HistoryRow = rentalrepo.HistoryRow

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, r *model.Rental) error
	ByID(ctx context.Context, id int64) (*model.Rental, error)
	ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Rental, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RentalStatus) error
	SetReturned(ctx context.Context, tx *sql.Tx, id int64, returnedAt time.Time) error
	InsertHistory(ctx context.Context, tx *sql.Tx, h *model.RentalHistory) error
	ExistsConflicting(ctx context.Context, itemID int64, start, end time.Time, statuses []model.RentalStatus) (bool, error)
	ListOverdue(ctx context.Context, today time.Time) ([]model.Rental, error)
	ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error)
}

type ItemStore interface {
	ByID(ctx context.Context, id int64) (*model.Item, error)
}

type Service interface {
	// Create validates the date range, rejects overlaps against the broad
	// active set, and inserts a REQUESTED rental.
	Create(ctx context.Context, userID, itemID int64, start, end time.Time) (*model.Rental, error)

	// HasConflict reports whether [start,end] overlaps an existing rental on
	// the item whose status is in the given active set. Both interval ends
	// are inclusive: a rental ending the day another begins conflicts.
	HasConflict(ctx context.Context, itemID int64, start, end time.Time, set ActiveSet) (bool, error)

	// Lifecycle transitions. Strictly forward:
	// REQUESTED -> APPROVED -> RENTED -> RETURN_REQUESTED -> RETURNED.
	Approve(ctx context.Context, rentalID int64) error
	Start(ctx context.Context, rentalID int64) error
	RequestReturn(ctx context.Context, userID, rentalID int64) error
	CompleteReturn(ctx context.Context, rentalID int64) error

	MyHistory(ctx context.Context, userID int64) ([]HistoryRow, error)

	// ScanOverdue lists RENTED rentals whose end date has passed and whose
	// overdue flag is still unset. Read-only; flagging and penalties are the
	// sweeper's job.
	ScanOverdue(ctx context.Context, today time.Time) ([]model.Rental, error)
}

// ----- Service implementation -----

type service struct {
	db    *sql.DB
	r     Repo
	items ItemStore
}

func New(db *sql.DB, r Repo, items ItemStore) Service {
	return &service{db: db, r: r, items: items}
}

func (s *service) Create(ctx context.Context, userID, itemID int64, start, end time.Time) (_ *model.Rental, err error) {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return nil, makeErr(ErrBadDates)
	}

	if _, err := s.items.ByID(ctx, itemID); err != nil {
		if errors.Is(err, itemrepo.ErrNotFound) {
			return nil, makeErr(ErrItemNotFound)
		}
		return nil, err
	}

	conflict, err := s.HasConflict(ctx, itemID, start, end, BroadActiveSet)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, makeErr(ErrConflict)
	}

	// The check above is a point-in-time read; two concurrent requests can
	// both pass it. Closing that race is left to an exclusion constraint on
	// (item_id, daterange) at the storage layer.
	m := &model.Rental{
		UserID:    userID,
		ItemID:    itemID,
		Status:    model.RentalRequested,
		StartDate: start,
		EndDate:   end,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.r.Insert(ctx, tx, m); err != nil {
		return nil, err
	}
	if err = s.appendHistory(ctx, tx, m.ID, model.RentalRequested, "rental requested"); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) HasConflict(ctx context.Context, itemID int64, start, end time.Time, set ActiveSet) (bool, error) {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return false, makeErr(ErrBadDates)
	}
	return s.r.ExistsConflicting(ctx, itemID, start, end, set)
}

func (s *service) Approve(ctx context.Context, rentalID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	m, err := s.r.ByIDForUpdate(ctx, tx, rentalID)
	if err != nil {
		if errors.Is(err, rentalrepo.ErrNotFound) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if m.Status != model.RentalRequested {
		return makeErr(ErrWrongStatus)
	}

	// Re-check against the narrow set: another request for the same dates may
	// have been approved since this one was created. The rental under
	// approval is still REQUESTED and so never blocks itself.
	conflict, err := s.r.ExistsConflicting(ctx, m.ItemID, m.StartDate, m.EndDate, NarrowActiveSet)
	if err != nil {
		return err
	}
	if conflict {
		return makeErr(ErrConflict)
	}

	if err = s.r.UpdateStatus(ctx, tx, rentalID, model.RentalApproved); err != nil {
		return err
	}
	if err = s.appendHistory(ctx, tx, rentalID, model.RentalApproved, "approved"); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) Start(ctx context.Context, rentalID int64) error {
	return s.transition(ctx, rentalID, model.RentalApproved, model.RentalRented, "item handed over")
}

func (s *service) RequestReturn(ctx context.Context, userID, rentalID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	m, err := s.r.ByIDForUpdate(ctx, tx, rentalID)
	if err != nil {
		if errors.Is(err, rentalrepo.ErrNotFound) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if m.UserID != userID {
		return makeErr(ErrNotOwner)
	}
	if m.Status != model.RentalRented {
		return makeErr(ErrWrongStatus)
	}

	if err = s.r.UpdateStatus(ctx, tx, rentalID, model.RentalReturnRequested); err != nil {
		return err
	}
	if err = s.appendHistory(ctx, tx, rentalID, model.RentalReturnRequested, "return requested"); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) CompleteReturn(ctx context.Context, rentalID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	m, err := s.r.ByIDForUpdate(ctx, tx, rentalID)
	if err != nil {
		if errors.Is(err, rentalrepo.ErrNotFound) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if m.Status != model.RentalReturnRequested {
		return makeErr(ErrWrongStatus)
	}

	if err = s.r.SetReturned(ctx, tx, rentalID, time.Now().UTC()); err != nil {
		return err
	}
	if err = s.appendHistory(ctx, tx, rentalID, model.RentalReturned, "return completed"); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) transition(ctx context.Context, rentalID int64, from, to model.RentalStatus, memo string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	m, err := s.r.ByIDForUpdate(ctx, tx, rentalID)
	if err != nil {
		if errors.Is(err, rentalrepo.ErrNotFound) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if m.Status != from {
		return makeErr(ErrWrongStatus)
	}

	if err = s.r.UpdateStatus(ctx, tx, rentalID, to); err != nil {
		return err
	}
	if err = s.appendHistory(ctx, tx, rentalID, to, memo); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) appendHistory(ctx context.Context, tx *sql.Tx, rentalID int64, status model.RentalStatus, memo string) error {
	return s.r.InsertHistory(ctx, tx, &model.RentalHistory{
		RentalID:  rentalID,
		Status:    status,
		ChangedAt: time.Now().UTC(),
		Memo:      memo,
	})
}

func (s *service) MyHistory(ctx context.Context, userID int64) ([]HistoryRow, error) {
	return s.r.ListByUser(ctx, userID)
}

func (s *service) ScanOverdue(ctx context.Context, today time.Time) ([]model.Rental, error) {
	return s.r.ListOverdue(ctx, today)
}

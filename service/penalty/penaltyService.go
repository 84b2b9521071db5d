package penaltysvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/binkim00/rentex/model"
	penaltyrepo "github.com/binkim00/rentex/repository/penalty"
	userrepo "github.com/binkim00/rentex/repository/user"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrBadInput ErrCode = "BAD_INPUT"
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

// DefaultReason is recorded when a grant comes in with a blank reason.
const DefaultReason = "reason not specified"

// MyPenalties is the user-facing view: full history plus the VALID-entry sum.
type MyPenalties struct {
	TotalPoints int                  `json:"total_points"`
	HasUnpaid   bool                 `json:"has_unpaid"`
	Entries     []model.PenaltyEntry `json:"entries"`
}

type UserStore interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
	IncreasePenaltyPoints(ctx context.Context, tx *sql.Tx, userID int64, delta int) (int64, error)
	DecreasePenaltyPoints(ctx context.Context, tx *sql.Tx, userID int64, delta int) (int64, error)
	ResetPenaltyPoints(ctx context.Context, tx *sql.Tx, userID int64) (int64, error)
	RecalcPenaltyPoints(ctx context.Context, tx *sql.Tx, userID int64) error
}

type EntryStore interface {
	Insert(ctx context.Context, tx *sql.Tx, e *model.PenaltyEntry) error
	ByID(ctx context.Context, id int64) (*model.PenaltyEntry, error)
	ListByUser(ctx context.Context, userID int64) ([]model.PenaltyEntry, error)
	MarkCleared(ctx context.Context, tx *sql.Tx, entryID int64, at time.Time) error
	ClearAllValid(ctx context.Context, tx *sql.Tx, userID int64, at time.Time) (int64, error)
	MarkPaid(ctx context.Context, entryID int64) (int64, error)
	Summary(ctx context.Context, userID int64) (*model.PenaltySummary, error)
}

type Service interface {
	// Grant appends a VALID entry and bumps the user's running total.
	// points <= 0 defaults to 1; a blank reason gets DefaultReason.
	Grant(ctx context.Context, userID int64, points int, reason string) (*model.PenaltyEntry, error)

	// RevokeEntry clears one entry and deducts its points. Revoking an
	// already-cleared entry is a no-op, not an error.
	RevokeEntry(ctx context.Context, entryID int64) error

	// ResetUser clears every VALID entry for the user and zeroes the total.
	ResetUser(ctx context.Context, userID int64) error

	// Reconcile rebuilds the running total from the VALID entries. Safe to
	// call at any time; calling it twice in a row changes nothing.
	Reconcile(ctx context.Context, userID int64) error

	ListEntries(ctx context.Context, userID int64) ([]model.PenaltyEntry, error)
	Summary(ctx context.Context, userID int64) (*model.PenaltySummary, error)
	MyPenalties(ctx context.Context, userID int64) (*MyPenalties, error)
	MarkEntryPaid(ctx context.Context, entryID int64) error
}

// ----- Service implementation -----

type service struct {
	db      *sql.DB
	users   UserStore
	entries EntryStore
}

func New(db *sql.DB, users UserStore, entries EntryStore) Service {
	return &service{db: db, users: users, entries: entries}
}

// The ledger rows are the source of truth; users.penalty_points is a cached
// aggregate. Each mutation tries the cheap incremental UPDATE first and falls
// back to a full recompute when that update touches no row. The fallback must
// never surface as an error to the caller.

func (s *service) Grant(ctx context.Context, userID int64, points int, reason string) (_ *model.PenaltyEntry, err error) {
	if _, err := s.users.ByID(ctx, userID); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}

	if points <= 0 {
		points = 1
	}
	if strings.TrimSpace(reason) == "" {
		reason = DefaultReason
	}

	e := &model.PenaltyEntry{
		UserID:  userID,
		Point:   points,
		Status:  model.PenaltyValid,
		Reason:  reason,
		GivenAt: time.Now().UTC(),
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

	if err = s.entries.Insert(ctx, tx, e); err != nil {
		return nil, err
	}

	var n int64
	if n, err = s.users.IncreasePenaltyPoints(ctx, tx, userID, points); err != nil {
		return nil, err
	}
	if n == 0 {
		// stale total row: rebuild from the ledger instead of failing
		if err = s.users.RecalcPenaltyPoints(ctx, tx, userID); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *service) RevokeEntry(ctx context.Context, entryID int64) (err error) {
	e, err := s.entries.ByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, penaltyrepo.ErrNotFound) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if e.Status != model.PenaltyValid {
		// already revoked or reset; revocation is only meaningful once
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.entries.MarkCleared(ctx, tx, entryID, time.Now().UTC()); err != nil {
		return err
	}

	var n int64
	if n, err = s.users.DecreasePenaltyPoints(ctx, tx, e.UserID, e.Point); err != nil {
		return err
	}
	if n == 0 {
		if err = s.users.RecalcPenaltyPoints(ctx, tx, e.UserID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *service) ResetUser(ctx context.Context, userID int64) (err error) {
	if _, err := s.users.ByID(ctx, userID); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return makeErr(ErrNotFound)
		}
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// one timestamp for the whole batch
	if _, err = s.entries.ClearAllValid(ctx, tx, userID, time.Now().UTC()); err != nil {
		return err
	}

	var n int64
	if n, err = s.users.ResetPenaltyPoints(ctx, tx, userID); err != nil {
		return err
	}
	if n == 0 {
		if err = s.users.RecalcPenaltyPoints(ctx, tx, userID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *service) Reconcile(ctx context.Context, userID int64) (err error) {
	if _, err := s.users.ByID(ctx, userID); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return makeErr(ErrNotFound)
		}
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.users.RecalcPenaltyPoints(ctx, tx, userID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) ListEntries(ctx context.Context, userID int64) ([]model.PenaltyEntry, error) {
	return s.entries.ListByUser(ctx, userID)
}

func (s *service) Summary(ctx context.Context, userID int64) (*model.PenaltySummary, error) {
	if _, err := s.users.ByID(ctx, userID); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return s.entries.Summary(ctx, userID)
}

func (s *service) MyPenalties(ctx context.Context, userID int64) (*MyPenalties, error) {
	entries, err := s.entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &MyPenalties{Entries: entries}
	for _, e := range entries {
		if e.Status == model.PenaltyValid {
			out.TotalPoints += e.Point
		}
		if !e.Paid {
			out.HasUnpaid = true
		}
	}
	return out, nil
}

func (s *service) MarkEntryPaid(ctx context.Context, entryID int64) error {
	if _, err := s.entries.ByID(ctx, entryID); err != nil {
		if errors.Is(err, penaltyrepo.ErrNotFound) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	// 0 rows just means it was already paid
	_, err := s.entries.MarkPaid(ctx, entryID)
	return err
}

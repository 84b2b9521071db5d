// repository/rental/repo.go
package rentalrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/binkim00/rentex/model"
)

var ErrNotFound = errors.New("rental not found")

type HistoryRow struct {
	RentalID         int64               `json:"rental_id"`
	ItemID           int64               `json:"item_id"`
	ItemName         string              `json:"item_name"`
	Status           model.RentalStatus  `json:"status"`
	StartDate        time.Time           `json:"start_date"`
	EndDate          time.Time           `json:"end_date"`
	ActualReturnDate *time.Time          `json:"actual_return_date,omitempty"`
	Overdue          bool                `json:"overdue"`
	CreatedAt        time.Time           `json:"created_at"`
}

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, r *model.Rental) error
	ByID(ctx context.Context, id int64) (*model.Rental, error)
	ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Rental, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RentalStatus) error
	SetReturned(ctx context.Context, tx *sql.Tx, id int64, returnedAt time.Time) error
	InsertHistory(ctx context.Context, tx *sql.Tx, h *model.RentalHistory) error

	// ExistsConflicting reports whether any rental on the item whose status is
	// in the given set overlaps [start,end], both ends inclusive.
	ExistsConflicting(ctx context.Context, itemID int64, start, end time.Time, statuses []model.RentalStatus) (bool, error)

	ListOverdue(ctx context.Context, today time.Time) ([]model.Rental, error)
	MarkOverdue(ctx context.Context, id int64) error

	ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error)
}

type repo struct {
	db *sql.DB
}

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, m *model.Rental) error {
	const q = `
		INSERT INTO rentals (user_id, item_id, status, start_date, end_date)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`
	return tx.QueryRowContext(ctx, q,
		m.UserID, m.ItemID, m.Status, m.StartDate, m.EndDate,
	).Scan(&m.ID, &m.CreatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Rental, error) {
	const q = `
		SELECT id, user_id, item_id, status, start_date, end_date, actual_return_date, is_overdue, created_at
		FROM rentals
		WHERE id = $1`
	return scanRental(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Rental, error) {
	const q = `
		SELECT id, user_id, item_id, status, start_date, end_date, actual_return_date, is_overdue, created_at
		FROM rentals
		WHERE id = $1
		FOR UPDATE`
	return scanRental(tx.QueryRowContext(ctx, q, id))
}

type rowScanner interface{ Scan(dest ...any) error }

func scanRental(row rowScanner) (*model.Rental, error) {
	m := &model.Rental{}
	err := row.Scan(
		&m.ID, &m.UserID, &m.ItemID, &m.Status, &m.StartDate, &m.EndDate,
		&m.ActualReturnDate, &m.Overdue, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repo) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RentalStatus) error {
	const q = `
		UPDATE rentals
		SET status = $2, updated_at = NOW()
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, status)
	return err
}

func (r *repo) SetReturned(ctx context.Context, tx *sql.Tx, id int64, returnedAt time.Time) error {
	const q = `
		UPDATE rentals
		SET status = 'RETURNED', actual_return_date = $2, updated_at = NOW()
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, returnedAt)
	return err
}

func (r *repo) InsertHistory(ctx context.Context, tx *sql.Tx, h *model.RentalHistory) error {
	const q = `
		INSERT INTO rental_history (rental_id, status, changed_at, memo)
		VALUES ($1,$2,$3,$4)
		RETURNING id`
	return tx.QueryRowContext(ctx, q, h.RentalID, h.Status, h.ChangedAt, h.Memo).Scan(&h.ID)
}

func (r *repo) ExistsConflicting(ctx context.Context, itemID int64, start, end time.Time, statuses []model.RentalStatus) (bool, error) {
	// Inclusive on both ends: a rental ending the day another begins blocks it.
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM rentals
			WHERE item_id = $1
			  AND status = ANY($2)
			  AND start_date <= $4
			  AND end_date >= $3
		)`
	ss := make([]string, len(statuses))
	for i, s := range statuses {
		ss[i] = string(s)
	}
	var exists bool
	err := r.db.QueryRowContext(ctx, q, itemID, ss, start, end).Scan(&exists)
	return exists, err
}

func (r *repo) ListOverdue(ctx context.Context, today time.Time) ([]model.Rental, error) {
	const q = `
		SELECT id, user_id, item_id, status, start_date, end_date, actual_return_date, is_overdue, created_at
		FROM rentals
		WHERE status = 'RENTED'
		  AND end_date < $1
		  AND is_overdue = FALSE
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Rental
	for rows.Next() {
		var m model.Rental
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.ItemID, &m.Status, &m.StartDate, &m.EndDate,
			&m.ActualReturnDate, &m.Overdue, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repo) MarkOverdue(ctx context.Context, id int64) error {
	const q = `
		UPDATE rentals
		SET is_overdue = TRUE, updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error) {
	const q = `
		SELECT
			r.id               AS rental_id,
			r.item_id          AS item_id,
			i.name             AS item_name,
			r.status           AS status,
			r.start_date       AS start_date,
			r.end_date         AS end_date,
			r.actual_return_date,
			r.is_overdue,
			r.created_at
		FROM rentals r
		JOIN items i ON i.id = r.item_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(
			&h.RentalID, &h.ItemID, &h.ItemName, &h.Status,
			&h.StartDate, &h.EndDate, &h.ActualReturnDate, &h.Overdue, &h.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

package penaltyrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/binkim00/rentex/model"
)

var ErrNotFound = errors.New("penalty entry not found")

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, e *model.PenaltyEntry) error
	ByID(ctx context.Context, id int64) (*model.PenaltyEntry, error)
	ListByUser(ctx context.Context, userID int64) ([]model.PenaltyEntry, error)

	MarkCleared(ctx context.Context, tx *sql.Tx, entryID int64, at time.Time) error
	ClearAllValid(ctx context.Context, tx *sql.Tx, userID int64, at time.Time) (int64, error)
	MarkPaid(ctx context.Context, entryID int64) (int64, error)

	Summary(ctx context.Context, userID int64) (*model.PenaltySummary, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, e *model.PenaltyEntry) error {
	const q = `
		INSERT INTO penalty_entries (user_id, point, status, reason, paid, given_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`
	return tx.QueryRowContext(ctx, q,
		e.UserID, e.Point, e.Status, e.Reason, e.Paid, e.GivenAt,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.PenaltyEntry, error) {
	const q = `
		SELECT id, user_id, point, status, reason, paid, given_at, created_at, cleared_at
		FROM penalty_entries
		WHERE id = $1`
	e := &model.PenaltyEntry{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.UserID, &e.Point, &e.Status, &e.Reason, &e.Paid,
		&e.GivenAt, &e.CreatedAt, &e.ClearedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListByUser returns every entry for the user, most recent first.
func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.PenaltyEntry, error) {
	const q = `
		SELECT id, user_id, point, status, reason, paid, given_at, created_at, cleared_at
		FROM penalty_entries
		WHERE user_id = $1
		ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PenaltyEntry
	for rows.Next() {
		var e model.PenaltyEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Point, &e.Status, &e.Reason, &e.Paid,
			&e.GivenAt, &e.CreatedAt, &e.ClearedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repo) MarkCleared(ctx context.Context, tx *sql.Tx, entryID int64, at time.Time) error {
	const q = `
		UPDATE penalty_entries
		SET status = 'CLEARED', cleared_at = $2
		WHERE id = $1 AND status = 'VALID'`
	_, err := tx.ExecContext(ctx, q, entryID, at)
	return err
}

// ClearAllValid clears every VALID entry for the user with one shared timestamp.
func (r *repo) ClearAllValid(ctx context.Context, tx *sql.Tx, userID int64, at time.Time) (int64, error) {
	const q = `
		UPDATE penalty_entries
		SET status = 'CLEARED', cleared_at = $2
		WHERE user_id = $1 AND status = 'VALID'`
	res, err := tx.ExecContext(ctx, q, userID, at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repo) MarkPaid(ctx context.Context, entryID int64) (int64, error) {
	const q = `
		UPDATE penalty_entries
		SET paid = TRUE
		WHERE id = $1 AND paid = FALSE`
	res, err := r.db.ExecContext(ctx, q, entryID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repo) Summary(ctx context.Context, userID int64) (*model.PenaltySummary, error) {
	const q = `
		SELECT
			COALESCE(SUM(point) FILTER (WHERE status='VALID'),0)::INT,
			COALESCE(COUNT(*) FILTER (WHERE status='VALID'),0)::INT,
			MAX(given_at)
		FROM penalty_entries
		WHERE user_id = $1`
	s := &model.PenaltySummary{UserID: userID}
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&s.TotalPoints, &s.ActiveEntries, &s.LastGivenAt); err != nil {
		return nil, err
	}
	if s.LastGivenAt != nil {
		const qr = `
			SELECT reason FROM penalty_entries
			WHERE user_id = $1
			ORDER BY given_at DESC, id DESC
			LIMIT 1`
		if err := r.db.QueryRowContext(ctx, qr, userID).Scan(&s.LastReason); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	return s, nil
}

package userrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/binkim00/rentex/model"
)

var ErrNotFound = errors.New("user not found")

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)

	// Penalty running total. The incremental updates return the number of
	// rows affected so callers can fall back to Recalc when nothing matched.
	IncreasePenaltyPoints(ctx context.Context, tx *sql.Tx, userID int64, delta int) (int64, error)
	DecreasePenaltyPoints(ctx context.Context, tx *sql.Tx, userID int64, delta int) (int64, error)
	ResetPenaltyPoints(ctx context.Context, tx *sql.Tx, userID int64) (int64, error)
	RecalcPenaltyPoints(ctx context.Context, tx *sql.Tx, userID int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, u *model.User) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO users(email, password_hash, name, nickname, role)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`,
		u.Email, u.PasswordHash, u.Name, u.Nickname, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, nickname, role, COALESCE(penalty_points,0), created_at
		FROM users
		WHERE lower(email) = lower($1)`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Nickname, &u.Role, &u.PenaltyPoints, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.User, error) {
	u := &model.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, nickname, role, COALESCE(penalty_points,0), created_at
		FROM users
		WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Nickname, &u.Role, &u.PenaltyPoints, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) IncreasePenaltyPoints(ctx context.Context, tx *sql.Tx, userID int64, delta int) (int64, error) {
	const q = `
		UPDATE users
		SET penalty_points = COALESCE(penalty_points,0) + $2
		WHERE id = $1`
	res, err := tx.ExecContext(ctx, q, userID, delta)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DecreasePenaltyPoints never drives the total below zero.
func (r *repo) DecreasePenaltyPoints(ctx context.Context, tx *sql.Tx, userID int64, delta int) (int64, error) {
	const q = `
		UPDATE users
		SET penalty_points = GREATEST(0, COALESCE(penalty_points,0) - $2)
		WHERE id = $1`
	res, err := tx.ExecContext(ctx, q, userID, delta)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repo) ResetPenaltyPoints(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {
	const q = `
		UPDATE users
		SET penalty_points = 0
		WHERE id = $1`
	res, err := tx.ExecContext(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RecalcPenaltyPoints rebuilds the running total from the ledger. The ledger
// is the source of truth; this is the recovery path when an incremental
// update misses.
func (r *repo) RecalcPenaltyPoints(ctx context.Context, tx *sql.Tx, userID int64) error {
	const q = `
		UPDATE users
		SET penalty_points = (
			SELECT COALESCE(SUM(p.point),0)
			FROM penalty_entries p
			WHERE p.user_id = $1 AND p.status = 'VALID'
		)
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, userID)
	return err
}

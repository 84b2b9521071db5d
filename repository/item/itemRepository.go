package itemrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/binkim00/rentex/model"
)

var ErrNotFound = errors.New("item not found")

type Repo interface {
	Create(ctx context.Context, it *model.Item) error
	ByID(ctx context.Context, id int64) (*model.Item, error)
	List(ctx context.Context) ([]model.Item, error)
	ListByPartner(ctx context.Context, partnerID int64) ([]model.Item, error)
	Update(ctx context.Context, it *model.Item) error
	Delete(ctx context.Context, id int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, it *model.Item) error {
	const q = `
		INSERT INTO items (name, description, stock_quantity, status, partner_id, daily_price)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q,
		it.Name, it.Description, it.StockQuantity, it.Status, it.PartnerID, it.DailyPrice,
	).Scan(&it.ID, &it.CreatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Item, error) {
	const q = `
		SELECT id, name, description, stock_quantity, status, partner_id, daily_price, created_at
		FROM items
		WHERE id = $1`
	it := &model.Item{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&it.ID, &it.Name, &it.Description, &it.StockQuantity, &it.Status,
		&it.PartnerID, &it.DailyPrice, &it.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *repo) List(ctx context.Context) ([]model.Item, error) {
	const q = `
		SELECT id, name, description, stock_quantity, status, partner_id, daily_price, created_at
		FROM items
		ORDER BY id DESC`
	return r.list(ctx, q)
}

func (r *repo) ListByPartner(ctx context.Context, partnerID int64) ([]model.Item, error) {
	const q = `
		SELECT id, name, description, stock_quantity, status, partner_id, daily_price, created_at
		FROM items
		WHERE partner_id = $1
		ORDER BY id DESC`
	return r.list(ctx, q, partnerID)
}

func (r *repo) list(ctx context.Context, q string, args ...any) ([]model.Item, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(
			&it.ID, &it.Name, &it.Description, &it.StockQuantity, &it.Status,
			&it.PartnerID, &it.DailyPrice, &it.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repo) Update(ctx context.Context, it *model.Item) error {
	const q = `
		UPDATE items
		SET name=$2, description=$3, stock_quantity=$4, status=$5, daily_price=$6, updated_at=NOW()
		WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q,
		it.ID, it.Name, it.Description, it.StockQuantity, it.Status, it.DailyPrice,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

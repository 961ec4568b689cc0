package canteen

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MenuRepo struct{ DB *pgxpool.Pool }

const menuCols = `id, seller_id, store_name, name, price, stock, created_at, updated_at`

func scanMenu(row pgx.Row) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.SellerID, &m.StoreName, &m.Name, &m.Price, &m.Stock, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *MenuRepo) Get(ctx context.Context, id string) (MenuItem, error) {
	m, err := scanMenu(r.DB.QueryRow(ctx, `SELECT `+menuCols+` FROM menus WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return MenuItem{}, ErrNotFound
	}
	return m, err
}

func (r *MenuRepo) List(ctx context.Context, sellerID string) ([]MenuItem, error) {
	q := `SELECT ` + menuCols + ` FROM menus ORDER BY store_name, name`
	args := []any{}
	if sellerID != "" {
		q = `SELECT ` + menuCols + ` FROM menus WHERE seller_id=$1 ORDER BY name`
		args = append(args, sellerID)
	}
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MenuItem
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

package canteen

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CartRepo struct{ DB *pgxpool.Pool }

const cartCols = `buyer_id, menu_id, seller_id, store_name, menu_name, unit_price, qty, notes, created_at`

func (r *CartRepo) ListByBuyer(ctx context.Context, buyerID string) ([]CartLine, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+cartCols+` FROM cart_lines WHERE buyer_id=$1 ORDER BY created_at, menu_id`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.BuyerID, &l.MenuID, &l.SellerID, &l.StoreName, &l.MenuName,
			&l.UnitPrice, &l.Quantity, &l.Notes, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Upsert: qty <= 0 diperlakukan sbg removal, bukan baris qty nol.
// UnitPrice & nama di-snapshot dari tabel menus saat insert.
func (r *CartRepo) Upsert(ctx context.Context, buyerID, menuID string, qty int, notes string) error {
	if qty <= 0 {
		return r.Remove(ctx, buyerID, menuID)
	}
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO cart_lines(buyer_id, menu_id, seller_id, store_name, menu_name, unit_price, qty, notes)
		SELECT $1, m.id, m.seller_id, m.store_name, m.name, m.price, $3, $4
		FROM menus m WHERE m.id = $2
		ON CONFLICT (buyer_id, menu_id) DO UPDATE SET qty = EXCLUDED.qty, notes = EXCLUDED.notes
	`, buyerID, menuID, qty, notes)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound // menu tidak ada
	}
	return nil
}

func (r *CartRepo) Remove(ctx context.Context, buyerID, menuID string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_lines WHERE buyer_id=$1 AND menu_id=$2`, buyerID, menuID)
	return err
}

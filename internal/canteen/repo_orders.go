package canteen

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepo struct{ DB *pgxpool.Pool }

// CreateForGroup: satu tx per seller group. Urutan di dalam tx:
//  1. kurangi stok tiap line secara kondisional (stock >= qty); kalau ada
//     yg kurang -> rollback seluruh group, order tidak dibuat sama sekali
//  2. insert order (status pending) + order_items
//  3. hapus cart line buyer utk seller ini (hanya group yg commit)
//
// Stok di-cek ulang saat commit, bukan saat add-to-cart, jadi race antar
// buyer diselesaikan oleh conditional update itu sendiri.
func (r *OrderRepo) CreateForGroup(ctx context.Context, g SellerGroup, pay PaymentMethod) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	buyerID := g.Lines[0].BuyerID

	for _, l := range g.Lines {
		ct, err := tx.Exec(ctx, `
			UPDATE menus SET stock = stock - $2, updated_at = now()
			WHERE id = $1 AND stock >= $2`, l.MenuID, l.Quantity)
		if err != nil {
			return Order{}, err
		}
		if ct.RowsAffected() == 1 {
			continue
		}
		// gagal: ambil stok terkini utk pesan error yg spesifik
		var avail int
		err = tx.QueryRow(ctx, `SELECT stock FROM menus WHERE id=$1`, l.MenuID).Scan(&avail)
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		if err != nil {
			return Order{}, err
		}
		return Order{}, &InsufficientStockError{
			MenuID: l.MenuID, MenuName: l.MenuName, Required: l.Quantity, Available: avail,
		}
	}

	o := Order{
		ID:            uuid.NewString(),
		BuyerID:       buyerID,
		SellerID:      g.SellerID,
		StoreName:     g.StoreName,
		TotalAmount:   g.Subtotal,
		PaymentMethod: pay,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, buyer_id, seller_id, store_name, total_amount, payment_method, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		o.ID, o.BuyerID, o.SellerID, o.StoreName, o.TotalAmount, string(o.PaymentMethod), string(o.Status), o.CreatedAt,
	); err != nil {
		return Order{}, err
	}

	for _, l := range g.Lines {
		it := OrderLine{MenuID: l.MenuID, MenuName: l.MenuName, UnitPrice: l.UnitPrice, Quantity: l.Quantity, Notes: l.Notes}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, menu_id, menu_name, unit_price, qty, notes)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, it.MenuID, it.MenuName, it.UnitPrice, it.Quantity, it.Notes,
		); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM cart_lines WHERE buyer_id=$1 AND seller_id=$2`, buyerID, g.SellerID); err != nil {
		return Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

const orderCols = `id, buyer_id, seller_id, store_name, total_amount, payment_method, status, created_at, completed_at, cancelled_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var pay, status string
	err := row.Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.StoreName, &o.TotalAmount,
		&pay, &status, &o.CreatedAt, &o.CompletedAt, &o.CancelledAt)
	o.PaymentMethod = PaymentMethod(pay)
	o.Status = Status(status)
	return o, err
}

func (r *OrderRepo) loadItems(ctx context.Context, orders []Order) error {
	for i := range orders {
		rows, err := r.DB.Query(ctx, `
			SELECT menu_id, menu_name, unit_price, qty, notes
			FROM order_items WHERE order_id=$1 ORDER BY menu_id`, orders[i].ID)
		if err != nil {
			return err
		}
		for rows.Next() {
			var it OrderLine
			if err := rows.Scan(&it.MenuID, &it.MenuName, &it.UnitPrice, &it.Quantity, &it.Notes); err != nil {
				rows.Close()
				return err
			}
			orders[i].Items = append(orders[i].Items, it)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	tmp := []Order{o}
	if err := r.loadItems(ctx, tmp); err != nil {
		return nil, err
	}
	return &tmp[0], nil
}

// List by buyer atau seller (salah satu boleh kosong).
func (r *OrderRepo) List(ctx context.Context, buyerID, sellerID string) ([]Order, error) {
	q := `SELECT ` + orderCols + ` FROM orders WHERE ($1 = '' OR buyer_id = $1) AND ($2 = '' OR seller_id = $2) ORDER BY created_at DESC`
	rows, err := r.DB.Query(ctx, q, buyerID, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActive: order yg masih berjalan (belum terminal, belum ready), bahan
// scan utk monitor. Items ikut dimuat karena estimasi butuh total qty.
func (r *OrderRepo) ListActive(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderCols+` FROM orders
		WHERE status IN ('pending','confirmed','preparing') ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel: transisi status adalah titik serialisasi. Conditional update dgn
// expected prior status menjamin restore stok jalan tepat satu kali walau
// cancel dipanggil berulang / paralel.
func (r *OrderRepo) Cancel(ctx context.Context, orderID string) (bool, []RestoredLine, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status='cancelled', cancelled_at=now()
		WHERE id=$1 AND status IN ('pending','confirmed')`, orderID)
	if err != nil {
		return false, nil, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil, nil // sudah terminal / sedang dimasak; caller yg klasifikasi
	}

	// restore pakai qty tersimpan di order_items, bukan turunan dari stok
	// sekarang, supaya tidak ada compounding error
	rows, err := tx.Query(ctx, `SELECT menu_id, qty FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return false, nil, err
	}
	var restored []RestoredLine
	for rows.Next() {
		var rl RestoredLine
		if err := rows.Scan(&rl.MenuID, &rl.Qty); err != nil {
			rows.Close()
			return false, nil, err
		}
		restored = append(restored, rl)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, nil, err
	}

	for _, rl := range restored {
		if _, err := tx.Exec(ctx,
			`UPDATE menus SET stock = stock + $2, updated_at = now() WHERE id=$1`, rl.MenuID, rl.Qty); err != nil {
			return false, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, nil, err
	}
	return true, restored, nil
}

// Advance: compare-and-swap status. false kalau status sudah bergeser
// (request paralel menang duluan).
func (r *OrderRepo) Advance(ctx context.Context, orderID string, from, to Status) (bool, error) {
	q := `UPDATE orders SET status=$3 WHERE id=$1 AND status=$2`
	if to == StatusCompleted {
		q = `UPDATE orders SET status=$3, completed_at=now() WHERE id=$1 AND status=$2`
	}
	ct, err := r.DB.Exec(ctx, q, orderID, string(from), string(to))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

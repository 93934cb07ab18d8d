package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"storefront/pkg/order"
)

// CreateUser inserts a user row and returns its id. Accounts are owned by
// the auth service; this exists for seeding and tests.
func (r *Repository) CreateUser(ctx context.Context, name, email, role string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (name, email, role) VALUES ($1, $2, $3) RETURNING user_id",
		name, nullString(email), role).Scan(&id)
	return id, err
}

// Begin opens a checkout transaction. Product rows read by LockCart are
// locked with FOR UPDATE until the transaction ends.
func (r *Repository) Begin(ctx context.Context) (order.Tx, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, txErr(err)
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) LockCart(ctx context.Context, userID int64) ([]order.CartLine, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT c.product_id, p.name, c.quantity, p.price, p.stock
		 FROM cart c JOIN products p ON c.product_id = p.product_id
		 WHERE c.user_id = $1
		 ORDER BY c.product_id
		 FOR UPDATE OF c, p`, userID)
	if err != nil {
		return nil, txErr(err)
	}
	defer rows.Close()
	var lines []order.CartLine
	for rows.Next() {
		var l order.CartLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Quantity, &l.Price, &l.Stock); err != nil {
			return nil, txErr(err)
		}
		lines = append(lines, l)
	}
	return lines, txErr(rows.Err())
}

func (t *pgTx) DecrementStock(ctx context.Context, productID int64, qty int) error {
	return txErr(decrementStock(ctx, t.tx, productID, qty))
}

func (t *pgTx) InsertOrder(ctx context.Context, o *order.Order) error {
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, total_amount, order_status, address, alt_phone)
		 VALUES ($1, $2, $3, $4, $5) RETURNING order_id, created_at`,
		o.UserID, o.Total, o.Status, nullString(o.Address), nullString(o.AltPhone)).
		Scan(&o.ID, &o.CreatedAt)
	return txErr(err)
}

// InsertLines bulk-loads the order items with COPY.
func (t *pgTx) InsertLines(ctx context.Context, orderID int64, lines []order.Line) error {
	stmt, err := t.tx.PrepareContext(ctx, pq.CopyIn("order_items", "order_id", "product_id", "quantity", "price"))
	if err != nil {
		return txErr(err)
	}
	defer stmt.Close()
	for _, l := range lines {
		if _, err := stmt.ExecContext(ctx, orderID, l.ProductID, l.Quantity, l.UnitPrice); err != nil {
			return txErr(err)
		}
	}
	_, err = stmt.ExecContext(ctx)
	return txErr(err)
}

func (t *pgTx) InsertPayment(ctx context.Context, p order.Payment) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO payments (order_id, payment_method, payment_status) VALUES ($1, $2, $3)",
		p.OrderID, p.Method, p.Status)
	return txErr(err)
}

func (t *pgTx) ClearCart(ctx context.Context, userID int64, productIDs []int64) error {
	_, err := t.tx.ExecContext(ctx,
		"DELETE FROM cart WHERE user_id=$1 AND product_id = ANY($2)", userID, pq.Array(productIDs))
	return txErr(err)
}

func (t *pgTx) Commit() error {
	return txErr(t.tx.Commit())
}

func (t *pgTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// Get retrieves an order with its lines and payment.
func (r *Repository) Get(ctx context.Context, id int64) (order.Order, error) {
	var (
		o        order.Order
		address  sql.NullString
		altPhone sql.NullString
		method   sql.NullString
		status   sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT o.order_id, o.user_id, o.total_amount, o.order_status, o.address, o.alt_phone, o.created_at,
		        p.payment_method, p.payment_status
		 FROM orders o LEFT JOIN payments p ON p.order_id = o.order_id
		 WHERE o.order_id = $1`, id).
		Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &address, &altPhone, &o.CreatedAt, &method, &status)
	if err == sql.ErrNoRows {
		return order.Order{}, order.ErrNotFound
	}
	if err != nil {
		return order.Order{}, err
	}
	o.Address, o.AltPhone = address.String, altPhone.String
	o.Payment = order.Payment{OrderID: o.ID, Method: order.PaymentMethod(method.String), Status: order.PaymentStatus(status.String)}

	rows, err := r.db.QueryContext(ctx,
		"SELECT product_id, quantity, price FROM order_items WHERE order_id=$1 ORDER BY order_item_id", id)
	if err != nil {
		return order.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l order.Line
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.UnitPrice); err != nil {
			return order.Order{}, err
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

// List returns order summaries, newest first.
func (r *Repository) List(ctx context.Context) ([]order.Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.order_id, o.user_id, COALESCE(u.name, ''), o.total_amount, o.order_status, o.created_at,
		       COALESCE(o.address, ''), COALESCE(o.alt_phone, ''),
		       COALESCE(p.payment_method, ''), COALESCE(p.payment_status, ''),
		       COALESCE(string_agg(oi.quantity || ' x ' || pr.name, ', ' ORDER BY oi.order_item_id), '')
		FROM orders o
		LEFT JOIN users u ON o.user_id = u.user_id
		LEFT JOIN payments p ON o.order_id = p.order_id
		LEFT JOIN order_items oi ON o.order_id = oi.order_id
		LEFT JOIN products pr ON oi.product_id = pr.product_id
		GROUP BY o.order_id, u.name, p.payment_method, p.payment_status
		ORDER BY o.created_at DESC, o.order_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []order.Summary{}
	for rows.Next() {
		var s order.Summary
		if err := rows.Scan(&s.ID, &s.UserID, &s.UserName, &s.Total, &s.Status, &s.CreatedAt,
			&s.Address, &s.AltPhone, &s.PaymentMethod, &s.PaymentStatus, &s.Items); err != nil {
			return nil, err
		}
		orders = append(orders, s)
	}
	return orders, rows.Err()
}

// UpdateStatus sets an order's status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, st order.Status) error {
	res, err := r.db.ExecContext(ctx, "UPDATE orders SET order_status=$2 WHERE order_id=$1", id, st)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}

// UpdatePaymentStatus sets the status of an order's payment.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id int64, st order.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE payments SET payment_status=$2 WHERE order_id=$1", id, st)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}

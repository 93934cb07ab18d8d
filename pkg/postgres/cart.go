package postgres

import (
	"context"

	"storefront/pkg/cart"
	"storefront/pkg/catalog"
)

// Items returns the user's cart lines joined with products.
func (r *Repository) Items(ctx context.Context, userID int64) ([]cart.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.product_id, p.name, p.price, p.image_url, c.quantity
		 FROM cart c JOIN products p ON c.product_id = p.product_id
		 WHERE c.user_id = $1 ORDER BY c.product_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []cart.Item{}
	for rows.Next() {
		var it cart.Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.ImageURL, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AddQuantity creates or increments a cart line.
func (r *Repository) AddQuantity(ctx context.Context, userID, productID int64, qty int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cart (user_id, product_id, quantity) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart.quantity + EXCLUDED.quantity`,
		userID, productID, qty)
	if isForeignKeyViolation(err) {
		return catalog.ErrNotFound
	}
	return err
}

// SetQuantity overwrites an existing cart line's quantity.
func (r *Repository) SetQuantity(ctx context.Context, userID, productID int64, qty int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE cart SET quantity=$3 WHERE user_id=$1 AND product_id=$2", userID, productID, qty)
	return err
}

// Remove deletes a cart line.
func (r *Repository) Remove(ctx context.Context, userID, productID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cart WHERE user_id=$1 AND product_id=$2", userID, productID)
	return err
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/pkg/catalog"
)

// CategoryID returns the id of the named category, creating it if needed.
func (r *Repository) CategoryID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING category_id`, name).Scan(&id)
	return id, err
}

// CreateProduct inserts p and returns its id. p.Category may be a tag
// string; its first tag is resolved with CategoryID.
func (r *Repository) CreateProduct(ctx context.Context, p catalog.Product) (int64, error) {
	var category sql.NullInt64
	if name := catalog.PrimaryCategory(p.Category); name != "" {
		id, err := r.CategoryID(ctx, name)
		if err != nil {
			return 0, fmt.Errorf("category %q: %w", name, err)
		}
		category = sql.NullInt64{Int64: id, Valid: true}
	}
	image := p.ImageURL
	if image == "" {
		image = "default.jpg"
	}
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (name, image_url, price, stock, category_id)
		 VALUES ($1, $2, $3, $4, $5) RETURNING product_id`,
		p.Name, image, p.Price, p.Stock, category).Scan(&id)
	return id, err
}

// GetProduct retrieves a product by ID.
func (r *Repository) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	var p catalog.Product
	err := r.db.QueryRowContext(ctx,
		`SELECT p.product_id, p.name, p.price, p.stock, p.image_url, COALESCE(c.name, '')
		 FROM products p LEFT JOIN categories c ON p.category_id = c.category_id
		 WHERE p.product_id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.ImageURL, &p.Category)
	if err == sql.ErrNoRows {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, err
}

// GetStock returns a product's stock.
func (r *Repository) GetStock(ctx context.Context, id int64) (int, error) {
	var stock int
	err := r.db.QueryRowContext(ctx, "SELECT stock FROM products WHERE product_id=$1", id).Scan(&stock)
	if err == sql.ErrNoRows {
		return 0, catalog.ErrNotFound
	}
	return stock, err
}

// DecrementStock removes amount units if available.
func (r *Repository) DecrementStock(ctx context.Context, id int64, amount int) error {
	if amount <= 0 {
		return catalog.ErrInvalidQuantity
	}
	return decrementStock(ctx, r.db, id, amount)
}

// decrementStock checks sufficiency in the UPDATE itself so concurrent
// callers can never take stock below zero.
func decrementStock(ctx context.Context, q queryer, id int64, amount int) error {
	res, err := q.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1 WHERE product_id = $2 AND stock >= $1", amount, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	return shortfall(ctx, q, id)
}

// shortfall explains a conditional stock update that matched no row.
func shortfall(ctx context.Context, q queryer, id int64) error {
	var name string
	err := q.QueryRowContext(ctx, "SELECT name FROM products WHERE product_id=$1", id).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return catalog.ErrNotFound
	case err != nil:
		return err
	}
	return &catalog.InsufficientStockError{ProductID: id, Name: name}
}

// AdjustStock adds delta to stock unless the result would be negative.
func (r *Repository) AdjustStock(ctx context.Context, id int64, delta int) (int, error) {
	var stock int
	err := r.db.QueryRowContext(ctx,
		`UPDATE products SET stock = stock + $1
		 WHERE product_id = $2 AND stock + $1 >= 0
		 RETURNING stock`, delta, id).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, shortfall(ctx, r.db, id)
	}
	return stock, err
}

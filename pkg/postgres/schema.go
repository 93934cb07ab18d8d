package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id    BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT UNIQUE,
		role       TEXT NOT NULL DEFAULT 'customer',
		address    TEXT,
		phone_no   TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		category_id BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		product_id  BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url   TEXT NOT NULL DEFAULT 'default.jpg',
		price       NUMERIC(10,2) NOT NULL CHECK (price >= 0),
		stock       INTEGER NOT NULL CHECK (stock >= 0),
		popular     BOOLEAN NOT NULL DEFAULT false,
		category_id BIGINT REFERENCES categories(category_id),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS cart (
		user_id    BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL REFERENCES products(product_id) ON DELETE CASCADE,
		quantity   INTEGER NOT NULL CHECK (quantity > 0),
		PRIMARY KEY (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id     BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(user_id),
		total_amount NUMERIC(12,2) NOT NULL CHECK (total_amount >= 0),
		order_status TEXT NOT NULL DEFAULT 'Pending'
			CHECK (order_status IN ('Pending', 'Shipped', 'Delivered', 'Cancelled')),
		address      TEXT,
		alt_phone    TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_item_id BIGSERIAL PRIMARY KEY,
		order_id      BIGINT NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
		product_id    BIGINT NOT NULL REFERENCES products(product_id),
		quantity      INTEGER NOT NULL CHECK (quantity > 0),
		price         NUMERIC(10,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
	`CREATE TABLE IF NOT EXISTS payments (
		payment_id     BIGSERIAL PRIMARY KEY,
		order_id       BIGINT NOT NULL UNIQUE REFERENCES orders(order_id) ON DELETE CASCADE,
		payment_method TEXT NOT NULL CHECK (payment_method IN ('COD', 'Credit_Card', 'Paypal')),
		payment_status TEXT NOT NULL CHECK (payment_status IN ('Complete', 'Incomplete'))
	)`,
}

// Migrate creates the schema if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// Package cart manages each customer's pending product selections.
package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Item is a cart line joined with its product.
type Item struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Quantity  int             `json:"quantity"`
}

// Repository persists cart lines keyed by (user, product).
type Repository interface {
	Items(ctx context.Context, userID int64) ([]Item, error)
	// AddQuantity creates the line or increments an existing one.
	AddQuantity(ctx context.Context, userID, productID int64, qty int) error
	SetQuantity(ctx context.Context, userID, productID int64, qty int) error
	Remove(ctx context.Context, userID, productID int64) error
}

// ErrInvalidInput indicates a bad product id or quantity.
var ErrInvalidInput = errors.New("invalid product ID or quantity")

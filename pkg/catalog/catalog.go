// Package catalog defines products and the stock ledger that guards their
// remaining quantity.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry.
type Product struct {
	ID       int64           `json:"product_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	ImageURL string          `json:"image_url"`
	Category string          `json:"category_name,omitempty"`
}

// Reader looks up products.
type Reader interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
}

// Ledger is the authoritative per-product stock counter. Implementations must
// check sufficiency in the same step that mutates stock.
type Ledger interface {
	Reader
	GetStock(ctx context.Context, id int64) (int, error)
	DecrementStock(ctx context.Context, id int64, amount int) error
	// AdjustStock applies an administrative delta and returns the new stock.
	AdjustStock(ctx context.Context, id int64, delta int) (int, error)
}

var (
	// ErrNotFound indicates the requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrInsufficientStock matches every *InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity indicates a non-positive decrement.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// InsufficientStockError reports the product whose stock cannot cover a
// request.
type InsufficientStockError struct {
	ProductID int64
	Name      string
}

func (e *InsufficientStockError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("insufficient stock for product %s", e.Name)
	}
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

// Is makes errors.Is(err, ErrInsufficientStock) true.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// PrimaryCategory returns the first tag of a tag string such as
// "#watches #electronics", or "" when there is none.
func PrimaryCategory(s string) string {
	if tags := ParseTags(s); len(tags) > 0 {
		return tags[0]
	}
	return ""
}

// ParseTags splits a "#watches #electronics" tag string into names, in order.
// The first tag is the product's primary category.
func ParseTags(s string) []string {
	var tags []string
	for _, f := range strings.Fields(s) {
		if t := strings.TrimSpace(strings.TrimLeft(f, "#")); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

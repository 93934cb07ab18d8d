package cart

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"storefront/pkg/catalog"
	"storefront/pkg/logger"
	"storefront/pkg/otel"
)

// Service validates cart mutations against the catalog before storing them.
type Service struct {
	repo     Repository
	products catalog.Reader
	log      *logger.Logger
}

// NewService returns a cart Service.
func NewService(repo Repository, products catalog.Reader, log *logger.Logger) *Service {
	return &Service{repo: repo, products: products, log: log}
}

// Add puts qty units of a product in the cart, incrementing any existing line.
// A zero qty adds one unit.
func (s *Service) Add(ctx context.Context, userID, productID int64, qty int) error {
	ctx, span := otel.AddSpan(ctx, "cart.Add", attribute.Int64("product_id", productID))
	defer span.End()

	if qty == 0 {
		qty = 1
	}
	if productID <= 0 || qty < 1 {
		return ErrInvalidInput
	}
	if err := s.checkStock(ctx, productID, qty); err != nil {
		return err
	}
	if err := s.repo.AddQuantity(ctx, userID, productID, qty); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	s.log.Debug(ctx, "cart line added", "user_id", userID, "product_id", productID, "quantity", qty)
	return nil
}

// Update sets the line's quantity; zero removes the line.
func (s *Service) Update(ctx context.Context, userID, productID int64, qty int) error {
	ctx, span := otel.AddSpan(ctx, "cart.Update", attribute.Int64("product_id", productID))
	defer span.End()

	if productID <= 0 || qty < 0 {
		return ErrInvalidInput
	}
	if err := s.checkStock(ctx, productID, qty); err != nil {
		return err
	}
	if qty == 0 {
		return s.Remove(ctx, userID, productID)
	}
	if err := s.repo.SetQuantity(ctx, userID, productID, qty); err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	return nil
}

// Remove deletes the line if present.
func (s *Service) Remove(ctx context.Context, userID, productID int64) error {
	if productID <= 0 {
		return ErrInvalidInput
	}
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	return nil
}

// Items lists the user's cart.
func (s *Service) Items(ctx context.Context, userID int64) ([]Item, error) {
	ctx, span := otel.AddSpan(ctx, "cart.Items")
	defer span.End()

	items, err := s.repo.Items(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return items, nil
}

// checkStock is advisory; order creation re-validates under lock.
func (s *Service) checkStock(ctx context.Context, productID int64, qty int) error {
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if qty > p.Stock {
		return &catalog.InsufficientStockError{ProductID: p.ID, Name: p.Name}
	}
	return nil
}

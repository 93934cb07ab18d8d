// Package order turns carts into orders and serves the administrative order
// views.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"storefront/pkg/catalog"
	"storefront/pkg/logger"
	"storefront/pkg/otel"
)

// DefaultTxTimeout bounds a checkout transaction when none is configured.
const DefaultTxTimeout = 5 * time.Second

// Service implements checkout and order administration on top of a Store.
type Service struct {
	store     Store
	pub       Publisher
	log       *logger.Logger
	txTimeout time.Duration
}

// NewService returns a Service. pub may be nil.
func NewService(store Store, pub Publisher, log *logger.Logger, txTimeout time.Duration) *Service {
	if txTimeout <= 0 {
		txTimeout = DefaultTxTimeout
	}
	return &Service{store: store, pub: pub, log: log, txTimeout: txTimeout}
}

// CreateOrder converts the user's cart into an order in one transaction:
// stock is decremented, the order, its lines and its payment are inserted and
// the cart is cleared. On any error nothing is changed.
func (s *Service) CreateOrder(ctx context.Context, req CreateRequest) (int64, error) {
	ctx, span := otel.AddSpan(ctx, "order.CreateOrder",
		attribute.Int64("user_id", req.UserID),
		attribute.String("payment_method", string(req.PaymentMethod)),
	)
	defer span.End()

	if !req.PaymentMethod.Valid() {
		return 0, fmt.Errorf("%w: payment method %q", ErrInvalidInput, req.PaymentMethod)
	}
	if req.UserID <= 0 {
		return 0, fmt.Errorf("%w: missing user", ErrInvalidInput)
	}

	s.log.Info(ctx, "order creation started", "user_id", req.UserID, "payment_method", req.PaymentMethod)

	o, err := s.place(ctx, req)
	if err != nil {
		err = classify(err)
		span.RecordError(err)
		s.log.Warn(ctx, "order creation rolled back", "user_id", req.UserID, "error", err)
		return 0, err
	}
	s.log.Info(ctx, "order committed", "user_id", req.UserID, "order_id", o.ID, "total", o.Total.StringFixed(2))

	if s.pub != nil {
		if err := s.pub.OrderPlaced(ctx, o); err != nil {
			s.log.Error(ctx, "publish order placed", "order_id", o.ID, "error", err)
		}
	}
	return o.ID, nil
}

func (s *Service) place(ctx context.Context, req CreateRequest) (Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	cart, err := tx.LockCart(ctx, req.UserID)
	if err != nil {
		return Order{}, fmt.Errorf("load cart: %w", err)
	}
	if len(cart) == 0 {
		return Order{}, ErrEmptyCart
	}

	lines := make([]Line, 0, len(cart))
	ordered := make([]int64, 0, len(cart))
	for _, c := range cart {
		if err := tx.DecrementStock(ctx, c.ProductID, c.Quantity); err != nil {
			var se *catalog.InsufficientStockError
			if errors.As(err, &se) && se.Name == "" {
				se.Name = c.Name
			}
			return Order{}, err
		}
		lines = append(lines, Line{ProductID: c.ProductID, Quantity: c.Quantity, UnitPrice: c.Price})
		ordered = append(ordered, c.ProductID)
	}

	o := Order{
		UserID:   req.UserID,
		Total:    Total(lines),
		Status:   StatusPending,
		Address:  req.Address,
		AltPhone: req.AltPhone,
	}
	if err := tx.InsertOrder(ctx, &o); err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	if err := tx.InsertLines(ctx, o.ID, lines); err != nil {
		return Order{}, fmt.Errorf("insert order items: %w", err)
	}
	o.Lines = lines

	o.Payment = Payment{OrderID: o.ID, Method: req.PaymentMethod, Status: req.PaymentMethod.InitialStatus()}
	if err := tx.InsertPayment(ctx, o.Payment); err != nil {
		return Order{}, fmt.Errorf("insert payment: %w", err)
	}
	if err := tx.ClearCart(ctx, req.UserID, ordered); err != nil {
		return Order{}, fmt.Errorf("clear cart: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Order{}, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

// classify keeps business-rule errors and folds everything else into
// ErrTransactionFailed.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, ErrTransactionFailed):
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
}

// GetOrder returns an order with its lines and payment.
func (s *Service) GetOrder(ctx context.Context, id int64) (Order, error) {
	ctx, span := otel.AddSpan(ctx, "order.GetOrder", attribute.Int64("order_id", id))
	defer span.End()
	return s.store.Get(ctx, id)
}

// ListOrders returns every order, newest first.
func (s *Service) ListOrders(ctx context.Context) ([]Summary, error) {
	ctx, span := otel.AddSpan(ctx, "order.ListOrders")
	defer span.End()

	orders, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus sets the order's status. No transition is forbidden.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, st Status) error {
	ctx, span := otel.AddSpan(ctx, "order.UpdateOrderStatus", attribute.Int64("order_id", id))
	defer span.End()

	if !st.Valid() {
		return fmt.Errorf("%w: order status %q", ErrInvalidInput, st)
	}
	if err := s.store.UpdateStatus(ctx, id, st); err != nil {
		return err
	}
	s.log.Info(ctx, "order status updated", "order_id", id, "order_status", st)
	return nil
}

// UpdatePaymentStatus sets the status of the order's payment.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id int64, st PaymentStatus) error {
	ctx, span := otel.AddSpan(ctx, "order.UpdatePaymentStatus", attribute.Int64("order_id", id))
	defer span.End()

	if !st.Valid() {
		return fmt.Errorf("%w: payment status %q", ErrInvalidInput, st)
	}
	if err := s.store.UpdatePaymentStatus(ctx, id, st); err != nil {
		return err
	}
	s.log.Info(ctx, "payment status updated", "order_id", id, "payment_status", st)
	return nil
}

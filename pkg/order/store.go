package order

import "context"

// Store persists orders. Begin opens the transaction used by checkout; the
// remaining methods are single-statement administrative operations.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	Get(ctx context.Context, id int64) (Order, error)
	List(ctx context.Context) ([]Summary, error)
	UpdateStatus(ctx context.Context, id int64, s Status) error
	UpdatePaymentStatus(ctx context.Context, id int64, s PaymentStatus) error
}

// Tx is one checkout transaction spanning products, cart, orders, lines and
// payments. Nothing done through a Tx is visible to others until Commit.
// Rollback after Commit is a no-op.
type Tx interface {
	// LockCart returns the user's cart lines joined with their products,
	// ordered by product id. The product rows stay locked until the Tx ends.
	LockCart(ctx context.Context, userID int64) ([]CartLine, error)
	// DecrementStock subtracts qty if and only if stock covers it, returning
	// a *catalog.InsufficientStockError otherwise.
	DecrementStock(ctx context.Context, productID int64, qty int) error
	// InsertOrder stores o and fills in its ID and CreatedAt.
	InsertOrder(ctx context.Context, o *Order) error
	InsertLines(ctx context.Context, orderID int64, lines []Line) error
	InsertPayment(ctx context.Context, p Payment) error
	// ClearCart deletes the user's cart lines for productIDs only. Lines
	// added after LockCart stay in the cart.
	ClearCart(ctx context.Context, userID int64, productIDs []int64) error
	Commit() error
	Rollback() error
}

// Publisher announces committed orders.
type Publisher interface {
	OrderPlaced(ctx context.Context, o Order) error
}

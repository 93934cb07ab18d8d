package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfilment state of an order.
type Status string

// Order statuses. Any status may be changed to any other.
const (
	StatusPending   Status = "Pending"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// PaymentMethod is the tag a customer picks at checkout.
type PaymentMethod string

const (
	MethodCashOnDelivery PaymentMethod = "COD"
	MethodCreditCard     PaymentMethod = "Credit_Card"
	MethodPaypal         PaymentMethod = "Paypal"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCashOnDelivery, MethodCreditCard, MethodPaypal:
		return true
	}
	return false
}

// InitialStatus is the payment status recorded at checkout. Card and Paypal
// payments are treated as pre-authorized.
func (m PaymentMethod) InitialStatus() PaymentStatus {
	if m == MethodCashOnDelivery {
		return PaymentIncomplete
	}
	return PaymentComplete
}

// PaymentStatus records whether money has been collected.
type PaymentStatus string

const (
	PaymentComplete   PaymentStatus = "Complete"
	PaymentIncomplete PaymentStatus = "Incomplete"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	return s == PaymentComplete || s == PaymentIncomplete
}

// Order represents a customer purchase. Total and Lines never change after
// creation.
type Order struct {
	ID        int64           `json:"order_id"`
	UserID    int64           `json:"user_id"`
	Total     decimal.Decimal `json:"total_amount"`
	Status    Status          `json:"order_status"`
	Address   string          `json:"address"`
	AltPhone  string          `json:"alt_phone,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Lines     []Line          `json:"items"`
	Payment   Payment         `json:"payment"`
}

// Line is one purchased product with the price paid.
type Line struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

// Payment is the single payment record of an order.
type Payment struct {
	OrderID int64         `json:"order_id"`
	Method  PaymentMethod `json:"payment_method"`
	Status  PaymentStatus `json:"payment_status"`
}

// CartLine is a cart entry joined with the current catalog row, read inside
// the order transaction.
type CartLine struct {
	ProductID int64
	Name      string
	Quantity  int
	Price     decimal.Decimal
	Stock     int
}

// Summary is the administrative view of an order.
type Summary struct {
	ID            int64           `json:"order_id"`
	UserID        int64           `json:"user_id"`
	UserName      string          `json:"user_name"`
	Total         decimal.Decimal `json:"total_amount"`
	Status        Status          `json:"order_status"`
	CreatedAt     time.Time       `json:"created_at"`
	Address       string          `json:"address"`
	AltPhone      string          `json:"alt_phone,omitempty"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Items         string          `json:"items"`
}

// CreateRequest carries checkout input for an authenticated user.
type CreateRequest struct {
	UserID        int64
	Address       string
	AltPhone      string
	PaymentMethod PaymentMethod
}

var (
	// ErrNotFound indicates the requested order or payment does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidInput indicates a missing field or a disallowed enum value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyCart indicates checkout with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrTransactionFailed indicates a persistence failure; the whole request
	// may be retried.
	ErrTransactionFailed = errors.New("transaction failed")
)

// Total sums quantity × price over lines.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

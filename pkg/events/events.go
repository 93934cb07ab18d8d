// Package events publishes order lifecycle messages for downstream services
// such as fulfilment.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"storefront/pkg/order"
)

// QueueOrdersPlaced receives one message per committed order.
const QueueOrdersPlaced = "orders.placed"

// OrderPlaced is the message body published after checkout commits.
type OrderPlaced struct {
	OrderID       int64               `json:"order_id"`
	UserID        int64               `json:"user_id"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
	Items         []Item              `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
}

// Item is one order line in an OrderPlaced message.
type Item struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Encode renders the message for o.
func Encode(o order.Order) ([]byte, error) {
	msg := OrderPlaced{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Total:         o.Total,
		PaymentMethod: o.Payment.Method,
		Items:         make([]Item, 0, len(o.Lines)),
		CreatedAt:     o.CreatedAt,
	}
	for _, l := range o.Lines {
		msg.Items = append(msg.Items, Item{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return json.Marshal(msg)
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

// OrderPlaced implements order.Publisher.
func (Nop) OrderPlaced(context.Context, order.Order) error { return nil }

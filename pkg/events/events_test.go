package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/order"
)

func TestEncodeOrderPlaced(t *testing.T) {
	created := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	o := order.Order{
		ID:        12,
		UserID:    3,
		Total:     decimal.RequireFromString("20.00"),
		CreatedAt: created,
		Lines:     []order.Line{{ProductID: 42, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")}},
		Payment:   order.Payment{OrderID: 12, Method: order.MethodCashOnDelivery, Status: order.PaymentIncomplete},
	}

	raw, err := Encode(o)
	require.NoError(t, err)

	var msg OrderPlaced
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, int64(12), msg.OrderID)
	assert.Equal(t, order.MethodCashOnDelivery, msg.PaymentMethod)
	assert.True(t, msg.Total.Equal(o.Total))
	require.Len(t, msg.Items, 1)
	assert.Equal(t, int64(42), msg.Items[0].ProductID)
	assert.True(t, msg.CreatedAt.Equal(created))
}

func TestNopPublisher(t *testing.T) {
	var p order.Publisher = Nop{}
	assert.NoError(t, p.OrderPlaced(context.Background(), order.Order{ID: 1}))
}

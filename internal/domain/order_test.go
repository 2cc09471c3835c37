package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	for _, raw := range []string{"PENDING", "PROCESSING", "SHIPPED", "DELIVERED", "CANCELED"} {
		status, ok := ParseOrderStatus(raw)
		assert.True(t, ok)
		assert.Equal(t, OrderStatus(raw), status)
	}

	for _, raw := range []string{"", "pending", "REFUNDED", "CANCELLED"} {
		_, ok := ParseOrderStatus(raw)
		assert.False(t, ok, raw)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.Terminal())
	assert.True(t, OrderStatusCanceled.Terminal())
	assert.False(t, OrderStatusPending.Terminal())
	assert.False(t, OrderStatusProcessing.Terminal())
	assert.False(t, OrderStatusShipped.Terminal())
}

func TestLineItemSubtotal(t *testing.T) {
	item := LineItem{Quantity: 3, UnitPrice: decimal.RequireFromString("25.50")}
	assert.Equal(t, "76.50", item.Subtotal().StringFixed(2))

	single := LineItem{Quantity: 1, UnitPrice: decimal.RequireFromString("0.01")}
	assert.Equal(t, "0.01", single.Subtotal().StringFixed(2))
}

func TestProductAvailable(t *testing.T) {
	inStock := Product{Stock: 1}
	soldOut := Product{Stock: 0}
	assert.True(t, inStock.Available())
	assert.False(t, soldOut.Available())
}

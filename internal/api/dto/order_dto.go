package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/order-service/internal/domain"
)

// OrderCreateRequest payload for order creation.
type OrderCreateRequest struct {
	UserID int64              `json:"user_id"`
	Items  []OrderItemRequest `json:"items"`
}

// OrderItemRequest is one requested product+quantity pair.
type OrderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// OrderStatusRequest payload for status updates.
type OrderStatusRequest struct {
	Status string `json:"status"`
}

// LineItemResponse is the outward shape of a line item.
type LineItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderResponse is the outward shape of an order.
type OrderResponse struct {
	ID           int64              `json:"id"`
	ReferenceKey string             `json:"reference_key"`
	UserID       int64              `json:"user_id"`
	Total        decimal.Decimal    `json:"total"`
	Status       domain.OrderStatus `json:"status"`
	Items        []LineItemResponse `json:"items"`
	CreatedAt    time.Time          `json:"created_at"`
}

// NewOrderResponse maps a domain order with its line items.
func NewOrderResponse(order *domain.Order) OrderResponse {
	items := make([]LineItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, LineItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal(),
		})
	}
	return OrderResponse{
		ID:           order.ID,
		ReferenceKey: order.ReferenceKey,
		UserID:       order.UserID,
		Total:        order.Total,
		Status:       order.Status,
		Items:        items,
		CreatedAt:    order.CreatedAt,
	}
}

// NewOrderListResponse maps a slice of orders.
func NewOrderListResponse(orders []domain.Order) []OrderResponse {
	result := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, NewOrderResponse(&orders[i]))
	}
	return result
}

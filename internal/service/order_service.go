package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/order-service/internal/cache"
	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/events"
	"github.com/spec-kit/order-service/internal/repository"
	apperrors "github.com/spec-kit/order-service/pkg/util"
)

// OrderService is the order engine. It owns order creation, the order
// lifecycle and the stock-adjustment protocol tied to both. Creation and
// cancellation run inside one database transaction: order rows, line items
// and every stock write commit together or not at all.
type OrderService struct {
	users      repository.UserRepository
	orders     repository.OrderRepository
	uow        repository.UnitOfWork
	cache      *cache.ProductCache
	dispatcher events.Dispatcher
}

// OrderDependencies bundles requirements for the order engine.
type OrderDependencies struct {
	UserRepo   repository.UserRepository
	OrderRepo  repository.OrderRepository
	UnitOfWork repository.UnitOfWork
	Cache      *cache.ProductCache
	Dispatcher events.Dispatcher
}

// OrderItemInput is one requested product+quantity pair.
type OrderItemInput struct {
	ProductID int64
	Quantity  int
}

// NewOrderService builds the engine.
func NewOrderService(deps OrderDependencies) *OrderService {
	return &OrderService{
		users:      deps.UserRepo,
		orders:     deps.OrderRepo,
		uow:        deps.UnitOfWork,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
	}
}

// Create validates every requested item, captures each product's current
// price as the line item's fixed unit price, persists the order in PENDING
// and decrements stock — all in one transaction. Stock for all items is
// validated before any decrement happens; the conditional decrement guards
// against concurrent orders draining the same product.
func (s *OrderService) Create(ctx context.Context, userID int64, items []OrderItemInput) (*domain.Order, error) {
	var order *domain.Order
	var touched []int64

	err := s.uow.WithinTx(ctx, func(stores repository.Stores) error {
		if _, err := stores.Users.GetByID(ctx, userID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("user", map[string]any{"id": userID})
			}
			return err
		}
		if len(items) == 0 {
			return apperrors.NewValidationError("order must contain at least one item", nil)
		}

		lineItems := make([]domain.LineItem, 0, len(items))
		total := decimal.Zero
		for _, item := range items {
			if item.Quantity <= 0 {
				return apperrors.NewValidationError("quantity must be greater than 0", map[string]any{"product_id": item.ProductID})
			}
			product, err := stores.Products.GetByID(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperrors.NewNotFound("product", map[string]any{"id": item.ProductID})
				}
				return err
			}
			if product.Stock < item.Quantity {
				return insufficientStock(product.Name)
			}
			line := domain.LineItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
			}
			lineItems = append(lineItems, line)
			total = total.Add(line.Subtotal())
		}

		order = &domain.Order{
			ReferenceKey: generateOrderKey(),
			UserID:       userID,
			Total:        total,
			Status:       domain.OrderStatusPending,
			Items:        lineItems,
		}
		if err := stores.Orders.Create(ctx, order); err != nil {
			return err
		}

		// Stock is only decremented once the order record exists. A lost
		// race on the conditional update aborts the whole transaction.
		for i := range order.Items {
			item := &order.Items[i]
			product, err := stores.Products.AdjustStock(ctx, item.ProductID, -item.Quantity)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return insufficientStockByID(ctx, stores, item.ProductID)
				}
				return err
			}
			touched = append(touched, product.ID)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.cache.Invalidate(ctx, touched...)
	s.publish(ctx, events.Event{
		Type:    events.EventOrderCreated,
		OrderID: order.ID,
		UserID:  order.UserID,
		Payload: events.OrderCreatedPayload{
			ReferenceKey: order.ReferenceKey,
			Total:        order.Total,
			ItemCount:    len(order.Items),
		},
	})
	return order, nil
}

// GetByID fetches an order with its line items.
func (s *OrderService) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return order, nil
}

// ListByUser returns a user's orders, newest first. An empty list is a
// valid result; a missing user is not.
func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return orders, nil
}

// ListByStatus returns orders in the given status, newest first.
func (s *OrderService) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	orders, err := s.orders.ListByStatus(ctx, status)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return orders, nil
}

// ListAll returns every order, newest first.
func (s *OrderService) ListAll(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return orders, nil
}

// ListItems returns the line items of an order in insertion order.
func (s *OrderService) ListItems(ctx context.Context, orderID int64) ([]domain.LineItem, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order.Items, nil
}

// UpdateStatus overwrites the order status unconditionally. Only Cancel
// enforces a transition guard.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := order.Status
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, apperrors.MapError(err)
	}
	order.Status = status

	s.publish(ctx, events.Event{
		Type:    events.EventOrderStatusChanged,
		OrderID: order.ID,
		UserID:  order.UserID,
		Payload: events.OrderStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: status,
		},
	})
	return order, nil
}

// Cancel restores stock by each line item's captured quantity and sets the
// status to CANCELED, as one transaction. Only DELIVERED orders are
// protected; re-canceling a CANCELED order restores stock again, matching
// the observed legacy behavior.
func (s *OrderService) Cancel(ctx context.Context, id int64) (*domain.Order, error) {
	var order *domain.Order
	var touched []int64

	err := s.uow.WithinTx(ctx, func(stores repository.Stores) error {
		var err error
		order, err = stores.Orders.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("order", map[string]any{"id": id})
			}
			return err
		}
		if order.Status == domain.OrderStatusDelivered {
			return apperrors.NewValidationError("cannot cancel a delivered order", map[string]any{"id": id})
		}

		for _, item := range order.Items {
			product, err := stores.Products.AdjustStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperrors.NewNotFound("product", map[string]any{"id": item.ProductID})
				}
				return err
			}
			touched = append(touched, product.ID)
		}

		if err := stores.Orders.UpdateStatus(ctx, id, domain.OrderStatusCanceled); err != nil {
			return err
		}
		order.Status = domain.OrderStatusCanceled
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.cache.Invalidate(ctx, touched...)
	s.publish(ctx, events.Event{
		Type:    events.EventOrderCanceled,
		OrderID: order.ID,
		UserID:  order.UserID,
		Payload: events.OrderCanceledPayload{
			RestoredItems: len(order.Items),
		},
	})
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func insufficientStock(productName string) error {
	return apperrors.NewValidationError(fmt.Sprintf("insufficient stock for %s", productName), nil)
}

// insufficientStockByID resolves the product name for the error message
// after a conditional decrement found no matching row.
func insufficientStockByID(ctx context.Context, stores repository.Stores, productID int64) error {
	product, err := stores.Products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("product", map[string]any{"id": productID})
		}
		return err
	}
	return insufficientStock(product.Name)
}

func generateOrderKey() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

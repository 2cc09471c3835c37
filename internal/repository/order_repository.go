package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/order-service/internal/domain"
)

// OrderRepository encapsulates order and line-item persistence. Orders are
// inserted and transitioned, never deleted, except through the user cascade.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	ListItems(ctx context.Context, orderID int64) ([]domain.LineItem, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

type orderRepository struct {
	db DBTX
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, reference_key, user_id, total, status, created_at`

// Create persists the order and its line items, filling generated ids and
// the creation timestamp. Run it inside a unit of work so the stock writes
// that follow share its transaction.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	const orderQuery = `
        INSERT INTO orders (reference_key, user_id, total, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if err := r.db.QueryRow(ctx, orderQuery,
		order.ReferenceKey,
		order.UserID,
		order.Total,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt); err != nil {
		return err
	}

	const itemQuery = `
        INSERT INTO line_items (order_id, product_id, quantity, unit_price)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := r.db.QueryRow(ctx, itemQuery,
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
		).Scan(&item.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE orders SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	var order domain.Order
	if err := scanOrder(r.db.QueryRow(ctx, query, id), &order); err != nil {
		return nil, err
	}
	items, err := r.ListItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`
	return r.fetchMany(ctx, query, userID)
}

func (r *orderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status=$1 ORDER BY created_at DESC`
	return r.fetchMany(ctx, query, status)
}

func (r *orderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.fetchMany(ctx, query)
}

// ListItems returns line items in insertion order.
func (r *orderRepository) ListItems(ctx context.Context, orderID int64) ([]domain.LineItem, error) {
	const query = `
        SELECT id, order_id, product_id, quantity, unit_price
        FROM line_items WHERE order_id=$1 ORDER BY id`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteByUser removes a user's orders and their line items. Only the
// account cascade calls this; no order-level delete operation exists.
func (r *orderRepository) DeleteByUser(ctx context.Context, userID int64) error {
	const itemQuery = `
        DELETE FROM line_items
        WHERE order_id IN (SELECT id FROM orders WHERE user_id=$1)`
	if _, err := r.db.Exec(ctx, itemQuery, userID); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `DELETE FROM orders WHERE user_id=$1`, userID)
	return err
}

func (r *orderRepository) fetchMany(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		items, err := r.ListItems(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Items = items
	}
	return result, nil
}

func scanOrder(row pgx.Row, order *domain.Order) error {
	return row.Scan(
		&order.ID,
		&order.ReferenceKey,
		&order.UserID,
		&order.Total,
		&order.Status,
		&order.CreatedAt,
	)
}

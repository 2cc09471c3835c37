package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/repository"
)

// memoryStore is a deterministic in-memory stand-in for the Postgres
// repositories. Its unit of work snapshots state before running the
// transaction body and restores it on error, mirroring a rollback.
type memoryStore struct {
	users    map[int64]domain.User
	products map[int64]domain.Product
	orders   map[int64]domain.Order

	nextUserID    int64
	nextProductID int64
	nextOrderID   int64
	nextItemID    int64

	base time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:    make(map[int64]domain.User),
		products: make(map[int64]domain.Product),
		orders:   make(map[int64]domain.Order),
		base:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *memoryStore) stores() repository.Stores {
	return repository.Stores{
		Users:    &memUserRepo{store: s},
		Products: &memProductRepo{store: s},
		Orders:   &memOrderRepo{store: s},
	}
}

func (s *memoryStore) snapshot() *memoryStore {
	clone := &memoryStore{
		users:         make(map[int64]domain.User, len(s.users)),
		products:      make(map[int64]domain.Product, len(s.products)),
		orders:        make(map[int64]domain.Order, len(s.orders)),
		nextUserID:    s.nextUserID,
		nextProductID: s.nextProductID,
		nextOrderID:   s.nextOrderID,
		nextItemID:    s.nextItemID,
		base:          s.base,
	}
	for id, user := range s.users {
		clone.users[id] = user
	}
	for id, product := range s.products {
		clone.products[id] = product
	}
	for id, order := range s.orders {
		items := make([]domain.LineItem, len(order.Items))
		copy(items, order.Items)
		order.Items = items
		clone.orders[id] = order
	}
	return clone
}

func (s *memoryStore) restore(snap *memoryStore) {
	s.users = snap.users
	s.products = snap.products
	s.orders = snap.orders
	s.nextUserID = snap.nextUserID
	s.nextProductID = snap.nextProductID
	s.nextOrderID = snap.nextOrderID
	s.nextItemID = snap.nextItemID
}

func (s *memoryStore) addUser(name, email, password string) domain.User {
	s.nextUserID++
	user := domain.User{
		ID:           s.nextUserID,
		Name:         name,
		Email:        email,
		Password:     password,
		Address:      "1 Main St",
		Phone:        "555-0100",
		RegisteredAt: s.base,
	}
	s.users[user.ID] = user
	return user
}

func (s *memoryStore) addProduct(name string, price string, stock int) domain.Product {
	s.nextProductID++
	product := domain.Product{
		ID:        s.nextProductID,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		CreatedAt: s.base,
		UpdatedAt: s.base,
	}
	s.products[product.ID] = product
	return product
}

type memUnitOfWork struct {
	store *memoryStore
}

func (u *memUnitOfWork) WithinTx(_ context.Context, fn func(repository.Stores) error) error {
	snap := u.store.snapshot()
	if err := fn(u.store.stores()); err != nil {
		u.store.restore(snap)
		return err
	}
	return nil
}

type memUserRepo struct {
	store *memoryStore
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.store.nextUserID++
	user.ID = r.store.nextUserID
	user.RegisteredAt = r.store.base
	r.store.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.store.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.store.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.store.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.users, id)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.store.users {
		if user.Email == email {
			match := user
			return &match, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) GetByCredentials(_ context.Context, email, password string) (*domain.User, error) {
	for _, user := range r.store.users {
		if user.Email == email && user.Password == password {
			match := user
			return &match, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	result := make([]domain.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type memProductRepo struct {
	store *memoryStore
}

func (r *memProductRepo) Create(_ context.Context, product *domain.Product) error {
	r.store.nextProductID++
	product.ID = r.store.nextProductID
	product.CreatedAt = r.store.base
	product.UpdatedAt = r.store.base
	r.store.products[product.ID] = *product
	return nil
}

func (r *memProductRepo) Update(_ context.Context, product *domain.Product) error {
	if _, ok := r.store.products[product.ID]; !ok {
		return pgx.ErrNoRows
	}
	product.UpdatedAt = r.store.base.Add(time.Duration(product.ID) * time.Minute)
	r.store.products[product.ID] = *product
	return nil
}

func (r *memProductRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.store.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.products, id)
	return nil
}

func (r *memProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	product, ok := r.store.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &product, nil
}

func (r *memProductRepo) List(_ context.Context) ([]domain.Product, error) {
	return r.collect(func(domain.Product) bool { return true }), nil
}

func (r *memProductRepo) ListAvailable(_ context.Context) ([]domain.Product, error) {
	return r.collect(func(p domain.Product) bool { return p.Stock > 0 }), nil
}

func (r *memProductRepo) SearchByName(_ context.Context, name string) ([]domain.Product, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	return r.collect(func(p domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}), nil
}

func (r *memProductRepo) ListByPriceRange(_ context.Context, min, max decimal.Decimal) ([]domain.Product, error) {
	result := r.collect(func(p domain.Product) bool {
		return p.Price.GreaterThanOrEqual(min) && p.Price.LessThanOrEqual(max)
	})
	sort.Slice(result, func(i, j int) bool { return result[i].Price.LessThan(result[j].Price) })
	return result, nil
}

func (r *memProductRepo) AdjustStock(_ context.Context, id int64, delta int) (*domain.Product, error) {
	product, ok := r.store.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if product.Stock+delta < 0 {
		return nil, pgx.ErrNoRows
	}
	product.Stock += delta
	r.store.products[id] = product
	return &product, nil
}

func (r *memProductRepo) collect(keep func(domain.Product) bool) []domain.Product {
	var result []domain.Product
	for _, product := range r.store.products {
		if keep(product) {
			result = append(result, product)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

type memOrderRepo struct {
	store *memoryStore
}

func (r *memOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.store.nextOrderID++
	order.ID = r.store.nextOrderID
	order.CreatedAt = r.store.base.Add(time.Duration(order.ID) * time.Minute)
	for i := range order.Items {
		r.store.nextItemID++
		order.Items[i].ID = r.store.nextItemID
		order.Items[i].OrderID = order.ID
	}
	stored := *order
	stored.Items = make([]domain.LineItem, len(order.Items))
	copy(stored.Items, order.Items)
	r.store.orders[order.ID] = stored
	return nil
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus) error {
	order, ok := r.store.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	order.Status = status
	r.store.orders[id] = order
	return nil
}

func (r *memOrderRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	order, ok := r.store.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	items := make([]domain.LineItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return &order, nil
}

func (r *memOrderRepo) ListByUser(_ context.Context, userID int64) ([]domain.Order, error) {
	return r.collect(func(o domain.Order) bool { return o.UserID == userID }), nil
}

func (r *memOrderRepo) ListByStatus(_ context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return r.collect(func(o domain.Order) bool { return o.Status == status }), nil
}

func (r *memOrderRepo) ListAll(_ context.Context) ([]domain.Order, error) {
	return r.collect(func(domain.Order) bool { return true }), nil
}

func (r *memOrderRepo) ListItems(ctx context.Context, orderID int64) ([]domain.LineItem, error) {
	order, err := r.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order.Items, nil
}

func (r *memOrderRepo) DeleteByUser(_ context.Context, userID int64) error {
	for id, order := range r.store.orders {
		if order.UserID == userID {
			delete(r.store.orders, id)
		}
	}
	return nil
}

func (r *memOrderRepo) collect(keep func(domain.Order) bool) []domain.Order {
	var result []domain.Order
	for _, order := range r.store.orders {
		if keep(order) {
			items := make([]domain.LineItem, len(order.Items))
			copy(items, order.Items)
			order.Items = items
			result = append(result, order)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

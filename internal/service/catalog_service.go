package service

import (
	"context"
	"errors"
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

// CatalogService manages products and the stock-adjustment contract. All
// stock mutations go through AdjustStock or the order engine's unit of
// work; nothing overwrites the counter blindly.
type CatalogService struct {
	products   repository.ProductRepository
	cache      *cache.ProductCache
	dispatcher events.Dispatcher
}

// CatalogDependencies bundles requirements for the catalog service.
type CatalogDependencies struct {
	ProductRepo repository.ProductRepository
	Cache       *cache.ProductCache
	Dispatcher  events.Dispatcher
}

// ProductInput describes product create/update payloads.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Image       *string
}

// NewCatalogService builds the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		products:   deps.ProductRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
	}
}

// Create validates and persists a new product.
func (s *CatalogService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	product := &domain.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price.Round(2),
		Stock:       input.Stock,
		Image:       input.Image,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return product, nil
}

// GetByID fetches a product, serving repeated reads from the cache.
func (s *CatalogService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if cached := s.cache.Get(ctx, id); cached != nil {
		return cached, nil
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	s.cache.Set(ctx, product)
	return product, nil
}

// List returns the whole catalog.
func (s *CatalogService) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return products, nil
}

// ListAvailable returns products with stock remaining.
func (s *CatalogService) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListAvailable(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return products, nil
}

// Search matches product names case-insensitively.
func (s *CatalogService) Search(ctx context.Context, name string) ([]domain.Product, error) {
	products, err := s.products.SearchByName(ctx, name)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return products, nil
}

// ListByPriceRange returns products within [min, max], cheapest first.
func (s *CatalogService) ListByPriceRange(ctx context.Context, min, max decimal.Decimal) ([]domain.Product, error) {
	products, err := s.products.ListByPriceRange(ctx, min, max)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return products, nil
}

// Update overwrites every mutable field and refreshes the update timestamp.
func (s *CatalogService) Update(ctx context.Context, id int64, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = strings.TrimSpace(input.Description)
	product.Price = input.Price.Round(2)
	product.Stock = input.Stock
	product.Image = input.Image

	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	s.cache.Invalidate(ctx, id)
	return product, nil
}

// Delete removes a product from the catalog.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("product", map[string]any{"id": id})
		}
		return apperrors.NewInternalError(err)
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

// AdjustStock applies a signed delta to the stock counter, rejecting any
// adjustment that would leave it negative.
func (s *CatalogService) AdjustStock(ctx context.Context, id int64, delta int) (*domain.Product, error) {
	if _, err := s.products.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}

	product, err := s.products.AdjustStock(ctx, id, delta)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("insufficient stock available", map[string]any{"id": id, "delta": delta})
		}
		return nil, apperrors.NewInternalError(err)
	}
	s.cache.Invalidate(ctx, id)
	s.publishStockAdjusted(ctx, product, delta)
	return product, nil
}

// IsAvailable reports whether a product has stock remaining.
func (s *CatalogService) IsAvailable(ctx context.Context, id int64) (bool, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return product.Available(), nil
}

func (s *CatalogService) publishStockAdjusted(ctx context.Context, product *domain.Product, delta int) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventStockAdjusted,
		Timestamp: time.Now(),
		Payload: events.StockAdjustedPayload{
			ProductID: product.ID,
			Delta:     delta,
			NewStock:  product.Stock,
		},
	})
}

const (
	maxProductNameLength        = 100
	maxProductDescriptionLength = 500
)

func validateProductInput(input ProductInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return apperrors.NewValidationError("name is required", nil)
	}
	if len(name) > maxProductNameLength {
		return apperrors.NewValidationError("name must not exceed 100 characters", nil)
	}
	if len(strings.TrimSpace(input.Description)) > maxProductDescriptionLength {
		return apperrors.NewValidationError("description must not exceed 500 characters", nil)
	}
	if !input.Price.IsPositive() {
		return apperrors.NewValidationError("price must be greater than 0", nil)
	}
	if input.Stock < 0 {
		return apperrors.NewValidationError("stock cannot be negative", nil)
	}
	return nil
}

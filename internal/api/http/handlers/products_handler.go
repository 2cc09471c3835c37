package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/order-service/internal/api/dto"
	"github.com/spec-kit/order-service/internal/service"
	apperrors "github.com/spec-kit/order-service/pkg/util"
)

// ProductsHandler exposes catalog endpoints.
type ProductsHandler struct {
	catalog *service.CatalogService
}

// NewProductsHandler constructs handler.
func NewProductsHandler(catalog *service.CatalogService) *ProductsHandler {
	return &ProductsHandler{catalog: catalog}
}

// List handles GET /api/products.
func (h *ProductsHandler) List(c *fiber.Ctx) error {
	products, err := h.catalog.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductListResponse(products)})
}

// Get handles GET /api/products/:id.
func (h *ProductsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.catalog.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// Create handles POST /api/products. Price and stock must both be present
// in the payload; the price>0 rule itself lives in the catalog service.
func (h *ProductsHandler) Create(c *fiber.Ctx) error {
	input, err := parseProductRequest(c)
	if err != nil {
		return err
	}
	product, err := h.catalog.Create(c.Context(), *input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// Update handles PUT /api/products/:id.
func (h *ProductsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	input, err := parseProductRequest(c)
	if err != nil {
		return err
	}
	product, err := h.catalog.Update(c.Context(), id, *input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// Delete handles DELETE /api/products/:id.
func (h *ProductsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.Delete(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Search handles GET /api/products/search?name=.
func (h *ProductsHandler) Search(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		return apperrors.NewValidationError("name query parameter required", nil)
	}
	products, err := h.catalog.Search(c.Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductListResponse(products)})
}

// Available handles GET /api/products/available.
func (h *ProductsHandler) Available(c *fiber.Ctx) error {
	products, err := h.catalog.ListAvailable(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductListResponse(products)})
}

// PriceRange handles GET /api/products/price-range?min=&max=.
func (h *ProductsHandler) PriceRange(c *fiber.Ctx) error {
	min, err := decimal.NewFromString(c.Query("min"))
	if err != nil {
		return apperrors.NewValidationError("invalid min price", nil)
	}
	max, err := decimal.NewFromString(c.Query("max"))
	if err != nil {
		return apperrors.NewValidationError("invalid max price", nil)
	}
	products, err := h.catalog.ListByPriceRange(c.Context(), min, max)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductListResponse(products)})
}

// AdjustStock handles PUT /api/products/:id/stock.
func (h *ProductsHandler) AdjustStock(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.StockAdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	product, err := h.catalog.AdjustStock(c.Context(), id, req.Delta)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

func parseProductRequest(c *fiber.Ctx) (*service.ProductInput, error) {
	var req dto.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Price == nil {
		return nil, apperrors.NewValidationError("price is required", nil)
	}
	if req.Stock == nil {
		return nil, apperrors.NewValidationError("stock is required", nil)
	}
	return &service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       *req.Stock,
		Image:       req.Image,
	}, nil
}
